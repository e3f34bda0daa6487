package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseClassification_Aliases(t *testing.T) {
	t.Parallel()

	cases := map[string]Classification{
		"allow":    ClassAllow,
		"WHITE":    ClassAllow,
		" pass ":   ClassAllow,
		"deny":     ClassDeny,
		"trapped":  ClassDeny,
		"Black":    ClassDeny,
		"greylist": ClassGreylist,
		"gray":     ClassGreylist,
		"grey":     ClassGreylist,
	}
	for in, want := range cases {
		got, err := ParseClassification(in)
		if err != nil {
			t.Fatalf("ParseClassification(%q): %v", in, err)
		}
		if got != want {
			t.Fatalf("ParseClassification(%q)=%q; want %q", in, got, want)
		}
	}
	if _, err := ParseClassification("maybe"); err == nil {
		t.Fatalf("expected error for unknown classification")
	}
}

func TestClassification_CycleWraps(t *testing.T) {
	t.Parallel()

	if got := ClassGreylist.Next(); got != ClassAllow {
		t.Fatalf("greylist.Next()=%q; want allow", got)
	}
	if got := ClassAllow.Prev(); got != ClassGreylist {
		t.Fatalf("allow.Prev()=%q; want greylist", got)
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	past := time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		name  string
		rec   Record
		field string
	}{
		{name: "ipv4", rec: Record{Key: "203.0.113.5", Class: ClassDeny}},
		{name: "ipv6", rec: Record{Key: "2001:db8::1", Class: ClassAllow}},
		{name: "cidr", rec: Record{Key: "198.51.100.0/24", Class: ClassGreylist}},
		{name: "email", rec: Record{Key: "spammer@example.com", Class: ClassDeny}},
		{name: "sender domain", rec: Record{Key: "@example.org", Class: ClassDeny}},
		{name: "domain", rec: Record{Key: "mail.example.net", Class: ClassAllow}},
		{name: "past expiry allowed", rec: Record{Key: "203.0.113.5", Class: ClassDeny, Expires: &past}},
		{name: "empty key", rec: Record{Class: ClassDeny}, field: "key"},
		{name: "key with pipe", rec: Record{Key: "a|b", Class: ClassDeny}, field: "key"},
		{name: "key with space", rec: Record{Key: "a b", Class: ClassDeny}, field: "key"},
		{name: "garbage key", rec: Record{Key: "not_a_host", Class: ClassDeny}, field: "key"},
		{name: "bad email", rec: Record{Key: "x@", Class: ClassDeny}, field: "key"},
		{name: "bad class", rec: Record{Key: "203.0.113.5", Class: "maybe"}, field: "classification"},
		{name: "multiline note", rec: Record{Key: "203.0.113.5", Class: ClassDeny, Note: "a\nb"}, field: "note"},
	}
	for _, tc := range cases {
		err := Validate(tc.rec)
		if tc.field == "" {
			if err != nil {
				t.Fatalf("%s: unexpected error: %v", tc.name, err)
			}
			continue
		}
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%s: expected ValidationError; got %v", tc.name, err)
		}
		if ve.Field != tc.field {
			t.Fatalf("%s: field=%q; want %q", tc.name, ve.Field, tc.field)
		}
		if !errors.Is(err, ErrInvalid) {
			t.Fatalf("%s: expected errors.Is(err, ErrInvalid)", tc.name)
		}
	}
}

func TestNormalizeKey(t *testing.T) {
	t.Parallel()

	if got := NormalizeKey("  Spammer@Example.COM "); got != "spammer@example.com" {
		t.Fatalf("NormalizeKey(email)=%q", got)
	}
	if got := NormalizeKey(" 2001:DB8::1 "); got != "2001:DB8::1" {
		t.Fatalf("NormalizeKey(ipv6)=%q", got)
	}
	if got := NormalizeKey("Mail.Example.ORG"); got != "Mail.Example.ORG" {
		t.Fatalf("NormalizeKey(domain)=%q", got)
	}
}

func TestParseExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		in   string
		want *time.Time
	}{
		{in: "", want: nil},
		{in: "never", want: nil},
		{in: "2024-01-01T00:00:00Z", want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{in: "2024-01-01T01:00:00+01:00", want: ptrTime(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))},
		{in: "2024-06-30", want: ptrTime(time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC))},
		{in: "2024-06-30 08:15", want: ptrTime(time.Date(2024, 6, 30, 8, 15, 0, 0, time.UTC))},
		{in: "+7d", want: ptrTime(now.Add(7 * 24 * time.Hour))},
		{in: "+36h", want: ptrTime(now.Add(36 * time.Hour))},
		{in: "+106751d", want: ptrTime(now.Add(106751 * 24 * time.Hour))},
	}
	for _, tc := range cases {
		got, err := ParseExpiry(tc.in, now)
		if err != nil {
			t.Fatalf("ParseExpiry(%q): %v", tc.in, err)
		}
		if (got == nil) != (tc.want == nil) || (got != nil && !got.Equal(*tc.want)) {
			t.Fatalf("ParseExpiry(%q)=%v; want %v", tc.in, got, tc.want)
		}
	}

	for _, bad := range []string{"tomorrow", "+xd", "+-3h", "2024-13-01", "+110000d", "+200000d", "+9999999999999999999d"} {
		if _, err := ParseExpiry(bad, now); !errors.Is(err, ErrInvalid) {
			t.Fatalf("ParseExpiry(%q): expected ErrInvalid; got %v", bad, err)
		}
	}
}

func TestRecord_Expired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r := Record{Key: "203.0.113.5", Class: ClassGreylist}
	if r.Expired(now) {
		t.Fatalf("record without expiry must not be expired")
	}
	r.Expires = ptrTime(now)
	if !r.Expired(now) {
		t.Fatalf("expiry == now counts as expired")
	}
	r.Expires = ptrTime(now.Add(time.Second))
	if r.Expired(now) {
		t.Fatalf("future expiry must not be expired")
	}
}

func ptrTime(t time.Time) *time.Time { return &t }
