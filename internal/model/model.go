package model

import (
	"errors"
	"fmt"
	"net/netip"
	"regexp"
	"strings"
	"time"

	"github.com/goware/emailx"
)

// Classification is the disposition the mail server applies to a key.
type Classification string

const (
	ClassAllow    Classification = "allow"
	ClassDeny     Classification = "deny"
	ClassGreylist Classification = "greylist"
)

// Classifications lists the valid values in display order.
var Classifications = []Classification{ClassAllow, ClassDeny, ClassGreylist}

// ParseClassification accepts the canonical names and the common spamd-style
// aliases (white/black/grey/trapped), case-insensitively.
func ParseClassification(s string) (Classification, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "allow", "white", "whitelist", "pass":
		return ClassAllow, nil
	case "deny", "black", "blacklist", "trapped", "block":
		return ClassDeny, nil
	case "greylist", "grey", "gray", "graylist":
		return ClassGreylist, nil
	}
	return "", fmt.Errorf("unknown classification %q (want allow|deny|greylist)", s)
}

func (c Classification) Valid() bool {
	switch c {
	case ClassAllow, ClassDeny, ClassGreylist:
		return true
	}
	return false
}

// Next returns the classification after c in display order, wrapping around.
func (c Classification) Next() Classification {
	for i, v := range Classifications {
		if v == c {
			return Classifications[(i+1)%len(Classifications)]
		}
	}
	return Classifications[0]
}

// Prev returns the classification before c in display order, wrapping around.
func (c Classification) Prev() Classification {
	for i, v := range Classifications {
		if v == c {
			return Classifications[(i+len(Classifications)-1)%len(Classifications)]
		}
	}
	return Classifications[len(Classifications)-1]
}

type Record struct {
	Key     string         `json:"key"`
	Class   Classification `json:"classification"`
	Expires *time.Time     `json:"expires,omitempty"`
	Note    string         `json:"note,omitempty"`
}

// Expired reports whether r has an expiry at or before now.
func (r Record) Expired(now time.Time) bool {
	return r.Expires != nil && !r.Expires.After(now)
}

// Normalized returns a copy with the expiry in UTC at second precision.
// The on-disk format stores nothing finer, so comparisons after a round trip
// only hold for normalized records.
func (r Record) Normalized() Record {
	if r.Expires != nil {
		t := r.Expires.UTC().Truncate(time.Second)
		r.Expires = &t
	}
	return r
}

// Equal compares two records field by field (expiry by instant).
func (r Record) Equal(o Record) bool {
	if r.Key != o.Key || r.Class != o.Class || r.Note != o.Note {
		return false
	}
	if (r.Expires == nil) != (o.Expires == nil) {
		return false
	}
	return r.Expires == nil || r.Expires.Equal(*o.Expires)
}

var ErrInvalid = errors.New("invalid record")

type ValidationError struct {
	Field string
	Msg   string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Msg
}

func (e *ValidationError) Unwrap() error { return ErrInvalid }

var domainRe = regexp.MustCompile(`^(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?)(?:\.(?i:[a-z0-9](?:[a-z0-9-]{0,61}[a-z0-9])?))+\.?$`)

// ValidateKey checks that key is a syntactically usable identity: an IP
// address, a CIDR prefix, an email address, an "@domain" sender domain or a
// bare domain name.
func ValidateKey(key string) error {
	if key == "" {
		return &ValidationError{Field: "key", Msg: "must not be empty"}
	}
	if strings.ContainsAny(key, "| \t\r\n") {
		return &ValidationError{Field: "key", Msg: "must not contain whitespace or '|'"}
	}
	if _, err := netip.ParseAddr(key); err == nil {
		return nil
	}
	if _, err := netip.ParsePrefix(key); err == nil {
		return nil
	}
	if strings.HasPrefix(key, "@") {
		if domainRe.MatchString(key[1:]) {
			return nil
		}
		return &ValidationError{Field: "key", Msg: fmt.Sprintf("%q is not a valid sender domain", key)}
	}
	if strings.Contains(key, "@") {
		// Format check only; resolving the host would block the UI.
		if err := emailx.ValidateFast(key); err != nil {
			return &ValidationError{Field: "key", Msg: fmt.Sprintf("%q is not a valid email address", key)}
		}
		return nil
	}
	if domainRe.MatchString(key) {
		return nil
	}
	return &ValidationError{Field: "key", Msg: fmt.Sprintf("%q is not an address, network or domain", key)}
}

// NormalizeKey lowercases and trims email-style keys; other keys are only
// trimmed.
func NormalizeKey(key string) string {
	key = strings.TrimSpace(key)
	if strings.Contains(key, "@") && !strings.HasPrefix(key, "@") {
		return emailx.Normalize(key)
	}
	return key
}

// Validate enforces the field constraints of a Record. Expiries in the past
// are allowed; they just mean the record is already expired.
func Validate(r Record) error {
	if err := ValidateKey(r.Key); err != nil {
		return err
	}
	if !r.Class.Valid() {
		return &ValidationError{Field: "classification", Msg: fmt.Sprintf("%q is not one of allow|deny|greylist", string(r.Class))}
	}
	if r.Expires != nil && r.Expires.IsZero() {
		return &ValidationError{Field: "expiry", Msg: "zero timestamp"}
	}
	if strings.ContainsAny(r.Note, "\r\n") {
		return &ValidationError{Field: "note", Msg: "must be a single line"}
	}
	return nil
}
