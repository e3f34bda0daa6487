package store

import (
	"errors"
	"slices"
	"testing"
	"time"

	"spamdb-curses/internal/model"
)

func keysOf(seq func(func(model.Record) bool)) []string {
	var out []string
	for r := range seq {
		out = append(out, r.Key)
	}
	return out
}

func TestNewDB_RejectsDuplicates(t *testing.T) {
	t.Parallel()

	_, err := NewDB(
		model.Record{Key: "203.0.113.5", Class: model.ClassDeny},
		model.Record{Key: "203.0.113.5", Class: model.ClassAllow},
	)
	if !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey; got %v", err)
	}
}

func TestDB_InsertUpdateRemove(t *testing.T) {
	t.Parallel()

	db, _ := NewDB()
	r := model.Record{Key: "203.0.113.5", Class: model.ClassDeny}
	if err := db.Insert(r); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if err := db.Insert(r); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey on second insert; got %v", err)
	}
	if err := db.Insert(model.Record{Key: "", Class: model.ClassDeny}); !errors.Is(err, model.ErrInvalid) {
		t.Fatalf("expected validation error; got %v", err)
	}

	r.Class = model.ClassAllow
	if err := db.Update(r.Key, r); err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got, _ := db.Get(r.Key); got.Class != model.ClassAllow {
		t.Fatalf("expected class allow after update; got %q", got.Class)
	}
	if err := db.Update("198.51.100.1", r); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound; got %v", err)
	}

	if err := db.Remove(r.Key); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if err := db.Remove(r.Key); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second remove; got %v", err)
	}
	if db.Len() != 0 {
		t.Fatalf("expected empty db; got %d", db.Len())
	}
}

func TestDB_UpdateRenamesKey(t *testing.T) {
	t.Parallel()

	db, _ := NewDB(
		model.Record{Key: "a.example", Class: model.ClassDeny},
		model.Record{Key: "b.example", Class: model.ClassDeny},
	)

	if err := db.Update("a.example", model.Record{Key: "b.example", Class: model.ClassDeny}); !errors.Is(err, ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey renaming onto existing key; got %v", err)
	}
	if err := db.Update("a.example", model.Record{Key: "c.example", Class: model.ClassAllow}); err != nil {
		t.Fatalf("Update rename: %v", err)
	}
	if got := keysOf(db.Find(nil)); !slices.Equal(got, []string{"b.example", "c.example"}) {
		t.Fatalf("unexpected keys after rename: %v", got)
	}
}

func TestDB_FindIsOrderedAndRestartable(t *testing.T) {
	t.Parallel()

	db, _ := NewDB(
		model.Record{Key: "c.example", Class: model.ClassDeny},
		model.Record{Key: "a.example", Class: model.ClassAllow},
		model.Record{Key: "b.example", Class: model.ClassDeny},
	)
	deny := func(r model.Record) bool { return r.Class == model.ClassDeny }

	seq := db.Find(deny)
	first := keysOf(seq)
	second := keysOf(seq)
	if !slices.Equal(first, []string{"b.example", "c.example"}) || !slices.Equal(first, second) {
		t.Fatalf("unexpected find results: %v then %v", first, second)
	}

	// Early break must be honored.
	n := 0
	for range db.Find(nil) {
		n++
		break
	}
	if n != 1 {
		t.Fatalf("expected iteration to stop after break")
	}
}

func TestDB_FindSorted(t *testing.T) {
	t.Parallel()

	db, _ := NewDB(
		model.Record{Key: "a.example", Class: model.ClassGreylist, Expires: ts("2030-01-01T00:00:00Z")},
		model.Record{Key: "b.example", Class: model.ClassDeny},
		model.Record{Key: "c.example", Class: model.ClassAllow, Expires: ts("2025-01-01T00:00:00Z")},
		model.Record{Key: "d.example", Class: model.ClassDeny, Expires: ts("2027-01-01T00:00:00Z")},
	)

	if got := keysOf(db.FindSorted(nil, SortByExpiry)); !slices.Equal(got, []string{"c.example", "d.example", "a.example", "b.example"}) {
		t.Fatalf("expiry order: %v", got)
	}
	if got := keysOf(db.FindSorted(nil, SortByClass)); !slices.Equal(got, []string{"c.example", "b.example", "d.example", "a.example"}) {
		t.Fatalf("class order: %v", got)
	}
	if got := SortByClass.Next(); got != SortByKey {
		t.Fatalf("sort order should wrap; got %v", got)
	}
}

func TestDB_PurgeExpired(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db, _ := NewDB(
		model.Record{Key: "old.example", Class: model.ClassGreylist, Expires: ts("2025-01-01T00:00:00Z")},
		model.Record{Key: "edge.example", Class: model.ClassGreylist, Expires: ts("2026-01-01T00:00:00Z")},
		model.Record{Key: "new.example", Class: model.ClassGreylist, Expires: ts("2027-01-01T00:00:00Z")},
		model.Record{Key: "perm.example", Class: model.ClassDeny},
	)

	if n := db.CountExpired(now); n != 2 {
		t.Fatalf("CountExpired=%d; want 2", n)
	}
	purged := db.PurgeExpired(now)
	if !slices.Equal(purged, []string{"edge.example", "old.example"}) {
		t.Fatalf("unexpected purged keys: %v", purged)
	}
	if got := keysOf(db.Find(nil)); !slices.Equal(got, []string{"new.example", "perm.example"}) {
		t.Fatalf("unexpected remaining keys: %v", got)
	}
}

func TestDB_CloneIsIndependent(t *testing.T) {
	t.Parallel()

	db, _ := NewDB(model.Record{Key: "a.example", Class: model.ClassDeny})
	c := db.Clone()
	_ = c.Remove("a.example")
	if db.Len() != 1 {
		t.Fatalf("mutating the clone changed the original")
	}
}

func TestDiff(t *testing.T) {
	t.Parallel()

	before := []model.Record{
		{Key: "a.example", Class: model.ClassDeny},
		{Key: "b.example", Class: model.ClassDeny},
		{Key: "c.example", Class: model.ClassDeny},
	}
	after := []model.Record{
		{Key: "b.example", Class: model.ClassAllow},
		{Key: "c.example", Class: model.ClassDeny},
		{Key: "d.example", Class: model.ClassGreylist},
	}

	changes := Diff(before, after)
	var got []string
	for _, c := range changes {
		got = append(got, string(c.Op)+":"+c.Key)
	}
	want := []string{"remove:a.example", "update:b.example", "add:d.example"}
	if !slices.Equal(got, want) {
		t.Fatalf("Diff=%v; want %v", got, want)
	}
	if changes[1].Before.Class != model.ClassDeny || changes[1].After.Class != model.ClassAllow {
		t.Fatalf("update change should carry both sides: %#v", changes[1])
	}
	if len(Diff(after, after)) != 0 {
		t.Fatalf("expected no changes for identical snapshots")
	}
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	db, _ := NewDB(
		model.Record{Key: "203.0.113.5", Class: model.ClassDeny},
		model.Record{Key: "203.0.113.9", Class: model.ClassGreylist, Expires: ts("2025-06-01T00:00:00Z")},
		model.Record{Key: "spammer@example.com", Class: model.ClassDeny, Note: "Reported by abuse desk"},
		model.Record{Key: "@partner.example", Class: model.ClassAllow},
	)

	cases := []struct {
		q    string
		want []string
	}{
		{q: "", want: []string{"203.0.113.5", "203.0.113.9", "@partner.example", "spammer@example.com"}},
		{q: "203.0.113", want: []string{"203.0.113.5", "203.0.113.9"}},
		{q: "ABUSE", want: []string{"spammer@example.com"}},
		{q: "is:deny", want: []string{"203.0.113.5", "spammer@example.com"}},
		{q: "is:white", want: []string{"@partner.example"}},
		{q: "is:expired", want: []string{"203.0.113.9"}},
		{q: "is:permanent 203", want: []string{"203.0.113.5"}},
		{q: "is:deny example", want: []string{"spammer@example.com"}},
		{q: "is:bogus", want: nil},
	}
	for _, tc := range cases {
		got := keysOf(db.Find(ParseQuery(tc.q, now)))
		if !slices.Equal(got, tc.want) {
			t.Fatalf("query %q: got %v; want %v", tc.q, got, tc.want)
		}
	}
}
