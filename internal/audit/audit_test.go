package audit

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"
)

func TestJournal_RecordAndList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	j, err := Open(ctx, filepath.Join(t.TempDir(), "audit", "journal.sqlite"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer j.Close()
	j.now = func() time.Time { return time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC) }

	deny := model.Record{Key: "203.0.113.5", Class: model.ClassDeny}
	allow := model.Record{Key: "203.0.113.5", Class: model.ClassAllow}
	added := model.Record{Key: "spammer@example.com", Class: model.ClassDeny}

	if err := j.Record(ctx, "/var/db/spamdb", []store.Change{
		{Op: store.ChangeUpdate, Key: deny.Key, Before: &deny, After: &allow},
		{Op: store.ChangeAdd, Key: added.Key, After: &added},
	}); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, "/other/spamdb", []store.Change{{Op: store.ChangeRemove, Key: "x.example", Before: &deny}}); err != nil {
		t.Fatalf("Record other: %v", err)
	}
	if err := j.Record(ctx, "/var/db/spamdb", nil); err != nil {
		t.Fatalf("Record with no changes: %v", err)
	}

	got, err := j.List(ctx, "/var/db/spamdb", 0)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 entries; got %d", len(got))
	}
	// Newest first.
	if got[0].Op != "add" || got[0].Key != added.Key || got[0].Before != nil || got[0].After == nil {
		t.Fatalf("unexpected first entry: %#v", got[0])
	}
	if got[1].Before.Class != model.ClassDeny || got[1].After.Class != model.ClassAllow {
		t.Fatalf("update entry lost its record images: %#v", got[1])
	}
	if !got[1].CommittedAt.Equal(time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)) {
		t.Fatalf("unexpected timestamp: %v", got[1].CommittedAt)
	}

	limited, err := j.List(ctx, "/var/db/spamdb", 1)
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply; got %d", len(limited))
	}
}
