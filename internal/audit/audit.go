// Package audit keeps a local SQLite history of committed spamdb changes.
//
// The spamdb file itself only holds the current state. The journal answers
// "who unblocked this address and when" after the fact. It is optional and
// never on the commit path's critical section: a journal failure is reported
// but does not undo a commit.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/user"
	"path/filepath"
	"time"

	"spamdb-curses/internal/model"
	"spamdb-curses/internal/store"

	_ "modernc.org/sqlite"
)

type Journal struct {
	db  *sql.DB
	now func() time.Time
}

type Entry struct {
	ID          int64         `json:"id"`
	CommittedAt time.Time     `json:"committedAt"`
	DBPath      string        `json:"dbPath"`
	User        string        `json:"user,omitempty"`
	Op          string        `json:"op"`
	Key         string        `json:"key"`
	Before      *model.Record `json:"before,omitempty"`
	After       *model.Record `json:"after,omitempty"`
}

// Open opens (creating if needed) the journal database at path.
func Open(ctx context.Context, path string) (*Journal, error) {
	if path == "" {
		return nil, errors.New("audit: missing journal path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	// modernc.org/sqlite driver name is "sqlite".
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// Several editors (one per spamdb file) may share a journal.
	pragmas := []string{
		"PRAGMA journal_mode=WAL;",
		"PRAGMA synchronous=NORMAL;",
		"PRAGMA busy_timeout=5000;",
	}
	for _, p := range pragmas {
		if _, err := db.ExecContext(ctx, p); err != nil {
			_ = db.Close()
			return nil, err
		}
	}
	if err := migrate(ctx, db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Journal{db: db, now: time.Now}, nil
}

func migrate(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS changes (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			committed_at_unixms INTEGER NOT NULL,
			db_path TEXT NOT NULL,
			actor TEXT NOT NULL,
			op TEXT NOT NULL,
			record_key TEXT NOT NULL,
			before_json TEXT,
			after_json TEXT
		);`,
		`CREATE INDEX IF NOT EXISTS idx_changes_path ON changes(db_path, committed_at_unixms);`,
	}
	for _, st := range stmts {
		if _, err := db.ExecContext(ctx, st); err != nil {
			return err
		}
	}
	return nil
}

func (j *Journal) Close() error {
	if j == nil || j.db == nil {
		return nil
	}
	return j.db.Close()
}

// Record stores one commit's changes in a single transaction.
func (j *Journal) Record(ctx context.Context, dbPath string, changes []store.Change) error {
	if len(changes) == 0 {
		return nil
	}
	tx, err := j.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	at := j.now().UTC().UnixMilli()
	who := currentUser()
	for _, c := range changes {
		before, err := recordJSON(c.Before)
		if err != nil {
			return err
		}
		after, err := recordJSON(c.After)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO changes(committed_at_unixms, db_path, actor, op, record_key, before_json, after_json) VALUES(?, ?, ?, ?, ?, ?, ?)`,
			at, dbPath, who, string(c.Op), c.Key, before, after,
		); err != nil {
			return fmt.Errorf("audit insert %s: %w", c.Key, err)
		}
	}
	return tx.Commit()
}

// List returns the newest entries for dbPath first. limit <= 0 means all.
func (j *Journal) List(ctx context.Context, dbPath string, limit int) ([]Entry, error) {
	q := `SELECT id, committed_at_unixms, db_path, actor, op, record_key, before_json, after_json
		FROM changes WHERE db_path = ? ORDER BY id DESC`
	args := []any{dbPath}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := j.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e             Entry
			ms            int64
			before, after sql.NullString
		)
		if err := rows.Scan(&e.ID, &ms, &e.DBPath, &e.User, &e.Op, &e.Key, &before, &after); err != nil {
			return nil, err
		}
		e.CommittedAt = time.UnixMilli(ms).UTC()
		if e.Before, err = parseRecordJSON(before); err != nil {
			return nil, err
		}
		if e.After, err = parseRecordJSON(after); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func recordJSON(r *model.Record) (sql.NullString, error) {
	if r == nil {
		return sql.NullString{}, nil
	}
	b, err := json.Marshal(r)
	if err != nil {
		return sql.NullString{}, err
	}
	return sql.NullString{String: string(b), Valid: true}, nil
}

func parseRecordJSON(s sql.NullString) (*model.Record, error) {
	if !s.Valid {
		return nil, nil
	}
	var r model.Record
	if err := json.Unmarshal([]byte(s.String), &r); err != nil {
		return nil, err
	}
	return &r, nil
}

func currentUser() string {
	if u, err := user.Current(); err == nil && u.Username != "" {
		return u.Username
	}
	return os.Getenv("USER")
}
