package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"spamdb-curses/internal/logging"
	"spamdb-curses/internal/model"

	"github.com/charmbracelet/log"
	"lukechampine.com/blake3"
)

type Options struct {
	// Create allows opening a path that does not exist yet; the file is
	// written on the first commit.
	Create bool

	Logger *log.Logger
}

// Session is one editor's exclusive hold on a spamdb file: the advisory lock,
// the working DB and what was last read from or written to disk. Sessions are
// independent values; nothing about the open database is process-global.
type Session struct {
	path string
	lock *fileLock
	log  *log.Logger

	db        *DB
	committed []model.Record
	digest    digest
	perm      fs.FileMode
}

// Open locks path for writing and loads it. It never waits for the lock: if
// another editor holds it, Open returns a *LockError immediately.
func Open(path string, opts Options) (*Session, error) {
	if path == "" {
		return nil, errors.New("open: missing spamdb path")
	}
	abs, err := CanonicalPath(path)
	if err != nil {
		return nil, err
	}

	perm := fs.FileMode(0o644)
	st, err := os.Stat(abs)
	switch {
	case err == nil:
		if st.IsDir() {
			return nil, &os.PathError{Op: "open", Path: abs, Err: errors.New("is a directory")}
		}
		perm = st.Mode().Perm()
	case errors.Is(err, fs.ErrNotExist) && opts.Create:
		if _, derr := os.Stat(filepath.Dir(abs)); derr != nil {
			return nil, derr
		}
	default:
		return nil, err
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	lk, err := acquireLock(lockPath(abs))
	if err != nil {
		return nil, err
	}
	logger.Debug("lock acquired", "path", lk.path)

	s := &Session{path: abs, lock: lk, log: logger, perm: perm}
	if _, err := s.Load(); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

// Path is the canonical path of the file, as returned by CanonicalPath.
func (s *Session) Path() string { return s.path }

// CanonicalPath makes path absolute and resolves symlinks, so a commit
// replaces the link target and every name for the file shares one lock.
// A path that does not exist yet is only made absolute.
func CanonicalPath(path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	real, err := filepath.EvalSymlinks(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return abs, nil
		}
		return "", err
	}
	return real, nil
}

// DB returns the working set. The caller may mutate it; Commit persists it.
func (s *Session) DB() *DB { return s.db }

// Load (re)reads the file, replacing the working set. Pending edits are lost.
func (s *Session) Load() (*DB, error) {
	if s.lock == nil {
		return nil, ErrClosed
	}
	b, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}

	var d digest
	var recs []model.Record
	if err == nil {
		d = blake3.Sum256(b)
		recs, err = Decode(b)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", s.path, err)
		}
	}
	db, err := NewDB(recs...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", s.path, err)
	}

	s.db = db
	s.committed = db.Records()
	s.digest = d
	s.log.Info("loaded spamdb", "path", s.path, "records", db.Len())
	return db, nil
}

// Commit atomically replaces the file with the working set and returns what
// changed since the previous load or commit. If the file was modified by
// someone else in the meantime it returns ErrConflict and writes nothing.
func (s *Session) Commit(ctx context.Context) ([]Change, error) {
	return s.commit(ctx, false)
}

// ForceCommit is Commit without the external-modification check.
func (s *Session) ForceCommit(ctx context.Context) ([]Change, error) {
	return s.commit(ctx, true)
}

func (s *Session) commit(ctx context.Context, force bool) ([]Change, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if s.lock == nil {
		return nil, ErrClosed
	}

	if !force {
		cur, err := fileDigest(s.path)
		if err != nil {
			return nil, fmt.Errorf("commit %s: %w", s.path, err)
		}
		if cur != s.digest {
			return nil, fmt.Errorf("commit %s: %w", s.path, ErrConflict)
		}
	}

	recs := s.db.Records()
	b := Encode(recs)
	if err := atomicWriteFile(s.path, b, s.perm); err != nil {
		s.log.Error("commit failed", "path", s.path, "err", err)
		return nil, fmt.Errorf("commit %s: %w", s.path, err)
	}

	changes := Diff(s.committed, recs)
	s.committed = recs
	s.digest = blake3.Sum256(b)
	s.log.Info("committed spamdb", "path", s.path, "records", len(recs), "changes", len(changes), "forced", force)
	return changes, nil
}

// ExternallyModified reports whether the file on disk no longer matches what
// this session last loaded or committed.
func (s *Session) ExternallyModified() bool {
	if s.lock == nil {
		return false
	}
	cur, err := fileDigest(s.path)
	if err != nil {
		return false
	}
	return cur != s.digest
}

// Close releases the lock. It is safe to call more than once.
func (s *Session) Close() error {
	if s.lock == nil {
		return nil
	}
	err := s.lock.release()
	s.log.Debug("lock released", "path", s.lock.path)
	s.lock = nil
	return err
}

// ReadFile loads a spamdb file without taking the lock, for read-only tools.
func ReadFile(path string) (*DB, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	recs, err := Decode(b)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return NewDB(recs...)
}
