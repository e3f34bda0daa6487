package store

import (
	"errors"
	"fmt"
	"strconv"
)

var (
	ErrFormat       = errors.New("malformed spamdb file")
	ErrLocked       = errors.New("spamdb is locked by another editor")
	ErrDuplicateKey = errors.New("duplicate key")
	ErrNotFound     = errors.New("key not found")
	ErrConflict     = errors.New("spamdb file changed on disk since it was loaded")
	ErrClosed       = errors.New("session closed")
)

// FormatError reports the first fatal problem found while decoding, with the
// offending line.
type FormatError struct {
	Line int
	Text string
	Msg  string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("line %d: %s: %q", e.Line, e.Msg, e.Text)
}

func (e *FormatError) Unwrap() error { return ErrFormat }

// LockError is returned by Open when another process holds the write lock.
// PID is zero when the holder could not be determined.
type LockError struct {
	Path string
	PID  int
}

func (e *LockError) Error() string {
	msg := ErrLocked.Error() + " (" + e.Path
	if e.PID > 0 {
		msg += ", held by pid " + strconv.Itoa(e.PID)
	}
	return msg + ")"
}

func (e *LockError) Unwrap() error { return ErrLocked }

// IsLocked reports whether err means another writer holds the lock.
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}

// IsConflict reports whether a commit was refused because the file changed
// underneath the session.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
