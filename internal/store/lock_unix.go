//go:build unix

package store

import (
	"errors"
	"os"

	"golang.org/x/sys/unix"
)

// acquireLock takes an exclusive flock on path without blocking. flock locks
// belong to the open file description, so a second Open in the same process
// conflicts just like a second process would.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, err
	}
	if err := unix.Flock(int(f.Fd()), unix.LOCK_EX|unix.LOCK_NB); err != nil {
		pid := readLockPID(f)
		_ = f.Close()
		if errors.Is(err, unix.EWOULDBLOCK) {
			return nil, &LockError{Path: path, PID: pid}
		}
		return nil, &os.PathError{Op: "flock", Path: path, Err: err}
	}
	l := &fileLock{path: path, f: f}
	l.writePID()
	return l, nil
}

func (l *fileLock) unlock() error {
	return unix.Flock(int(l.f.Fd()), unix.LOCK_UN)
}
