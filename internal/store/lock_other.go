//go:build !unix

package store

import (
	"errors"
	"os"
)

// acquireLock falls back to an O_EXCL lock file where flock is unavailable.
// A crashed session leaves the file behind; remove it by hand after checking
// the PID it names.
func acquireLock(path string) (*fileLock, error) {
	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			pid := 0
			if rf, rerr := os.Open(path); rerr == nil {
				pid = readLockPID(rf)
				_ = rf.Close()
			}
			return nil, &LockError{Path: path, PID: pid}
		}
		return nil, err
	}
	l := &fileLock{path: path, f: f, removeOnRelease: true}
	l.writePID()
	return l, nil
}

func (l *fileLock) unlock() error { return nil }
