package store

import (
	"io"
	"os"
	"strconv"
	"strings"
)

// fileLock is the advisory write lock on a spamdb file. It lives in a sidecar
// "<path>.lock" file rather than on the data file itself because commits
// replace the data file's inode.
type fileLock struct {
	path            string
	f               *os.File
	removeOnRelease bool
}

func lockPath(dbPath string) string { return dbPath + ".lock" }

func (l *fileLock) writePID() {
	if err := l.f.Truncate(0); err != nil {
		return
	}
	_, _ = l.f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
}

func (l *fileLock) release() error {
	if l == nil || l.f == nil {
		return nil
	}
	_ = l.f.Truncate(0)
	err := l.unlock()
	if cerr := l.f.Close(); err == nil {
		err = cerr
	}
	if l.removeOnRelease {
		_ = os.Remove(l.path)
	}
	l.f = nil
	return err
}

func readLockPID(f *os.File) int {
	b, err := io.ReadAll(io.NewSectionReader(f, 0, 32))
	if err != nil {
		return 0
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(b)))
	if err != nil || pid <= 0 {
		return 0
	}
	return pid
}
