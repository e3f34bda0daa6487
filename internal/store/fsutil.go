package store

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"

	"lukechampine.com/blake3"
)

// Indirections for fault-injection in tests.
var (
	renameFile = os.Rename
	syncFile   = func(f *os.File) error { return f.Sync() }
)

// atomicWriteFile writes b to a unique temp file next to path, fsyncs it and
// renames it over path. Readers see either the old or the new content. The
// temp file is removed on every failure path.
func atomicWriteFile(path string, b []byte, perm fs.FileMode) (err error) {
	dir := filepath.Dir(path)
	f, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	tmp := f.Name()
	defer func() {
		if err != nil {
			_ = os.Remove(tmp)
		}
	}()

	if _, err = f.Write(b); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Chmod(perm); err != nil {
		_ = f.Close()
		return err
	}
	if st, serr := os.Stat(path); serr == nil {
		// Only root can give the file away; otherwise the writer's owner stands.
		_ = copyOwner(f, st)
	}
	if err = syncFile(f); err != nil {
		_ = f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}
	if err = renameFile(tmp, path); err != nil {
		return err
	}
	// Persist the directory entry; not every platform supports this.
	_ = syncDir(dir)
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

type digest [32]byte

// fileDigest hashes the current content of path. A missing file has the zero
// digest.
func fileDigest(path string) (digest, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return digest{}, nil
		}
		return digest{}, err
	}
	return blake3.Sum256(b), nil
}
