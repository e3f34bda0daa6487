//go:build unix

package store

import (
	"io/fs"
	"os"
	"syscall"
)

// copyOwner gives f the uid and gid of st.
func copyOwner(f *os.File, st fs.FileInfo) error {
	sys, ok := st.Sys().(*syscall.Stat_t)
	if !ok {
		return nil
	}
	return f.Chown(int(sys.Uid), int(sys.Gid))
}
