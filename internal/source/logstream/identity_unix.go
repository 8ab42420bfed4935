//go:build unix

package logstream

import (
	"fmt"
	"os"
	"syscall"
)

// fileIdentity returns a stable identity string for fi, built from the
// device and inode number, so it does not change if the file is renamed but
// changes whenever a new inode takes over the pathname (rotation).
func fileIdentity(fi os.FileInfo) string {
	if st, ok := fi.Sys().(*syscall.Stat_t); ok {
		return fmt.Sprintf("%d:%d", st.Dev, st.Ino)
	}
	return fi.Name()
}
