//go:build !unix

package logstream

import "os"

// fileIdentity falls back to the file name on platforms without a usable
// inode number; rotation detection still works via os.SameFile for the
// "different underlying file" case, just not via this identity string.
func fileIdentity(fi os.FileInfo) string {
	return fi.Name()
}
