// Package testutil provides testing helpers shared by the source and
// logstream test suites. Adapted from the teacher's
// driver/log/testutil package (itself adapted from google/mtail).
package testutil

import (
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"github.com/logship/logshipd/internal/record"
)

// FatalIfErr fails the test with a fatal error if err is not nil.
func FatalIfErr(tb testing.TB, err error) {
	tb.Helper()
	if err != nil {
		tb.Fatal(err)
	}
}

// TestTempDir creates a temporary directory for the duration of the test.
func TestTempDir(tb testing.TB) string {
	tb.Helper()
	return tb.TempDir()
}

// TestOpenFile creates a new file and returns it opened for append, as a
// process appending to a log would.
func TestOpenFile(tb testing.TB, name string) *os.File {
	tb.Helper()
	f, err := os.OpenFile(filepath.Clean(name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	FatalIfErr(tb, err)
	return f
}

// WriteString writes str to f and, if f is a regular file, fsyncs it so the
// write happens-before this call returns.
func WriteString(tb testing.TB, f io.StringWriter, str string) int {
	tb.Helper()
	n, err := f.WriteString(str)
	FatalIfErr(tb, err)
	if v, ok := f.(*os.File); ok {
		fi, err := v.Stat()
		FatalIfErr(tb, err)
		if fi.Mode().IsRegular() {
			FatalIfErr(tb, v.Sync())
		}
	}
	return n
}

// RecordsReceived drains ch without blocking past the given timeout,
// returning everything received so far.
func RecordsReceived(ch <-chan *record.Record, timeout time.Duration) []*record.Record {
	var out []*record.Record
	deadline := time.After(timeout)
	for {
		select {
		case r, ok := <-ch:
			if !ok {
				return out
			}
			out = append(out, r)
		case <-deadline:
			return out
		}
	}
}

// Diff reports a human readable diff between a and b, or "" if equal.
func Diff(a, b interface{}, opts ...cmp.Option) string {
	return cmp.Diff(a, b, opts...)
}

// AllowUnexported is a cmp.Option re-export so callers need not import
// go-cmp directly for the common case.
func AllowUnexported(types ...interface{}) cmp.Option {
	return cmp.AllowUnexported(types...)
}

// IgnoreFields is a cmp.Option re-export, see AllowUnexported.
func IgnoreFields(typ interface{}, names ...string) cmp.Option {
	return cmpopts.IgnoreFields(typ, names...)
}
