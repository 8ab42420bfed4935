// Package logstream streams records from a regular file on the filesystem
// that another process appends to, rotates, or truncates, making one
// pathname look like one perpetual source of records. Adapted from the
// teacher's driver/log/tailer/logstream package (itself adapted from
// https://github.com/google/mtail/tree/main/internal), generalized to tag
// each emitted line with a file offset token. Turning lines into
// record.Records, and JSON parsing, are left to the Sink.
package logstream

import (
	"expvar"
	"time"

	"github.com/logship/logshipd/internal/token"
)

var (
	logErrors = expvar.NewMap("logstream_errors_total")
	logOpens  = expvar.NewMap("logstream_opens_total")
	logCloses = expvar.NewMap("logstream_closes_total")
	logLines  = expvar.NewMap("logstream_lines_total")
	// fileTruncates counts truncations observed per path.
	fileTruncates = expvar.NewMap("logstream_truncates_total")
)

// defaultReadBufferSize is the size of the buffer reads are chunked into.
const defaultReadBufferSize = 4096

// LogStream makes one pathname look like a perpetual source of records,
// surviving truncation and rotation underneath it.
type LogStream interface {
	// LastReadTime reports when a record was last read from the stream.
	LastReadTime() time.Time
	// Stop asks the stream to gracefully finish: keep reading until EOF,
	// then complete.
	Stop()
	// IsComplete reports whether the stream has permanently finished and
	// cannot be reused; the caller should drop it.
	IsComplete() bool
}

// Options configure a new file stream.
type Options struct {
	// JSONMode records whether the caller parses lines as JSON. The stream
	// itself does not read it: it emits raw lines either way.
	JSONMode bool
	// FromBeginning starts at byte 0 instead of the end of the file; the
	// caller resolves this against a persisted cursor before calling New.
	FromBeginning bool
	// StartOffset resumes a read at a specific byte offset (from a
	// persisted cursor), taking precedence over FromBeginning when > 0.
	StartOffset int64
	// StartGeneration is the rotation generation to stamp on tokens minted
	// for records read from the initial handle.
	StartGeneration int64
}

// Sink receives the lines read from the stream, already framed on newline
// boundaries, tagged with the token describing the read position just past
// them.
type Sink interface {
	Emit(line string, tok token.File)
	// Warn reports a non-fatal condition (malformed UTF-8, JSON parse
	// failure) that still counts as "handled" for cursor purposes.
	Warn(format string, args ...interface{})
}
