// Package sink implements the output drivers: TCP socket, Unix socket,
// stdout, and an in-process throughput meter (spec §4.6).
package sink

import (
	"errors"

	"github.com/logship/logshipd/internal/record"
)

// Sink consumes records in the order the route delivers them and
// acknowledges each once it is safe to advance the source cursor past it.
type Sink interface {
	Name() string
	// Write delivers rec to the sink. It blocks for as long as the sink is
	// unable to accept the record (e.g. reconnecting); it returns once the
	// record has been accepted, or with an error once the sink gives up on
	// it (a reconnecting sink returns one wrapping ErrRetryCeilingExceeded).
	Write(rec *record.Record) error
	Close() error
}

// ErrRetryCeilingExceeded is the error a reconnecting sink returns once it
// has exhausted its configured retry ceiling (spec §7, "Sink-fatal": "After
// configured retry ceiling, stop the route"). It is always wrapped, so
// callers check for it with IsFatal rather than a direct comparison.
var ErrRetryCeilingExceeded = errors.New("sink: retry ceiling exceeded")

// IsFatal reports whether err (or an error it wraps) signals that the sink
// can never accept another record and the owning route should stop.
func IsFatal(err error) bool {
	return errors.Is(err, ErrRetryCeilingExceeded)
}
