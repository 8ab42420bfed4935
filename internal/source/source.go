// Package source implements the input drivers: file, systemd journal,
// metrics, and stdin. Each driver satisfies Source, mirroring the
// GetName/Init/Run/Cleanup plugin lifecycle the teacher uses for its
// drivers and processors (driver/log/auditdriver.go, driver/syslog), but
// reshaped around a single long-lived Run call per spec §4.2-§4.5.
package source

import (
	"context"
	"sync"

	"github.com/logship/logshipd/internal/record"
)

// Source produces records for one route until ctx is cancelled or it
// reaches permanent completion (e.g. stdin EOF).
type Source interface {
	// Name identifies this source instance for logging and metrics.
	Name() string

	// Run streams records onto out, tagging each with a record.Token that
	// highWater will eventually echo back once every sink downstream has
	// acknowledged it. Tokens may come back out of order; a Source that
	// checkpoints tracks the contiguous acknowledged prefix itself and
	// persists its own cursor when that prefix advances; it is not required
	// to persist on every value received.
	//
	// Run starts the source's background goroutines and returns; they run
	// until ctx is cancelled or the source permanently completes. A non-nil
	// error means the source could not be opened. wg is used the way the
	// teacher's tailer.New uses it, to let callers wait for the background
	// goroutines Run spawns to fully unwind.
	Run(ctx context.Context, wg *sync.WaitGroup, out chan<- *record.Record, highWater <-chan record.Token) error

	// Close releases any resources Run does not already release on
	// context cancellation (open cursor files, sockets).
	Close() error
}
