package sink

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
)

var throughputLog = logging.With("sink.throughput")

// Throughput counts records and reports a rate per second to the process
// log; it acks every record immediately without forwarding it anywhere.
// Documented (spec §4.6) as unsuitable for production: wiring a route's
// only sink to Throughput silently discards every record it acknowledges.
type Throughput struct {
	name     string
	count    int64
	stopOnce sync.Once
	stop     chan struct{}
}

// NewThroughput starts a Throughput sink named name, logging its rate every
// interval until Close is called.
func NewThroughput(name string, interval time.Duration) *Throughput {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := &Throughput{name: name, stop: make(chan struct{})}
	go t.report(interval)
	return t
}

func (t *Throughput) Name() string { return t.name }

func (t *Throughput) Write(rec *record.Record) error {
	atomic.AddInt64(&t.count, 1)
	return nil
}

func (t *Throughput) Close() error {
	t.stopOnce.Do(func() { close(t.stop) })
	return nil
}

func (t *Throughput) report(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	var last int64
	for {
		select {
		case <-t.stop:
			return
		case <-ticker.C:
			n := atomic.LoadInt64(&t.count)
			rate := float64(n-last) / interval.Seconds()
			throughputLog.Infof("sink %s: %.1f records/sec (%d total)", t.name, rate, n)
			last = n
		}
	}
}
