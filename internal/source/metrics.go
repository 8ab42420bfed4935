package source

import (
	"context"
	"sync"
	"time"

	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
	"github.com/logship/logshipd/internal/token"
	"github.com/logship/logshipd/internal/value"
)

var metricsLog = logging.With("source.metrics")

// MetricsConfig configures the polling intervals for each category, bounded
// to [5s, 3600s] per spec §4.4; zero uses the listed default.
type MetricsConfig struct {
	CPUInterval  time.Duration // default 5s
	MemInterval  time.Duration // default 5s
	DiskInterval time.Duration // default 30s
	NetInterval  time.Duration // default 5s
}

const (
	minMetricsInterval = 5 * time.Second
	maxMetricsInterval = 3600 * time.Second
)

func clampInterval(d, def time.Duration) time.Duration {
	if d <= 0 {
		d = def
	}
	if d < minMetricsInterval {
		return minMetricsInterval
	}
	if d > maxMetricsInterval {
		return maxMetricsInterval
	}
	return d
}

// MetricsSource polls host resource usage and emits one structured record
// per category on each tick. It never checkpoints: a restart simply resumes
// polling from the current instant (token.None).
type MetricsSource struct {
	name string
	cfg  MetricsConfig
}

// NewMetrics constructs a metrics Source named name.
func NewMetrics(name string, cfg MetricsConfig) *MetricsSource {
	cfg.CPUInterval = clampInterval(cfg.CPUInterval, 5*time.Second)
	cfg.MemInterval = clampInterval(cfg.MemInterval, 5*time.Second)
	cfg.DiskInterval = clampInterval(cfg.DiskInterval, 30*time.Second)
	cfg.NetInterval = clampInterval(cfg.NetInterval, 5*time.Second)
	return &MetricsSource{name: name, cfg: cfg}
}

func (m *MetricsSource) Name() string { return m.name }
func (m *MetricsSource) Close() error { return nil }

func (m *MetricsSource) Run(ctx context.Context, wg *sync.WaitGroup, out chan<- *record.Record, highWater <-chan record.Token) error {
	go drainAcks(ctx, highWater)

	m.poll(ctx, wg, out, "cpu", m.cfg.CPUInterval, readCPUStats)
	m.poll(ctx, wg, out, "mem", m.cfg.MemInterval, readMemStats)
	m.poll(ctx, wg, out, "disk", m.cfg.DiskInterval, readDiskStats)
	m.poll(ctx, wg, out, "net", m.cfg.NetInterval, readNetStats)
	return nil
}

func (m *MetricsSource) poll(ctx context.Context, wg *sync.WaitGroup, out chan<- *record.Record, category string, interval time.Duration, read func() (*value.Value, error)) {
	wg.Add(1)
	go func() {
		defer wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		var seq int64
		emit := func() {
			v, err := read()
			if err != nil {
				metricsLog.WithError(err).Warnf("source.metrics %s: failed to read %s stats", m.name, category)
				return
			}
			v.Set("category", value.NewString(category))
			out <- record.NewStructured(m.name, token.None{Seq: seq}, v)
			seq++
		}
		emit()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				emit()
			}
		}
	}()
}
