package source

import (
	"context"
	"sync"
	"time"

	"github.com/coreos/go-systemd/v22/sdjournal"

	"github.com/logship/logshipd/internal/ackset"
	"github.com/logship/logshipd/internal/cursor"
	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
	"github.com/logship/logshipd/internal/token"
	"github.com/logship/logshipd/internal/value"
)

var journalLog = logging.With("source.journal")

// JournalConfig configures a systemd journal Source.
type JournalConfig struct {
	// Matches restricts which entries are read, e.g. "_SYSTEMD_UNIT=sshd.service".
	Matches       []string
	StateDir      string
	FlushCount    int
	FlushInterval time.Duration
	PollInterval  time.Duration
}

// JournalSource reads entries from the local systemd journal via sdjournal,
// resuming from a persisted cursor. Grounded on the retrieved whd-heka
// JournalCtlInput (own cursor file, --after-cursor-equivalent resume, first
// -message dedup workaround for a known systemd quirk around cursor seeks),
// adapted to call the native library instead of shelling out to journalctl.
type JournalSource struct {
	name string
	cfg  JournalConfig

	store   *cursor.Store
	flush   *cursor.FlushPolicy
	tracker *ackset.Tracker
}

// NewJournal constructs a journal Source named name.
func NewJournal(name string, cfg JournalConfig) *JournalSource {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 250 * time.Millisecond
	}
	return &JournalSource{name: name, cfg: cfg}
}

func (j *JournalSource) Name() string { return j.name }
func (j *JournalSource) Close() error { return nil }

func (j *JournalSource) Run(ctx context.Context, wg *sync.WaitGroup, out chan<- *record.Record, highWater <-chan record.Token) error {
	store, err := cursor.Open(j.cursorPath())
	if err != nil {
		return err
	}
	j.store = store
	j.flush = cursor.NewFlushPolicy(j.cfg.FlushCount, j.cfg.FlushInterval)

	var startCursor string
	if data, found, err := store.Load(); err != nil {
		journalLog.WithError(err).Warnf("source.journal %s: discarding unreadable cursor", j.name)
	} else if found {
		startCursor = string(data)
	}

	jr, err := sdjournal.NewJournal()
	if err != nil {
		return err
	}
	for _, m := range j.cfg.Matches {
		if err := jr.AddMatch(m); err != nil {
			jr.Close()
			return err
		}
	}

	firstAfterSeek := false
	if startCursor != "" {
		if err := jr.SeekCursor(startCursor); err != nil {
			journalLog.WithError(err).Warnf("source.journal %s: bad cursor %q, starting from tail", j.name, startCursor)
			startCursor = ""
			jr.SeekTail()
		} else {
			// SeekCursor positions just before the entry; advance once so
			// the subsequent Next reads the entry *after* the cursor, not
			// the same one again (the dedup quirk the teacher's
			// JournalCtlInput worked around with --after-cursor).
			jr.Next()
			firstAfterSeek = true
		}
	} else {
		jr.SeekTail()
		jr.Next()
	}

	j.tracker = ackset.New()

	wg.Add(2)
	go func() {
		defer wg.Done()
		j.runAckLoop(ctx, highWater)
	}()

	go func() {
		defer wg.Done()
		defer jr.Close()
		j.poll(ctx, jr, out, firstAfterSeek, startCursor)
	}()

	return nil
}

func (j *JournalSource) poll(ctx context.Context, jr *sdjournal.Journal, out chan<- *record.Record, first bool, seenCursor string) {
	var seq int64
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		n, err := jr.Next()
		if err != nil {
			journalLog.WithError(err).Warnf("source.journal %s: read error", j.name)
			time.Sleep(j.cfg.PollInterval)
			continue
		}
		if n == 0 {
			jr.Wait(j.cfg.PollInterval)
			continue
		}

		entry, err := jr.GetEntry()
		if err != nil {
			journalLog.WithError(err).Warnf("source.journal %s: failed to read entry", j.name)
			continue
		}

		if first {
			first = false
			if entry.Cursor == seenCursor {
				continue
			}
		}

		tok := token.Journal{Cursor: entry.Cursor, Seq: seq}
		seq++
		j.tracker.Add(tok)

		v := value.NewMap()
		for k, val := range entry.Fields {
			v.Set(k, value.NewString(val))
		}
		v.Set("__REALTIME_TIMESTAMP", value.NewInt(int64(entry.RealtimeTimestamp)))
		out <- record.NewStructured(j.name, tok, v)
	}
}

func (j *JournalSource) runAckLoop(ctx context.Context, highWater <-chan record.Token) {
	for {
		select {
		case <-ctx.Done():
			return
		case tok, ok := <-highWater:
			if !ok {
				return
			}
			jt, ok := tok.(token.Journal)
			if !ok {
				continue
			}
			if _, advanced := j.tracker.Ack(jt); advanced {
				j.maybeFlush()
			}
		}
	}
}

func (j *JournalSource) maybeFlush() {
	if !j.flush.Advance() {
		return
	}
	hw := j.tracker.HighWater()
	jt, ok := hw.(token.Journal)
	if !ok {
		return
	}
	if err := j.store.Save([]byte(jt.Cursor)); err != nil {
		journalLog.WithError(err).Warnf("source.journal %s: failed to persist cursor", j.name)
		return
	}
	j.flush.MarkFlushed()
}

func (j *JournalSource) cursorPath() string {
	dir := j.cfg.StateDir
	if dir == "" {
		dir = "/var/lib/logshipd/journal"
	}
	return dir + "/" + j.name + ".cursor"
}
