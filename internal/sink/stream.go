package sink

import (
	"bufio"
	"encoding/json"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/jpillora/backoff"

	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
)

var streamLog = logging.With("sink.stream")

// DefaultMaxRetries is the retry ceiling (spec §7, "Sink-fatal") applied
// when a driver's config does not set args.max_retries: the number of
// consecutive connect/write failures Write tolerates within one call before
// giving up and returning an error wrapping ErrRetryCeilingExceeded.
const DefaultMaxRetries = 20

// dialer abstracts net.Dial so TCP and Unix socket sinks share one
// reconnect loop, differing only in network/address.
type dialer func() (net.Conn, error)

// streamSink writes newline-terminated JSON records to a persistent
// connection, reconnecting with exponential backoff on write failure or
// EOF. Per spec §4.6, Write blocks while disconnected: upstream
// back-pressure propagates instead of dropping records. After maxRetries
// consecutive failures (a permanently unreachable endpoint, e.g. DNS
// resolution failing for good) Write gives up instead of blocking forever.
type streamSink struct {
	name       string
	dial       dialer
	backoff    *backoff.Backoff
	maxRetries int

	mu   sync.Mutex
	conn net.Conn
	w    *bufio.Writer
}

func newStreamSink(name string, dial dialer, maxRetries int) *streamSink {
	if maxRetries <= 0 {
		maxRetries = DefaultMaxRetries
	}
	return &streamSink{
		name:       name,
		dial:       dial,
		maxRetries: maxRetries,
		backoff: &backoff.Backoff{
			Min:    100 * time.Millisecond,
			Max:    30 * time.Second,
			Factor: 2,
			Jitter: true,
		},
	}
}

func (s *streamSink) Name() string { return s.name }

func (s *streamSink) Write(rec *record.Record) error {
	payload, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("sink %s: encode record: %w", s.name, err)
	}

	attempts := 0
	for {
		s.mu.Lock()
		if s.conn == nil {
			if err := s.connectLocked(); err != nil {
				s.mu.Unlock()
				attempts++
				if attempts >= s.maxRetries {
					return s.giveUp(err)
				}
				d := s.backoff.Duration()
				streamLog.WithError(err).Warnf("sink %s: connect failed, retrying in %s (%d/%d)", s.name, d, attempts, s.maxRetries)
				time.Sleep(d)
				continue
			}
		}

		if _, err := s.w.Write(payload); err == nil {
			err = s.w.WriteByte('\n')
		}
		var flushErr error
		if err == nil {
			flushErr = s.w.Flush()
		}
		if err == nil && flushErr == nil {
			s.backoff.Reset()
			s.mu.Unlock()
			return nil
		}
		if err == nil {
			err = flushErr
		}
		attempts++
		streamLog.WithError(err).Warnf("sink %s: write failed, reconnecting (%d/%d)", s.name, attempts, s.maxRetries)
		s.closeLocked()
		s.mu.Unlock()
		if attempts >= s.maxRetries {
			return s.giveUp(err)
		}
	}
}

// giveUp reports a permanent failure after the retry ceiling is reached.
func (s *streamSink) giveUp(cause error) error {
	streamLog.WithError(cause).Errorf("sink %s: retry ceiling (%d) exceeded, giving up", s.name, s.maxRetries)
	return fmt.Errorf("sink %s: %w: %v", s.name, ErrRetryCeilingExceeded, cause)
}

// connectLocked must be called with s.mu held.
func (s *streamSink) connectLocked() error {
	conn, err := s.dial()
	if err != nil {
		return err
	}
	s.conn = conn
	s.w = bufio.NewWriter(conn)
	return nil
}

// closeLocked must be called with s.mu held.
func (s *streamSink) closeLocked() {
	if s.conn != nil {
		s.conn.Close()
		s.conn = nil
		s.w = nil
	}
}

func (s *streamSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closeLocked()
	return nil
}

func encodeRecord(rec *record.Record) ([]byte, error) {
	if rec.IsStructured() {
		return json.Marshal(rec.Value)
	}
	return json.Marshal(string(rec.Raw))
}

// NewTCP returns a Sink that maintains a persistent TCP connection to addr.
// maxRetries is the retry ceiling before Write gives up (0 uses
// DefaultMaxRetries).
func NewTCP(name, addr string, maxRetries int) Sink {
	return newStreamSink(name, func() (net.Conn, error) {
		return net.DialTimeout("tcp", addr, 10*time.Second)
	}, maxRetries)
}

// NewUnix returns a Sink that maintains a persistent connection to the Unix
// domain socket at path. maxRetries is the retry ceiling before Write gives
// up (0 uses DefaultMaxRetries).
func NewUnix(name, path string, maxRetries int) Sink {
	return newStreamSink(name, func() (net.Conn, error) {
		return net.DialTimeout("unix", path, 10*time.Second)
	}, maxRetries)
}
