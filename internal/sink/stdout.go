package sink

import (
	"bufio"
	"io"
	"sync"

	"github.com/logship/logshipd/internal/record"
)

// Stdout writes each record as a JSON line to an io.Writer (process stdout
// in production) and acks immediately after a successful write. There is no
// reconnection logic: a write error is returned to the caller as-is.
type Stdout struct {
	name string
	mu   sync.Mutex
	w    *bufio.Writer
}

// NewStdout returns a Sink writing to w.
func NewStdout(name string, w io.Writer) *Stdout {
	return &Stdout{name: name, w: bufio.NewWriter(w)}
}

func (s *Stdout) Name() string { return s.name }

func (s *Stdout) Write(rec *record.Record) error {
	payload, err := encodeRecord(rec)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(payload); err != nil {
		return err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		return err
	}
	return s.w.Flush()
}

func (s *Stdout) Close() error { return nil }
