// Package ackset implements the per-source pending-set / high-water-mark
// bookkeeping described in spec §4.7: a source emits tokens in order: when a
// token is acknowledged, the high-water mark advances to the largest token
// that is part of an unbroken acknowledged prefix; any ack out of order is
// simply held until its predecessors are also acked.
package ackset

import (
	"sync"

	"github.com/logship/logshipd/internal/record"
)

// Tracker tracks one source's pending tokens in emission order. Because a
// route preserves source order end-to-end (spec §5), Tracker need not
// compare tokens against each other: FIFO position alone determines the
// contiguous prefix. Add and Ack run on different goroutines in every
// Source implementation (the reader loop and the ack loop), so Tracker
// guards its own state with a mutex rather than relying on callers to
// serialize access.
type Tracker struct {
	mu    sync.Mutex
	queue []record.Token
	acked map[record.Token]bool
	high  record.Token
}

// New returns an empty Tracker.
func New() *Tracker {
	return &Tracker{acked: make(map[record.Token]bool)}
}

// Add records tok as newly in-flight. Tokens must be added in the order the
// source emitted them.
func (t *Tracker) Add(tok record.Token) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.queue = append(t.queue, tok)
}

// Ack marks tok as acknowledged by every downstream sink. It returns the
// tracker's high-water token and whether it advanced as a result of this
// call.
func (t *Tracker) Ack(tok record.Token) (record.Token, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.acked[tok] = true
	advanced := false
	for len(t.queue) > 0 && t.acked[t.queue[0]] {
		delete(t.acked, t.queue[0])
		t.high = t.queue[0]
		t.queue = t.queue[1:]
		advanced = true
	}
	return t.high, advanced
}

// HighWater returns the current high-water token (nil if none yet).
func (t *Tracker) HighWater() record.Token {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.high
}

// Pending returns the number of tokens still in flight (added but not yet
// contiguously acknowledged).
func (t *Tracker) Pending() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.queue)
}
