// Package waker provides an interface for a routine waker, decoupling idle
// polling loops (file discovery, rotation checks) from a concrete timer so
// tests can drive them deterministically. Adapted from the teacher's
// driver/log/waker package.
package waker

import (
	"context"
	"time"
)

// A Waker wakes up idle routines so they can look for new work.
type Waker interface {
	// Wake returns a channel that closes (or sends) when the routine should
	// look for new work again.
	Wake() <-chan struct{}
}

// intervalWaker wakes on a fixed period, bounded per spec §4.2/§4.3 to at
// most 1s for file discovery polling.
type intervalWaker struct {
	ctx    context.Context
	period time.Duration
}

// NewInterval returns a Waker that fires every period until ctx is done.
func NewInterval(ctx context.Context, period time.Duration) Waker {
	return &intervalWaker{ctx: ctx, period: period}
}

func (w *intervalWaker) Wake() <-chan struct{} {
	ch := make(chan struct{})
	t := time.NewTimer(w.period)
	go func() {
		defer t.Stop()
		select {
		case <-t.C:
		case <-w.ctx.Done():
		}
		close(ch)
	}()
	return ch
}

// alwaysWaker never blocks the wakee; every call to Wake returns an
// already-closed channel. Useful for one-shot, non-polling sources.
type alwaysWaker struct {
	wake chan struct{}
}

// NewAlways returns a Waker whose Wake channel is always ready.
func NewAlways() Waker {
	w := &alwaysWaker{wake: make(chan struct{})}
	close(w.wake)
	return w
}

func (w *alwaysWaker) Wake() <-chan struct{} { return w.wake }
