package waker

import (
	"context"
	"sync"

	"github.com/logship/logshipd/internal/logging"
)

var testLog = logging.With("waker")

// testWaker is used by tests to manually signal idle routines that it's
// time to look for new work, so rotation/discovery tests don't depend on
// real time. Adapted from the teacher's driver/log/waker/testwaker.go.
type testWaker struct {
	ctx context.Context

	n int

	wakeeReady chan struct{}
	wakeeDone  chan struct{}
	wait       chan struct{}

	mu   sync.Mutex
	wake chan struct{}
}

// WakeFunc triggers a wakeup of blocked wakees under test. Its argument is
// the number of wakees expected to be waiting on the next round.
type WakeFunc func(int)

// NewTest creates a Waker for use in tests, and the WakeFunc that drives it.
// n is the number of wakees expected on the first round.
func NewTest(ctx context.Context, n int) (Waker, WakeFunc) {
	t := &testWaker{
		ctx:        ctx,
		n:          n,
		wakeeReady: make(chan struct{}),
		wakeeDone:  make(chan struct{}),
		wait:       make(chan struct{}),
		wake:       make(chan struct{}),
	}
	initDone := make(chan struct{})
	go func() {
		defer close(initDone)
		for i := 0; i < t.n; i++ {
			<-t.wakeeDone
		}
	}()
	wakeFunc := func(after int) {
		<-initDone
		testLog.Trace("yielding to wakee")
		for i := 0; i < t.n; i++ {
			t.wait <- struct{}{}
		}
		for i := 0; i < t.n; i++ {
			<-t.wakeeReady
		}
		t.broadcastWakeAndReset()
		for i := 0; i < after; i++ {
			<-t.wakeeDone
		}
		t.n = after
	}
	return t, wakeFunc
}

func (t *testWaker) Wake() (w <-chan struct{}) {
	t.mu.Lock()
	w = t.wake
	t.mu.Unlock()
	go func() {
		select {
		case <-t.ctx.Done():
			return
		case t.wakeeDone <- struct{}{}:
		}
		select {
		case <-t.ctx.Done():
			return
		case <-t.wait:
		}
		select {
		case <-t.ctx.Done():
			return
		case t.wakeeReady <- struct{}{}:
		}
	}()
	return
}

func (t *testWaker) broadcastWakeAndReset() {
	t.mu.Lock()
	defer t.mu.Unlock()
	close(t.wake)
	t.wake = make(chan struct{})
}
