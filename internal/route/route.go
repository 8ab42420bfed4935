// Package route wires one source through its transform chain to its sinks,
// preserving source order end-to-end and aggregating per-sink
// acknowledgements into the single high-water signal the source persists
// against (spec §4.7).
package route

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/logship/logshipd/internal/channel"
	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/record"
	"github.com/logship/logshipd/internal/sink"
	"github.com/logship/logshipd/internal/source"
	"github.com/logship/logshipd/internal/transform"
	"github.com/logship/logshipd/internal/value"
)

var routeLog = logging.With("route")

// ShutdownDeadline bounds how long Stop waits for the route's workers to
// exit after cancelling them; unacked records are left for replay on the
// next start.
const ShutdownDeadline = 10 * time.Second

// Route is a supervised unit: one source, an ordered transform chain, and
// one or more sinks receiving every surviving record in the same order.
type Route struct {
	ID         string
	Source     source.Source
	Transforms []transform.Transform
	Sinks      []sink.Sink

	// DiagID is a process-lifetime-unique id stamped on the route's
	// "starting" log line, so starts of two routes sharing the same
	// configured ID (e.g. across a restart) are still distinguishable. The
	// route's other log lines carry only its configured ID.
	DiagID string

	ChannelCapacity int

	sourceOut chan *record.Record
	highWater chan record.Token

	mu      sync.Mutex
	pending map[record.Token]int // token -> sinks still to ack

	wg     sync.WaitGroup
	cancel context.CancelFunc
	runCtx context.Context
}

// New constructs a Route. capacity is clamped by channel.New to
// [channel.MinCapacity, channel.MaxCapacity]; zero uses channel.DefaultCapacity.
func New(id string, src source.Source, transforms []transform.Transform, sinks []sink.Sink, capacity int) *Route {
	if capacity <= 0 {
		capacity = channel.DefaultCapacity
	}
	return &Route{
		ID:              id,
		Source:          src,
		Transforms:      transforms,
		Sinks:           sinks,
		DiagID:          uuid.NewString(),
		ChannelCapacity: capacity,
		pending:         make(map[record.Token]int),
	}
}

// Start opens the source, wires the transform and sink channels, and
// returns once every worker goroutine is running. It does not block; call
// Stop (or cancel ctx) to shut down.
func (r *Route) Start(ctx context.Context) error {
	routeLog.WithField("diag_id", r.DiagID).Infof("route %s: starting", r.ID)
	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.runCtx = runCtx

	r.sourceOut = make(chan *record.Record, r.ChannelCapacity)
	r.highWater = make(chan record.Token, r.ChannelCapacity)

	sinkChans := make([]*channel.Channel, len(r.Sinks))
	for i := range r.Sinks {
		sinkChans[i] = channel.New(r.ChannelCapacity)
	}

	if err := r.Source.Run(runCtx, &r.wg, r.sourceOut, r.highWater); err != nil {
		cancel()
		return err
	}

	for i, s := range r.Sinks {
		r.wg.Add(1)
		go r.runSinkWriter(runCtx, s, sinkChans[i])
	}

	r.wg.Add(1)
	go r.runAckJoiner(runCtx, sinkChans)

	r.wg.Add(1)
	go r.runTransformChain(runCtx, sinkChans)

	return nil
}

// Stop cancels the route's context and waits up to ShutdownDeadline for its
// workers to exit, then closes the sinks and the source. Workers return at
// their next select once cancelled; records still queued in the route's
// channels are not drained to the sinks and stay unacknowledged.
func (r *Route) Stop() {
	if r.cancel == nil {
		return
	}
	r.cancel()

	done := make(chan struct{})
	go func() {
		r.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(ShutdownDeadline):
		routeLog.Warnf("route %s: shutdown deadline exceeded, forcing termination", r.ID)
	}
	for _, s := range r.Sinks {
		s.Close()
	}
	r.Source.Close()
}

// runTransformChain drains the source and applies every transform in order,
// fanning the surviving value out to every sink's channel. A record a
// transform drops is never handed to a sink; its token is acknowledged
// immediately since no sink needs to see it.
func (r *Route) runTransformChain(ctx context.Context, sinkChans []*channel.Channel) {
	defer r.wg.Done()
	defer func() {
		for _, sc := range sinkChans {
			sc.Close()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-r.sourceOut:
			if !ok {
				return
			}
			out, keep := r.applyTransforms(rec)
			if !keep {
				r.forwardAck(rec.Token)
				continue
			}

			if len(sinkChans) == 0 {
				r.forwardAck(rec.Token)
				continue
			}

			r.mu.Lock()
			r.pending[rec.Token] = len(sinkChans)
			r.mu.Unlock()

			for _, sc := range sinkChans {
				select {
				case sc.Records <- out:
				case <-ctx.Done():
					return
				}
			}
		}
	}
}

// applyTransforms runs the transform chain over rec, parsing Raw into a
// Value on first use if any transform is configured.
func (r *Route) applyTransforms(rec *record.Record) (*record.Record, bool) {
	if len(r.Transforms) == 0 {
		return rec, true
	}

	v := rec.Value
	if v == nil {
		v = value.NewString(string(rec.Raw))
	}

	for _, tr := range r.Transforms {
		out, ok, err := tr.Apply(v)
		if err != nil {
			routeLog.WithError(err).Warnf("route %s: transform %s failed, dropping record", r.ID, tr.Name())
			return nil, false
		}
		if !ok {
			return nil, false
		}
		v = out
	}

	return &record.Record{RouteID: rec.RouteID, Token: rec.Token, Value: v}, true
}

func (r *Route) runSinkWriter(ctx context.Context, s sink.Sink, sc *channel.Channel) {
	defer r.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case rec, ok := <-sc.Records:
			if !ok {
				return
			}
			if err := s.Write(rec); err != nil {
				if sink.IsFatal(err) {
					routeLog.WithError(err).Errorf("route %s: sink %s failed permanently, stopping route", r.ID, s.Name())
					r.cancel()
					return
				}
				routeLog.WithError(err).Warnf("route %s: sink %s write failed, record not acknowledged", r.ID, s.Name())
				continue
			}
			select {
			case sc.Acks <- rec.Token:
			case <-ctx.Done():
				return
			}
		}
	}
}

// runAckJoiner waits for every sink to acknowledge a token before declaring
// it fully delivered and forwarding it to the source's high-water channel.
func (r *Route) runAckJoiner(ctx context.Context, sinkChans []*channel.Channel) {
	defer r.wg.Done()
	if len(sinkChans) == 0 {
		return
	}

	var wg sync.WaitGroup
	for _, sc := range sinkChans {
		wg.Add(1)
		go func(sc *channel.Channel) {
			defer wg.Done()
			for {
				select {
				case <-ctx.Done():
					return
				case tok, ok := <-sc.Acks:
					if !ok {
						return
					}
					r.joinAck(tok)
				}
			}
		}(sc)
	}
	wg.Wait()
}

func (r *Route) joinAck(tok record.Token) {
	r.mu.Lock()
	remaining, ok := r.pending[tok]
	if !ok {
		r.mu.Unlock()
		return
	}
	remaining--
	if remaining > 0 {
		r.pending[tok] = remaining
		r.mu.Unlock()
		return
	}
	delete(r.pending, tok)
	r.mu.Unlock()
	r.forwardAck(tok)
}

func (r *Route) forwardAck(tok record.Token) {
	select {
	case r.highWater <- tok:
	case <-r.runCtx.Done():
	}
}
