// Package daemon wires a validated configuration into running routes and
// owns their combined lifecycle, in the idiom of the teacher's
// Init -> Run -> Cleanup plugin lifecycle (plugins.SFDriver/SFProcessor),
// generalized here to one Supervisor overseeing every configured route.Route.
package daemon

import (
	"context"
	"fmt"

	"github.com/logship/logshipd/internal/config"
	"github.com/logship/logshipd/internal/logging"
	"github.com/logship/logshipd/internal/plugin"
	"github.com/logship/logshipd/internal/route"
)

var supervisorLog = logging.With("daemon.supervisor")

// Supervisor starts one route.Route per configured route entry and tracks
// which ones are running. A source-open error (Route.Start fails) disables
// only that route; a sink-fatal error, detected later by the route's sink
// writer, makes that route cancel itself. Other routes continue (spec §7).
type Supervisor struct {
	routes []*route.Route
}

// New builds a Supervisor from cfg and reg. cfg must already have passed
// Validate; New resolves every route's input/transforms/outputs via reg,
// which is itself a configuration error if any name fails to claim.
func New(cfg *config.Daemon, reg *plugin.Registry, capacity int) (*Supervisor, error) {
	s := &Supervisor{}
	for _, rc := range cfg.Routes {
		src, err := reg.ClaimSource(rc.Input)
		if err != nil {
			return nil, fmt.Errorf("route %s: %w", rc.ID, err)
		}

		trs, err := claimTransforms(reg, rc)
		if err != nil {
			return nil, err
		}

		sinks, err := claimSinks(reg, rc)
		if err != nil {
			return nil, err
		}

		s.routes = append(s.routes, route.New(rc.ID, src, trs, sinks, capacity))
	}
	return s, nil
}

// Start starts every route. A route whose Start fails is logged and skipped;
// the remaining routes still start (spec §7: source-open errors are fatal
// only for that route). It returns the number of routes that started
// successfully, so the caller can treat an all-routes-failed startup as a
// runtime failure.
func (s *Supervisor) Start(ctx context.Context) int {
	started := 0
	for _, r := range s.routes {
		if err := r.Start(ctx); err != nil {
			supervisorLog.WithError(err).Errorf("route %s: failed to start, route disabled", r.ID)
			continue
		}
		supervisorLog.Infof("route %s: started", r.ID)
		started++
	}
	return started
}

// Stop stops every route in turn (see route.Route.Stop).
func (s *Supervisor) Stop() {
	for _, r := range s.routes {
		r.Stop()
	}
}

// RouteIDs returns the ids of every configured route, for --check output.
func (s *Supervisor) RouteIDs() []string {
	ids := make([]string, len(s.routes))
	for i, r := range s.routes {
		ids[i] = r.ID
	}
	return ids
}
