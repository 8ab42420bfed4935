// Package plugin implements the daemon's plugin registry: a mapping from
// (kind, name) to a constructed driver, built once from configuration and
// consumed exclusively by the route that references it. Grounded on the
// teacher's plugins.SFPluginCache.AddDriver/AddProcessor name-to-constructor
// cache, generalized here to the three driver kinds this daemon has
// (source, transform, sink) instead of the teacher's driver/processor split.
package plugin

import (
	"fmt"

	"github.com/logship/logshipd/internal/sink"
	"github.com/logship/logshipd/internal/source"
	"github.com/logship/logshipd/internal/transform"
)

// Kind identifies which of the three driver families a name belongs to.
type Kind string

const (
	KindSource    Kind = "source"
	KindTransform Kind = "transform"
	KindSink      Kind = "sink"
)

// Registry holds every constructed driver, keyed by (kind, name). Names must
// be unique within a kind (spec §3); each entry may be claimed by at most one
// route slot, enforcing the 1:1 plugin-to-route-slot association.
type Registry struct {
	sources    map[string]source.Source
	transforms map[string]transform.Transform
	sinks      map[string]sink.Sink

	claimed map[Kind]map[string]bool
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		sources:    make(map[string]source.Source),
		transforms: make(map[string]transform.Transform),
		sinks:      make(map[string]sink.Sink),
		claimed: map[Kind]map[string]bool{
			KindSource:    make(map[string]bool),
			KindTransform: make(map[string]bool),
			KindSink:      make(map[string]bool),
		},
	}
}

// AddSource registers a constructed source driver under name. It is an error
// to register the same name twice.
func (r *Registry) AddSource(name string, s source.Source) error {
	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("plugin: duplicate source name %q", name)
	}
	r.sources[name] = s
	return nil
}

// AddTransform registers a constructed transform driver under name.
func (r *Registry) AddTransform(name string, t transform.Transform) error {
	if _, exists := r.transforms[name]; exists {
		return fmt.Errorf("plugin: duplicate transform name %q", name)
	}
	r.transforms[name] = t
	return nil
}

// AddSink registers a constructed sink driver under name.
func (r *Registry) AddSink(name string, s sink.Sink) error {
	if _, exists := r.sinks[name]; exists {
		return fmt.Errorf("plugin: duplicate sink name %q", name)
	}
	r.sinks[name] = s
	return nil
}

// ClaimSource resolves name to its source driver and marks it claimed by a
// route. A second claim of the same name is a configuration error (spec §3:
// no driver is shared across routes).
func (r *Registry) ClaimSource(name string) (source.Source, error) {
	s, ok := r.sources[name]
	if !ok {
		return nil, fmt.Errorf("plugin: unknown input %q", name)
	}
	if r.claimed[KindSource][name] {
		return nil, fmt.Errorf("plugin: input %q already claimed by another route", name)
	}
	r.claimed[KindSource][name] = true
	return s, nil
}

// ClaimTransform resolves name to its transform driver and marks it claimed.
func (r *Registry) ClaimTransform(name string) (transform.Transform, error) {
	t, ok := r.transforms[name]
	if !ok {
		return nil, fmt.Errorf("plugin: unknown transform %q", name)
	}
	if r.claimed[KindTransform][name] {
		return nil, fmt.Errorf("plugin: transform %q already claimed by another route", name)
	}
	r.claimed[KindTransform][name] = true
	return t, nil
}

// ClaimSink resolves name to its sink driver and marks it claimed.
func (r *Registry) ClaimSink(name string) (sink.Sink, error) {
	s, ok := r.sinks[name]
	if !ok {
		return nil, fmt.Errorf("plugin: unknown output %q", name)
	}
	if r.claimed[KindSink][name] {
		return nil, fmt.Errorf("plugin: output %q already claimed by another route", name)
	}
	r.claimed[KindSink][name] = true
	return s, nil
}
