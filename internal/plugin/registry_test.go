package plugin

import (
	"context"
	"sync"
	"testing"

	"github.com/logship/logshipd/internal/record"
	"github.com/logship/logshipd/internal/sink"
	"github.com/logship/logshipd/internal/source"
	"github.com/logship/logshipd/internal/transform"
	"github.com/logship/logshipd/internal/value"
)

type namedSource struct{ name string }

func (s *namedSource) Name() string { return s.name }
func (s *namedSource) Close() error { return nil }
func (s *namedSource) Run(_ context.Context, _ *sync.WaitGroup, _ chan<- *record.Record, _ <-chan record.Token) error {
	return nil
}

type namedSink struct{ name string }

func (s *namedSink) Name() string              { return s.name }
func (s *namedSink) Close() error               { return nil }
func (s *namedSink) Write(*record.Record) error { return nil }

func fakeSource(name string) source.Source { return &namedSource{name: name} }
func fakeSink(name string) sink.Sink       { return &namedSink{name: name} }

func TestAddSourceRejectsDuplicateName(t *testing.T) {
	r := New()
	if err := r.AddSource("in1", fakeSource("in1")); err != nil {
		t.Fatal(err)
	}
	if err := r.AddSource("in1", fakeSource("in1")); err == nil {
		t.Error("expected an error registering a duplicate source name")
	}
}

func TestClaimSourceFailsOnUnknownName(t *testing.T) {
	r := New()
	if _, err := r.ClaimSource("missing"); err == nil {
		t.Error("expected an error claiming an unregistered source")
	}
}

func TestClaimSourceFailsOnSecondClaim(t *testing.T) {
	r := New()
	if err := r.AddSource("in1", fakeSource("in1")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimSource("in1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimSource("in1"); err == nil {
		t.Error("expected an error on a second claim of the same source")
	}
}

func TestClaimSinkIndependentFromClaimSource(t *testing.T) {
	r := New()
	if err := r.AddSource("in1", fakeSource("in1")); err != nil {
		t.Fatal(err)
	}
	if err := r.AddSink("out1", fakeSink("out1")); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimSource("in1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimSink("out1"); err != nil {
		t.Fatal(err)
	}
	if _, err := r.ClaimSink("out1"); err == nil {
		t.Error("expected an error on a second claim of the same sink")
	}
}

func TestAddTransformRejectsDuplicateName(t *testing.T) {
	r := New()
	tr := transform.NewInsertField("t1", "host", value.NewString("x"), false)
	if err := r.AddTransform("t1", tr); err != nil {
		t.Fatal(err)
	}
	if err := r.AddTransform("t1", tr); err == nil {
		t.Error("expected an error registering a duplicate transform name")
	}
}
