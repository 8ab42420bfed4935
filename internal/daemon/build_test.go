package daemon

import (
	"testing"

	"github.com/logship/logshipd/internal/config"
)

func minimalConfig(stateDir string) *config.Daemon {
	return &config.Daemon{
		Globals: config.Globals{ChannelSize: 16},
		Inputs:  []config.Plugin{{Name: "in1", Type: "stdin"}},
		Transforms: []config.Plugin{
			{Name: "tr1", Type: "insert_field", Args: map[string]interface{}{
				"field": "host",
				"value": "test-host",
			}},
		},
		Outputs: []config.Plugin{{Name: "out1", Type: "stdout"}},
		Routes: []config.Route{
			{ID: "r1", Input: "in1", Transforms: []string{"tr1"}, Outputs: []string{"out1"}},
		},
	}
}

func TestBuildRegistersOneDriverPerConfiguredPlugin(t *testing.T) {
	cfg := minimalConfig(t.TempDir())
	reg, err := Build(cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := reg.ClaimSource("in1"); err != nil {
		t.Errorf("expected input in1 to be registered: %v", err)
	}
	if _, err := reg.ClaimTransform("tr1"); err != nil {
		t.Errorf("expected transform tr1 to be registered: %v", err)
	}
	if _, err := reg.ClaimSink("out1"); err != nil {
		t.Errorf("expected output out1 to be registered: %v", err)
	}
}

func TestBuildRejectsUnknownDriverType(t *testing.T) {
	cfg := minimalConfig(t.TempDir())
	cfg.Inputs[0].Type = "nonsense"
	if _, err := Build(cfg, t.TempDir()); err == nil {
		t.Error("expected an error for an unknown input type")
	}
}

func TestBuildRejectsInsertFieldMissingField(t *testing.T) {
	cfg := minimalConfig(t.TempDir())
	cfg.Transforms[0].Args = map[string]interface{}{"value": "x"}
	if _, err := Build(cfg, t.TempDir()); err == nil {
		t.Error("expected an error when insert_field has no args.field")
	}
}

func TestNewWiresOneRoutePerConfiguredRoute(t *testing.T) {
	cfg := minimalConfig(t.TempDir())
	reg, err := Build(cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	sup, err := New(cfg, reg, cfg.ChannelCapacity())
	if err != nil {
		t.Fatal(err)
	}
	ids := sup.RouteIDs()
	if len(ids) != 1 || ids[0] != "r1" {
		t.Errorf("RouteIDs() = %v, want [r1]", ids)
	}
}

func TestNewFailsWhenTwoRoutesClaimTheSameInput(t *testing.T) {
	cfg := minimalConfig(t.TempDir())
	cfg.Routes = append(cfg.Routes, config.Route{
		ID: "r2", Input: "in1", Outputs: []string{"out1"},
	})
	reg, err := Build(cfg, t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(cfg, reg, cfg.ChannelCapacity()); err == nil {
		t.Error("expected an error when two routes claim the same input")
	}
}
