package config

import "testing"

func validDaemon() *Daemon {
	return &Daemon{
		Globals: Globals{ChannelSize: 128},
		Inputs:  []Plugin{{Name: "in1", Type: "file"}},
		Transforms: []Plugin{
			{Name: "tr1", Type: "insert_field"},
		},
		Outputs: []Plugin{{Name: "out1", Type: "stdout"}},
		Routes: []Route{
			{ID: "r1", Input: "in1", Transforms: []string{"tr1"}, Outputs: []string{"out1"}},
		},
	}
}

func TestValidateAcceptsWellFormedConfig(t *testing.T) {
	if err := validDaemon().Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateRejectsChannelSizeOutOfRange(t *testing.T) {
	d := validDaemon()
	d.Globals.ChannelSize = 1
	if err := d.Validate(); err == nil {
		t.Error("expected an error for channel_size below the minimum")
	}

	d = validDaemon()
	d.Globals.ChannelSize = 2048
	if err := d.Validate(); err == nil {
		t.Error("expected an error for channel_size above the maximum")
	}
}

func TestValidateAllowsZeroChannelSize(t *testing.T) {
	d := validDaemon()
	d.Globals.ChannelSize = 0
	if err := d.Validate(); err != nil {
		t.Errorf("zero channel_size should mean \"use the default\": %v", err)
	}
}

func TestValidateRejectsDuplicatePluginName(t *testing.T) {
	d := validDaemon()
	d.Inputs = append(d.Inputs, Plugin{Name: "in1", Type: "file"})
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a duplicate input name")
	}
}

func TestValidateRejectsUnknownRouteReference(t *testing.T) {
	d := validDaemon()
	d.Routes[0].Input = "missing"
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a route referencing an unknown input")
	}

	d = validDaemon()
	d.Routes[0].Outputs = []string{"missing"}
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a route referencing an unknown output")
	}

	d = validDaemon()
	d.Routes[0].Transforms = []string{"missing"}
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a route referencing an unknown transform")
	}
}

func TestValidateRejectsRouteWithNoOutputs(t *testing.T) {
	d := validDaemon()
	d.Routes[0].Outputs = nil
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a route with no outputs")
	}
}

func TestValidateRejectsDuplicateRouteID(t *testing.T) {
	d := validDaemon()
	d.Routes = append(d.Routes, d.Routes[0])
	if err := d.Validate(); err == nil {
		t.Error("expected an error for a duplicate route id")
	}
}

func TestChannelCapacityReturnsConfiguredSize(t *testing.T) {
	d := validDaemon()
	if got := d.ChannelCapacity(); got != 128 {
		t.Errorf("ChannelCapacity() = %d, want 128", got)
	}
}
