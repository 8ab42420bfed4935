// Package config defines the validated configuration object the core
// consumes (spec §6): the loader in cmd/logshipd populates a Daemon from a
// configuration document; grammar/validation-diagnostics richness is out of
// scope, so Validate only checks the references and ranges this package's own
// consumers (plugin.Registry, route.Route) would otherwise panic or
// misbehave on.
package config

import "fmt"

// Globals holds the top-level, daemon-wide settings (spec §6).
type Globals struct {
	ChannelSize int    `mapstructure:"channel_size"`
	LogFile     string `mapstructure:"log_file"`
}

// Plugin is one named, typed entry under input/transform/output (spec §6).
// Args is the driver-specific argument table, left as a generic map so this
// package never needs to know every driver's schema.
type Plugin struct {
	Name        string                 `mapstructure:"name"`
	Type        string                 `mapstructure:"type"`
	Description string                 `mapstructure:"description"`
	Args        map[string]interface{} `mapstructure:"args"`
}

// Route names one input, an ordered transform chain, and a set of outputs
// (spec §6); all three must resolve against the configured plugin names.
type Route struct {
	ID         string   `mapstructure:"id"`
	Input      string   `mapstructure:"input"`
	Transforms []string `mapstructure:"transforms"`
	Outputs    []string `mapstructure:"outputs"`
}

// Daemon is the root configuration object the supervisor consumes.
type Daemon struct {
	Globals    Globals  `mapstructure:"globals"`
	Inputs     []Plugin `mapstructure:"input"`
	Transforms []Plugin `mapstructure:"transform"`
	Outputs    []Plugin `mapstructure:"output"`
	Routes     []Route  `mapstructure:"route"`
}

// Validate checks name uniqueness within each kind, route reference
// resolution, and globals ranges, failing fast with a diagnostic (spec §6:
// "otherwise startup fails with a diagnostic").
func (d *Daemon) Validate() error {
	if d.Globals.ChannelSize != 0 && (d.Globals.ChannelSize < 2 || d.Globals.ChannelSize > 1024) {
		return fmt.Errorf("config: globals.channel_size %d out of range [2, 1024]", d.Globals.ChannelSize)
	}

	inputs, err := uniqueNames("input", d.Inputs)
	if err != nil {
		return err
	}
	transforms, err := uniqueNames("transform", d.Transforms)
	if err != nil {
		return err
	}
	outputs, err := uniqueNames("output", d.Outputs)
	if err != nil {
		return err
	}

	ids := make(map[string]bool, len(d.Routes))
	for _, r := range d.Routes {
		if r.ID == "" {
			return fmt.Errorf("config: route missing id")
		}
		if ids[r.ID] {
			return fmt.Errorf("config: duplicate route id %q", r.ID)
		}
		ids[r.ID] = true

		if !inputs[r.Input] {
			return fmt.Errorf("config: route %q references unknown input %q", r.ID, r.Input)
		}
		for _, tr := range r.Transforms {
			if !transforms[tr] {
				return fmt.Errorf("config: route %q references unknown transform %q", r.ID, tr)
			}
		}
		if len(r.Outputs) == 0 {
			return fmt.Errorf("config: route %q declares no outputs", r.ID)
		}
		for _, out := range r.Outputs {
			if !outputs[out] {
				return fmt.Errorf("config: route %q references unknown output %q", r.ID, out)
			}
		}
	}
	return nil
}

func uniqueNames(kind string, plugins []Plugin) (map[string]bool, error) {
	names := make(map[string]bool, len(plugins))
	for _, p := range plugins {
		if p.Name == "" {
			return nil, fmt.Errorf("config: %s entry missing name", kind)
		}
		if names[p.Name] {
			return nil, fmt.Errorf("config: duplicate %s name %q", kind, p.Name)
		}
		names[p.Name] = true
	}
	return names, nil
}

// ChannelCapacity returns the configured channel size, or 0 to mean "use the
// package default" (spec §6: default 128).
func (d *Daemon) ChannelCapacity() int {
	return d.Globals.ChannelSize
}
