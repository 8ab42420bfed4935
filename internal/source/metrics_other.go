//go:build !linux

package source

import "github.com/logship/logshipd/internal/value"

// On non-Linux platforms there is no single stdlib-reachable source for
// these categories (spec §4.4's non-goal of a full system-metrics library
// applies here too); each category reports only that it is unsupported on
// this platform rather than silently emitting zeros.
func unsupportedStats() (*value.Value, error) {
	v := value.NewMap()
	v.Set("supported", value.NewBool(false))
	return v, nil
}

func readCPUStats() (*value.Value, error)  { return unsupportedStats() }
func readMemStats() (*value.Value, error)  { return unsupportedStats() }
func readDiskStats() (*value.Value, error) { return unsupportedStats() }
func readNetStats() (*value.Value, error)  { return unsupportedStats() }
