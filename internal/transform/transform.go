// Package transform implements the route pipeline stages that mutate a
// structured value in place: the embedded-script transform, insert-field,
// and insert-timestamp (spec §4.5).
package transform

import "github.com/logship/logshipd/internal/value"

// Transform applies one pipeline stage to v, returning the (possibly new)
// value to pass downstream, or ok=false to drop the record entirely.
type Transform interface {
	Name() string
	Apply(v *value.Value) (*value.Value, bool, error)
}
