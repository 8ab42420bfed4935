package transform

import (
	"fmt"

	"github.com/logship/logshipd/internal/value"
)

// InsertField sets Field to a constant Value on every record, unless the
// field is already present and Overwrite is false (the default), in which
// case the existing value is left untouched (spec §8 testable property).
type InsertField struct {
	name      string
	Field     string
	Value     *value.Value
	Overwrite bool
}

// NewInsertField constructs an insert-field transform named name.
func NewInsertField(name, field string, v *value.Value, overwrite bool) *InsertField {
	return &InsertField{name: name, Field: field, Value: v, Overwrite: overwrite}
}

func (f *InsertField) Name() string { return f.name }

func (f *InsertField) Apply(v *value.Value) (*value.Value, bool, error) {
	if !v.IsMap() {
		return nil, false, fmt.Errorf("transform %s: insert-field requires a structured payload", f.name)
	}
	if _, exists := v.Get(f.Field); exists && !f.Overwrite {
		return v, true, nil
	}
	v.Set(f.Field, f.Value)
	return v, true, nil
}
