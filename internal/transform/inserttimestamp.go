package transform

import (
	"fmt"
	"strconv"
	"time"

	"github.com/logship/logshipd/internal/value"
)

// DefaultTimestampField is the default field name, "t". The default format
// is UnixFraction (the zero TimestampFormat): fractional-second Unix epoch
// as a string.
const (
	DefaultTimestampField = "t"
)

// TimestampFormat selects how InsertTimestamp renders the current time.
type TimestampFormat int

const (
	// UnixFraction renders seconds.fraction since the epoch, e.g. "1700000000.123456".
	UnixFraction TimestampFormat = iota
	// RFC3339Nano renders time.RFC3339Nano.
	RFC3339Nano
)

// InsertTimestamp stamps Field with the current time in Format on every
// record that passes through it, unless the field is already present and
// Overwrite is false (the default) — the same overwrite policy InsertField
// applies (spec §4.5).
type InsertTimestamp struct {
	name      string
	Field     string
	Format    TimestampFormat
	Overwrite bool
	now       func() time.Time
}

// NewInsertTimestamp constructs an insert-timestamp transform named name.
// An empty field defaults to DefaultTimestampField.
func NewInsertTimestamp(name, field string, format TimestampFormat, overwrite bool) *InsertTimestamp {
	if field == "" {
		field = DefaultTimestampField
	}
	return &InsertTimestamp{name: name, Field: field, Format: format, Overwrite: overwrite, now: time.Now}
}

func (t *InsertTimestamp) Name() string { return t.name }

func (t *InsertTimestamp) Apply(v *value.Value) (*value.Value, bool, error) {
	if !v.IsMap() {
		return nil, false, fmt.Errorf("transform %s: insert-timestamp requires a structured payload", t.name)
	}
	if _, exists := v.Get(t.Field); exists && !t.Overwrite {
		return v, true, nil
	}
	v.Set(t.Field, t.render())
	return v, true, nil
}

func (t *InsertTimestamp) render() *value.Value {
	now := t.now()
	switch t.Format {
	case RFC3339Nano:
		return value.NewString(now.Format(time.RFC3339Nano))
	default:
		sec := float64(now.UnixNano()) / 1e9
		return value.NewString(strconv.FormatFloat(sec, 'f', 6, 64))
	}
}
