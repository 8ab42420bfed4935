package transform

import (
	"testing"
	"time"

	"github.com/logship/logshipd/internal/value"
)

func TestInsertFieldPreservesExistingByDefault(t *testing.T) {
	f := NewInsertField("t1", "host", value.NewString("new-host"), false)

	v := value.NewMap()
	v.Set("host", value.NewString("original-host"))

	out, ok, err := f.Apply(v)
	if err != nil || !ok {
		t.Fatalf("Apply() = _, %v, %v", ok, err)
	}
	got, _ := out.Get("host")
	s, _ := got.String()
	if s != "original-host" {
		t.Errorf("host = %q, want unchanged %q", s, "original-host")
	}
}

func TestInsertFieldOverwriteReplacesExisting(t *testing.T) {
	f := NewInsertField("t1", "host", value.NewString("new-host"), true)

	v := value.NewMap()
	v.Set("host", value.NewString("original-host"))

	out, _, err := f.Apply(v)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.Get("host")
	s, _ := got.String()
	if s != "new-host" {
		t.Errorf("host = %q, want %q", s, "new-host")
	}
}

func TestInsertFieldAddsMissingField(t *testing.T) {
	f := NewInsertField("t1", "source", value.NewString("file"), false)
	v := value.NewMap()

	out, _, err := f.Apply(v)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := out.Get("source")
	if !ok {
		t.Fatal("expected source field to be added")
	}
	s, _ := got.String()
	if s != "file" {
		t.Errorf("source = %q, want %q", s, "file")
	}
}

func TestInsertFieldDropsRawPayload(t *testing.T) {
	f := NewInsertField("t1", "host", value.NewString("new-host"), false)

	_, ok, err := f.Apply(value.NewString("raw line"))
	if err == nil {
		t.Fatal("expected an error for a non-structured payload")
	}
	if ok {
		t.Error("expected ok=false for a dropped record")
	}
}

func TestInsertTimestampDefaultField(t *testing.T) {
	fixed := time.Date(2026, 7, 31, 0, 0, 0, 123456000, time.UTC)
	ts := NewInsertTimestamp("t1", "", UnixFraction, false)
	ts.now = func() time.Time { return fixed }

	v := value.NewMap()
	out, _, err := ts.Apply(v)
	if err != nil {
		t.Fatal(err)
	}
	got, ok := out.Get(DefaultTimestampField)
	if !ok {
		t.Fatalf("expected default field %q to be set", DefaultTimestampField)
	}
	s, _ := got.String()
	if s == "" {
		t.Error("expected a non-empty rendered timestamp")
	}
}

func TestInsertTimestampPreservesExistingByDefault(t *testing.T) {
	ts := NewInsertTimestamp("t1", "t", UnixFraction, false)
	ts.now = func() time.Time { return time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC) }

	v := value.NewMap()
	v.Set("t", value.NewString("original"))

	out, _, err := ts.Apply(v)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.Get("t")
	s, _ := got.String()
	if s != "original" {
		t.Errorf("t = %q, want unchanged %q", s, "original")
	}
}

func TestInsertTimestampOverwriteReplacesExisting(t *testing.T) {
	fixed := time.Date(2026, 7, 31, 0, 0, 0, 0, time.UTC)
	ts := NewInsertTimestamp("t1", "t", UnixFraction, true)
	ts.now = func() time.Time { return fixed }

	v := value.NewMap()
	v.Set("t", value.NewString("original"))

	out, _, err := ts.Apply(v)
	if err != nil {
		t.Fatal(err)
	}
	got, _ := out.Get("t")
	s, _ := got.String()
	if s == "original" {
		t.Error("expected the original value to be overwritten")
	}
}
