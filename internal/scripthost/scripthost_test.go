package scripthost

import (
	"testing"

	"github.com/logship/logshipd/internal/value"
)

func TestCallRoundTripsStructuredValue(t *testing.T) {
	h := New()
	src := `function addField(v) { v.greeting = "hello " + v.name; return v; }`
	if err := h.Load("test.js", []byte(src)); err != nil {
		t.Fatal(err)
	}

	in := value.NewMap()
	in.Set("name", value.NewString("world"))

	out, ok, err := h.Call("addField", in)
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("expected a value, got none")
	}
	greeting, ok := mustGet(t, out, "greeting").String()
	if !ok || greeting != "hello world" {
		t.Errorf("greeting = %q, %v, want \"hello world\", true", greeting, ok)
	}
}

func TestCallReturningUndefinedDropsRecord(t *testing.T) {
	h := New()
	if err := h.Load("test.js", []byte(`function drop(v) { return undefined; }`)); err != nil {
		t.Fatal(err)
	}
	_, ok, err := h.Call("drop", value.NewMap())
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Error("expected ok=false for a function returning undefined")
	}
}

func TestCallErrorPropagates(t *testing.T) {
	h := New()
	if err := h.Load("test.js", []byte(`function boom(v) { throw new Error("nope"); }`)); err != nil {
		t.Fatal(err)
	}
	_, _, err := h.Call("boom", value.NewMap())
	if err == nil {
		t.Error("expected an error from a throwing script")
	}
}

func mustGet(t *testing.T, v *value.Value, key string) *value.Value {
	t.Helper()
	out, ok := v.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	return out
}
