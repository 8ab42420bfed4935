package value

import "testing"

func TestMapPreservesInsertionOrderOnMarshal(t *testing.T) {
	m := NewMap()
	m.Set("b", NewInt(2))
	m.Set("a", NewInt(1))
	m.Set("c", NewInt(3))

	b, err := m.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	want := `{"b":2,"a":1,"c":3}`
	if string(b) != want {
		t.Errorf("MarshalJSON() = %s, want %s", b, want)
	}
}

func TestSetOverwriteKeepsKeyPosition(t *testing.T) {
	m := NewMap()
	m.Set("a", NewInt(1))
	m.Set("b", NewInt(2))
	m.Set("a", NewInt(99))

	if got := m.Keys(); len(got) != 2 || got[0] != "a" || got[1] != "b" {
		t.Errorf("Keys() = %v, want [a b]", got)
	}
	v, ok := m.Get("a")
	if !ok {
		t.Fatal("expected key a to exist")
	}
	if i, _ := v.Int(); i != 99 {
		t.Errorf("a = %d, want 99", i)
	}
}

func TestSetOnNonMapPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected Set on a non-map value to panic")
		}
	}()
	NewString("x").Set("k", NewInt(1))
}

func TestParseRoundTripsNestedDocument(t *testing.T) {
	src := `{"name":"web-01","tags":["a","b"],"count":3,"ratio":1.5,"ok":true,"missing":null}`
	v, err := Parse([]byte(src))
	if err != nil {
		t.Fatal(err)
	}
	if !v.IsMap() {
		t.Fatal("expected a map")
	}
	name, _ := mustGet(t, v, "name").String()
	if name != "web-01" {
		t.Errorf("name = %q", name)
	}
	tags, ok := mustGet(t, v, "tags").List()
	if !ok || len(tags) != 2 {
		t.Fatalf("tags = %v", tags)
	}
	count, _ := mustGet(t, v, "count").Int()
	if count != 3 {
		t.Errorf("count = %d, want 3", count)
	}
	ratio, _ := mustGet(t, v, "ratio").Float()
	if ratio != 1.5 {
		t.Errorf("ratio = %v, want 1.5", ratio)
	}
	ok2, _ := mustGet(t, v, "ok").Bool()
	if !ok2 {
		t.Error("ok = false, want true")
	}
	if mustGet(t, v, "missing").Kind() != Null {
		t.Error("missing should decode as Null")
	}

	out, err := v.MarshalJSON()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != src {
		t.Errorf("round trip = %s, want %s", out, src)
	}
}

func TestParseRejectsTrailingData(t *testing.T) {
	if _, err := Parse([]byte(`{"a":1} garbage`)); err == nil {
		t.Error("expected an error for trailing data after the document")
	}
}

func TestCloneIsIndependent(t *testing.T) {
	m := NewMap()
	m.Set("list", NewList([]*Value{NewInt(1), NewInt(2)}))

	cp := m.Clone()
	cp.Set("list", NewList([]*Value{NewInt(99)}))

	orig, _ := m.Get("list")
	origList, _ := orig.List()
	if len(origList) != 2 {
		t.Errorf("original list mutated by clone: %v", origList)
	}
}

func mustGet(t *testing.T, v *Value, key string) *Value {
	t.Helper()
	out, ok := v.Get(key)
	if !ok {
		t.Fatalf("missing key %q", key)
	}
	return out
}
