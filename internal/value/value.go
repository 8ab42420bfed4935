// Package value implements the canonical JSON-like structured value used as
// the inter-stage payload once a record has been parsed.
package value

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Kind identifies the variant held by a Value.
type Kind int

const (
	Null Kind = iota
	Bool
	Int
	Float
	String
	List
	Map
)

// Value is a JSON-like tree: null, boolean, integer, real, string, ordered
// list, or a mapping from string keys to values. Map key order is preserved
// for serialization but carries no semantic meaning.
type Value struct {
	kind Kind
	b    bool
	i    int64
	f    float64
	s    string
	list []*Value
	keys []string
	m    map[string]*Value
}

func NewNull() *Value              { return &Value{kind: Null} }
func NewBool(b bool) *Value        { return &Value{kind: Bool, b: b} }
func NewInt(i int64) *Value        { return &Value{kind: Int, i: i} }
func NewFloat(f float64) *Value    { return &Value{kind: Float, f: f} }
func NewString(s string) *Value    { return &Value{kind: String, s: s} }
func NewList(l []*Value) *Value    { return &Value{kind: List, list: l} }
func NewMap() *Value               { return &Value{kind: Map, m: make(map[string]*Value)} }

func (v *Value) Kind() Kind { return v.kind }

func (v *Value) Bool() (bool, bool) {
	if v == nil || v.kind != Bool {
		return false, false
	}
	return v.b, true
}

func (v *Value) Int() (int64, bool) {
	if v == nil || v.kind != Int {
		return 0, false
	}
	return v.i, true
}

func (v *Value) Float() (float64, bool) {
	if v == nil || v.kind != Float {
		return 0, false
	}
	return v.f, true
}

func (v *Value) String() (string, bool) {
	if v == nil || v.kind != String {
		return "", false
	}
	return v.s, true
}

func (v *Value) List() ([]*Value, bool) {
	if v == nil || v.kind != List {
		return nil, false
	}
	return v.list, true
}

// Get returns the value at key, and whether key was present. Get only
// succeeds on a Map-kind value.
func (v *Value) Get(key string) (*Value, bool) {
	if v == nil || v.kind != Map {
		return nil, false
	}
	val, ok := v.m[key]
	return val, ok
}

// Set inserts or overwrites key with val. Set only applies to Map-kind
// values; it panics otherwise, as that indicates a programming error in the
// caller (transforms must check IsMap first).
func (v *Value) Set(key string, val *Value) {
	if v.kind != Map {
		panic("value: Set called on non-map value")
	}
	if _, exists := v.m[key]; !exists {
		v.keys = append(v.keys, key)
	}
	v.m[key] = val
}

// Keys returns the map's keys in insertion order. Empty for non-map values.
func (v *Value) Keys() []string {
	if v == nil || v.kind != Map {
		return nil
	}
	out := make([]string, len(v.keys))
	copy(out, v.keys)
	return out
}

func (v *Value) IsMap() bool { return v != nil && v.kind == Map }

// Clone returns a deep copy of v.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	switch v.kind {
	case List:
		l := make([]*Value, len(v.list))
		for i, e := range v.list {
			l[i] = e.Clone()
		}
		return &Value{kind: List, list: l}
	case Map:
		nv := NewMap()
		for _, k := range v.keys {
			nv.Set(k, v.m[k].Clone())
		}
		return nv
	default:
		cp := *v
		return &cp
	}
}

// MarshalJSON implements json.Marshaler.
func (v *Value) MarshalJSON() ([]byte, error) {
	if v == nil {
		return []byte("null"), nil
	}
	switch v.kind {
	case Null:
		return []byte("null"), nil
	case Bool:
		return json.Marshal(v.b)
	case Int:
		return json.Marshal(v.i)
	case Float:
		return json.Marshal(v.f)
	case String:
		return json.Marshal(v.s)
	case List:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, e := range v.list {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := e.MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case Map:
		var buf bytes.Buffer
		buf.WriteByte('{')
		for i, k := range v.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			kb, err := json.Marshal(k)
			if err != nil {
				return nil, err
			}
			buf.Write(kb)
			buf.WriteByte(':')
			vb, err := v.m[k].MarshalJSON()
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		buf.WriteByte('}')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("value: unknown kind %d", v.kind)
	}
}

// UnmarshalJSON implements json.Unmarshaler, preserving object key order.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	val, err := decodeValue(dec)
	if err != nil {
		return err
	}
	*v = *val
	return nil
}

// Parse decodes a single JSON document into a Value, preserving object key
// order as emitted by the encoder.
func Parse(data []byte) (*Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("value: trailing data after JSON document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (*Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	return decodeToken(dec, tok)
}

func decodeToken(dec *json.Decoder, tok json.Token) (*Value, error) {
	switch t := tok.(type) {
	case nil:
		return NewNull(), nil
	case bool:
		return NewBool(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return NewInt(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return nil, err
		}
		return NewFloat(f), nil
	case string:
		return NewString(t), nil
	case json.Delim:
		switch t {
		case '[':
			list := []*Value{}
			for dec.More() {
				elTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				el, err := decodeToken(dec, elTok)
				if err != nil {
					return nil, err
				}
				list = append(list, el)
			}
			if _, err := dec.Token(); err != nil { // consume ']'
				return nil, err
			}
			return NewList(list), nil
		case '{':
			m := NewMap()
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				key, ok := keyTok.(string)
				if !ok {
					return nil, fmt.Errorf("value: expected string key, got %v", keyTok)
				}
				valTok, err := dec.Token()
				if err != nil {
					return nil, err
				}
				val, err := decodeToken(dec, valTok)
				if err != nil {
					return nil, err
				}
				m.Set(key, val)
			}
			if _, err := dec.Token(); err != nil { // consume '}'
				return nil, err
			}
			return m, nil
		}
	}
	return nil, fmt.Errorf("value: unexpected token %v", tok)
}
