// Package scripthost embeds a JavaScript interpreter (goja) so the script
// transform (spec §4.5) can run small user-supplied functions against a
// structured value. goja.Runtime is not safe for concurrent use, so every
// route's script transform shares one process-wide Host behind a mutex —
// the "global interpreter lock" referenced in SPEC_FULL.md §4.5/§9.
package scripthost

import (
	"fmt"
	"sync"

	"github.com/dop251/goja"

	"github.com/logship/logshipd/internal/value"
)

// Host wraps a single goja.Runtime. All exported methods are safe to call
// concurrently; calls serialize on an internal mutex.
type Host struct {
	mu     sync.Mutex
	vm     *goja.Runtime
	loaded map[string]bool
}

// New returns an empty Host.
func New() *Host {
	return &Host{vm: goja.New()}
}

// Load evaluates the script at path (already read by the caller into src)
// under name, making any top-level function declarations available to
// Call. Re-loading the same name replaces its prior definitions.
func (h *Host) Load(name string, src []byte) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, err := h.vm.RunScript(name, string(src)); err != nil {
		return fmt.Errorf("scripthost: load %s: %w", name, err)
	}
	if h.loaded == nil {
		h.loaded = make(map[string]bool)
	}
	h.loaded[name] = true
	return nil
}

// Call invokes the global function fn with arg marshaled to a JS value. The
// returned bool is false when the function returned undefined or null
// (spec §4.5: a script transform may signal "drop this record" by
// returning none), in which case the *value.Value is nil.
func (h *Host) Call(fn string, arg *value.Value) (*value.Value, bool, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	fv := h.vm.Get(fn)
	callable, ok := goja.AssertFunction(fv)
	if !ok {
		return nil, false, fmt.Errorf("scripthost: %s is not a function", fn)
	}

	jsArg := h.vm.ToValue(valueToNative(arg))
	result, err := callable(goja.Undefined(), jsArg)
	if err != nil {
		return nil, false, fmt.Errorf("scripthost: %s: %w", fn, err)
	}
	if result == nil || goja.IsUndefined(result) || goja.IsNull(result) {
		return nil, false, nil
	}

	out, err := nativeToValue(result.Export())
	if err != nil {
		return nil, false, fmt.Errorf("scripthost: %s: converting result: %w", fn, err)
	}
	return out, true, nil
}

// valueToNative converts a structured Value into plain Go data goja can
// marshal into JS (map[string]interface{}, []interface{}, and scalars).
func valueToNative(v *value.Value) interface{} {
	if v == nil {
		return nil
	}
	switch v.Kind() {
	case value.Null:
		return nil
	case value.Bool:
		b, _ := v.Bool()
		return b
	case value.Int:
		i, _ := v.Int()
		return i
	case value.Float:
		f, _ := v.Float()
		return f
	case value.String:
		s, _ := v.String()
		return s
	case value.List:
		list, _ := v.List()
		out := make([]interface{}, len(list))
		for i, e := range list {
			out[i] = valueToNative(e)
		}
		return out
	case value.Map:
		out := make(map[string]interface{})
		for _, k := range v.Keys() {
			e, _ := v.Get(k)
			out[k] = valueToNative(e)
		}
		return out
	default:
		return nil
	}
}

// nativeToValue converts the plain Go data goja.Value.Export() returns back
// into a structured Value.
func nativeToValue(native interface{}) (*value.Value, error) {
	switch t := native.(type) {
	case nil:
		return value.NewNull(), nil
	case bool:
		return value.NewBool(t), nil
	case int64:
		return value.NewInt(t), nil
	case int:
		return value.NewInt(int64(t)), nil
	case float64:
		if float64(int64(t)) == t {
			return value.NewInt(int64(t)), nil
		}
		return value.NewFloat(t), nil
	case string:
		return value.NewString(t), nil
	case []interface{}:
		list := make([]*value.Value, len(t))
		for i, e := range t {
			ev, err := nativeToValue(e)
			if err != nil {
				return nil, err
			}
			list[i] = ev
		}
		return value.NewList(list), nil
	case map[string]interface{}:
		m := value.NewMap()
		for k, e := range t {
			ev, err := nativeToValue(e)
			if err != nil {
				return nil, err
			}
			m.Set(k, ev)
		}
		return m, nil
	default:
		return nil, fmt.Errorf("scripthost: unsupported script return type %T", native)
	}
}
