// Package record implements the in-flight unit passed between pipeline
// stages: a payload plus the offset token of the source position whose
// acknowledged delivery authorizes advancing the source's cursor.
package record

import "github.com/logship/logshipd/internal/value"

// Token is an opaque, source-specific position marker. Tokens from the same
// source are totally ordered by Less. Sources that do not checkpoint
// (metrics, stdin) stamp their records with token.None.
type Token interface {
	// String renders the token for logs and cursor-file serialization.
	String() string
	// Less reports whether t sorts strictly before o under the source's
	// ordering. Implementations only need to compare tokens of their own
	// concrete type.
	Less(o Token) bool
	// Equal reports token equality.
	Equal(o Token) bool
}

// Record is produced by exactly one source and consumed by exactly one
// route. Payload is either Raw bytes or a parsed Value, never both.
type Record struct {
	RouteID string
	Token   Token

	Raw   []byte
	Value *value.Value
}

// New creates a raw-payload record.
func New(routeID string, tok Token, raw []byte) *Record {
	return &Record{RouteID: routeID, Token: tok, Raw: raw}
}

// NewStructured creates a structured-payload record.
func NewStructured(routeID string, tok Token, v *value.Value) *Record {
	return &Record{RouteID: routeID, Token: tok, Value: v}
}

// IsStructured reports whether the record carries a parsed Value rather than
// raw bytes.
func (r *Record) IsStructured() bool { return r.Value != nil }

// Clone returns a shallow copy of r with a deep-cloned structured value, so
// transforms may mutate their output without affecting the input record
// still referenced elsewhere (e.g. retried on a later stage).
func (r *Record) Clone() *Record {
	nr := &Record{RouteID: r.RouteID, Token: r.Token}
	if r.Raw != nil {
		nr.Raw = append([]byte(nil), r.Raw...)
	}
	if r.Value != nil {
		nr.Value = r.Value.Clone()
	}
	return nr
}
