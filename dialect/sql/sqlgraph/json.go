// Package sqlgraph decodes hydrated relation columns and classifies
// driver errors for generated data-access code.
package sqlgraph

import (
	"encoding/json"
)

// raw returns the JSON bytes of a scanned relation column. Drivers hand
// JSON back as []byte, string, json.RawMessage or an already decoded
// value; the latter is re-encoded.
func raw(v any) ([]byte, bool) {
	switch v := v.(type) {
	case nil:
		return nil, false
	case *any:
		if v == nil {
			return nil, false
		}
		return raw(*v)
	case []byte:
		return v, len(v) > 0
	case json.RawMessage:
		return v, len(v) > 0
	case string:
		return []byte(v), v != ""
	case *string:
		if v == nil {
			return nil, false
		}
		return raw(*v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return nil, false
		}
		return b, true
	}
}

// DecodeOne decodes a to-one relation column. It returns nil when the
// column is NULL, JSON null, or not a valid encoding of T.
func DecodeOne[T any](v any) *T {
	b, ok := raw(v)
	if !ok || string(b) == "null" {
		return nil
	}
	out := new(T)
	if err := json.Unmarshal(b, out); err != nil {
		return nil
	}
	return out
}

// DecodeMany decodes a to-many relation column. An empty JSON array
// yields an empty, non-nil slice; NULL or malformed input yields nil.
func DecodeMany[T any](v any) []T {
	b, ok := raw(v)
	if !ok || string(b) == "null" {
		return nil
	}
	var out []T
	if err := json.Unmarshal(b, &out); err != nil {
		return nil
	}
	if out == nil {
		out = []T{}
	}
	return out
}
