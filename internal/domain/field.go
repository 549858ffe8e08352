package domain

import (
	"bytes"
	"encoding/json"
)

// Field models an optional update value as an explicit tri-state:
// absent (leave unchanged), JSON null (clear), or a concrete value
// (replace). This keeps "field omitted" distinct from "field cleared",
// which sentinel values like the empty string conflate.
type Field[T any] struct {
	present bool
	null    bool
	value   T
}

// Set returns a Field carrying a concrete value.
func Set[T any](v T) Field[T] {
	return Field[T]{present: true, value: v}
}

// Cleared returns a Field representing an explicit null.
func Cleared[T any]() Field[T] {
	return Field[T]{present: true, null: true}
}

// Present reports whether the field appeared in the input at all.
func (f Field[T]) Present() bool { return f.present }

// Null reports whether the field was an explicit null.
func (f Field[T]) Null() bool { return f.present && f.null }

// Value returns the concrete value and whether one was supplied.
func (f Field[T]) Value() (T, bool) {
	if !f.present || f.null {
		var zero T
		return zero, false
	}
	return f.value, true
}

var jsonNull = []byte("null")

// UnmarshalJSON is only invoked for fields present in the input, so a
// decoded Field is either set or null; absent fields stay zero-valued.
func (f *Field[T]) UnmarshalJSON(data []byte) error {
	f.present = true
	if bytes.Equal(data, jsonNull) {
		f.null = true
		return nil
	}
	return json.Unmarshal(data, &f.value)
}
