package autosave

import (
	"encoding/json"
	"fmt"
)

// Cloner lets a state type supply its own deep-copy logic.
//
// The clone must be fully independent: mutating it, or mutating the
// original afterwards, must not be observable through the other. For types
// holding slices, maps, or pointers that means copying those too.
type Cloner[T any] interface {
	Clone() T
}

// cloneValue returns a deep, independent copy of v.
//
// Types implementing Cloner[T] are copied via Clone. Everything else takes a
// JSON round trip, which restricts state types to plain structurally
// cloneable aggregates (exported struct fields, maps, slices, primitives).
// Values holding channels, functions, or other live handles are a
// programming error and panic here rather than silently persisting garbage.
func cloneValue[T any](v T) T {
	if c, ok := any(v).(Cloner[T]); ok {
		return c.Clone()
	}
	data, err := json.Marshal(v)
	if err != nil {
		panic(fmt.Sprintf("autosave: state of type %T is not cloneable: %v", v, err))
	}
	var out T
	if err := json.Unmarshal(data, &out); err != nil {
		panic(fmt.Sprintf("autosave: state of type %T did not survive a clone round trip: %v", v, err))
	}
	return out
}
