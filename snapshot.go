package vortex

import "fmt"

// Snapshot is the unwrapped state of a store, keyed by field name.
type Snapshot map[string]any

// current value of the field, units unwrapped
func (f field) current() any {
	if f.unit == nil {
		return f.read()
	}

	switch k := f.unit.Kind(); k {
	case KindReactive, KindComputed, KindQuery:
		return f.unit.value()
	default:
		panic(fmt.Sprintf("vortex: field %q has unknown unit kind %d", f.name, k))
	}
}
