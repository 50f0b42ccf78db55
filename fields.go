package vortex

import (
	"fmt"
	"reflect"
	"slices"
)

// field is one entry of a store state: a unit, or a plain value read back
// from the state on every snapshot.
type field struct {
	name string
	unit Unit

	read func() any
}

// fieldsOf lists the fields of a state value. state is either a struct, a
// pointer to a struct or a map keyed by strings. Struct fields are named
// after their `vortex` tag, or the field name, and skipped when unexported
// or tagged "-". Map keys are sorted.
func fieldsOf(state any) ([]field, error) {
	v := reflect.ValueOf(state)
	if !v.IsValid() {
		return nil, fmt.Errorf("vortex: setup returned nil")
	}

	// the pointed-to struct is addressable, plain fields are then read live
	root := v
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, fmt.Errorf("vortex: setup returned a nil %s", root.Type())
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		return structFields(v), nil
	case reflect.Map:
		if v.Type().Key().Kind() != reflect.String {
			return nil, fmt.Errorf("vortex: state map must be keyed by strings, got %s", v.Type())
		}
		return mapFields(v), nil
	default:
		return nil, fmt.Errorf("vortex: state must be a struct or a map, got %s", root.Type())
	}
}

func structFields(v reflect.Value) []field {
	t := v.Type()
	fields := make([]field, 0, t.NumField())

	for i := range t.NumField() {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		name := sf.Name
		if tag, ok := sf.Tag.Lookup("vortex"); ok {
			if tag == "-" {
				continue
			}
			if tag != "" {
				name = tag
			}
		}

		fv := v.Field(i)
		fields = append(fields, newField(name, func() reflect.Value { return fv }))
	}

	return fields
}

func mapFields(v reflect.Value) []field {
	keys := v.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int {
		switch {
		case a.String() < b.String():
			return -1
		case a.String() > b.String():
			return 1
		}
		return 0
	})

	fields := make([]field, 0, len(keys))
	for _, k := range keys {
		fields = append(fields, newField(k.String(), func() reflect.Value { return v.MapIndex(k) }))
	}

	return fields
}

func newField(name string, get func() reflect.Value) field {
	f := field{name: name}

	if fv := get(); fv.IsValid() && !isNil(fv) {
		if u, ok := fv.Interface().(Unit); ok {
			f.unit = u
			return f
		}
	}

	f.read = func() any {
		fv := get()
		if !fv.IsValid() {
			return nil
		}
		return fv.Interface()
	}

	return f
}

func isNil(v reflect.Value) bool {
	switch v.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return v.IsNil()
	}
	return false
}
