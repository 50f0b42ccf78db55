package internal

import (
	"math"
	"reflect"
)

// Identical reports whether a and b are the same value: plain values compare
// by value, slices and maps by reference, funcs by code pointer.
// Unlike ==, it never panics on uncomparable dynamic types.
func Identical(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}

	return identical(va, vb, false)
}

// Shallow reports whether a and b are equal one level deep: maps by keys and
// identical values, slices and arrays element-wise, pointers to structs
// field-wise. Anything deeper is compared with Identical, except that NaN
// equals NaN.
func Shallow(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	if identical(va, vb, true) {
		return true
	}

	switch va.Kind() {
	case reflect.Map:
		if va.IsNil() != vb.IsNil() || va.Len() != vb.Len() {
			return false
		}

		iter := va.MapRange()
		for iter.Next() {
			other := vb.MapIndex(iter.Key())
			if !other.IsValid() || !identical(iter.Value(), other, true) {
				return false
			}
		}

		return true

	case reflect.Slice:
		if va.IsNil() != vb.IsNil() {
			return false
		}
		return elementsIdentical(va, vb, true)

	case reflect.Pointer:
		if va.IsNil() || vb.IsNil() || va.Elem().Kind() != reflect.Struct {
			return false
		}
		return identical(va.Elem(), vb.Elem(), true)
	}

	return false
}

// identical compares a and b of the same type. sameNaN makes NaN equal to
// itself, the way Object.is does.
func identical(a, b reflect.Value, sameNaN bool) bool {
	switch a.Kind() {
	case reflect.Bool:
		return a.Bool() == b.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return a.Int() == b.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return a.Uint() == b.Uint()
	case reflect.Float32, reflect.Float64:
		return floatsEqual(a.Float(), b.Float(), sameNaN)
	case reflect.Complex64, reflect.Complex128:
		x, y := a.Complex(), b.Complex()
		return floatsEqual(real(x), real(y), sameNaN) && floatsEqual(imag(x), imag(y), sameNaN)
	case reflect.String:
		return a.String() == b.String()

	case reflect.Pointer, reflect.Chan, reflect.Map, reflect.UnsafePointer:
		return a.UnsafePointer() == b.UnsafePointer()

	case reflect.Slice:
		return a.IsNil() == b.IsNil() && a.Len() == b.Len() && a.UnsafePointer() == b.UnsafePointer()

	case reflect.Func:
		return a.Pointer() == b.Pointer()

	case reflect.Interface:
		if a.IsNil() || b.IsNil() {
			return a.IsNil() && b.IsNil()
		}
		if a.Elem().Type() != b.Elem().Type() {
			return false
		}
		return identical(a.Elem(), b.Elem(), sameNaN)

	case reflect.Array:
		return elementsIdentical(a, b, sameNaN)

	case reflect.Struct:
		for i := range a.NumField() {
			if !identical(a.Field(i), b.Field(i), sameNaN) {
				return false
			}
		}
		return true
	}

	return false
}

func elementsIdentical(a, b reflect.Value, sameNaN bool) bool {
	if a.Len() != b.Len() {
		return false
	}

	for i := range a.Len() {
		if !identical(a.Index(i), b.Index(i), sameNaN) {
			return false
		}
	}

	return true
}

func floatsEqual(x, y float64, sameNaN bool) bool {
	return x == y || sameNaN && math.IsNaN(x) && math.IsNaN(y)
}
