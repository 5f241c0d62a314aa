// Package ident compares arbitrary values by reference identity.
//
// Props, hook dependencies and memoized values are compared the way a
// reference-typed language would compare them: scalars and other comparable
// values by value, and functions, slices and maps by the object they point to.
package ident

import (
	"reflect"
	"unsafe"
)

// eface mirrors the runtime layout of an empty interface.
type eface struct {
	typ  unsafe.Pointer
	data unsafe.Pointer
}

// Same reports whether a and b are the same value.
//
// Funcs are identical when they are the same closure object, so two closures
// created by separate evaluations of one literal differ. Slices are identical
// when they share a backing array start and length. Values of types that are
// not comparable (structs holding slices, for instance) are never identical.
func Same(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	switch ta.Kind() {
	case reflect.Func:
		if tb.Kind() != reflect.Func || !ta.ConvertibleTo(tb) {
			return false
		}
		return funcPointer(a) == funcPointer(b)
	case reflect.Slice:
		if ta != tb {
			return false
		}
		va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() == vb.IsNil()
		}
		return va.Len() == vb.Len() && va.Pointer() == vb.Pointer()
	case reflect.Map:
		if ta != tb {
			return false
		}
		return reflect.ValueOf(a).Pointer() == reflect.ValueOf(b).Pointer()
	}
	if ta != tb || !ta.Comparable() {
		return false
	}
	return safeEqual(a, b)
}

// SameSlice reports whether a and b have the same length and pairwise
// identical elements.
func SameSlice(a, b []any) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !Same(a[i], b[i]) {
			return false
		}
	}
	return true
}

// funcPointer returns the closure pointer held by a func stored in an interface.
// Func values are pointer-shaped, so the interface data word is the closure.
func funcPointer(v any) unsafe.Pointer {
	return (*eface)(unsafe.Pointer(&v)).data
}

// safeEqual compares with ==, treating a runtime comparison panic (an
// interface field holding an uncomparable value) as inequality.
func safeEqual(a, b any) (eq bool) {
	defer func() {
		if recover() != nil {
			eq = false
		}
	}()
	return a == b
}
