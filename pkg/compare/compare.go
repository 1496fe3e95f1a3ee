// Package compare provides the equality policies that decide whether a new
// atom value is a real change.
//
// Three policies exist:
//
//	compare.Shallow[T]()          // identity for references, == for scalars
//	compare.Deep[T]()             // structural equality
//	compare.Custom(func(a, b T) bool { ... })
//
// All policies are pure, deterministic and never panic for well-formed values.
package compare

import (
	"math"
	"reflect"
)

// Kind identifies an equality policy.
type Kind uint8

const (
	// KindShallow compares scalars by value and references by identity.
	KindShallow Kind = iota
	// KindDeep compares composite values structurally.
	KindDeep
	// KindCustom delegates to a caller-supplied predicate.
	KindCustom
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindShallow:
		return "shallow"
	case KindDeep:
		return "deep"
	case KindCustom:
		return "custom"
	default:
		return "unknown"
	}
}

// Func reports whether two values are equal.
type Func[T any] func(a, b T) bool

// Policy is a memoization policy for values of type T.
// The zero Policy is shallow.
type Policy[T any] struct {
	Kind    Kind
	Compare Func[T]
}

// Shallow returns the default identity/value policy.
func Shallow[T any]() Policy[T] {
	return Policy[T]{Kind: KindShallow}
}

// Deep returns the structural equality policy.
func Deep[T any]() Policy[T] {
	return Policy[T]{Kind: KindDeep}
}

// Custom returns a policy backed by fn. A nil fn behaves like Shallow.
func Custom[T any](fn Func[T]) Policy[T] {
	return Policy[T]{Kind: KindCustom, Compare: fn}
}

// Equal reports whether a and b are equal under the policy.
func (p Policy[T]) Equal(a, b T) bool {
	switch p.Kind {
	case KindDeep:
		return DeepEqual(a, b)
	case KindCustom:
		if p.Compare != nil {
			return p.Compare(a, b)
		}
		return ShallowEqual(a, b)
	default:
		return ShallowEqual(a, b)
	}
}

// ShallowEqual compares scalars by value and references (pointers, maps,
// slices, channels, funcs) by identity. Arrays and structs are compared
// element by element using the same rules, so a struct holding the same
// slice header twice is equal while two copies of its contents are not.
func ShallowEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	va, vb := reflect.ValueOf(a), reflect.ValueOf(b)
	if va.Type() != vb.Type() {
		return false
	}
	return shallowValue(va, vb)
}

// DeepEqual reports structural equality. Values that are shallow-equal are
// always deep-equal, which keeps NaN and identical func values reflexive.
func DeepEqual(a, b any) bool {
	if ShallowEqual(a, b) {
		return true
	}
	return reflect.DeepEqual(a, b)
}

func shallowValue(va, vb reflect.Value) bool {
	switch va.Kind() {
	case reflect.Bool:
		return va.Bool() == vb.Bool()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return va.Int() == vb.Int()
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return va.Uint() == vb.Uint()
	case reflect.Float32, reflect.Float64:
		return floatEqual(va.Float(), vb.Float())
	case reflect.Complex64, reflect.Complex128:
		ca, cb := va.Complex(), vb.Complex()
		return floatEqual(real(ca), real(cb)) && floatEqual(imag(ca), imag(cb))
	case reflect.String:
		return va.String() == vb.String()
	case reflect.Slice:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		return va.Pointer() == vb.Pointer() && va.Len() == vb.Len()
	case reflect.Map, reflect.Chan, reflect.Func, reflect.Pointer, reflect.UnsafePointer:
		return va.Pointer() == vb.Pointer()
	case reflect.Interface:
		if va.IsNil() || vb.IsNil() {
			return va.IsNil() && vb.IsNil()
		}
		ea, eb := va.Elem(), vb.Elem()
		if ea.Type() != eb.Type() {
			return false
		}
		return shallowValue(ea, eb)
	case reflect.Array:
		for i := 0; i < va.Len(); i++ {
			if !shallowValue(va.Index(i), vb.Index(i)) {
				return false
			}
		}
		return true
	case reflect.Struct:
		for i := 0; i < va.NumField(); i++ {
			if !shallowValue(va.Field(i), vb.Field(i)) {
				return false
			}
		}
		return true
	default:
		return false
	}
}

// floatEqual treats NaN as equal to itself so that every value equals itself.
func floatEqual(a, b float64) bool {
	if math.IsNaN(a) && math.IsNaN(b) {
		return true
	}
	return a == b
}
