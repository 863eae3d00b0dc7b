// Package optional provides an explicit present/absent wrapper used at the
// sheet API boundaries where a missing level, quality or id is meaningful.
package optional

import "fmt"

// Value holds a T that may be absent. The zero Value is absent.
type Value[T any] struct {
	value   T
	present bool
}

// Some returns a present value.
func Some[T any](v T) Value[T] {
	return Value[T]{value: v, present: true}
}

// None returns an absent value.
func None[T any]() Value[T] {
	return Value[T]{}
}

// FromPointer returns Some(*p) for a non-nil pointer and None otherwise.
func FromPointer[T any](p *T) Value[T] {
	if p == nil {
		return None[T]()
	}
	return Some(*p)
}

// Get returns the held value and whether it is present.
func (v Value[T]) Get() (T, bool) {
	return v.value, v.present
}

// Present reports whether a value is held.
func (v Value[T]) Present() bool {
	return v.present
}

// Or returns the held value, or fallback when absent.
func (v Value[T]) Or(fallback T) T {
	if !v.present {
		return fallback
	}
	return v.value
}

// Pointer returns a pointer to a copy of the held value, or nil when absent.
func (v Value[T]) Pointer() *T {
	if !v.present {
		return nil
	}
	out := v.value
	return &out
}

// String renders the value for logs and test failures.
func (v Value[T]) String() string {
	if !v.present {
		return "<none>"
	}
	return fmt.Sprint(v.value)
}
