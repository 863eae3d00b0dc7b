// Package termmap provides an ordered map whose writes are gated by validity
// predicates.
//
// Every Set is checked against three predicates before it lands: one for the
// key, one for the value, and a joint predicate that sees the proposed entry
// together with the map's current contents (so it can enforce rules such as a
// shared point pool). A rejected write leaves the map exactly as it was.
// Iteration always follows the caller's key order.
package termmap

import (
	"errors"
	"fmt"
	"iter"
	"slices"
)

// ErrInvalidValue is matched by every rejected write.
var ErrInvalidValue = errors.New("invalid value")

// Violation names the predicate that rejected a write.
type Violation int

const (
	ViolationKey Violation = iota + 1
	ViolationValue
	ViolationJoint
)

func (v Violation) String() string {
	switch v {
	case ViolationKey:
		return "key"
	case ViolationValue:
		return "value"
	case ViolationJoint:
		return "joint"
	default:
		return "unknown"
	}
}

// RejectedError reports a write refused by one of the predicates.
type RejectedError[K comparable, V any] struct {
	Violation Violation
	Key       K
	Value     V
}

func (e *RejectedError[K, V]) Error() string {
	return fmt.Sprintf("invalid value: %s predicate rejected %v = %v", e.Violation, e.Key, e.Value)
}

// Is makes every rejection match ErrInvalidValue.
func (e *RejectedError[K, V]) Is(target error) bool {
	return target == ErrInvalidValue
}

// View is the read-only face of a Map handed to joint predicates.
type View[K comparable, V any] interface {
	Get(key K) (V, bool)
	Len() int
	All() iter.Seq2[K, V]
}

// Predicates gate writes. A nil predicate accepts everything.
type Predicates[K comparable, V any] struct {
	Key   func(key K) bool
	Value func(value V) bool
	// Joint sees the map before the write plus the proposed entry.
	Joint func(current View[K, V], key K, value V) bool
}

// Map is a constrained ordered map. The zero value is not usable; call New.
//
// A Map is not safe for concurrent mutation; callers serialize writes.
type Map[K comparable, V any] struct {
	compare func(a, b K) int
	preds   Predicates[K, V]
	keys    []K
	values  map[K]V
}

// New returns an empty map ordered by compare, which must be a total order
// consistent with key equality.
func New[K comparable, V any](compare func(a, b K) int, preds Predicates[K, V]) *Map[K, V] {
	if compare == nil {
		panic("termmap: compare function is required")
	}
	return &Map[K, V]{
		compare: compare,
		preds:   preds,
		values:  make(map[K]V),
	}
}

// Get returns the value stored under key.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Len returns the number of stored entries.
func (m *Map[K, V]) Len() int {
	return len(m.keys)
}

// All iterates entries in key order.
func (m *Map[K, V]) All() iter.Seq2[K, V] {
	return func(yield func(K, V) bool) {
		for _, k := range m.keys {
			if !yield(k, m.values[k]) {
				return
			}
		}
	}
}

// Keys iterates stored keys in order.
func (m *Map[K, V]) Keys() iter.Seq[K] {
	return slices.Values(slices.Clone(m.keys))
}

// Check reports the first predicate that would reject key = value, without
// writing anything.
func (m *Map[K, V]) Check(key K, value V) error {
	if any(value) == nil {
		return &RejectedError[K, V]{Violation: ViolationValue, Key: key, Value: value}
	}
	if m.preds.Key != nil && !m.preds.Key(key) {
		return &RejectedError[K, V]{Violation: ViolationKey, Key: key, Value: value}
	}
	if m.preds.Value != nil && !m.preds.Value(value) {
		return &RejectedError[K, V]{Violation: ViolationValue, Key: key, Value: value}
	}
	if m.preds.Joint != nil && !m.preds.Joint(m, key, value) {
		return &RejectedError[K, V]{Violation: ViolationJoint, Key: key, Value: value}
	}
	return nil
}

// Set stores value under key if every predicate accepts it.
func (m *Map[K, V]) Set(key K, value V) error {
	if err := m.Check(key, value); err != nil {
		return err
	}
	if _, exists := m.values[key]; !exists {
		i, _ := slices.BinarySearchFunc(m.keys, key, m.compare)
		m.keys = slices.Insert(m.keys, i, key)
	}
	m.values[key] = value
	return nil
}

// Delete removes key. Removal is never checked: predicates bound what may be
// stored, and an absent entry is always legal.
func (m *Map[K, V]) Delete(key K) bool {
	if _, ok := m.values[key]; !ok {
		return false
	}
	delete(m.values, key)
	if i, found := slices.BinarySearchFunc(m.keys, key, m.compare); found {
		m.keys = slices.Delete(m.keys, i, i+1)
	}
	return true
}

// Integer constrains values that can be summed.
type Integer interface {
	~int | ~int8 | ~int16 | ~int32 | ~int64
}

// Sum adds every value in view.
func Sum[K comparable, V Integer](view View[K, V]) V {
	var total V
	for _, v := range view.All() {
		total += v
	}
	return total
}

// SumWith returns the total view would have after key is set to value.
func SumWith[K comparable, V Integer](view View[K, V], key K, value V) V {
	total := Sum(view)
	if old, ok := view.Get(key); ok {
		total -= old
	}
	return total + value
}
