// Package ordered implements an insertion-ordered collection whose members are
// unique by key. Order is meaningful (ingredient and step order are part of a
// recipe) and lookups by key are O(1).
package ordered

import (
	"errors"
	"fmt"
	"iter"
)

var (
	// ErrDuplicateID is returned when inserting a value whose key is already present.
	ErrDuplicateID = errors.New("ordered: duplicate id")
	// ErrNotFound is returned when a key is not a member.
	ErrNotFound = errors.New("ordered: id not found")
	// ErrIndex is returned for out of range positions.
	ErrIndex = errors.New("ordered: index out of range")
)

// Keyed values expose the identifier they are indexed by.
type Keyed[K comparable] interface {
	Key() K
}

// List is an ordered collection of V, unique by V.Key(). The zero value is an
// empty list ready to use.
type List[K comparable, V Keyed[K]] struct {
	items []V
	index map[K]int
}

// From builds a list from values, rejecting duplicate keys.
func From[K comparable, V Keyed[K]](values ...V) (*List[K, V], error) {
	l := &List[K, V]{}
	for _, v := range values {
		if err := l.Append(v); err != nil {
			return nil, err
		}
	}
	return l, nil
}

// MustFrom is From for literals in tests and constructors that already hold
// unique values. It panics on duplicates.
func MustFrom[K comparable, V Keyed[K]](values ...V) *List[K, V] {
	l, err := From[K, V](values...)
	if err != nil {
		panic(err)
	}
	return l
}

// Len returns the number of members.
func (l *List[K, V]) Len() int {
	if l == nil {
		return 0
	}
	return len(l.items)
}

// At returns the value at position i.
func (l *List[K, V]) At(i int) V {
	return l.items[i]
}

// Index returns the position of id, or -1.
func (l *List[K, V]) Index(id K) int {
	if l == nil || l.index == nil {
		return -1
	}
	if i, ok := l.index[id]; ok {
		return i
	}
	return -1
}

// Contains reports membership of id.
func (l *List[K, V]) Contains(id K) bool {
	return l.Index(id) >= 0
}

// Get returns the value stored under id.
func (l *List[K, V]) Get(id K) (V, bool) {
	i := l.Index(id)
	if i < 0 {
		var zero V
		return zero, false
	}
	return l.items[i], true
}

// Insert places v at position at (0 <= at <= Len).
func (l *List[K, V]) Insert(at int, v V) error {
	if at < 0 || at > len(l.items) {
		return fmt.Errorf("%w: insert at %d of %d", ErrIndex, at, len(l.items))
	}
	key := v.Key()
	if l.Contains(key) {
		return fmt.Errorf("%w: %v", ErrDuplicateID, key)
	}
	var zero V
	l.items = append(l.items, zero)
	copy(l.items[at+1:], l.items[at:])
	l.items[at] = v
	l.reindex(at)
	return nil
}

// Append adds v at the end.
func (l *List[K, V]) Append(v V) error {
	return l.Insert(len(l.items), v)
}

// Set replaces the member with the same key as v.
func (l *List[K, V]) Set(v V) error {
	i := l.Index(v.Key())
	if i < 0 {
		return fmt.Errorf("%w: %v", ErrNotFound, v.Key())
	}
	l.items[i] = v
	return nil
}

// Remove deletes id and returns the removed value.
func (l *List[K, V]) Remove(id K) (V, bool) {
	i := l.Index(id)
	if i < 0 {
		var zero V
		return zero, false
	}
	v := l.items[i]
	l.items = append(l.items[:i], l.items[i+1:]...)
	delete(l.index, id)
	l.reindex(i)
	return v, true
}

// Move relocates the member at from to position to.
func (l *List[K, V]) Move(from, to int) error {
	n := len(l.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return fmt.Errorf("%w: move %d -> %d of %d", ErrIndex, from, to, n)
	}
	if from == to {
		return nil
	}
	v := l.items[from]
	if from < to {
		copy(l.items[from:to], l.items[from+1:to+1])
	} else {
		copy(l.items[to+1:from+1], l.items[to:from])
	}
	l.items[to] = v
	l.reindex(min(from, to))
	return nil
}

// Map returns a new list holding transform applied to every member, in order.
// transform must not produce duplicate keys; doing so is a programming error.
func (l *List[K, V]) Map(transform func(V) V) *List[K, V] {
	out := &List[K, V]{}
	for _, v := range l.All() {
		if err := out.Append(transform(v)); err != nil {
			panic(err)
		}
	}
	return out
}

// Filter returns the members for which keep reports true.
func (l *List[K, V]) Filter(keep func(V) bool) *List[K, V] {
	out := &List[K, V]{}
	for _, v := range l.All() {
		if keep(v) {
			_ = out.Append(v)
		}
	}
	return out
}

// IntersectionByID returns the members of l whose key is also in other,
// keeping l's order and l's values. Field content is ignored.
func (l *List[K, V]) IntersectionByID(other *List[K, V]) *List[K, V] {
	return l.Filter(func(v V) bool {
		return other.Contains(v.Key())
	})
}

// SymmetricDifferenceByID returns the members of l missing from other followed
// by the members of other missing from l.
func (l *List[K, V]) SymmetricDifferenceByID(other *List[K, V]) *List[K, V] {
	out := l.Filter(func(v V) bool {
		return !other.Contains(v.Key())
	})
	for _, v := range other.All() {
		if !l.Contains(v.Key()) {
			_ = out.Append(v)
		}
	}
	return out
}

// Clone returns a shallow copy.
func (l *List[K, V]) Clone() *List[K, V] {
	return l.Map(func(v V) V { return v })
}

// Values returns a copy of the members in order.
func (l *List[K, V]) Values() []V {
	if l.Len() == 0 {
		return nil
	}
	return append([]V(nil), l.items...)
}

// Keys returns the member keys in order.
func (l *List[K, V]) Keys() []K {
	if l.Len() == 0 {
		return nil
	}
	keys := make([]K, len(l.items))
	for i, v := range l.items {
		keys[i] = v.Key()
	}
	return keys
}

// All iterates positions and values.
func (l *List[K, V]) All() iter.Seq2[int, V] {
	return func(yield func(int, V) bool) {
		if l == nil {
			return
		}
		for i, v := range l.items {
			if !yield(i, v) {
				return
			}
		}
	}
}

func (l *List[K, V]) reindex(from int) {
	if l.index == nil {
		l.index = make(map[K]int, len(l.items))
	}
	for i := from; i < len(l.items); i++ {
		l.index[l.items[i].Key()] = i
	}
}
