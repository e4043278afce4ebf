// Package persist turns successive snapshots of a folder's children into
// store calls. Changes are debounced per scope, diffed by id against what
// was last persisted, and written with bounded retries.
package persist

import (
	"fmt"

	"tableflip.dev/cookbook/pkg/ordered"
)

// Changes is the outcome of diffing two snapshots of the same collection.
type Changes[V any] struct {
	Added   []V
	Removed []V
	Updated []V
}

// Len counts every change.
func (c Changes[V]) Len() int {
	return len(c.Added) + len(c.Removed) + len(c.Updated)
}

// Diff compares prev and curr by id. Added and Updated hold curr values in
// curr order; Removed holds prev values in prev order. equal decides whether
// an id present in both changed.
func Diff[K comparable, V ordered.Keyed[K]](prev, curr []V, equal func(a, b V) bool) (Changes[V], error) {
	p, err := ordered.From[K](prev...)
	if err != nil {
		return Changes[V]{}, fmt.Errorf("persist: previous snapshot: %w", err)
	}
	c, err := ordered.From[K](curr...)
	if err != nil {
		return Changes[V]{}, fmt.Errorf("persist: current snapshot: %w", err)
	}
	added := c.SymmetricDifferenceByID(p).IntersectionByID(c)
	removed := p.SymmetricDifferenceByID(c).IntersectionByID(p)
	updated := c.IntersectionByID(p).Filter(func(v V) bool {
		old, _ := p.Get(v.Key())
		return !equal(v, old)
	})
	return Changes[V]{
		Added:   added.Values(),
		Removed: removed.Values(),
		Updated: updated.Values(),
	}, nil
}
