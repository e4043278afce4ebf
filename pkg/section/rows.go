// Package section implements the ordered-child aggregates shared by the
// about list, ingredient sections and step sections. Rows resolves the
// delegates a leaf editor emits against an ordered, unique-keyed list; Section
// adds a heading with its own boundary handling; Group is a list of sections.
package section

import (
	"errors"
	"fmt"

	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ordered"
)

// ErrNotFound is returned for ids that are not members.
var ErrNotFound = errors.New("section: not found")

// Leaf is a leaf editor as owned by Rows.
type Leaf[K comparable, S any] interface {
	Key() K
	Snapshot() S
	IsEmpty() bool
	Focus(focus.Field)
	FocusFirst()
	HasFocus() bool
	ClearFocus()
	Blur() editor.Delegate
}

// Rows is an ordered list of leaves with one focus token.
type Rows[K comparable, S any, L Leaf[K, S]] struct {
	list    *ordered.List[K, L]
	token   focus.Token[K]
	newLeaf func() L
}

// NewRows returns rows holding leaves. newLeaf builds a blank leaf with a
// fresh id whenever a row is inserted.
func NewRows[K comparable, S any, L Leaf[K, S]](newLeaf func() L, leaves ...L) (*Rows[K, S, L], error) {
	list, err := ordered.From[K, L](leaves...)
	if err != nil {
		return nil, fmt.Errorf("section: %w", err)
	}
	return &Rows[K, S, L]{list: list, newLeaf: newLeaf}, nil
}

func (r *Rows[K, S, L]) Len() int { return r.list.Len() }

func (r *Rows[K, S, L]) Keys() []K { return r.list.Keys() }

// Leaves returns the leaves in order.
func (r *Rows[K, S, L]) Leaves() []L { return r.list.Values() }

func (r *Rows[K, S, L]) Get(id K) (L, bool) { return r.list.Get(id) }

// Token is the focus state at this level.
func (r *Rows[K, S, L]) Token() focus.Token[K] { return r.token }

// Edit runs fn against the leaf id and resolves the delegate it returns.
func (r *Rows[K, S, L]) Edit(id K, fn func(L) editor.Delegate) (editor.Delegate, error) {
	leaf, ok := r.list.Get(id)
	if !ok {
		return editor.Stay, fmt.Errorf("%w: row %v", ErrNotFound, id)
	}
	d := fn(leaf)
	if leaf.HasFocus() && !r.token.IsRow(id) {
		r.clearLeaves(id)
		r.token = focus.OnRow(id)
	}
	return d, r.Resolve(id, d)
}

// Resolve applies a delegate emitted by the leaf id.
func (r *Rows[K, S, L]) Resolve(id K, d editor.Delegate) error {
	var err error
	switch d {
	case editor.DeleteMe:
		if !r.Delete(id) {
			err = fmt.Errorf("%w: row %v", ErrNotFound, id)
		}
	case editor.InsertAbove:
		_, err = r.InsertNear(id, false)
	case editor.InsertBelow:
		_, err = r.InsertNear(id, true)
	}
	return err
}

// InsertNear opens a blank row directly above or below id and focuses its
// first field. id loses focus.
func (r *Rows[K, S, L]) InsertNear(id K, below bool) (L, error) {
	var zero L
	i := r.list.Index(id)
	if i < 0 {
		return zero, fmt.Errorf("%w: row %v", ErrNotFound, id)
	}
	if below {
		i++
	}
	return r.insert(i, true)
}

// Append adds a blank row at the end and focuses it.
func (r *Rows[K, S, L]) Append() (L, error) {
	return r.insert(r.list.Len(), true)
}

// AppendBlank adds a blank row at the end without moving focus.
func (r *Rows[K, S, L]) AppendBlank() (L, error) {
	return r.insert(r.list.Len(), false)
}

// Add appends an existing leaf.
func (r *Rows[K, S, L]) Add(leaf L) error {
	if err := r.list.Append(leaf); err != nil {
		return fmt.Errorf("section: %w", err)
	}
	return nil
}

func (r *Rows[K, S, L]) insert(at int, focused bool) (L, error) {
	leaf := r.newLeaf()
	if err := r.list.Insert(at, leaf); err != nil {
		var zero L
		return zero, fmt.Errorf("section: %w", err)
	}
	if focused {
		r.clearLeaves(leaf.Key())
		leaf.FocusFirst()
		r.token = focus.OnRow(leaf.Key())
	}
	return leaf, nil
}

// Delete removes id. If it held the focus, the token is cleared.
func (r *Rows[K, S, L]) Delete(id K) bool {
	if _, ok := r.list.Remove(id); !ok {
		return false
	}
	if r.token.IsRow(id) {
		r.token = focus.Clear[K]()
	}
	return true
}

// Move relocates id to position to.
func (r *Rows[K, S, L]) Move(id K, to int) error {
	from := r.list.Index(id)
	if from < 0 {
		return fmt.Errorf("%w: row %v", ErrNotFound, id)
	}
	if err := r.list.Move(from, to); err != nil {
		return fmt.Errorf("section: %w", err)
	}
	return nil
}

// FocusRow moves the keyboard to field f of row id, or its first field when
// f is focus.None. The row losing focus is blurred and pruned if empty.
func (r *Rows[K, S, L]) FocusRow(id K, f focus.Field) error {
	leaf, ok := r.list.Get(id)
	if !ok {
		return fmt.Errorf("%w: row %v", ErrNotFound, id)
	}
	if prev, ok := r.token.Row(); ok && prev != id {
		r.blurRow(prev)
	}
	r.clearLeaves(id)
	if f == focus.None {
		leaf.FocusFirst()
	} else {
		leaf.Focus(f)
	}
	r.token = focus.OnRow(id)
	return nil
}

// Blur takes focus away from the focused row, pruning it if empty. It
// reports whether a row was pruned.
func (r *Rows[K, S, L]) Blur() bool {
	id, ok := r.token.Row()
	if !ok {
		return false
	}
	r.token = focus.Clear[K]()
	return r.blurRow(id)
}

func (r *Rows[K, S, L]) blurRow(id K) bool {
	leaf, ok := r.list.Get(id)
	if !ok {
		return false
	}
	if leaf.Blur() == editor.DeleteMe {
		return r.Delete(id)
	}
	if r.token.IsRow(id) {
		r.token = focus.Clear[K]()
	}
	return false
}

// ClearFocus clears the token and every leaf's focus. Data is untouched.
func (r *Rows[K, S, L]) ClearFocus() {
	r.token = focus.Clear[K]()
	r.clearLeaves()
}

// HasFocus reports whether the token or any leaf holds focus.
func (r *Rows[K, S, L]) HasFocus() bool {
	if !r.token.IsNone() {
		return true
	}
	for _, leaf := range r.list.All() {
		if leaf.HasFocus() {
			return true
		}
	}
	return false
}

// Snapshot projects the leaves to plain data.
func (r *Rows[K, S, L]) Snapshot() []S {
	if r.list.Len() == 0 {
		return nil
	}
	out := make([]S, 0, r.list.Len())
	for _, leaf := range r.list.All() {
		out = append(out, leaf.Snapshot())
	}
	return out
}

func (r *Rows[K, S, L]) clearLeaves(except ...K) {
	for _, leaf := range r.list.All() {
		if len(except) > 0 && leaf.Key() == except[0] {
			continue
		}
		leaf.ClearFocus()
	}
}
