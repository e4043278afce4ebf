package section

import (
	"fmt"
	"strings"

	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ordered"
)

// Config holds the constructors a Group needs to open new sections and rows.
type Config[SK comparable, K comparable, S any, L Leaf[K, S]] struct {
	NewSectionID func() SK
	NewLeaf      func() L
	Scheduler    Scheduler
}

// Group is an ordered list of sections, e.g. every ingredient section of a
// recipe. The group can be collapsed as a whole.
type Group[SK comparable, K comparable, S any, L Leaf[K, S]] struct {
	cfg      Config[SK, K, S, L]
	list     *ordered.List[SK, *Section[SK, K, S, L]]
	token    focus.Token[SK]
	expanded bool
}

// NewGroup returns an expanded group of sections.
func NewGroup[SK comparable, K comparable, S any, L Leaf[K, S]](cfg Config[SK, K, S, L], sections ...*Section[SK, K, S, L]) (*Group[SK, K, S, L], error) {
	list, err := ordered.From[SK, *Section[SK, K, S, L]](sections...)
	if err != nil {
		return nil, fmt.Errorf("section: %w", err)
	}
	return &Group[SK, K, S, L]{cfg: cfg, list: list, expanded: true}, nil
}

// Open builds a section from existing rows using the group's constructors.
func (g *Group[SK, K, S, L]) Open(id SK, name string, leaves ...L) (*Section[SK, K, S, L], error) {
	return NewSection[SK, K, S, L](id, name, g.cfg.Scheduler, g.cfg.NewLeaf, leaves...)
}

func (g *Group[SK, K, S, L]) Len() int { return g.list.Len() }

func (g *Group[SK, K, S, L]) Sections() []*Section[SK, K, S, L] { return g.list.Values() }

func (g *Group[SK, K, S, L]) Section(id SK) (*Section[SK, K, S, L], bool) { return g.list.Get(id) }

func (g *Group[SK, K, S, L]) Expanded() bool { return g.expanded }

func (g *Group[SK, K, S, L]) Token() focus.Token[SK] { return g.token }

// Add appends a section called name. The name is not focused.
func (g *Group[SK, K, S, L]) Add(name string) (*Section[SK, K, S, L], error) {
	s, err := g.Open(g.cfg.NewSectionID(), strings.TrimSpace(name))
	if err != nil {
		return nil, err
	}
	if err := g.list.Append(s); err != nil {
		return nil, fmt.Errorf("section: %w", err)
	}
	return s, nil
}

// Attach appends an already built section.
func (g *Group[SK, K, S, L]) Attach(s *Section[SK, K, S, L]) error {
	if err := g.list.Append(s); err != nil {
		return fmt.Errorf("section: %w", err)
	}
	return nil
}

// InsertNear opens a blank section above or below id with its name focused.
func (g *Group[SK, K, S, L]) InsertNear(id SK, below bool) (*Section[SK, K, S, L], error) {
	i := g.list.Index(id)
	if i < 0 {
		return nil, fmt.Errorf("%w: section %v", ErrNotFound, id)
	}
	if below {
		i++
	}
	s, err := g.Open(g.cfg.NewSectionID(), "")
	if err != nil {
		return nil, err
	}
	if err := g.list.Insert(i, s); err != nil {
		return nil, fmt.Errorf("section: %w", err)
	}
	g.focusSection(s.Key())
	s.FocusName()
	return s, nil
}

// Delete removes the section id and its rows.
func (g *Group[SK, K, S, L]) Delete(id SK) bool {
	if _, ok := g.list.Remove(id); !ok {
		return false
	}
	if g.token.IsRow(id) {
		g.token = focus.Clear[SK]()
	}
	return true
}

// EditName edits a section heading and resolves what it asks for.
func (g *Group[SK, K, S, L]) EditName(id SK, v string) error {
	s, ok := g.list.Get(id)
	if !ok {
		return fmt.Errorf("%w: section %v", ErrNotFound, id)
	}
	d, err := s.EditName(v)
	if err != nil {
		return err
	}
	if d == editor.InsertAbove {
		_, err = g.InsertNear(id, false)
		return err
	}
	g.track(s)
	return nil
}

// EditRow runs fn against a row of section sid.
func (g *Group[SK, K, S, L]) EditRow(sid SK, rid K, fn func(L) editor.Delegate) (editor.Delegate, error) {
	s, ok := g.list.Get(sid)
	if !ok {
		return editor.Stay, fmt.Errorf("%w: section %v", ErrNotFound, sid)
	}
	d, err := s.rows.Edit(rid, fn)
	g.track(s)
	return d, err
}

// AppendRow opens a focused blank row at the end of section sid.
func (g *Group[SK, K, S, L]) AppendRow(sid SK) (L, error) {
	var zero L
	s, ok := g.list.Get(sid)
	if !ok {
		return zero, fmt.Errorf("%w: section %v", ErrNotFound, sid)
	}
	g.focusSection(sid)
	s.expanded = true
	return s.rows.Append()
}

// MoveRow moves row rid of section sid to position to.
func (g *Group[SK, K, S, L]) MoveRow(sid SK, rid K, to int) error {
	s, ok := g.list.Get(sid)
	if !ok {
		return fmt.Errorf("%w: section %v", ErrNotFound, sid)
	}
	return s.rows.Move(rid, to)
}

// FocusName focuses the heading of section sid.
func (g *Group[SK, K, S, L]) FocusName(sid SK) error {
	s, ok := g.list.Get(sid)
	if !ok {
		return fmt.Errorf("%w: section %v", ErrNotFound, sid)
	}
	g.focusSection(sid)
	s.FocusName()
	return nil
}

// FocusRow focuses field f of row rid in section sid.
func (g *Group[SK, K, S, L]) FocusRow(sid SK, rid K, f focus.Field) error {
	s, ok := g.list.Get(sid)
	if !ok {
		return fmt.Errorf("%w: section %v", ErrNotFound, sid)
	}
	g.focusSection(sid)
	return s.rows.FocusRow(rid, f)
}

// Blur takes focus away from whatever holds it, pruning an emptied row.
func (g *Group[SK, K, S, L]) Blur() bool {
	sid, ok := g.token.Row()
	if !ok {
		return false
	}
	g.token = focus.Clear[SK]()
	s, ok := g.list.Get(sid)
	if !ok {
		return false
	}
	pruned := s.rows.Blur()
	s.ClearFocus()
	return pruned
}

// Collapse hides every section and clears every token in the group.
func (g *Group[SK, K, S, L]) Collapse() {
	g.expanded = false
	g.ClearFocus()
}

// Expand shows the group.
func (g *Group[SK, K, S, L]) Expand() {
	g.expanded = true
}

// CollapseSection collapses one section.
func (g *Group[SK, K, S, L]) CollapseSection(id SK) error {
	s, ok := g.list.Get(id)
	if !ok {
		return fmt.Errorf("%w: section %v", ErrNotFound, id)
	}
	s.Collapse()
	if g.token.IsRow(id) {
		g.token = focus.Clear[SK]()
	}
	return nil
}

func (g *Group[SK, K, S, L]) ClearFocus() {
	g.token = focus.Clear[SK]()
	for _, s := range g.list.All() {
		s.ClearFocus()
	}
}

func (g *Group[SK, K, S, L]) HasFocus() bool {
	if !g.token.IsNone() {
		return true
	}
	for _, s := range g.list.All() {
		if s.HasFocus() {
			return true
		}
	}
	return false
}

func (g *Group[SK, K, S, L]) Snapshot() []Plain[SK, S] {
	if g.list.Len() == 0 {
		return nil
	}
	out := make([]Plain[SK, S], 0, g.list.Len())
	for _, s := range g.list.All() {
		out = append(out, s.Snapshot())
	}
	return out
}

// focusSection points the group token at id, blurring the section that had
// it.
func (g *Group[SK, K, S, L]) focusSection(id SK) {
	if prev, ok := g.token.Row(); ok && prev != id {
		if s, ok := g.list.Get(prev); ok {
			s.rows.Blur()
			s.ClearFocus()
		}
	}
	g.token = focus.OnRow(id)
}

// track keeps the group token in line with a section after an edit.
func (g *Group[SK, K, S, L]) track(s *Section[SK, K, S, L]) {
	switch {
	case s.HasFocus():
		g.focusSection(s.Key())
	case g.token.IsRow(s.Key()):
		g.token = focus.Clear[SK]()
	}
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
