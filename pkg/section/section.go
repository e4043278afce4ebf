package section

import (
	"fmt"

	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/focus"
)

// Scheduler delays fn until scope has been quiet. A second call for the same
// scope replaces the first. *debounce.Debouncer satisfies it.
type Scheduler interface {
	Schedule(scope string, fn func())
}

// Plain is the plain-data projection of a section.
type Plain[SK comparable, S any] struct {
	ID   SK
	Name string
	Rows []S
}

// Section is a named, collapsible list of rows such as "Produce".
type Section[SK comparable, K comparable, S any, L Leaf[K, S]] struct {
	id       SK
	name     string
	expanded bool
	rows     *Rows[K, S, L]
	sched    Scheduler
}

// NewSection returns an expanded section. sched may be nil, in which case the
// first row of an unnamed section is created as soon as it gets a name.
func NewSection[SK comparable, K comparable, S any, L Leaf[K, S]](id SK, name string, sched Scheduler, newLeaf func() L, leaves ...L) (*Section[SK, K, S, L], error) {
	rows, err := NewRows[K, S, L](newLeaf, leaves...)
	if err != nil {
		return nil, err
	}
	return &Section[SK, K, S, L]{id: id, name: name, expanded: true, rows: rows, sched: sched}, nil
}

func (s *Section[SK, K, S, L]) Key() SK { return s.id }

func (s *Section[SK, K, S, L]) Name() string { return s.name }

func (s *Section[SK, K, S, L]) Expanded() bool { return s.expanded }

func (s *Section[SK, K, S, L]) Rows() *Rows[K, S, L] { return s.rows }

// NameFocused reports whether the heading holds the keyboard.
func (s *Section[SK, K, S, L]) NameFocused() bool {
	f, ok := s.rows.token.Field()
	return ok && f == focus.Name
}

// FocusName moves the keyboard to the heading.
func (s *Section[SK, K, S, L]) FocusName() {
	s.rows.ClearFocus()
	s.rows.token = focus.OnField[K](focus.Name)
}

// EditName applies an edit to the heading. A leading newline asks the owner
// for a new section above. A trailing newline moves into the first row,
// creating it if needed. Naming an empty section creates its first row once
// the edits settle.
func (s *Section[SK, K, S, L]) EditName(v string) (editor.Delegate, error) {
	prev := s.name
	switch editor.Classify(prev, v) {
	case editor.Ignore:
		return editor.Stay, nil
	case editor.BreakAbove:
		s.ClearFocus()
		return editor.InsertAbove, nil
	case editor.BreakBelow:
		s.rows.token = focus.Clear[K]()
		s.expanded = true
		if s.rows.Len() == 0 {
			_, err := s.rows.Append()
			return editor.Stay, err
		}
		return editor.Stay, s.rows.FocusRow(s.rows.list.At(0).Key(), focus.None)
	case editor.Cleared:
		s.name = ""
	default:
		s.name = v
		if isBlank(prev) && s.rows.Len() == 0 {
			return editor.Stay, s.scheduleFirstRow()
		}
	}
	return editor.Stay, nil
}

func (s *Section[SK, K, S, L]) scheduleFirstRow() error {
	create := func() error {
		if s.rows.Len() > 0 {
			return nil
		}
		_, err := s.rows.AppendBlank()
		return err
	}
	if s.sched == nil {
		return create()
	}
	s.sched.Schedule(s.FirstRowScope(), func() { _ = create() })
	return nil
}

// FirstRowScope is the scheduler scope used for first-row creation.
func (s *Section[SK, K, S, L]) FirstRowScope() string {
	return fmt.Sprintf("first-row/%v", s.id)
}

// Collapse hides the rows and clears every focus token under the section.
func (s *Section[SK, K, S, L]) Collapse() {
	s.expanded = false
	s.ClearFocus()
}

// Expand shows the rows.
func (s *Section[SK, K, S, L]) Expand() {
	s.expanded = true
}

func (s *Section[SK, K, S, L]) ClearFocus() { s.rows.ClearFocus() }

func (s *Section[SK, K, S, L]) HasFocus() bool { return s.rows.HasFocus() }

func (s *Section[SK, K, S, L]) Snapshot() Plain[SK, S] {
	return Plain[SK, S]{ID: s.id, Name: s.name, Rows: s.rows.Snapshot()}
}
