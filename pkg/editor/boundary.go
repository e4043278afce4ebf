// Package editor holds the leaf editors for ingredients, steps and about
// sections. A leaf editor owns one entity's fields, turns raw text-field edits
// into field updates, and reports row-level gestures (insert a sibling, delete
// me) to its owner as a Delegate without knowing anything about its siblings.
package editor

import "strings"

// Boundary classifies an edit by where a single newline was added.
type Boundary int

const (
	// NoMatch is any edit other than a single newline at either end.
	NoMatch Boundary = iota
	// Leading means next is prev with one newline prepended.
	Leading
	// Trailing means next is prev with one newline appended.
	Trailing
)

func (b Boundary) String() string {
	switch b {
	case Leading:
		return "leading"
	case Trailing:
		return "trailing"
	default:
		return "noMatch"
	}
}

// DetectBoundary compares a field's previous and next value.
func DetectBoundary(prev, next string) Boundary {
	switch {
	case next == "\n"+prev:
		return Leading
	case next == prev+"\n":
		return Trailing
	default:
		return NoMatch
	}
}

// Change is what an edit should do to a field.
type Change int

const (
	// Ignore leaves the field untouched: an empty field edited to empty.
	Ignore Change = iota
	// Accept stores the new value verbatim.
	Accept
	// Cleared empties a field that held text.
	Cleared
	// BreakAbove is a leading newline: keep the value, open a row above.
	BreakAbove
	// BreakBelow is a trailing newline: keep the value, move on.
	BreakBelow
)

// Classify decides how an edit from prev to next applies.
func Classify(prev, next string) Change {
	if isBlank(prev) && isBlank(next) {
		return Ignore
	}
	switch DetectBoundary(prev, next) {
	case Leading:
		return BreakAbove
	case Trailing:
		return BreakBelow
	}
	if isBlank(next) {
		return Cleared
	}
	return Accept
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}

// Delegate is a request a leaf makes of the aggregate that owns it.
type Delegate int

const (
	// Stay needs nothing from the owner.
	Stay Delegate = iota
	// DeleteMe asks the owner to remove the leaf.
	DeleteMe
	// InsertAbove asks for a new sibling directly above, focused.
	InsertAbove
	// InsertBelow asks for a new sibling directly below, focused.
	InsertBelow
)

func (d Delegate) String() string {
	switch d {
	case DeleteMe:
		return "deleteMe"
	case InsertAbove:
		return "insertAbove"
	case InsertBelow:
		return "insertBelow"
	default:
		return "stay"
	}
}
