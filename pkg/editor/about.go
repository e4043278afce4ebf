package editor

import (
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

var aboutFields = []focus.Field{focus.Name, focus.Body}

// About edits a titled description block.
type About struct {
	id          ids.AboutID
	name        string
	description string
	focus       focus.Field
}

// NewAbout starts an editor from a snapshot.
func NewAbout(m model.AboutSection) *About {
	return &About{id: m.ID, name: m.Name, description: m.Description}
}

func (e *About) Key() ids.AboutID { return e.id }

func (e *About) Name() string { return e.name }

func (e *About) Description() string { return e.description }

func (e *About) EditName(v string) Delegate {
	return e.edit(focus.Name, e.name, v, func(s string) { e.name = s })
}

func (e *About) EditDescription(v string) Delegate {
	return e.edit(focus.Body, e.description, v, func(s string) { e.description = s })
}

func (e *About) edit(field focus.Field, prev, next string, set func(string)) Delegate {
	switch Classify(prev, next) {
	case Ignore:
		return Stay
	case BreakAbove:
		e.focus = focus.None
		return InsertAbove
	case BreakBelow:
		if after := nextField(aboutFields, field); after != focus.None {
			e.focus = after
			return Stay
		}
		e.focus = focus.None
		return InsertBelow
	case Cleared:
		set("")
	default:
		set(next)
	}
	return Stay
}

func (e *About) IsEmpty() bool {
	return isBlank(e.name) && isBlank(e.description)
}

func (e *About) Focused() focus.Field { return e.focus }

func (e *About) Focus(f focus.Field) { e.focus = f }

func (e *About) FocusFirst() { e.focus = focus.Name }

func (e *About) HasFocus() bool { return e.focus != focus.None }

func (e *About) ClearFocus() { e.focus = focus.None }

func (e *About) Blur() Delegate {
	e.focus = focus.None
	if e.IsEmpty() {
		return DeleteMe
	}
	return Stay
}

func (e *About) Snapshot() model.AboutSection {
	return model.AboutSection{ID: e.id, Name: e.name, Description: e.description}
}
