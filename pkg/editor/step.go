package editor

import (
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/photo"
)

// Step edits one instruction and owns its photos.
type Step struct {
	id          ids.StepID
	description string
	photos      *photo.State
	focus       focus.Field
}

// NewStep starts an editor from a snapshot. photos may be nil when the step's
// images are not editable.
func NewStep(m model.Step, photos *photo.State) *Step {
	if photos == nil {
		photos = photo.New(photo.Config{}, m.Images)
	}
	return &Step{id: m.ID, description: m.Description, photos: photos}
}

func (e *Step) Key() ids.StepID { return e.id }

func (e *Step) Description() string { return e.description }

// Photos exposes the step's image sub-state.
func (e *Step) Photos() *photo.State { return e.photos }

// EditDescription applies an edit to the body, the step's only field.
func (e *Step) EditDescription(v string) Delegate {
	switch Classify(e.description, v) {
	case Ignore:
		return Stay
	case BreakAbove:
		e.focus = focus.None
		return InsertAbove
	case BreakBelow:
		e.focus = focus.None
		return InsertBelow
	case Cleared:
		e.description = ""
	default:
		e.description = v
	}
	return Stay
}

// IsEmpty reports a blank step without photos.
func (e *Step) IsEmpty() bool {
	return isBlank(e.description) && e.photos.Phase() == photo.Empty
}

func (e *Step) Focused() focus.Field { return e.focus }

func (e *Step) Focus(f focus.Field) { e.focus = f }

func (e *Step) FocusFirst() { e.focus = focus.Body }

func (e *Step) HasFocus() bool { return e.focus != focus.None }

func (e *Step) ClearFocus() { e.focus = focus.None }

func (e *Step) Blur() Delegate {
	e.focus = focus.None
	if e.IsEmpty() {
		return DeleteMe
	}
	return Stay
}

func (e *Step) Snapshot() model.Step {
	return model.Step{ID: e.id, Description: e.description, Images: e.photos.Images()}
}
