package editor

import (
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

var ingredientFields = []focus.Field{focus.Name, focus.Amount, focus.Unit}

// Ingredient edits one ingredient line. The amount is held canonically at
// scale 1.0; what the user sees and types is that amount times the recipe's
// current scale.
type Ingredient struct {
	id        ids.IngredientID
	name      string
	canonical float64
	text      string
	unit      string
	complete  bool

	scale float64
	sep   rune
	focus focus.Field
}

// NewIngredient starts an editor from a snapshot displayed at scale.
func NewIngredient(m model.Ingredient, sep rune, scale float64) *Ingredient {
	if sep == 0 {
		sep = '.'
	}
	if scale <= 0 {
		scale = 1
	}
	e := &Ingredient{
		id:        m.ID,
		name:      m.Name,
		canonical: m.Amount,
		unit:      m.Unit,
		complete:  m.Complete,
		scale:     scale,
		sep:       sep,
	}
	if m.Amount != 0 || m.Name != "" {
		e.text = FormatAmount(e.Amount(), sep)
	}
	return e
}

func (e *Ingredient) Key() ids.IngredientID { return e.id }

func (e *Ingredient) Name() string { return e.name }

func (e *Ingredient) Unit() string { return e.unit }

func (e *Ingredient) Complete() bool { return e.complete }

// Amount is the displayed amount at the current scale.
func (e *Ingredient) Amount() float64 {
	return e.canonical * e.scale
}

// AmountText is the amount field's text as the user sees it.
func (e *Ingredient) AmountText() string {
	return e.text
}

// EditName applies a keystroke-level edit to the name field.
func (e *Ingredient) EditName(v string) Delegate {
	return e.edit(focus.Name, e.name, v, func(s string) { e.name = s })
}

// EditAmount applies an edit to the amount field. Input is filtered to digits
// and one decimal separator; unparsable text keeps the last good amount.
func (e *Ingredient) EditAmount(v string) Delegate {
	return e.edit(focus.Amount, e.text, v, func(s string) {
		e.text = FilterAmount(s, e.sep)
		if amount, ok := ParseAmount(e.text, e.sep); ok {
			e.canonical = amount / e.scale
		}
	})
}

// EditUnit applies an edit to the unit field.
func (e *Ingredient) EditUnit(v string) Delegate {
	return e.edit(focus.Unit, e.unit, v, func(s string) { e.unit = s })
}

// ToggleComplete checks the ingredient off, or back on.
func (e *Ingredient) ToggleComplete() {
	e.complete = !e.complete
}

// Rescale redisplays the amount at scale without touching the canonical value.
func (e *Ingredient) Rescale(scale float64) {
	if scale <= 0 {
		return
	}
	e.scale = scale
	if e.text != "" {
		e.text = FormatAmount(e.Amount(), e.sep)
	}
}

func (e *Ingredient) edit(field focus.Field, prev, next string, set func(string)) Delegate {
	switch Classify(prev, next) {
	case Ignore:
		return Stay
	case BreakAbove:
		e.focus = focus.None
		return InsertAbove
	case BreakBelow:
		if after := nextField(ingredientFields, field); after != focus.None {
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

// IsEmpty reports whether both the name and amount text are blank.
func (e *Ingredient) IsEmpty() bool {
	return isBlank(e.name) && isBlank(e.text)
}

// Focused returns the focused field, or focus.None.
func (e *Ingredient) Focused() focus.Field { return e.focus }

// Focus moves the keyboard to f.
func (e *Ingredient) Focus(f focus.Field) { e.focus = f }

// FocusFirst focuses the name field.
func (e *Ingredient) FocusFirst() { e.focus = focus.Name }

func (e *Ingredient) HasFocus() bool { return e.focus != focus.None }

func (e *Ingredient) ClearFocus() { e.focus = focus.None }

// Blur is focus leaving the row. An emptied row asks to be deleted.
func (e *Ingredient) Blur() Delegate {
	e.focus = focus.None
	if e.IsEmpty() {
		return DeleteMe
	}
	return Stay
}

// Snapshot returns the plain-data ingredient with the canonical amount.
func (e *Ingredient) Snapshot() model.Ingredient {
	return model.Ingredient{
		ID:       e.id,
		Name:     e.name,
		Amount:   e.canonical,
		Unit:     e.unit,
		Complete: e.complete,
	}
}

func nextField(order []focus.Field, f focus.Field) focus.Field {
	for i, candidate := range order {
		if candidate == f && i+1 < len(order) {
			return order[i+1]
		}
	}
	return focus.None
}
