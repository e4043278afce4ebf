package recipe

import (
	"fmt"
	"strings"

	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/photo"
)

// About

// AddAbout appends a blank about section and focuses its name.
func (r *Recipe) AddAbout() (ids.AboutID, error) {
	var id ids.AboutID
	err := r.mutate(func() error {
		r.leaveLocked(About)
		r.aboutOpen = true
		leaf, err := r.about.Append()
		if err != nil {
			return err
		}
		id = leaf.Key()
		return nil
	})
	return id, err
}

// InsertAbout appends an about section holding name and description.
func (r *Recipe) InsertAbout(name, description string) (ids.AboutID, error) {
	id := ids.NewAbout(r.cfg.IDs)
	err := r.mutate(func() error {
		return r.about.Add(editor.NewAbout(model.AboutSection{ID: id, Name: name, Description: description}))
	})
	return id, err
}

func (r *Recipe) EditAboutName(id ids.AboutID, v string) error {
	return r.editAbout(id, func(e *editor.About) editor.Delegate { return e.EditName(v) })
}

func (r *Recipe) EditAboutDescription(id ids.AboutID, v string) error {
	return r.editAbout(id, func(e *editor.About) editor.Delegate { return e.EditDescription(v) })
}

func (r *Recipe) editAbout(id ids.AboutID, fn func(*editor.About) editor.Delegate) error {
	return r.mutate(func() error {
		r.leaveLocked(About)
		_, err := r.about.Edit(id, fn)
		return err
	})
}

// FocusAbout focuses field f of about section id.
func (r *Recipe) FocusAbout(id ids.AboutID, f focus.Field) error {
	return r.mutate(func() error {
		r.leaveLocked(About)
		return r.about.FocusRow(id, f)
	})
}

// DeleteAbout removes one about section.
func (r *Recipe) DeleteAbout(id ids.AboutID) error {
	return r.mutate(func() error {
		if !r.about.Delete(id) {
			return fmt.Errorf("%w: about %s", ErrNotFound, id)
		}
		return nil
	})
}

// Ingredients

// AddIngredientSection appends an ingredient section called name.
func (r *Recipe) AddIngredientSection(name string) (ids.IngredientSectionID, error) {
	var id ids.IngredientSectionID
	err := r.mutate(func() error {
		s, err := r.ingredients.Add(name)
		if err != nil {
			return err
		}
		id = s.Key()
		return nil
	})
	return id, err
}

// EditIngredientSectionName edits the heading of section sid.
func (r *Recipe) EditIngredientSectionName(sid ids.IngredientSectionID, v string) error {
	return r.mutate(func() error {
		r.leaveLocked(Ingredients)
		return r.ingredients.EditName(sid, v)
	})
}

// DeleteIngredientSection removes section sid and its ingredients.
func (r *Recipe) DeleteIngredientSection(sid ids.IngredientSectionID) error {
	return r.mutate(func() error {
		if !r.ingredients.Delete(sid) {
			return fmt.Errorf("%w: section %s", ErrNotFound, sid)
		}
		return nil
	})
}

// AddIngredient appends a blank ingredient to section sid and focuses it.
func (r *Recipe) AddIngredient(sid ids.IngredientSectionID) (ids.IngredientID, error) {
	var id ids.IngredientID
	err := r.mutate(func() error {
		r.leaveLocked(Ingredients)
		r.ingredients.Expand()
		leaf, err := r.ingredients.AppendRow(sid)
		if err != nil {
			return err
		}
		id = leaf.Key()
		return nil
	})
	return id, err
}

// InsertIngredient appends m to section sid. m.Amount is canonical.
func (r *Recipe) InsertIngredient(sid ids.IngredientSectionID, m model.Ingredient) (ids.IngredientID, error) {
	err := r.mutate(func() error {
		s, ok := r.ingredients.Section(sid)
		if !ok {
			return fmt.Errorf("%w: section %s", ErrNotFound, sid)
		}
		leaf := r.newIngredient(m)
		m.ID = leaf.Key()
		return s.Rows().Add(leaf)
	})
	return m.ID, err
}

func (r *Recipe) EditIngredientName(sid ids.IngredientSectionID, id ids.IngredientID, v string) error {
	return r.editIngredient(sid, id, func(e *editor.Ingredient) editor.Delegate { return e.EditName(v) })
}

// EditIngredientAmount takes the amount as displayed at the current scale.
func (r *Recipe) EditIngredientAmount(sid ids.IngredientSectionID, id ids.IngredientID, v string) error {
	return r.editIngredient(sid, id, func(e *editor.Ingredient) editor.Delegate { return e.EditAmount(v) })
}

func (r *Recipe) EditIngredientUnit(sid ids.IngredientSectionID, id ids.IngredientID, v string) error {
	return r.editIngredient(sid, id, func(e *editor.Ingredient) editor.Delegate { return e.EditUnit(v) })
}

// ToggleIngredient checks an ingredient off or back on.
func (r *Recipe) ToggleIngredient(sid ids.IngredientSectionID, id ids.IngredientID) error {
	return r.mutate(func() error {
		_, err := r.ingredients.EditRow(sid, id, func(e *editor.Ingredient) editor.Delegate {
			e.ToggleComplete()
			return editor.Stay
		})
		return err
	})
}

func (r *Recipe) editIngredient(sid ids.IngredientSectionID, id ids.IngredientID, fn func(*editor.Ingredient) editor.Delegate) error {
	return r.mutate(func() error {
		r.leaveLocked(Ingredients)
		_, err := r.ingredients.EditRow(sid, id, fn)
		return err
	})
}

// MoveIngredient moves an ingredient to position to within its section.
func (r *Recipe) MoveIngredient(sid ids.IngredientSectionID, id ids.IngredientID, to int) error {
	return r.mutate(func() error {
		return r.ingredients.MoveRow(sid, id, to)
	})
}

// FocusIngredient focuses field f of an ingredient.
func (r *Recipe) FocusIngredient(sid ids.IngredientSectionID, id ids.IngredientID, f focus.Field) error {
	return r.mutate(func() error {
		r.leaveLocked(Ingredients)
		return r.ingredients.FocusRow(sid, id, f)
	})
}

// DisplayedAmount returns an ingredient's amount at the current scale and
// the text shown for it.
func (r *Recipe) DisplayedAmount(sid ids.IngredientSectionID, id ids.IngredientID) (float64, string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.ingredients.Section(sid)
	if !ok {
		return 0, "", fmt.Errorf("%w: section %s", ErrNotFound, sid)
	}
	leaf, ok := s.Rows().Get(id)
	if !ok {
		return 0, "", fmt.Errorf("%w: ingredient %s", ErrNotFound, id)
	}
	return leaf.Amount(), leaf.AmountText(), nil
}

// Steps

// AddStepSection appends a step section called name.
func (r *Recipe) AddStepSection(name string) (ids.StepSectionID, error) {
	var id ids.StepSectionID
	err := r.mutate(func() error {
		s, err := r.steps.Add(name)
		if err != nil {
			return err
		}
		id = s.Key()
		return nil
	})
	return id, err
}

func (r *Recipe) EditStepSectionName(sid ids.StepSectionID, v string) error {
	return r.mutate(func() error {
		r.leaveLocked(Steps)
		return r.steps.EditName(sid, v)
	})
}

func (r *Recipe) DeleteStepSection(sid ids.StepSectionID) error {
	return r.mutate(func() error {
		if !r.steps.Delete(sid) {
			return fmt.Errorf("%w: section %s", ErrNotFound, sid)
		}
		return nil
	})
}

// AddStep appends a blank step to section sid and focuses its body.
func (r *Recipe) AddStep(sid ids.StepSectionID) (ids.StepID, error) {
	var id ids.StepID
	err := r.mutate(func() error {
		r.leaveLocked(Steps)
		r.steps.Expand()
		leaf, err := r.steps.AppendRow(sid)
		if err != nil {
			return err
		}
		id = leaf.Key()
		return nil
	})
	return id, err
}

// InsertStep appends a step with description to section sid.
func (r *Recipe) InsertStep(sid ids.StepSectionID, description string) (ids.StepID, error) {
	var id ids.StepID
	err := r.mutate(func() error {
		s, ok := r.steps.Section(sid)
		if !ok {
			return fmt.Errorf("%w: section %s", ErrNotFound, sid)
		}
		leaf := r.newStep(model.Step{Description: strings.TrimSpace(description)})
		id = leaf.Key()
		return s.Rows().Add(leaf)
	})
	return id, err
}

func (r *Recipe) EditStep(sid ids.StepSectionID, id ids.StepID, v string) error {
	return r.mutate(func() error {
		r.leaveLocked(Steps)
		_, err := r.steps.EditRow(sid, id, func(e *editor.Step) editor.Delegate { return e.EditDescription(v) })
		return err
	})
}

// MoveStep moves a step to position to within its section.
func (r *Recipe) MoveStep(sid ids.StepSectionID, id ids.StepID, to int) error {
	return r.mutate(func() error {
		return r.steps.MoveRow(sid, id, to)
	})
}

func (r *Recipe) FocusStep(sid ids.StepSectionID, id ids.StepID) error {
	return r.mutate(func() error {
		r.leaveLocked(Steps)
		return r.steps.FocusRow(sid, id, focus.Body)
	})
}

// StepFocus reports which step holds the keyboard, if any.
func (r *Recipe) StepFocus(sid ids.StepSectionID) (ids.StepID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.steps.Section(sid)
	if !ok {
		return ids.StepID{}, false
	}
	return s.Rows().Token().Row()
}

// StepPhotos returns the photo sub-state of a step. Drive it outside any
// recipe call; its changes reach observers through the recipe.
func (r *Recipe) StepPhotos(sid ids.StepSectionID, id ids.StepID) (*photo.State, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.steps.Section(sid)
	if !ok {
		return nil, fmt.Errorf("%w: section %s", ErrNotFound, sid)
	}
	leaf, ok := s.Rows().Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: step %s", ErrNotFound, id)
	}
	return leaf.Photos(), nil
}
