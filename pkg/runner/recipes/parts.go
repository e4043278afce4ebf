package recipes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/cookbook/pkg/app"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/photo"
)

// AddIngredient appends an ingredient to a named section, creating the
// section when it does not exist. Fields are typed in the way the editor
// receives them, so Amount is filtered to a number.
type AddIngredient struct {
	Library *app.Library
	Target
	Section string
	Name    string
	Amount  string
	Unit    string
}

func (a *AddIngredient) Do(ctx context.Context) error {
	r, err := a.open(ctx, a.Library)
	if err != nil {
		return err
	}
	var sid ids.IngredientSectionID
	for _, s := range r.Snapshot().IngredientSections {
		if strings.EqualFold(s.Name, strings.TrimSpace(a.Section)) {
			sid = s.ID
			break
		}
	}
	if sid.IsZero() {
		if sid, err = r.AddIngredientSection(a.Section); err != nil {
			return err
		}
	}
	id, err := r.AddIngredient(sid)
	if err != nil {
		return err
	}
	if err := r.EditIngredientName(sid, id, a.Name); err != nil {
		return err
	}
	if err := r.EditIngredientAmount(sid, id, a.Amount); err != nil {
		return err
	}
	if err := r.EditIngredientUnit(sid, id, a.Unit); err != nil {
		return err
	}
	r.Blur()
	if err := a.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Added %s to %s\n", a.Name, r.Name())
	return nil
}

// AddStep appends a step to a named step section, creating the section when
// it does not exist.
type AddStep struct {
	Library *app.Library
	Target
	Section string
	Text    string
	// Photos are image files attached to the new step.
	Photos []string
}

func (a *AddStep) Do(ctx context.Context) error {
	r, err := a.open(ctx, a.Library)
	if err != nil {
		return err
	}
	var sid ids.StepSectionID
	for _, s := range r.Snapshot().StepSections {
		if strings.EqualFold(s.Name, strings.TrimSpace(a.Section)) {
			sid = s.ID
			break
		}
	}
	if sid.IsZero() {
		if sid, err = r.AddStepSection(a.Section); err != nil {
			return err
		}
	}
	id, err := r.AddStep(sid)
	if err != nil {
		return err
	}
	if err := r.EditStep(sid, id, a.Text); err != nil {
		return err
	}
	if len(a.Photos) > 0 {
		photos, err := r.StepPhotos(sid, id)
		if err != nil {
			return err
		}
		if err := importAll(ctx, photos, a.Photos); err != nil {
			return err
		}
	}
	r.Blur()
	if err := a.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Added step to %s\n", r.Name())
	return nil
}

// Reorder moves one ingredient, or one step when Steps is set, within its
// section. From and To count from 1; an empty Section means the first one.
type Reorder struct {
	Library *app.Library
	Target
	Steps   bool
	Section string
	From    int
	To      int
}

func (o *Reorder) Do(ctx context.Context) error {
	r, err := o.open(ctx, o.Library)
	if err != nil {
		return err
	}
	snap := r.Snapshot()
	name := strings.TrimSpace(o.Section)
	match := func(s string, i int) bool {
		if name == "" {
			return i == 0
		}
		return strings.EqualFold(s, name)
	}
	from, to := o.From-1, o.To-1
	if o.Steps {
		for i, s := range snap.StepSections {
			if !match(s.Name, i) {
				continue
			}
			if from < 0 || from >= len(s.Steps) {
				return fmt.Errorf("no step %d in %q", o.From, s.Name)
			}
			err = r.MoveStep(s.ID, s.Steps[from].ID, to)
			return o.finish(ctx, r.Name(), err)
		}
		return fmt.Errorf("no step section %q in %s", o.Section, r.Name())
	}
	for i, s := range snap.IngredientSections {
		if !match(s.Name, i) {
			continue
		}
		if from < 0 || from >= len(s.Ingredients) {
			return fmt.Errorf("no ingredient %d in %q", o.From, s.Name)
		}
		err = r.MoveIngredient(s.ID, s.Ingredients[from].ID, to)
		return o.finish(ctx, r.Name(), err)
	}
	return fmt.Errorf("no ingredient section %q in %s", o.Section, r.Name())
}

func (o *Reorder) finish(ctx context.Context, name string, err error) error {
	if err != nil {
		return err
	}
	if err := o.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Moved %d to %d in %s\n", o.From, o.To, name)
	return nil
}

// AddPhoto imports image files into a recipe's photos.
type AddPhoto struct {
	Library *app.Library
	Target
	Files []string
}

func (a *AddPhoto) Do(ctx context.Context) error {
	r, err := a.open(ctx, a.Library)
	if err != nil {
		return err
	}
	if err := importAll(ctx, r.Photos(), a.Files); err != nil {
		return err
	}
	return a.Library.Flush(ctx)
}

// importAll appends each file in turn, waiting for one import before
// starting the next.
func importAll(ctx context.Context, s *photo.State, files []string) error {
	for _, file := range files {
		e, err := s.Begin(ctx, photo.AddWhenEmpty, photo.Handle(file))
		if err != nil {
			return err
		}
		if err := e.Wait(); err != nil {
			var failure *photo.Failure
			if errors.As(err, &failure) {
				return fmt.Errorf("%s: %s", file, failure.Notice())
			}
			return err
		}
	}
	return nil
}
