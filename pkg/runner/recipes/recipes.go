// Package recipes contains runners for recipe commands.
package recipes

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/cookbook/pkg/app"
	"tableflip.dev/cookbook/pkg/printers"
	"tableflip.dev/cookbook/pkg/recipe"
	"tableflip.dev/cookbook/pkg/scale"
)

// Target names a recipe: a folder reference plus a recipe id or name.
type Target struct {
	Folder string
	Recipe string
}

func (t Target) open(ctx context.Context, lib *app.Library) (*recipe.Recipe, error) {
	fid, err := lib.ResolveFolder(t.Folder)
	if err != nil {
		return nil, err
	}
	rid, err := lib.ResolveRecipe(ctx, fid, t.Recipe)
	if err != nil {
		return nil, err
	}
	return lib.OpenRecipe(ctx, rid)
}

// Add creates a recipe in a folder.
type Add struct {
	Library *app.Library
	Folder  string
	Name    string
}

func (a *Add) Do(ctx context.Context) error {
	fid, err := a.Library.ResolveFolder(a.Folder)
	if err != nil {
		return err
	}
	f, err := a.Library.OpenFolder(ctx, fid)
	if err != nil {
		return err
	}
	created, err := f.CreateRecipe()
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(a.Name); name != "" {
		r, err := a.Library.OpenRecipe(ctx, created.ID)
		if err != nil {
			return err
		}
		r.EditName(name)
	}
	if err := a.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Created %s (%s)\n", a.Name, created.ID)
	return nil
}

// Show prints a recipe at a serving scale.
type Show struct {
	Library *app.Library
	Printer *printers.PrettyPrint
	Target
	Scale float64
}

func (s *Show) Do(ctx context.Context) error {
	if s.Scale == 0 {
		s.Scale = scale.Default
	}
	if err := scale.Check(s.Scale); err != nil {
		return fmt.Errorf("%w (one of %v)", err, scale.Steps())
	}
	r, err := s.open(ctx, s.Library)
	if err != nil {
		return err
	}
	if err := r.SetScale(s.Scale); err != nil {
		return err
	}
	return s.Printer.Recipe(r.Snapshot(), r.Scale())
}

// Export writes a recipe as YAML.
type Export struct {
	Library *app.Library
	Target
	Out io.Writer
}

func (e *Export) Do(ctx context.Context) error {
	r, err := e.open(ctx, e.Library)
	if err != nil {
		return err
	}
	out := e.Out
	if out == nil {
		out = color.Output
	}
	return printers.Export(out, r.Snapshot())
}

// Remove deletes recipes from one folder after confirmation.
type Remove struct {
	Library *app.Library
	Folder  string
	Recipes []string
	// Confirm asks the user; nil confirms.
	Confirm func(prompt string) bool
}

func (r *Remove) Do(ctx context.Context) error {
	if len(r.Recipes) == 0 {
		return errors.New("requires at least one recipe")
	}
	fid, err := r.Library.ResolveFolder(r.Folder)
	if err != nil {
		return err
	}
	f, err := r.Library.OpenFolder(ctx, fid)
	if err != nil {
		return err
	}
	f.EditRecipes()
	defer f.Done()
	for _, ref := range r.Recipes {
		rid, err := r.Library.ResolveRecipe(ctx, fid, ref)
		if err != nil {
			return err
		}
		if err := f.SelectRecipe(rid); err != nil {
			return err
		}
	}
	if err := f.RequestDelete(); err != nil {
		return err
	}
	if r.Confirm != nil && !r.Confirm(fmt.Sprintf("Delete %d recipe(s)?", len(f.SelectedRecipes()))) {
		f.CancelDelete()
		return nil
	}
	n, err := f.ConfirmDelete()
	if err != nil {
		return err
	}
	if err := r.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Removed %d recipe(s)\n", n)
	return nil
}
