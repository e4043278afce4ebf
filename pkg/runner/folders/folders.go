// Package folders contains runners for folder commands.
package folders

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"

	"tableflip.dev/cookbook/pkg/app"
	"tableflip.dev/cookbook/pkg/folder"
	"tableflip.dev/cookbook/pkg/printers"
)

// Tree prints every folder.
type Tree struct {
	Library *app.Library
	Printer *printers.PrettyPrint
}

func (t *Tree) Do(_ context.Context) error {
	t.Printer.Title("Folders")
	t.Printer.Tree(t.Library.Tree())
	return nil
}

// Show prints the contents of one folder.
type Show struct {
	Library *app.Library
	Printer *printers.PrettyPrint
	Folder  string
}

func (s *Show) Do(ctx context.Context) error {
	id, err := s.Library.ResolveFolder(s.Folder)
	if err != nil {
		return err
	}
	f, err := s.Library.OpenFolder(ctx, id)
	if err != nil {
		return err
	}
	title := f.Self().Name
	if !id.IsZero() {
		title = s.Library.Path(id)
	}
	s.Printer.Grid(title, f.Folders(), f.Recipes())
	return nil
}

// Add creates a folder under Parent. It starts as folder.NewFolderName and
// is renamed to Name, the same way a new folder is named after creation.
type Add struct {
	Library *app.Library
	Parent  string
	Name    string
}

func (a *Add) Do(ctx context.Context) error {
	pid, err := a.Library.ResolveFolder(a.Parent)
	if err != nil {
		return err
	}
	parent, err := a.Library.OpenFolder(ctx, pid)
	if err != nil {
		return err
	}
	created, err := parent.CreateFolder()
	if err != nil {
		return err
	}
	if name := strings.TrimSpace(a.Name); name != "" {
		child, err := a.Library.OpenFolder(ctx, created.ID)
		if err != nil {
			return err
		}
		if err := child.Rename(name); err != nil {
			return err
		}
	}
	if err := a.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Created %s\n", a.Library.Path(created.ID))
	return nil
}

// Rename renames a folder.
type Rename struct {
	Library *app.Library
	Folder  string
	Name    string
}

func (r *Rename) Do(ctx context.Context) error {
	id, err := r.Library.ResolveFolder(r.Folder)
	if err != nil {
		return err
	}
	if id.IsZero() {
		return folder.ErrSystemFolder
	}
	f, err := r.Library.OpenFolder(ctx, id)
	if err != nil {
		return err
	}
	if err := f.Rename(r.Name); err != nil {
		return err
	}
	return r.Library.Flush(ctx)
}

// Move re-parents a folder. An empty Into moves it to the library root.
type Move struct {
	Library *app.Library
	Folder  string
	Into    string
}

func (m *Move) Do(ctx context.Context) error {
	id, err := m.Library.ResolveFolder(m.Folder)
	if err != nil {
		return err
	}
	dest, err := m.Library.ResolveFolder(m.Into)
	if err != nil {
		return err
	}
	if _, err := m.Library.MoveFolder(ctx, id, dest); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Moved to %s\n", m.Library.Path(id))
	return nil
}

// Remove deletes folders, and everything in them, after confirmation.
type Remove struct {
	Library *app.Library
	Folders []string
	// Confirm asks the user; nil confirms.
	Confirm func(prompt string) bool
}

func (r *Remove) Do(ctx context.Context) error {
	if len(r.Folders) == 0 {
		return errors.New("requires at least one folder")
	}
	// Selection happens in the grid of each folder's parent.
	byParent := map[*folder.Folder][]string{}
	var parents []*folder.Folder
	for _, ref := range r.Folders {
		id, err := r.Library.ResolveFolder(ref)
		if err != nil {
			return err
		}
		if id.IsZero() {
			return folder.ErrSystemFolder
		}
		f, err := r.Library.OpenFolder(ctx, id)
		if err != nil {
			return err
		}
		parent, err := r.Library.OpenFolder(ctx, f.Self().ParentID)
		if err != nil {
			return err
		}
		if _, ok := byParent[parent]; !ok {
			parents = append(parents, parent)
			parent.EditFolders()
		}
		if err := parent.SelectFolder(id); err != nil {
			return err
		}
		byParent[parent] = append(byParent[parent], r.Library.Path(id))
	}

	removed := 0
	for _, parent := range parents {
		if err := parent.RequestDelete(); err != nil {
			return err
		}
		prompt := fmt.Sprintf("Delete %s and everything in them?", strings.Join(byParent[parent], ", "))
		if r.Confirm != nil && !r.Confirm(prompt) {
			parent.CancelDelete()
			parent.Done()
			continue
		}
		n, err := parent.ConfirmDelete()
		if err != nil {
			return err
		}
		removed += n
		parent.Done()
	}
	if err := r.Library.Flush(ctx); err != nil {
		return err
	}
	_, _ = fmt.Fprintf(color.Output, "Removed %d folder(s)\n", removed)
	return nil
}
