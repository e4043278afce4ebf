package folder

import (
	"fmt"
	"strings"

	"tableflip.dev/cookbook/pkg/ids"
)

// Mode returns the list editing mode.
func (f *Folder) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// FoldersExpanded reports whether the folder section is shown.
func (f *Folder) FoldersExpanded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.foldersOpen
}

// RecipesExpanded reports whether the recipe section is shown.
func (f *Folder) RecipesExpanded() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recipesOpen
}

// EditFolders enters folder editing; the recipe section collapses.
func (f *Folder) EditFolders() {
	f.enter(EditingFolders)
}

// EditRecipes enters recipe editing; the folder section collapses.
func (f *Folder) EditRecipes() {
	f.enter(EditingRecipes)
}

func (f *Folder) enter(m Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearSelectionLocked()
	f.mode = m
	f.foldersOpen = m == EditingFolders
	f.recipesOpen = m == EditingRecipes
}

// Done leaves edit mode, clears the selection and shows both sections.
func (f *Folder) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearSelectionLocked()
	f.mode = Idle
	f.foldersOpen = true
	f.recipesOpen = true
}

func (f *Folder) clearSelectionLocked() {
	clear(f.selFolders)
	clear(f.selRecipes)
	f.confirming = false
}

// SelectFolder toggles id in the folder selection.
func (f *Folder) SelectFolder(id ids.FolderID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != EditingFolders {
		return fmt.Errorf("%w: %s", ErrWrongMode, EditingFolders)
	}
	it, ok := f.folders.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if it.folder.Type.IsSystem() {
		return ErrSystemFolder
	}
	toggle(f.selFolders, id)
	return nil
}

// SelectRecipe toggles id in the recipe selection.
func (f *Folder) SelectRecipe(id ids.RecipeID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.mode != EditingRecipes {
		return fmt.Errorf("%w: %s", ErrWrongMode, EditingRecipes)
	}
	if !f.recipes.Contains(id) {
		return fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	toggle(f.selRecipes, id)
	return nil
}

func toggle[K comparable](set map[K]bool, id K) {
	if set[id] {
		delete(set, id)
		return
	}
	set[id] = true
}

// SelectAll selects every entry of the section being edited. System
// folders are skipped.
func (f *Folder) SelectAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch f.mode {
	case EditingFolders:
		for _, it := range f.folders.All() {
			if !it.folder.Type.IsSystem() {
				f.selFolders[it.folder.ID] = true
			}
		}
	case EditingRecipes:
		for _, it := range f.recipes.All() {
			f.selRecipes[it.recipe.ID] = true
		}
	}
}

// DeselectAll empties the selection.
func (f *Folder) DeselectAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.clearSelectionLocked()
}

// SelectedFolders returns the selected folders in display order.
func (f *Folder) SelectedFolders() []ids.FolderID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ids.FolderID
	for _, id := range f.folders.Keys() {
		if f.selFolders[id] {
			out = append(out, id)
		}
	}
	return out
}

// SelectedRecipes returns the selected recipes in display order.
func (f *Folder) SelectedRecipes() []ids.RecipeID {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ids.RecipeID
	for _, id := range f.recipes.Keys() {
		if f.selRecipes[id] {
			out = append(out, id)
		}
	}
	return out
}

// RequestDelete asks to delete the selection. Nothing changes until
// ConfirmDelete.
func (f *Folder) RequestDelete() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.selFolders) == 0 && len(f.selRecipes) == 0 {
		return ErrEmptySelection
	}
	f.confirming = true
	return nil
}

// Confirming reports whether a batch deletion awaits confirmation.
func (f *Folder) Confirming() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.confirming
}

// CancelDelete dismisses the confirmation. The selection is kept.
func (f *Folder) CancelDelete() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirming = false
}

// ConfirmDelete removes every selected entry and returns how many went.
func (f *Folder) ConfirmDelete() (int, error) {
	removed := 0
	err := f.mutate(func() (*Destination, error) {
		if !f.confirming {
			return nil, ErrNoPendingDeletion
		}
		f.confirming = false
		for id := range f.selFolders {
			if it, ok := f.folders.Remove(id); ok {
				it.photos.Cancel()
				removed++
			}
		}
		for id := range f.selRecipes {
			if it, ok := f.recipes.Remove(id); ok {
				it.photos.Cancel()
				removed++
			}
		}
		clear(f.selFolders)
		clear(f.selRecipes)
		return nil, nil
	})
	return removed, err
}

// BeginRenameFolder opens the rename overlay for child folder id with its
// current name selected.
func (f *Folder) BeginRenameFolder(id ids.FolderID) (Rename, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.folders.Get(id)
	if !ok {
		return Rename{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if it.folder.Type.IsSystem() {
		return Rename{}, ErrSystemFolder
	}
	f.rename = &Rename{Kind: KindFolder, Folder: id, Text: it.folder.Name, SelectAll: true}
	return *f.rename, nil
}

// BeginRenameRecipe opens the rename overlay for recipe id.
func (f *Folder) BeginRenameRecipe(id ids.RecipeID) (Rename, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.recipes.Get(id)
	if !ok {
		return Rename{}, fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	f.rename = &Rename{Kind: KindRecipe, Recipe: id, Text: it.recipe.Name, SelectAll: true}
	return *f.rename, nil
}

// Renaming returns the open rename overlay.
func (f *Folder) Renaming() (Rename, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rename == nil {
		return Rename{}, false
	}
	return *f.rename, true
}

// EditRename replaces the overlay text. Typing drops the initial selection.
func (f *Folder) EditRename(text string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.rename == nil {
		return ErrNoRename
	}
	f.rename.Text = text
	f.rename.SelectAll = false
	return nil
}

// CancelRename closes the overlay without changes.
func (f *Folder) CancelRename() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rename = nil
}

// CommitRename applies the overlay text and closes it.
func (f *Folder) CommitRename() error {
	return f.mutate(func() (*Destination, error) {
		r := f.rename
		if r == nil {
			return nil, ErrNoRename
		}
		name := strings.TrimSpace(r.Text)
		if name == "" {
			return nil, ErrEmptyName
		}
		f.rename = nil
		now := f.cfg.Clock.Now()
		switch r.Kind {
		case KindFolder:
			it, ok := f.folders.Get(r.Folder)
			if !ok {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, r.Folder)
			}
			if it.folder.Name != name {
				it.folder.Name = name
				it.folder.Edited = now
			}
		case KindRecipe:
			it, ok := f.recipes.Get(r.Recipe)
			if !ok {
				return nil, fmt.Errorf("%w: recipe %s", ErrNotFound, r.Recipe)
			}
			if it.recipe.Name != name {
				it.recipe.Name = name
				it.recipe.Edited = now
			}
		}
		return nil, nil
	})
}
