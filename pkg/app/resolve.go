package app

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"tableflip.dev/cookbook/pkg/folder"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/store"
)

// ErrAmbiguous is returned when a name matches more than one item.
var ErrAmbiguous = errors.New("app: ambiguous name")

// ResolveFolder finds a folder by id or by a slash separated path of names
// such as "Baking/Bread". Names match without regard to case. "" and "/"
// are the library root.
func (l *Library) ResolveFolder(ref string) (ids.FolderID, error) {
	ref = strings.Trim(strings.TrimSpace(ref), "/")
	if ref == "" {
		return ids.FolderID{}, nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if id, err := ids.ParseFolder(ref); err == nil {
		if _, ok := l.tree.Get(id); ok {
			return id, nil
		}
	}
	var at ids.FolderID
	for _, name := range strings.Split(ref, "/") {
		var match []model.Folder
		for _, c := range l.tree.Children(at) {
			if strings.EqualFold(c.Name, strings.TrimSpace(name)) {
				match = append(match, c)
			}
		}
		switch len(match) {
		case 0:
			return ids.FolderID{}, fmt.Errorf("%w: %q", folder.ErrNotFound, ref)
		case 1:
			at = match[0].ID
		default:
			return ids.FolderID{}, fmt.Errorf("%w: %q", ErrAmbiguous, name)
		}
	}
	return at, nil
}

// ResolveRecipe finds a recipe in folder fid by id or by name.
func (l *Library) ResolveRecipe(ctx context.Context, fid ids.FolderID, ref string) (ids.RecipeID, error) {
	ref = strings.TrimSpace(ref)
	if id, err := ids.ParseRecipe(ref); err == nil {
		return id, nil
	}
	f, err := l.OpenFolder(ctx, fid)
	if err != nil {
		return ids.RecipeID{}, err
	}
	var match []model.Recipe
	for _, r := range f.Recipes() {
		if strings.EqualFold(r.Name, ref) {
			match = append(match, r)
		}
	}
	switch len(match) {
	case 0:
		return ids.RecipeID{}, fmt.Errorf("%w: recipe %q", store.ErrNotFound, ref)
	case 1:
		return match[0].ID, nil
	default:
		return ids.RecipeID{}, fmt.Errorf("%w: %q", ErrAmbiguous, ref)
	}
}
