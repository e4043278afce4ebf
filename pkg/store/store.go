// Package store holds the recipe store capability and its backends: an
// in-memory store for tests and a diskv-backed JSON store for the CLI.
package store

import (
	"context"
	"errors"

	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

// ErrNotFound is returned for an id the store does not hold.
var ErrNotFound = errors.New("store: not found")

// Reader loads folders and recipes. The zero parent id means the root.
type Reader interface {
	FetchRootFolders(ctx context.Context) ([]model.Folder, error)
	FetchFolders(ctx context.Context, parent ids.FolderID) ([]model.Folder, error)
	FetchRecipes(ctx context.Context, folder ids.FolderID) ([]model.Recipe, error)
	FetchRecipe(ctx context.Context, id ids.RecipeID) (model.Recipe, error)
}

// Writer persists folder and recipe changes. Deleting a folder removes every
// folder and recipe beneath it.
type Writer interface {
	CreateFolder(ctx context.Context, f model.Folder) error
	UpdateFolder(ctx context.Context, f model.Folder) error
	DeleteFolder(ctx context.Context, id ids.FolderID) error
	CreateRecipe(ctx context.Context, r model.Recipe) error
	UpdateRecipe(ctx context.Context, r model.Recipe) error
	DeleteRecipe(ctx context.Context, id ids.RecipeID) error
}

// RecipeStore is the full capability.
type RecipeStore interface {
	Reader
	Writer
}

// Config locates a disk store.
type Config interface {
	BasePath() string
}
