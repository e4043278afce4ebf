package store

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

// Op names a store call.
type Op string

const (
	OpCreateFolder Op = "createFolder"
	OpUpdateFolder Op = "updateFolder"
	OpDeleteFolder Op = "deleteFolder"
	OpCreateRecipe Op = "createRecipe"
	OpUpdateRecipe Op = "updateRecipe"
	OpDeleteRecipe Op = "deleteRecipe"
)

// Call is one recorded write.
type Call struct {
	Op Op
	ID string
}

// Memory is a RecipeStore kept in maps. It records every write, and Fail
// lets tests inject errors per call.
type Memory struct {
	// Fail, when set, is consulted before every write. A non-nil error is
	// returned without applying the write; the call is still recorded.
	Fail func(op Op, id string) error

	mu      sync.Mutex
	folders map[ids.FolderID]model.Folder
	recipes map[ids.RecipeID]model.Recipe
	calls   []Call
}

// NewMemory returns a store seeded with folders and recipes.
func NewMemory(folders []model.Folder, recipes []model.Recipe) *Memory {
	m := &Memory{
		folders: make(map[ids.FolderID]model.Folder, len(folders)),
		recipes: make(map[ids.RecipeID]model.Recipe, len(recipes)),
	}
	for _, f := range folders {
		m.folders[f.ID] = f
	}
	for _, r := range recipes {
		m.recipes[r.ID] = r
	}
	return m
}

// Calls returns the recorded writes in order.
func (m *Memory) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.calls)
}

// CallsOf returns the recorded writes of one kind.
func (m *Memory) CallsOf(op Op) []Call {
	var out []Call
	for _, c := range m.Calls() {
		if c.Op == op {
			out = append(out, c)
		}
	}
	return out
}

// Reset forgets the recorded writes.
func (m *Memory) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

func (m *Memory) FetchRootFolders(ctx context.Context) ([]model.Folder, error) {
	return m.FetchFolders(ctx, ids.FolderID{})
}

func (m *Memory) FetchFolders(_ context.Context, parent ids.FolderID) ([]model.Folder, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Folder
	for _, f := range m.folders {
		if f.ParentID == parent {
			out = append(out, f)
		}
	}
	sortFolders(out)
	return out, nil
}

func (m *Memory) FetchRecipes(_ context.Context, folder ids.FolderID) ([]model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []model.Recipe
	for _, r := range m.recipes {
		if r.FolderID == folder {
			out = append(out, r)
		}
	}
	sortRecipes(out)
	return out, nil
}

func (m *Memory) FetchRecipe(_ context.Context, id ids.RecipeID) (model.Recipe, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.recipes[id]
	if !ok {
		return model.Recipe{}, fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	return r, nil
}

func (m *Memory) CreateFolder(_ context.Context, f model.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordLocked(OpCreateFolder, f.ID.String()); err != nil {
		return err
	}
	m.folders[f.ID] = f
	return nil
}

func (m *Memory) UpdateFolder(_ context.Context, f model.Folder) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordLocked(OpUpdateFolder, f.ID.String()); err != nil {
		return err
	}
	if _, ok := m.folders[f.ID]; !ok {
		return fmt.Errorf("%w: folder %s", ErrNotFound, f.ID)
	}
	m.folders[f.ID] = f
	return nil
}

func (m *Memory) DeleteFolder(_ context.Context, id ids.FolderID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordLocked(OpDeleteFolder, id.String()); err != nil {
		return err
	}
	if _, ok := m.folders[id]; !ok {
		return fmt.Errorf("%w: folder %s", ErrNotFound, id)
	}
	m.deleteFolderLocked(id)
	return nil
}

func (m *Memory) deleteFolderLocked(id ids.FolderID) {
	for cid, f := range m.folders {
		if f.ParentID == id && cid != id {
			m.deleteFolderLocked(cid)
		}
	}
	for rid, r := range m.recipes {
		if r.FolderID == id {
			delete(m.recipes, rid)
		}
	}
	delete(m.folders, id)
}

func (m *Memory) CreateRecipe(_ context.Context, r model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordLocked(OpCreateRecipe, r.ID.String()); err != nil {
		return err
	}
	m.recipes[r.ID] = r
	return nil
}

func (m *Memory) UpdateRecipe(_ context.Context, r model.Recipe) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordLocked(OpUpdateRecipe, r.ID.String()); err != nil {
		return err
	}
	if _, ok := m.recipes[r.ID]; !ok {
		return fmt.Errorf("%w: recipe %s", ErrNotFound, r.ID)
	}
	m.recipes[r.ID] = r
	return nil
}

func (m *Memory) DeleteRecipe(_ context.Context, id ids.RecipeID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.recordLocked(OpDeleteRecipe, id.String()); err != nil {
		return err
	}
	if _, ok := m.recipes[id]; !ok {
		return fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	delete(m.recipes, id)
	return nil
}

func (m *Memory) recordLocked(op Op, id string) error {
	m.calls = append(m.calls, Call{Op: op, ID: id})
	if m.Fail != nil {
		return m.Fail(op, id)
	}
	return nil
}
