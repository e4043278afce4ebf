// Package folder holds the folder aggregate and the folder tree. A Folder
// owns the grid of its direct child folders and recipes, each with its own
// photo sub-state, plus the list editing state: edit mode, selection, batch
// delete, rename overlay and creation of new children.
package folder

import (
	"fmt"
	"slices"
	"strings"
	"sync"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/ordered"
	"tableflip.dev/cookbook/pkg/photo"
)

const (
	NewFolderName = "New Untitled Folder"
	NewRecipeName = "Untitled Recipe"
)

// Destination is where the caller should navigate after a create.
type Destination struct {
	Kind   Kind
	Folder ids.FolderID
	Recipe ids.RecipeID
}

// Observer receives a folder's changes, outside its lock, in this order:
// the folder itself, its child folders, its recipes, then navigation.
type Observer interface {
	FolderChanged(self model.Folder)
	FoldersChanged(parent ids.FolderID, folders []model.Folder)
	RecipesChanged(folder ids.FolderID, recipes []model.Recipe)
	Navigate(to Destination)
}

// ObserverFuncs adapts optional funcs to an Observer.
type ObserverFuncs struct {
	OnFolder   func(model.Folder)
	OnFolders  func(ids.FolderID, []model.Folder)
	OnRecipes  func(ids.FolderID, []model.Recipe)
	OnNavigate func(Destination)
}

func (o ObserverFuncs) FolderChanged(self model.Folder) {
	if o.OnFolder != nil {
		o.OnFolder(self)
	}
}

func (o ObserverFuncs) FoldersChanged(parent ids.FolderID, folders []model.Folder) {
	if o.OnFolders != nil {
		o.OnFolders(parent, folders)
	}
}

func (o ObserverFuncs) RecipesChanged(folder ids.FolderID, recipes []model.Recipe) {
	if o.OnRecipes != nil {
		o.OnRecipes(folder, recipes)
	}
}

func (o ObserverFuncs) Navigate(to Destination) {
	if o.OnNavigate != nil {
		o.OnNavigate(to)
	}
}

// Config carries the collaborators of a Folder.
type Config struct {
	IDs   ids.Source
	Clock clock.Clock
	Photo photo.Config
}

// Rename is the rename overlay. It opens with the whole name selected.
type Rename struct {
	Kind      Kind
	Folder    ids.FolderID
	Recipe    ids.RecipeID
	Text      string
	SelectAll bool
}

type folderItem struct {
	folder model.Folder
	photos *photo.State
}

func (i *folderItem) Key() ids.FolderID { return i.folder.ID }

type recipeItem struct {
	recipe model.Recipe
	photos *photo.State
}

func (i *recipeItem) Key() ids.RecipeID { return i.recipe.ID }

// Folder is one open folder. The library root is a Folder whose record has
// the zero id and type model.FolderAll.
type Folder struct {
	cfg Config

	mu          sync.Mutex
	self        model.Folder
	folders     *ordered.List[ids.FolderID, *folderItem]
	recipes     *ordered.List[ids.RecipeID, *recipeItem]
	mode        Mode
	selFolders  map[ids.FolderID]bool
	selRecipes  map[ids.RecipeID]bool
	foldersOpen bool
	recipesOpen bool
	confirming  bool
	rename      *Rename

	lastSelf    model.Folder
	lastFolders []model.Folder
	lastRecipes []model.Recipe
	observers   []Observer
}

// Root returns the record of the library root.
func Root() model.Folder {
	return model.Folder{Name: "All", Type: model.FolderAll}
}

// New opens self with its direct children.
func New(cfg Config, self model.Folder, folders []model.Folder, recipes []model.Recipe) (*Folder, error) {
	if cfg.IDs == nil {
		cfg.IDs = ids.Random{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Photo.Clock == nil {
		cfg.Photo.Clock = cfg.Clock
	}
	if cfg.Photo.IDs == nil {
		cfg.Photo.IDs = cfg.IDs
	}
	f := &Folder{
		cfg:         cfg,
		self:        self,
		folders:     &ordered.List[ids.FolderID, *folderItem]{},
		recipes:     &ordered.List[ids.RecipeID, *recipeItem]{},
		selFolders:  map[ids.FolderID]bool{},
		selRecipes:  map[ids.RecipeID]bool{},
		foldersOpen: true,
		recipesOpen: true,
	}
	for _, m := range folders {
		if err := f.folders.Append(f.newFolderItem(m)); err != nil {
			return nil, fmt.Errorf("folder: %w", err)
		}
	}
	for _, m := range recipes {
		if err := f.recipes.Append(f.newRecipeItem(m)); err != nil {
			return nil, fmt.Errorf("folder: %w", err)
		}
	}
	f.lastSelf = self
	f.lastFolders = f.folderSnapshotLocked()
	f.lastRecipes = f.recipeSnapshotLocked()
	return f, nil
}

func (f *Folder) newFolderItem(m model.Folder) *folderItem {
	var images []model.ImageRef
	if m.Cover != nil {
		images = []model.ImageRef{*m.Cover}
	}
	s := photo.New(f.cfg.Photo, images)
	s.OnChange(f.refresh)
	return &folderItem{folder: m, photos: s}
}

func (f *Folder) newRecipeItem(m model.Recipe) *recipeItem {
	s := photo.New(f.cfg.Photo, m.Images)
	s.OnChange(f.refresh)
	return &recipeItem{recipe: m, photos: s}
}

// Observe registers o for every future change.
func (f *Folder) Observe(o Observer) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.observers = append(f.observers, o)
}

// Self returns this folder's own record.
func (f *Folder) Self() model.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.self
}

// ID returns this folder's id; zero for the library root.
func (f *Folder) ID() ids.FolderID {
	return f.Self().ID
}

// Folders returns the child folders with covers taken from their photos.
func (f *Folder) Folders() []model.Folder {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.folderSnapshotLocked()
}

// Recipes returns the recipes with images taken from their photos.
func (f *Folder) Recipes() []model.Recipe {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recipeSnapshotLocked()
}

func (f *Folder) folderSnapshotLocked() []model.Folder {
	out := make([]model.Folder, 0, f.folders.Len())
	for _, it := range f.folders.All() {
		m := it.folder
		m.Cover = nil
		if sel, ok := it.photos.Selected(); ok {
			m.Cover = &sel
		}
		out = append(out, m)
	}
	return out
}

func (f *Folder) recipeSnapshotLocked() []model.Recipe {
	out := make([]model.Recipe, 0, f.recipes.Len())
	for _, it := range f.recipes.All() {
		m := it.recipe
		m.Images = it.photos.Images()
		out = append(out, m)
	}
	return out
}

// mutate runs fn under the lock, then reports what changed.
func (f *Folder) mutate(fn func() (*Destination, error)) error {
	f.mu.Lock()
	nav, err := fn()
	self := f.self
	folders := f.folderSnapshotLocked()
	recipes := f.recipeSnapshotLocked()
	selfChanged := !self.Equal(f.lastSelf)
	foldersChanged := !slices.EqualFunc(folders, f.lastFolders, model.Folder.Equal)
	recipesChanged := !slices.EqualFunc(recipes, f.lastRecipes, model.Recipe.Equal)
	f.lastSelf, f.lastFolders, f.lastRecipes = self, folders, recipes
	observers := slices.Clone(f.observers)
	f.mu.Unlock()

	for _, o := range observers {
		if selfChanged {
			o.FolderChanged(self)
		}
		if foldersChanged {
			o.FoldersChanged(self.ID, folders)
		}
		if recipesChanged {
			o.RecipesChanged(self.ID, recipes)
		}
		if nav != nil {
			o.Navigate(*nav)
		}
	}
	return err
}

func (f *Folder) refresh() {
	_ = f.mutate(func() (*Destination, error) { return nil, nil })
}

// FolderPhotos returns the cover photo sub-state of child folder id.
func (f *Folder) FolderPhotos(id ids.FolderID) (*photo.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.folders.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return it.photos, nil
}

// RecipePhotos returns the photo sub-state of recipe id.
func (f *Folder) RecipePhotos(id ids.RecipeID) (*photo.State, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	it, ok := f.recipes.Get(id)
	if !ok {
		return nil, fmt.Errorf("%w: recipe %s", ErrNotFound, id)
	}
	return it.photos, nil
}

// CreateFolder adds a child folder called NewFolderName, then asks the
// observers to navigate to it.
func (f *Folder) CreateFolder() (model.Folder, error) {
	now := f.cfg.Clock.Now()
	m := model.Folder{
		ID:       ids.NewFolder(f.cfg.IDs),
		ParentID: f.ID(),
		Name:     NewFolderName,
		Type:     model.FolderUser,
		Created:  now,
		Edited:   now,
	}
	err := f.mutate(func() (*Destination, error) {
		if err := f.folders.Append(f.newFolderItem(m)); err != nil {
			return nil, fmt.Errorf("folder: %w", err)
		}
		return &Destination{Kind: KindFolder, Folder: m.ID}, nil
	})
	return m, err
}

// CreateRecipe adds a recipe called NewRecipeName, then asks the observers
// to navigate to it.
func (f *Folder) CreateRecipe() (model.Recipe, error) {
	now := f.cfg.Clock.Now()
	m := model.Recipe{
		ID:       ids.NewRecipe(f.cfg.IDs),
		FolderID: f.ID(),
		Name:     NewRecipeName,
		Created:  now,
		Edited:   now,
	}
	err := f.mutate(func() (*Destination, error) {
		if err := f.recipes.Append(f.newRecipeItem(m)); err != nil {
			return nil, fmt.Errorf("folder: %w", err)
		}
		return &Destination{Kind: KindRecipe, Recipe: m.ID}, nil
	})
	return m, err
}

// Rename renames this folder.
func (f *Folder) Rename(name string) error {
	name = strings.TrimSpace(name)
	return f.mutate(func() (*Destination, error) {
		if f.self.Type.IsSystem() {
			return nil, ErrSystemFolder
		}
		if name == "" {
			return nil, ErrEmptyName
		}
		if name != f.self.Name {
			f.self.Name = name
			f.self.Edited = f.cfg.Clock.Now()
		}
		return nil, nil
	})
}

// ApplyFolder takes a child folder's record as changed by its own aggregate.
func (f *Folder) ApplyFolder(m model.Folder) error {
	return f.mutate(func() (*Destination, error) {
		it, ok := f.folders.Get(m.ID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, m.ID)
		}
		cover, _ := it.photos.Selected()
		if (m.Cover == nil) != (it.photos.Phase() == photo.Empty) || (m.Cover != nil && !m.Cover.Equal(cover)) {
			it.photos.Cancel()
			it.photos = f.newFolderItem(m).photos
		}
		it.folder = m
		return nil, nil
	})
}

// ApplyRecipe takes a recipe's snapshot as produced by its open aggregate.
func (f *Folder) ApplyRecipe(m model.Recipe) error {
	return f.mutate(func() (*Destination, error) {
		it, ok := f.recipes.Get(m.ID)
		if !ok {
			return nil, fmt.Errorf("%w: recipe %s", ErrNotFound, m.ID)
		}
		if !slices.EqualFunc(m.Images, it.photos.Images(), model.ImageRef.Equal) {
			it.photos.Cancel()
			it.photos = f.newRecipeItem(m).photos
		}
		it.recipe = m
		return nil, nil
	})
}
