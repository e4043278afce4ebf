// Package app wires the aggregates to the store. A Library owns the folder
// tree, the folders and recipes open for editing and the persistence engine,
// and routes every snapshot upward: an open recipe updates its folder's grid,
// a child folder updates its parent's grid, and every grid change is handed
// to the engine.
package app

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/debounce"
	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/folder"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/persist"
	"tableflip.dev/cookbook/pkg/photo"
	"tableflip.dev/cookbook/pkg/recipe"
	"tableflip.dev/cookbook/pkg/store"
)

const component events.ComponentID = "app"

// Config carries the collaborators of a Library.
type Config struct {
	Store  store.RecipeStore
	IDs    ids.Source
	Clock  clock.Clock
	Logger zerolog.Logger
	Bus    *events.Bus
	// Delay is the quiet period before edits are persisted and before a
	// newly named section gets its first row.
	Delay     time.Duration
	Photo     photo.Config
	Separator rune
	// Persist tunes retries; its Store, Clock, Delay, Logger and Bus are
	// taken from this Config.
	Persist persist.Config
}

// Library is an open cookbook.
type Library struct {
	cfg      Config
	engine   *persist.Engine
	debounce *debounce.Debouncer
	log      zerolog.Logger

	mu      sync.Mutex
	tree    *folder.Tree
	folders map[ids.FolderID]*folder.Folder
	recipes map[ids.RecipeID]*recipe.Recipe
	nav     []folder.Destination
}

// New returns a Library over cfg.Store. Call Load before use.
func New(cfg Config) (*Library, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("app: no store configured")
	}
	if cfg.IDs == nil {
		cfg.IDs = ids.Random{}
	}
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Delay <= 0 {
		cfg.Delay = persist.DefaultDelay
	}
	if cfg.Photo.Clock == nil {
		cfg.Photo.Clock = cfg.Clock
	}
	if cfg.Photo.IDs == nil {
		cfg.Photo.IDs = cfg.IDs
	}
	pc := cfg.Persist
	pc.Store = cfg.Store
	pc.Clock = cfg.Clock
	pc.Delay = cfg.Delay
	pc.Logger = cfg.Logger
	pc.Bus = cfg.Bus
	tree, _ := folder.NewTree()
	return &Library{
		cfg:      cfg,
		engine:   persist.New(pc),
		debounce: debounce.New(cfg.Clock, cfg.Delay),
		log:      cfg.Logger.With().Str("component", string(component)).Logger(),
		tree:     tree,
		folders:  make(map[ids.FolderID]*folder.Folder),
		recipes:  make(map[ids.RecipeID]*recipe.Recipe),
	}, nil
}

// Load reads the whole folder tree and opens the library root.
func (l *Library) Load(ctx context.Context) error {
	var all []model.Folder
	level := []ids.FolderID{{}}
	for len(level) > 0 {
		found := make([][]model.Folder, len(level))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(persist.DefaultConcurrency)
		for i, parent := range level {
			g.Go(func() error {
				children, err := l.cfg.Store.FetchFolders(gctx, parent)
				if err != nil {
					return fmt.Errorf("app: fetch folders of %s: %w", parent, err)
				}
				found[i] = children
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		level = level[:0:0]
		for _, children := range found {
			for _, f := range children {
				all = append(all, f)
				level = append(level, f.ID)
			}
		}
	}
	tree, err := folder.NewTree(all...)
	if err != nil {
		return fmt.Errorf("app: %w", err)
	}

	l.mu.Lock()
	l.tree = tree
	l.mu.Unlock()
	l.log.Debug().Int("folders", tree.Len()).Msg("loaded")

	_, err = l.OpenFolder(ctx, ids.FolderID{})
	return err
}

// Root returns the library root aggregate.
func (l *Library) Root() *folder.Folder {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.folders[ids.FolderID{}]
}

// Engine exposes the persistence engine.
func (l *Library) Engine() *persist.Engine {
	return l.engine
}

// Tree returns the nested folder view.
func (l *Library) Tree() []*folder.Node {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tree.Build()
}

// Path renders the location of id such as "Desserts/Cakes".
func (l *Library) Path(id ids.FolderID) string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.tree.PathString(id)
}

// Navigations returns every navigation requested so far.
func (l *Library) Navigations() []folder.Destination {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]folder.Destination(nil), l.nav...)
}

// OpenFolder returns the aggregate of folder id, opening it and its
// ancestors as needed. The zero id is the library root.
func (l *Library) OpenFolder(ctx context.Context, id ids.FolderID) (*folder.Folder, error) {
	l.mu.Lock()
	if f, ok := l.folders[id]; ok {
		l.mu.Unlock()
		return f, nil
	}
	self := folder.Root()
	if !id.IsZero() {
		m, ok := l.tree.Get(id)
		if !ok {
			l.mu.Unlock()
			return nil, fmt.Errorf("app: %w: %s", folder.ErrNotFound, id)
		}
		self = m
	}
	l.mu.Unlock()

	if !id.IsZero() {
		// The parent grid receives this folder's changes.
		if _, err := l.OpenFolder(ctx, self.ParentID); err != nil {
			return nil, err
		}
	}

	var (
		children []model.Folder
		recipes  []model.Recipe
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		children, err = l.cfg.Store.FetchFolders(gctx, id)
		return err
	})
	g.Go(func() (err error) {
		recipes, err = l.cfg.Store.FetchRecipes(gctx, id)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("app: open folder %s: %w", self.Name, err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if f, ok := l.folders[id]; ok {
		return f, nil
	}
	f, err := folder.New(folder.Config{IDs: l.cfg.IDs, Clock: l.cfg.Clock, Photo: l.cfg.Photo}, self, children, recipes)
	if err != nil {
		return nil, err
	}
	l.engine.TrackFolders(id, children)
	l.engine.TrackRecipes(id, recipes)
	f.Observe(&folderObserver{lib: l, f: f})
	l.folders[id] = f
	return f, nil
}

// OpenRecipe returns the aggregate of recipe id, opening its folder first.
func (l *Library) OpenRecipe(ctx context.Context, id ids.RecipeID) (*recipe.Recipe, error) {
	l.mu.Lock()
	if r, ok := l.recipes[id]; ok {
		l.mu.Unlock()
		return r, nil
	}
	l.mu.Unlock()

	m, err := l.findRecipe(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := l.OpenFolder(ctx, m.FolderID); err != nil {
		return nil, err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if r, ok := l.recipes[id]; ok {
		return r, nil
	}
	r, err := recipe.New(recipe.Config{
		IDs:       l.cfg.IDs,
		Clock:     l.cfg.Clock,
		Scheduler: l.debounce,
		Photo:     l.cfg.Photo,
		Separator: l.cfg.Separator,
	}, m)
	if err != nil {
		return nil, err
	}
	r.Observe(func(snap model.Recipe) {
		l.mu.Lock()
		live := l.recipes[id] == r
		parent, ok := l.folders[snap.FolderID]
		l.mu.Unlock()
		if !live || !ok {
			return
		}
		if err := parent.ApplyRecipe(snap); err != nil {
			l.log.Warn().Str("recipe", snap.ID.String()).Err(err).Msg("recipe left its folder")
		}
	})
	l.recipes[id] = r
	return r, nil
}

// findRecipe prefers an open folder's copy, which may not be stored yet.
func (l *Library) findRecipe(ctx context.Context, id ids.RecipeID) (model.Recipe, error) {
	l.mu.Lock()
	open := make([]*folder.Folder, 0, len(l.folders))
	for _, f := range l.folders {
		open = append(open, f)
	}
	l.mu.Unlock()
	for _, f := range open {
		for _, r := range f.Recipes() {
			if r.ID == id {
				return r, nil
			}
		}
	}
	m, err := l.cfg.Store.FetchRecipe(ctx, id)
	if err != nil {
		return model.Recipe{}, fmt.Errorf("app: open recipe: %w", err)
	}
	return m, nil
}

// MoveFolder re-parents folder id under dest; the zero dest is the library
// root. Pending edits are flushed first. The aggregates of the old parent,
// the new parent and the folder itself are reopened from the store, so
// handles to them or their recipes taken earlier go stale.
func (l *Library) MoveFolder(ctx context.Context, id, dest ids.FolderID) (model.Folder, error) {
	if id.IsZero() {
		return model.Folder{}, fmt.Errorf("app: %w: the library root cannot move", folder.ErrSystemFolder)
	}
	if err := l.Flush(ctx); err != nil {
		return model.Folder{}, err
	}

	l.mu.Lock()
	m, ok := l.tree.Get(id)
	if !ok {
		l.mu.Unlock()
		return model.Folder{}, fmt.Errorf("app: %w: %s", folder.ErrNotFound, id)
	}
	from := m.ParentID
	if from == dest {
		l.mu.Unlock()
		return m, nil
	}
	if err := l.tree.Move(id, dest); err != nil {
		l.mu.Unlock()
		return model.Folder{}, fmt.Errorf("app: move folder %s: %w", m.Name, err)
	}
	l.mu.Unlock()

	m.ParentID = dest
	if err := l.cfg.Store.UpdateFolder(ctx, m); err != nil {
		l.mu.Lock()
		if rerr := l.tree.Move(id, from); rerr != nil {
			l.log.Error().Str("folder", id.String()).Err(rerr).Msg("restore tree after failed move")
		}
		l.mu.Unlock()
		return model.Folder{}, fmt.Errorf("app: move folder %s: %w", m.Name, err)
	}
	l.log.Debug().Str("folder", id.String()).Str("from", from.String()).Str("to", dest.String()).Msg("moved")

	closed := l.closeFolders(from, dest, id)
	for _, fid := range closed {
		if _, err := l.OpenFolder(ctx, fid); err != nil {
			return m, err
		}
	}
	return m, nil
}

// closeFolders drops the open aggregates of folders and of their recipes and
// forgets their persistence scopes. It returns the ids that were open.
func (l *Library) closeFolders(folders ...ids.FolderID) []ids.FolderID {
	l.mu.Lock()
	var closed []ids.FolderID
	for _, id := range folders {
		if _, ok := l.folders[id]; ok {
			delete(l.folders, id)
			closed = append(closed, id)
		}
	}
	for rid, r := range l.recipes {
		if slices.Contains(closed, r.Snapshot().FolderID) {
			delete(l.recipes, rid)
		}
	}
	l.mu.Unlock()
	for _, id := range closed {
		l.engine.Forget(id)
	}
	return closed
}

// Flush persists everything pending now.
func (l *Library) Flush(ctx context.Context) error {
	for _, scope := range l.debounce.Scopes() {
		l.debounce.Flush(scope)
	}
	return l.engine.Flush(ctx)
}

// Close stops every timer. Unflushed edits are dropped.
func (l *Library) Close() {
	l.debounce.Stop()
	l.engine.Close()
}

type folderObserver struct {
	lib *Library
	f   *folder.Folder
}

// liveLocked reports whether the observed aggregate is still the open one.
func (o *folderObserver) liveLocked() bool {
	return o.lib.folders[o.f.ID()] == o.f
}

func (o *folderObserver) FolderChanged(self model.Folder) {
	if self.ID.IsZero() {
		return
	}
	l := o.lib
	l.mu.Lock()
	live := o.liveLocked()
	parent, ok := l.folders[self.ParentID]
	l.mu.Unlock()
	if !live || !ok {
		return
	}
	if err := parent.ApplyFolder(self); err != nil {
		l.log.Warn().Str("folder", self.ID.String()).Err(err).Msg("folder left its parent")
	}
}

func (o *folderObserver) FoldersChanged(parent ids.FolderID, folders []model.Folder) {
	l := o.lib
	l.mu.Lock()
	if !o.liveLocked() {
		l.mu.Unlock()
		return
	}
	removed, err := l.tree.Sync(parent, folders)
	if err != nil {
		l.log.Error().Str("parent", parent.String()).Err(err).Msg("tree sync")
	}
	for id := range l.folders {
		if _, ok := l.tree.Get(id); !ok && !id.IsZero() {
			delete(l.folders, id)
		}
	}
	for id, r := range l.recipes {
		fid := r.Snapshot().FolderID
		if _, ok := l.folders[fid]; !ok {
			delete(l.recipes, id)
		}
	}
	l.mu.Unlock()
	// Deleted folders take their pending edits with them; the store cascades.
	for _, id := range removed {
		l.engine.Forget(id)
	}
	l.engine.ObserveFolders(parent, folders)
}

func (o *folderObserver) RecipesChanged(fid ids.FolderID, recipes []model.Recipe) {
	l := o.lib
	keep := make(map[ids.RecipeID]bool, len(recipes))
	for _, r := range recipes {
		keep[r.ID] = true
	}
	l.mu.Lock()
	if !o.liveLocked() {
		l.mu.Unlock()
		return
	}
	for id, r := range l.recipes {
		if r.Snapshot().FolderID == fid && !keep[id] {
			delete(l.recipes, id)
		}
	}
	l.mu.Unlock()
	l.engine.ObserveRecipes(fid, recipes)
}

func (o *folderObserver) Navigate(to folder.Destination) {
	l := o.lib
	l.mu.Lock()
	l.nav = append(l.nav, to)
	ref := events.Ref{Kind: events.KindFolder, ID: to.Folder.String()}
	if to.Kind == folder.KindRecipe {
		ref = events.Ref{Kind: events.KindRecipe, ID: to.Recipe.String()}
	} else if m, ok := l.tree.Get(to.Folder); ok {
		ref.Name = m.Name
	}
	l.mu.Unlock()
	l.cfg.Bus.Emit(events.NavigateMsg{Component: component, To: ref})
}
