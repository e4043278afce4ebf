package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/gofrs/flock"
	"github.com/peterbourgon/diskv/v3"
	"github.com/rs/zerolog"

	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

const (
	folderPrefix = "folder:"
	recipePrefix = "recipe:"
	recordExt    = ".json"
)

// Disk is a RecipeStore keeping one JSON file per folder and recipe under a
// base directory. Writes take an exclusive file lock next to the directory so
// two processes sharing a library do not interleave.
type Disk struct {
	d        *diskv.Diskv
	basePath string
	log      zerolog.Logger

	mu   sync.Mutex
	lock *flock.Flock
}

// Option configures a Disk.
type Option func(*Disk)

// WithLogger sets where unreadable records are reported.
func WithLogger(l zerolog.Logger) Option {
	return func(d *Disk) {
		d.log = l
	}
}

// Open returns a Disk rooted at cfg.BasePath, creating the directory.
func Open(cfg Config, opts ...Option) (*Disk, error) {
	if cfg == nil || cfg.BasePath() == "" {
		return nil, errors.New("store: base path required")
	}
	base := cfg.BasePath()
	if err := os.MkdirAll(base, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	d := &Disk{
		d: diskv.New(diskv.Options{
			BasePath:          base,
			TempDir:           base + ".tmp",
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			CacheSizeMax:      1024 * 1024, // 1MB
		}),
		basePath: base,
		log:      zerolog.Nop(),
		lock:     flock.New(base + ".lock"),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// BasePath returns the record directory.
func (s *Disk) BasePath() string {
	return s.basePath
}

func (s *Disk) FetchRootFolders(ctx context.Context) ([]model.Folder, error) {
	return s.FetchFolders(ctx, ids.FolderID{})
}

func (s *Disk) FetchFolders(ctx context.Context, parent ids.FolderID) ([]model.Folder, error) {
	unlock, err := s.rlock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	all, err := s.allFolders(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Folder, 0, len(all))
	for _, f := range all {
		if f.ParentID == parent {
			out = append(out, f)
		}
	}
	sortFolders(out)
	return out, nil
}

func (s *Disk) FetchRecipes(ctx context.Context, folder ids.FolderID) ([]model.Recipe, error) {
	unlock, err := s.rlock()
	if err != nil {
		return nil, err
	}
	defer unlock()
	all, err := s.allRecipes(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]model.Recipe, 0, len(all))
	for _, r := range all {
		if r.FolderID == folder {
			out = append(out, r)
		}
	}
	sortRecipes(out)
	return out, nil
}

func (s *Disk) FetchRecipe(_ context.Context, id ids.RecipeID) (model.Recipe, error) {
	unlock, err := s.rlock()
	if err != nil {
		return model.Recipe{}, err
	}
	defer unlock()
	var r model.Recipe
	if err := s.read(recipeKey(id), &r); err != nil {
		return model.Recipe{}, err
	}
	return r, nil
}

func (s *Disk) CreateFolder(_ context.Context, f model.Folder) error {
	return s.withLock(func() error {
		return s.write(folderKey(f.ID), f)
	})
}

func (s *Disk) UpdateFolder(_ context.Context, f model.Folder) error {
	return s.withLock(func() error {
		key := folderKey(f.ID)
		if !s.d.Has(key) {
			return fmt.Errorf("%w: folder %s", ErrNotFound, f.ID)
		}
		return s.write(key, f)
	})
}

func (s *Disk) DeleteFolder(ctx context.Context, id ids.FolderID) error {
	return s.withLock(func() error {
		if !s.d.Has(folderKey(id)) {
			return fmt.Errorf("%w: folder %s", ErrNotFound, id)
		}
		folders, err := s.allFolders(ctx)
		if err != nil {
			return err
		}
		recipes, err := s.allRecipes(ctx)
		if err != nil {
			return err
		}
		doomed := descendants(folders, id)
		for _, r := range recipes {
			if _, ok := doomed[r.FolderID]; ok {
				if err := s.d.Erase(recipeKey(r.ID)); err != nil {
					return fmt.Errorf("store: erase recipe %s: %w", r.ID, err)
				}
			}
		}
		for fid := range doomed {
			if err := s.d.Erase(folderKey(fid)); err != nil {
				return fmt.Errorf("store: erase folder %s: %w", fid, err)
			}
		}
		return nil
	})
}

func (s *Disk) CreateRecipe(_ context.Context, r model.Recipe) error {
	return s.withLock(func() error {
		return s.write(recipeKey(r.ID), r)
	})
}

func (s *Disk) UpdateRecipe(_ context.Context, r model.Recipe) error {
	return s.withLock(func() error {
		key := recipeKey(r.ID)
		if !s.d.Has(key) {
			return fmt.Errorf("%w: recipe %s", ErrNotFound, r.ID)
		}
		return s.write(key, r)
	})
}

func (s *Disk) DeleteRecipe(_ context.Context, id ids.RecipeID) error {
	return s.withLock(func() error {
		key := recipeKey(id)
		if !s.d.Has(key) {
			return fmt.Errorf("%w: recipe %s", ErrNotFound, id)
		}
		return s.d.Erase(key)
	})
}

func (s *Disk) allFolders(ctx context.Context) ([]model.Folder, error) {
	var out []model.Folder
	for key := range s.d.KeysPrefix(folderPrefix, ctx.Done()) {
		var f model.Folder
		if err := s.read(key, &f); err != nil {
			s.log.Warn().Str("key", key).Err(err).Msg("skipping unreadable folder")
			continue
		}
		out = append(out, f)
	}
	return out, ctx.Err()
}

func (s *Disk) allRecipes(ctx context.Context) ([]model.Recipe, error) {
	var out []model.Recipe
	for key := range s.d.KeysPrefix(recipePrefix, ctx.Done()) {
		var r model.Recipe
		if err := s.read(key, &r); err != nil {
			s.log.Warn().Str("key", key).Err(err).Msg("skipping unreadable recipe")
			continue
		}
		out = append(out, r)
	}
	return out, ctx.Err()
}

func (s *Disk) read(key string, v any) error {
	data, err := s.d.Read(key)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return fmt.Errorf("store: read %s: %w", key, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("store: decode %s: %w", key, err)
	}
	return nil
}

func (s *Disk) write(key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("store: encode %s: %w", key, err)
	}
	if err := s.d.Write(key, data); err != nil {
		return fmt.Errorf("store: write %s: %w", key, err)
	}
	return nil
}

func (s *Disk) withLock(fn func() error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.lock.Lock(); err != nil {
		return fmt.Errorf("store: lock: %w", err)
	}
	defer func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Error().Err(err).Msg("store: unlock")
		}
	}()
	return fn()
}

func (s *Disk) rlock() (func(), error) {
	s.mu.Lock()
	if err := s.lock.RLock(); err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("store: lock: %w", err)
	}
	return func() {
		if err := s.lock.Unlock(); err != nil {
			s.log.Error().Err(err).Msg("store: unlock")
		}
		s.mu.Unlock()
	}, nil
}

// descendants returns root and every folder beneath it.
func descendants(folders []model.Folder, root ids.FolderID) map[ids.FolderID]struct{} {
	children := make(map[ids.FolderID][]ids.FolderID, len(folders))
	for _, f := range folders {
		children[f.ParentID] = append(children[f.ParentID], f.ID)
	}
	out := map[ids.FolderID]struct{}{}
	queue := []ids.FolderID{root}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, seen := out[id]; seen {
			continue
		}
		out[id] = struct{}{}
		queue = append(queue, children[id]...)
	}
	return out
}

func folderKey(id ids.FolderID) string { return folderPrefix + id.String() }
func recipeKey(id ids.RecipeID) string { return recipePrefix + id.String() }

// keyToPathTransform maps `kind:id` to kind/<first two of id>/id.json.
func keyToPathTransform(key string) *diskv.PathKey {
	kind, id, _ := strings.Cut(key, ":")
	shard := id
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return &diskv.PathKey{
		Path:     []string{kind, shard},
		FileName: id + recordExt,
	}
}

func pathToKeyTransform(pk *diskv.PathKey) string {
	if len(pk.Path) == 0 || !strings.HasSuffix(pk.FileName, recordExt) {
		return ""
	}
	return pk.Path[0] + ":" + strings.TrimSuffix(pk.FileName, recordExt)
}

// kindForPath reports which record kind a file under base belongs to.
func kindForPath(rel string) string {
	kind, _, _ := strings.Cut(rel, string(os.PathSeparator))
	switch kind + ":" {
	case folderPrefix, recipePrefix:
		return kind
	default:
		return ""
	}
}
