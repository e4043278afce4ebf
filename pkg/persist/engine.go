package persist

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/debounce"
	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/ordered"
	"tableflip.dev/cookbook/pkg/store"
)

const component events.ComponentID = "persist"

const (
	DefaultDelay         = time.Second
	DefaultMaxTries      = 3
	DefaultRetryInterval = 100 * time.Millisecond
	DefaultConcurrency   = 4
)

// ErrDirty is returned by Flush when some scope still holds changes the
// store refused.
var ErrDirty = errors.New("persist: unsaved changes")

var errGone = errors.New("persist: record is gone")

// Config carries the collaborators of an Engine.
type Config struct {
	Store         store.Writer
	Clock         clock.Clock
	Delay         time.Duration
	Logger        zerolog.Logger
	Bus           *events.Bus
	MaxTries      uint
	RetryInterval time.Duration
	// NewBackOff returns the wait schedule between tries of one store call.
	// Nil means exponential backoff starting at RetryInterval.
	NewBackOff  func() backoff.BackOff
	Concurrency int
}

// Engine persists folder and recipe lists. Each list (one folder's child
// folders, one folder's recipes) is its own scope: observing a snapshot
// restarts that scope's quiet period, and when it elapses the latest
// snapshot is diffed against what the store last accepted.
type Engine struct {
	cfg      Config
	debounce *debounce.Debouncer
	ctx      context.Context
	cancel   context.CancelFunc

	mu      sync.Mutex
	folders map[ids.FolderID]*tracker[ids.FolderID, model.Folder]
	recipes map[ids.FolderID]*tracker[ids.RecipeID, model.Recipe]
	passes  map[string]func(context.Context) PassResult
}

// PassResult counts what one pass did. Dropped counts updates of records
// the store no longer has; they are forgotten rather than recreated.
type PassResult struct {
	Scope   string
	Created int
	Updated int
	Deleted int
	Dropped int
	Failed  int
}

// New returns an Engine writing to cfg.Store.
func New(cfg Config) *Engine {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}
	if cfg.MaxTries == 0 {
		cfg.MaxTries = DefaultMaxTries
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = DefaultRetryInterval
	}
	if cfg.NewBackOff == nil {
		interval := cfg.RetryInterval
		cfg.NewBackOff = func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = interval
			return b
		}
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Engine{
		cfg:      cfg,
		debounce: debounce.New(cfg.Clock, cfg.Delay),
		ctx:      ctx,
		cancel:   cancel,
		folders:  make(map[ids.FolderID]*tracker[ids.FolderID, model.Folder]),
		recipes:  make(map[ids.FolderID]*tracker[ids.RecipeID, model.Recipe]),
		passes:   make(map[string]func(context.Context) PassResult),
	}
}

// FoldersScope names the scope of parent's child folders.
func FoldersScope(parent ids.FolderID) string {
	return "folders/" + scopeID(parent)
}

// RecipesScope names the scope of folder's recipes.
func RecipesScope(folder ids.FolderID) string {
	return "recipes/" + scopeID(folder)
}

func scopeID(id ids.FolderID) string {
	if id.IsZero() {
		return "root"
	}
	return id.String()
}

// TrackFolders records folders as already persisted under parent.
func (e *Engine) TrackFolders(parent ids.FolderID, folders []model.Folder) {
	e.folderTracker(parent).seed(folders)
}

// TrackRecipes records recipes as already persisted under folder.
func (e *Engine) TrackRecipes(folder ids.FolderID, recipes []model.Recipe) {
	e.recipeTracker(folder).seed(recipes)
}

// ObserveFolders takes the latest child folders of parent and schedules a
// pass for that scope.
func (e *Engine) ObserveFolders(parent ids.FolderID, folders []model.Folder) {
	t := e.folderTracker(parent)
	t.observe(folders)
	e.schedule(FoldersScope(parent))
}

// ObserveRecipes takes the latest recipes of folder and schedules a pass for
// that scope.
func (e *Engine) ObserveRecipes(folder ids.FolderID, recipes []model.Recipe) {
	t := e.recipeTracker(folder)
	t.observe(recipes)
	e.schedule(RecipesScope(folder))
}

func (e *Engine) schedule(scope string) {
	e.debounce.Schedule(scope, func() {
		e.run(e.ctx, scope)
	})
}

// Pending reports whether scope has a pass waiting for its quiet period.
func (e *Engine) Pending(scope string) bool {
	return e.debounce.Pending(scope)
}

// Dirty reports whether scope holds changes the store has not accepted.
func (e *Engine) Dirty(scope string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	for parent, t := range e.folders {
		if FoldersScope(parent) == scope {
			return t.dirty(model.Folder.Equal)
		}
	}
	for folder, t := range e.recipes {
		if RecipesScope(folder) == scope {
			return t.dirty(model.Recipe.Equal)
		}
	}
	return false
}

// Flush runs every scope that is pending or dirty now, without waiting for
// its quiet period. It returns ErrDirty if anything is still unsaved.
func (e *Engine) Flush(ctx context.Context) error {
	e.mu.Lock()
	scopes := make([]string, 0, len(e.passes))
	for scope := range e.passes {
		scopes = append(scopes, scope)
	}
	e.mu.Unlock()
	sort.Strings(scopes)

	var dirty []string
	for _, scope := range scopes {
		e.debounce.Cancel(scope)
		if !e.Dirty(scope) {
			continue
		}
		if res := e.run(ctx, scope); res.Failed > 0 {
			dirty = append(dirty, scope)
		}
	}
	if len(dirty) > 0 {
		return fmt.Errorf("%w: %v", ErrDirty, dirty)
	}
	return nil
}

// Forget stops tracking the child folders and recipes of folder, which was
// deleted or closed. Pending passes for both scopes are dropped.
func (e *Engine) Forget(folder ids.FolderID) {
	e.debounce.Cancel(FoldersScope(folder))
	e.debounce.Cancel(RecipesScope(folder))
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.folders, folder)
	delete(e.recipes, folder)
	delete(e.passes, FoldersScope(folder))
	delete(e.passes, RecipesScope(folder))
}

// Tracking reports whether the scopes of folder are tracked.
func (e *Engine) Tracking(folder ids.FolderID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, f := e.folders[folder]
	_, r := e.recipes[folder]
	return f || r
}

// Close drops pending passes and aborts any pass in progress.
func (e *Engine) Close() {
	e.debounce.Stop()
	e.cancel()
}

func (e *Engine) run(ctx context.Context, scope string) PassResult {
	e.mu.Lock()
	pass, ok := e.passes[scope]
	e.mu.Unlock()
	if !ok {
		return PassResult{Scope: scope}
	}
	return pass(ctx)
}

func (e *Engine) folderTracker(parent ids.FolderID) *tracker[ids.FolderID, model.Folder] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.folders[parent]; ok {
		return t
	}
	t := &tracker[ids.FolderID, model.Folder]{}
	e.folders[parent] = t
	scope := FoldersScope(parent)
	o := ops[ids.FolderID, model.Folder]{
		kind:   events.KindFolder,
		create: e.cfg.Store.CreateFolder,
		update: e.cfg.Store.UpdateFolder,
		remove: e.cfg.Store.DeleteFolder,
		equal:  model.Folder.Equal,
		ref: func(f model.Folder) events.Ref {
			return events.Ref{Kind: events.KindFolder, ID: f.ID.String(), Name: f.Name}
		},
	}
	e.passes[scope] = func(ctx context.Context) PassResult {
		return runPass(ctx, e, scope, t, o)
	}
	return t
}

func (e *Engine) recipeTracker(folder ids.FolderID) *tracker[ids.RecipeID, model.Recipe] {
	e.mu.Lock()
	defer e.mu.Unlock()
	if t, ok := e.recipes[folder]; ok {
		return t
	}
	t := &tracker[ids.RecipeID, model.Recipe]{}
	e.recipes[folder] = t
	scope := RecipesScope(folder)
	o := ops[ids.RecipeID, model.Recipe]{
		kind:   events.KindRecipe,
		create: e.cfg.Store.CreateRecipe,
		update: e.cfg.Store.UpdateRecipe,
		remove: e.cfg.Store.DeleteRecipe,
		equal:  model.Recipe.Equal,
		ref: func(r model.Recipe) events.Ref {
			return events.Ref{Kind: events.KindRecipe, ID: r.ID.String(), Name: r.Name}
		},
	}
	e.passes[scope] = func(ctx context.Context) PassResult {
		return runPass(ctx, e, scope, t, o)
	}
	return t
}

// tracker holds one scope's last persisted state and latest snapshot. The
// baseline moves one item at a time as store calls succeed, so a failed
// item is still different from latest on the next pass.
type tracker[K comparable, V ordered.Keyed[K]] struct {
	run sync.Mutex

	mu       sync.Mutex
	baseline ordered.List[K, V]
	latest   []V
}

func (t *tracker[K, V]) seed(values []V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baseline = ordered.List[K, V]{}
	for _, v := range values {
		_ = t.baseline.Append(v)
	}
	t.latest = slices.Clone(values)
}

func (t *tracker[K, V]) observe(values []V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.latest = slices.Clone(values)
}

func (t *tracker[K, V]) snapshot() (prev, curr []V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.baseline.Values(), slices.Clone(t.latest)
}

func (t *tracker[K, V]) dirty(equal func(a, b V) bool) bool {
	prev, curr := t.snapshot()
	c, err := Diff[K, V](prev, curr, equal)
	return err != nil || c.Len() > 0
}

func (t *tracker[K, V]) accept(v V) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.baseline.Set(v); err != nil {
		_ = t.baseline.Append(v)
	}
}

func (t *tracker[K, V]) forget(id K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baseline.Remove(id)
}

// drop removes id from both sides, so no later pass touches it.
func (t *tracker[K, V]) drop(id K) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baseline.Remove(id)
	t.latest = slices.DeleteFunc(t.latest, func(v V) bool { return v.Key() == id })
}

type ops[K comparable, V ordered.Keyed[K]] struct {
	kind   events.Kind
	create func(context.Context, V) error
	update func(context.Context, V) error
	remove func(context.Context, K) error
	equal  func(a, b V) bool
	ref    func(V) events.Ref
}

type tally struct {
	mu sync.Mutex
	PassResult
}

func (t *tally) add(action events.ChangeType, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	switch {
	case errors.Is(err, errGone):
		t.Dropped++
	case err != nil:
		t.Failed++
	case action == events.ChangeCreate:
		t.Created++
	case action == events.ChangeUpdate:
		t.Updated++
	default:
		t.Deleted++
	}
}

func runPass[K comparable, V ordered.Keyed[K]](ctx context.Context, e *Engine, scope string, t *tracker[K, V], o ops[K, V]) PassResult {
	t.run.Lock()
	defer t.run.Unlock()

	log := e.cfg.Logger.With().Str("scope", scope).Logger()
	prev, curr := t.snapshot()
	changes, err := Diff[K, V](prev, curr, o.equal)
	if err != nil {
		log.Error().Err(err).Msg("diff failed")
		return PassResult{Scope: scope}
	}
	if changes.Len() == 0 {
		return PassResult{Scope: scope}
	}

	res := &tally{PassResult: PassResult{Scope: scope}}
	finish := func(action events.ChangeType, v V, attempts int, err error) {
		res.add(action, err)
		ref := o.ref(v)
		if errors.Is(err, errGone) {
			t.drop(v.Key())
			log.Warn().
				Str("action", string(action)).
				Str("kind", string(o.kind)).
				Str("id", ref.ID).
				Msg("record is gone from the store, dropped")
			e.cfg.Bus.Emit(events.PersistFailedMsg{
				Component: component, Scope: scope, Action: action, Ref: ref, Attempts: attempts, Err: err,
			})
			return
		}
		if err != nil {
			log.Error().
				Str("action", string(action)).
				Str("kind", string(o.kind)).
				Str("id", ref.ID).
				Int("attempts", attempts).
				Err(err).
				Msg("persist failed")
			e.cfg.Bus.Emit(events.PersistFailedMsg{
				Component: component, Scope: scope, Action: action, Ref: ref, Attempts: attempts, Err: err,
			})
			return
		}
		if action == events.ChangeDelete {
			t.forget(v.Key())
		} else {
			t.accept(v)
		}
		e.cfg.Bus.Emit(events.PersistedMsg{
			Component: component, Scope: scope, Action: action, Ref: ref, Attempts: attempts,
		})
	}

	g := new(errgroup.Group)
	g.SetLimit(e.cfg.Concurrency)
	for _, v := range changes.Added {
		g.Go(func() error {
			attempts, err := e.retry(ctx, log, func() error {
				return o.create(ctx, v)
			})
			finish(events.ChangeCreate, v, attempts, err)
			return nil
		})
	}
	for _, v := range changes.Updated {
		g.Go(func() error {
			attempts, err := e.retry(ctx, log, func() error {
				err := o.update(ctx, v)
				if errors.Is(err, store.ErrNotFound) {
					return backoff.Permanent(fmt.Errorf("%w: %w", errGone, err))
				}
				return err
			})
			finish(events.ChangeUpdate, v, attempts, err)
			return nil
		})
	}
	for _, v := range changes.Removed {
		g.Go(func() error {
			attempts, err := e.retry(ctx, log, func() error {
				err := o.remove(ctx, v.Key())
				if errors.Is(err, store.ErrNotFound) {
					return nil
				}
				return err
			})
			finish(events.ChangeDelete, v, attempts, err)
			return nil
		})
	}
	_ = g.Wait()

	out := res.PassResult
	log.Debug().
		Int("created", out.Created).
		Int("updated", out.Updated).
		Int("deleted", out.Deleted).
		Int("dropped", out.Dropped).
		Int("failed", out.Failed).
		Msg("pass")
	e.cfg.Bus.Emit(events.PassMsg{
		Component: component,
		Scope:     scope,
		Created:   out.Created,
		Updated:   out.Updated,
		Deleted:   out.Deleted,
		Dropped:   out.Dropped,
		Failed:    out.Failed,
	})
	return out
}

// retry runs op on the configured backoff schedule, up to MaxTries attempts.
func (e *Engine) retry(ctx context.Context, log zerolog.Logger, op func() error) (int, error) {
	attempts := 0
	_, err := backoff.Retry(ctx, func() (struct{}, error) {
		attempts++
		return struct{}{}, op()
	},
		backoff.WithBackOff(e.cfg.NewBackOff()),
		backoff.WithMaxTries(e.cfg.MaxTries),
		backoff.WithNotify(func(err error, wait time.Duration) {
			log.Debug().Err(err).Int("attempt", attempts).Dur("wait", wait).Msg("retrying")
		}),
	)
	return attempts, err
}
