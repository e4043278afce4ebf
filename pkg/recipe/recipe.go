// Package recipe is the recipe aggregate. It owns the recipe's name and
// photos, its about sections, ingredient sections and step sections, and the
// serving scale, and projects all of it into a model.Recipe snapshot that
// observers receive after every change.
package recipe

import (
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/photo"
	"tableflip.dev/cookbook/pkg/scale"
	"tableflip.dev/cookbook/pkg/section"
)

var (
	// ErrNoPendingDeletion is returned when confirming with nothing requested.
	ErrNoPendingDeletion = errors.New("recipe: no deletion pending")
	// ErrNotFound is returned for section or row ids not in the recipe.
	ErrNotFound = section.ErrNotFound
)

type (
	AboutRows       = section.Rows[ids.AboutID, model.AboutSection, *editor.About]
	IngredientGroup = section.Group[ids.IngredientSectionID, ids.IngredientID, model.Ingredient, *editor.Ingredient]
	StepGroup       = section.Group[ids.StepSectionID, ids.StepID, model.Step, *editor.Step]
)

// Observer receives the snapshot after a change. It runs outside the
// recipe's lock.
type Observer func(model.Recipe)

// Config carries the collaborators of a Recipe.
type Config struct {
	IDs   ids.Source
	Clock clock.Clock
	// Scheduler debounces first-row creation in newly named sections. Nil
	// creates rows immediately.
	Scheduler section.Scheduler
	// Photo configures every photo sub-state the recipe owns.
	Photo     photo.Config
	Separator rune
}

// Recipe is one open recipe.
type Recipe struct {
	cfg Config

	mu          sync.Mutex
	id          ids.RecipeID
	folderID    ids.FolderID
	name        string
	nameFocused bool
	created     time.Time
	edited      time.Time
	photos      *photo.State
	about       *AboutRows
	aboutOpen   bool
	ingredients *IngredientGroup
	steps       *StepGroup
	scale       float64
	pending     Part
	last        model.Recipe
	observers   []Observer
}

// New opens m for editing at scale 1.
func New(cfg Config, m model.Recipe) (*Recipe, error) {
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
	if cfg.Separator == 0 {
		cfg.Separator = '.'
	}
	r := &Recipe{
		cfg:       cfg,
		id:        m.ID,
		folderID:  m.FolderID,
		name:      m.Name,
		created:   m.Created,
		edited:    m.Edited,
		aboutOpen: true,
		scale:     scale.Default,
		pending:   noPart,
	}
	if r.id.IsZero() {
		r.id = ids.NewRecipe(cfg.IDs)
	}
	if r.created.IsZero() {
		r.created = cfg.Clock.Now()
		r.edited = r.created
	}
	r.photos = r.newPhotos(m.Images)

	var err error
	if r.about, err = r.openAbout(m.AboutSections); err != nil {
		return nil, err
	}
	if r.ingredients, err = r.openIngredients(m.IngredientSections); err != nil {
		return nil, err
	}
	if r.steps, err = r.openSteps(m.StepSections); err != nil {
		return nil, err
	}
	r.last = r.snapshotLocked()
	return r, nil
}

func (r *Recipe) newPhotos(images []model.ImageRef) *photo.State {
	s := photo.New(r.cfg.Photo, images)
	s.OnChange(r.refresh)
	return s
}

func (r *Recipe) openAbout(sections []model.AboutSection) (*AboutRows, error) {
	leaves := make([]*editor.About, 0, len(sections))
	for _, a := range sections {
		leaves = append(leaves, editor.NewAbout(a))
	}
	return section.NewRows[ids.AboutID, model.AboutSection](func() *editor.About {
		return editor.NewAbout(model.AboutSection{ID: ids.NewAbout(r.cfg.IDs)})
	}, leaves...)
}

func (r *Recipe) newIngredient(m model.Ingredient) *editor.Ingredient {
	if m.ID.IsZero() {
		m.ID = ids.NewIngredient(r.cfg.IDs)
	}
	return editor.NewIngredient(m, r.cfg.Separator, r.scale)
}

func (r *Recipe) openIngredients(sections []model.IngredientSection) (*IngredientGroup, error) {
	g, err := section.NewGroup(section.Config[ids.IngredientSectionID, ids.IngredientID, model.Ingredient, *editor.Ingredient]{
		NewSectionID: func() ids.IngredientSectionID { return ids.NewIngredientSection(r.cfg.IDs) },
		NewLeaf:      func() *editor.Ingredient { return r.newIngredient(model.Ingredient{}) },
		Scheduler:    r.scheduler(),
	})
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		leaves := make([]*editor.Ingredient, 0, len(s.Ingredients))
		for _, ing := range s.Ingredients {
			leaves = append(leaves, r.newIngredient(ing))
		}
		sec, err := g.Open(s.ID, s.Name, leaves...)
		if err != nil {
			return nil, err
		}
		if err := g.Attach(sec); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (r *Recipe) newStep(m model.Step) *editor.Step {
	if m.ID.IsZero() {
		m.ID = ids.NewStep(r.cfg.IDs)
	}
	return editor.NewStep(m, r.newPhotos(m.Images))
}

func (r *Recipe) openSteps(sections []model.StepSection) (*StepGroup, error) {
	g, err := section.NewGroup(section.Config[ids.StepSectionID, ids.StepID, model.Step, *editor.Step]{
		NewSectionID: func() ids.StepSectionID { return ids.NewStepSection(r.cfg.IDs) },
		NewLeaf:      func() *editor.Step { return r.newStep(model.Step{}) },
		Scheduler:    r.scheduler(),
	})
	if err != nil {
		return nil, err
	}
	for _, s := range sections {
		leaves := make([]*editor.Step, 0, len(s.Steps))
		for _, st := range s.Steps {
			leaves = append(leaves, r.newStep(st))
		}
		sec, err := g.Open(s.ID, s.Name, leaves...)
		if err != nil {
			return nil, err
		}
		if err := g.Attach(sec); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// scheduler runs debounced section work under the recipe's lock.
func (r *Recipe) scheduler() section.Scheduler {
	if r.cfg.Scheduler == nil {
		return nil
	}
	return lockedScheduler{r: r}
}

type lockedScheduler struct {
	r *Recipe
}

func (l lockedScheduler) Schedule(scope string, fn func()) {
	l.r.cfg.Scheduler.Schedule(fmt.Sprintf("recipe/%s/%s", l.r.id, scope), func() {
		_ = l.r.mutate(func() error {
			fn()
			return nil
		})
	})
}

// ID returns the recipe id.
func (r *Recipe) ID() ids.RecipeID {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.id
}

// Observe registers fn for every future change.
func (r *Recipe) Observe(fn Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, fn)
}

// Snapshot returns the current plain-data recipe. Ingredient amounts are
// canonical whatever the scale.
func (r *Recipe) Snapshot() model.Recipe {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.last
}

// mutate runs fn under the lock and, if the snapshot changed, stamps the
// edit time and notifies observers.
func (r *Recipe) mutate(fn func() error) error {
	r.mu.Lock()
	err := fn()
	snap := r.snapshotLocked()
	if snap.Equal(r.last) {
		r.mu.Unlock()
		return err
	}
	r.edited = r.cfg.Clock.Now()
	snap.Edited = r.edited
	r.last = snap
	observers := slices.Clone(r.observers)
	r.mu.Unlock()
	for _, o := range observers {
		o(snap)
	}
	return err
}

// refresh picks up changes made by photo sub-states.
func (r *Recipe) refresh() {
	_ = r.mutate(func() error { return nil })
}

func (r *Recipe) snapshotLocked() model.Recipe {
	m := model.Recipe{
		ID:            r.id,
		FolderID:      r.folderID,
		Name:          r.name,
		Images:        r.photos.Images(),
		AboutSections: r.about.Snapshot(),
		Created:       r.created,
		Edited:        r.edited,
	}
	for _, p := range r.ingredients.Snapshot() {
		m.IngredientSections = append(m.IngredientSections, model.IngredientSection{ID: p.ID, Name: p.Name, Ingredients: p.Rows})
	}
	for _, p := range r.steps.Snapshot() {
		m.StepSections = append(m.StepSections, model.StepSection{ID: p.ID, Name: p.Name, Steps: p.Rows})
	}
	return m
}

// Name returns the recipe name.
func (r *Recipe) Name() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.name
}

// FocusName moves the keyboard to the recipe name.
func (r *Recipe) FocusName() {
	_ = r.mutate(func() error {
		r.leaveLocked(noPart)
		r.nameFocused = true
		return nil
	})
}

// NameFocused reports whether the recipe name holds the keyboard.
func (r *Recipe) NameFocused() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nameFocused
}

// EditName edits the recipe name. A newline at either end ends editing
// without changing the name.
func (r *Recipe) EditName(v string) {
	_ = r.mutate(func() error {
		switch editor.Classify(r.name, v) {
		case editor.BreakAbove, editor.BreakBelow:
			r.nameFocused = false
		case editor.Cleared:
			r.name = ""
		case editor.Accept:
			r.name = v
		}
		return nil
	})
}

// Photos is the recipe's own photo sub-state. Drive it directly; changes
// reach observers through the recipe.
func (r *Recipe) Photos() *photo.State {
	return r.photos
}

// Done drops the keyboard without touching data.
func (r *Recipe) Done() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clearFocusLocked()
}

// HasFocus reports whether anything in the recipe holds the keyboard.
func (r *Recipe) HasFocus() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.nameFocused || r.about.HasFocus() || r.ingredients.HasFocus() || r.steps.HasFocus()
}

// Blur takes the keyboard away, pruning an emptied row.
func (r *Recipe) Blur() {
	_ = r.mutate(func() error {
		r.leaveLocked(noPart)
		return nil
	})
}

func (r *Recipe) clearFocusLocked() {
	r.nameFocused = false
	r.about.ClearFocus()
	r.ingredients.ClearFocus()
	r.steps.ClearFocus()
}

// leaveLocked blurs every part except keep.
func (r *Recipe) leaveLocked(keep Part) {
	r.nameFocused = false
	if keep != About {
		r.about.Blur()
		r.about.ClearFocus()
	}
	if keep != Ingredients {
		r.ingredients.Blur()
		r.ingredients.ClearFocus()
	}
	if keep != Steps {
		r.steps.Blur()
		r.steps.ClearFocus()
	}
}

// Expanded reports whether part is shown.
func (r *Recipe) Expanded(p Part) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch p {
	case About:
		return r.aboutOpen
	case Ingredients:
		return r.ingredients.Expanded()
	case Steps:
		return r.steps.Expanded()
	}
	return false
}

// Collapse hides part and clears every focus token inside it.
func (r *Recipe) Collapse(p Part) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch p {
	case About:
		r.aboutOpen = false
		r.about.ClearFocus()
	case Ingredients:
		r.ingredients.Collapse()
	case Steps:
		r.steps.Collapse()
	}
}

// Expand shows part.
func (r *Recipe) Expand(p Part) {
	r.mu.Lock()
	defer r.mu.Unlock()
	switch p {
	case About:
		r.aboutOpen = true
	case Ingredients:
		r.ingredients.Expand()
	case Steps:
		r.steps.Expand()
	}
}

// Scale returns the serving multiplier.
func (r *Recipe) Scale() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.scale
}

// SetScale redisplays every ingredient at v. Canonical amounts, and so the
// snapshot, do not change.
func (r *Recipe) SetScale(v float64) error {
	if err := scale.Check(v); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.scale = v
	for _, s := range r.ingredients.Sections() {
		for _, ing := range s.Rows().Leaves() {
			ing.Rescale(v)
		}
	}
	return nil
}

// ScaleUp moves to the next step of the scale sequence.
func (r *Recipe) ScaleUp() error {
	return r.SetScale(scale.Next(r.Scale()))
}

// ScaleDown moves to the previous step of the scale sequence.
func (r *Recipe) ScaleDown() error {
	return r.SetScale(scale.Prev(r.Scale()))
}

// RequestDelete asks to clear part. Nothing changes until ConfirmDelete.
func (r *Recipe) RequestDelete(p Part) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = p
}

// PendingDeletion returns the part awaiting confirmation.
func (r *Recipe) PendingDeletion() (Part, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.pending, r.pending != noPart
}

// CancelDelete drops the pending request.
func (r *Recipe) CancelDelete() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pending = noPart
}

// ConfirmDelete empties the part that was requested.
func (r *Recipe) ConfirmDelete() error {
	return r.mutate(func() error {
		p := r.pending
		r.pending = noPart
		var err error
		switch p {
		case About:
			r.about, err = r.openAbout(nil)
		case Ingredients:
			r.ingredients, err = r.openIngredients(nil)
		case Steps:
			r.steps, err = r.openSteps(nil)
		default:
			return ErrNoPendingDeletion
		}
		return err
	})
}
