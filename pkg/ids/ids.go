// Package ids provides identifiers typed per entity kind so that an
// ingredient id can never be assigned where a step id is expected.
package ids

import (
	"encoding/binary"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Tag marks an entity kind. Implementations are unexported; callers use the
// aliases below.
type Tag interface {
	kind() string
}

type (
	folder            struct{}
	recipe            struct{}
	image             struct{}
	about             struct{}
	ingredient        struct{}
	ingredientSection struct{}
	step              struct{}
	stepSection       struct{}
)

func (folder) kind() string            { return "folder" }
func (recipe) kind() string            { return "recipe" }
func (image) kind() string             { return "image" }
func (about) kind() string             { return "about" }
func (ingredient) kind() string        { return "ingredient" }
func (ingredientSection) kind() string { return "ingredient-section" }
func (step) kind() string              { return "step" }
func (stepSection) kind() string       { return "step-section" }

// ID is a process-wide unique identifier for an entity of kind T.
type ID[T Tag] uuid.UUID

type (
	FolderID            = ID[folder]
	RecipeID            = ID[recipe]
	ImageID             = ID[image]
	AboutID             = ID[about]
	IngredientID        = ID[ingredient]
	IngredientSectionID = ID[ingredientSection]
	StepID              = ID[step]
	StepSectionID       = ID[stepSection]
)

// String returns the canonical UUID text.
func (id ID[T]) String() string {
	return uuid.UUID(id).String()
}

// Short returns the first eight hex characters, enough for CLI display.
func (id ID[T]) Short() string {
	return id.String()[:8]
}

// Kind names the entity kind of the identifier.
func (id ID[T]) Kind() string {
	var t T
	return t.kind()
}

// IsZero reports whether id is the zero value.
func (id ID[T]) IsZero() bool {
	return uuid.UUID(id) == uuid.Nil
}

func (id ID[T]) MarshalText() ([]byte, error) {
	return uuid.UUID(id).MarshalText()
}

func (id *ID[T]) UnmarshalText(b []byte) error {
	var u uuid.UUID
	if err := u.UnmarshalText(b); err != nil {
		var t T
		return fmt.Errorf("ids: parse %s id: %w", t.kind(), err)
	}
	*id = ID[T](u)
	return nil
}

// Parse reads an identifier of kind T from its text form.
func Parse[T Tag](s string) (ID[T], error) {
	var id ID[T]
	err := id.UnmarshalText([]byte(s))
	return id, err
}

// Source hands out fresh identifiers.
type Source interface {
	NewUUID() uuid.UUID
}

// New draws an identifier of kind T from src.
func New[T Tag](src Source) ID[T] {
	return ID[T](src.NewUUID())
}

// Random is the production Source backed by random (v4) UUIDs.
type Random struct{}

func (Random) NewUUID() uuid.UUID {
	return uuid.New()
}

// Sequence is a deterministic Source for tests: ids are 1, 2, 3... encoded
// in the low bytes of the UUID.
type Sequence struct {
	mu sync.Mutex
	n  uint64
}

func (s *Sequence) NewUUID() uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.n++
	var u uuid.UUID
	binary.BigEndian.PutUint64(u[8:], s.n)
	return u
}

func NewFolder(src Source) FolderID                       { return New[folder](src) }
func NewRecipe(src Source) RecipeID                       { return New[recipe](src) }
func NewImage(src Source) ImageID                         { return New[image](src) }
func NewAbout(src Source) AboutID                         { return New[about](src) }
func NewIngredient(src Source) IngredientID               { return New[ingredient](src) }
func NewIngredientSection(src Source) IngredientSectionID { return New[ingredientSection](src) }
func NewStep(src Source) StepID                           { return New[step](src) }
func NewStepSection(src Source) StepSectionID             { return New[stepSection](src) }

// ParseFolder reads a folder id.
func ParseFolder(s string) (FolderID, error) { return Parse[folder](s) }

// ParseRecipe reads a recipe id.
func ParseRecipe(s string) (RecipeID, error) { return Parse[recipe](s) }
