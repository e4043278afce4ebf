// Package model holds the plain-data snapshots of recipes and folders. These
// are the values aggregates project upward, the values diffed for
// persistence and the values stores read and write.
package model

import (
	"bytes"
	"slices"
	"time"

	"tableflip.dev/cookbook/pkg/ids"
)

// ImageRef is an opaque, immutable image blob.
type ImageRef struct {
	ID   ids.ImageID `json:"id" yaml:"id"`
	Data []byte      `json:"data,omitempty" yaml:"-"`
}

func (i ImageRef) Key() ids.ImageID { return i.ID }

// Equal compares id and bytes.
func (i ImageRef) Equal(o ImageRef) bool {
	return i.ID == o.ID && bytes.Equal(i.Data, o.Data)
}

// Ingredient is one line of an ingredient section. Amount is always stored at
// scale 1.0.
type Ingredient struct {
	ID       ids.IngredientID `json:"id" yaml:"id"`
	Name     string           `json:"name" yaml:"name"`
	Amount   float64          `json:"amount" yaml:"amount"`
	Unit     string           `json:"unit,omitempty" yaml:"unit,omitempty"`
	Complete bool             `json:"complete,omitempty" yaml:"complete,omitempty"`
}

func (i Ingredient) Key() ids.IngredientID { return i.ID }

// IngredientSection groups ingredients under a heading such as "Produce".
type IngredientSection struct {
	ID          ids.IngredientSectionID `json:"id" yaml:"id"`
	Name        string                  `json:"name" yaml:"name"`
	Ingredients []Ingredient            `json:"ingredients,omitempty" yaml:"ingredients,omitempty"`
}

func (s IngredientSection) Key() ids.IngredientSectionID { return s.ID }

// Equal compares name and ingredients in order.
func (s IngredientSection) Equal(o IngredientSection) bool {
	return s.ID == o.ID && s.Name == o.Name && slices.Equal(s.Ingredients, o.Ingredients)
}

// AboutSection is a titled block of free text describing a recipe.
type AboutSection struct {
	ID          ids.AboutID `json:"id" yaml:"id"`
	Name        string      `json:"name" yaml:"name"`
	Description string      `json:"description" yaml:"description"`
}

func (a AboutSection) Key() ids.AboutID { return a.ID }

// Step is one instruction with optional photos.
type Step struct {
	ID          ids.StepID `json:"id" yaml:"id"`
	Description string     `json:"description" yaml:"description"`
	Images      []ImageRef `json:"images,omitempty" yaml:"images,omitempty"`
}

func (s Step) Key() ids.StepID { return s.ID }

// Equal compares description and images.
func (s Step) Equal(o Step) bool {
	return s.ID == o.ID && s.Description == o.Description && slices.EqualFunc(s.Images, o.Images, ImageRef.Equal)
}

// StepSection groups steps under a heading.
type StepSection struct {
	ID    ids.StepSectionID `json:"id" yaml:"id"`
	Name  string            `json:"name" yaml:"name"`
	Steps []Step            `json:"steps,omitempty" yaml:"steps,omitempty"`
}

func (s StepSection) Key() ids.StepSectionID { return s.ID }

// Equal compares name and steps in order.
func (s StepSection) Equal(o StepSection) bool {
	return s.ID == o.ID && s.Name == o.Name && slices.EqualFunc(s.Steps, o.Steps, Step.Equal)
}

// Recipe is the persisted unit of a recipe. FolderID is a non-owning link to
// the folder holding it; the zero id means the recipe lives at the root.
type Recipe struct {
	ID                 ids.RecipeID        `json:"id" yaml:"id"`
	FolderID           ids.FolderID        `json:"folderId" yaml:"folderId"`
	Name               string              `json:"name" yaml:"name"`
	Images             []ImageRef          `json:"images,omitempty" yaml:"images,omitempty"`
	AboutSections      []AboutSection      `json:"aboutSections,omitempty" yaml:"aboutSections,omitempty"`
	IngredientSections []IngredientSection `json:"ingredientSections,omitempty" yaml:"ingredientSections,omitempty"`
	StepSections       []StepSection       `json:"stepSections,omitempty" yaml:"stepSections,omitempty"`
	Created            time.Time           `json:"created" yaml:"created"`
	Edited             time.Time           `json:"edited" yaml:"edited"`
}

func (r Recipe) Key() ids.RecipeID { return r.ID }

// Equal compares every persisted field. Edited is ignored so that touching a
// recipe without changing it does not count as an update.
func (r Recipe) Equal(o Recipe) bool {
	return r.ID == o.ID &&
		r.FolderID == o.FolderID &&
		r.Name == o.Name &&
		r.Created.Equal(o.Created) &&
		slices.EqualFunc(r.Images, o.Images, ImageRef.Equal) &&
		slices.Equal(r.AboutSections, o.AboutSections) &&
		slices.EqualFunc(r.IngredientSections, o.IngredientSections, IngredientSection.Equal) &&
		slices.EqualFunc(r.StepSections, o.StepSections, StepSection.Equal)
}

// Folder is the persisted record of a folder. Children are not embedded: a
// folder's children are the folders and recipes whose parent link names it.
type Folder struct {
	ID       ids.FolderID `json:"id" yaml:"id"`
	ParentID ids.FolderID `json:"parentId" yaml:"parentId"`
	Name     string       `json:"name" yaml:"name"`
	Type     FolderType   `json:"type" yaml:"type"`
	Cover    *ImageRef    `json:"cover,omitempty" yaml:"cover,omitempty"`
	Created  time.Time    `json:"created" yaml:"created"`
	Edited   time.Time    `json:"edited" yaml:"edited"`
}

func (f Folder) Key() ids.FolderID { return f.ID }

// Equal compares every persisted field except Edited.
func (f Folder) Equal(o Folder) bool {
	if (f.Cover == nil) != (o.Cover == nil) {
		return false
	}
	if f.Cover != nil && !f.Cover.Equal(*o.Cover) {
		return false
	}
	return f.ID == o.ID &&
		f.ParentID == o.ParentID &&
		f.Name == o.Name &&
		f.Type == o.Type &&
		f.Created.Equal(o.Created)
}
