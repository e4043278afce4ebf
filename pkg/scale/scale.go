// Package scale holds the serving multiplier of a recipe: the fixed sequence
// of values it steps through and the recompute of displayed amounts.
package scale

import (
	"errors"
	"fmt"
	"slices"

	"tableflip.dev/cookbook/pkg/model"
)

// ErrOutOfRange is returned for a scale that is not on the step sequence.
var ErrOutOfRange = errors.New("scale: out of range")

const (
	Min     = 0.25
	Max     = 10.0
	Default = 1.0
)

var steps = []float64{0.25, 0.5, 1, 2, 3, 4, 5, 6, 7, 8, 9, 10}

// Steps returns every valid scale in increasing order.
func Steps() []float64 {
	return slices.Clone(steps)
}

// Valid reports whether v is on the step sequence.
func Valid(v float64) bool {
	return slices.Contains(steps, v)
}

// Check returns ErrOutOfRange for invalid values.
func Check(v float64) error {
	if !Valid(v) {
		return fmt.Errorf("%w: %v (want one of %v)", ErrOutOfRange, v, steps)
	}
	return nil
}

// Next returns the step after v, or v at the top of the range.
func Next(v float64) float64 {
	for _, s := range steps {
		if s > v {
			return s
		}
	}
	return Max
}

// Prev returns the step before v, or v at the bottom of the range.
func Prev(v float64) float64 {
	for i := len(steps) - 1; i >= 0; i-- {
		if steps[i] < v {
			return steps[i]
		}
	}
	return Min
}

// Amount is the displayed amount for a canonical amount at scale s.
func Amount(canonical, s float64) float64 {
	return canonical * s
}

// Recompute takes ingredient sections displayed at from and returns them
// displayed at to. Each displayed amount becomes (amount / from) * to. It does
// not modify sections.
func Recompute(sections []model.IngredientSection, from, to float64) ([]model.IngredientSection, error) {
	if err := Check(from); err != nil {
		return nil, err
	}
	if err := Check(to); err != nil {
		return nil, err
	}
	out := make([]model.IngredientSection, len(sections))
	for i, s := range sections {
		out[i] = s
		out[i].Ingredients = make([]model.Ingredient, len(s.Ingredients))
		for j, ing := range s.Ingredients {
			ing.Amount = ing.Amount / from * to
			out[i].Ingredients[j] = ing
		}
	}
	return out, nil
}
