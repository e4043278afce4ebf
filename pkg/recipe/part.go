package recipe

import (
	"fmt"
	"strings"
)

// Part is one of the three collapsible blocks of a recipe.
type Part int

const (
	About Part = iota
	Ingredients
	Steps

	noPart Part = -1
)

// AllParts lists the parts in display order.
var AllParts = []Part{About, Ingredients, Steps}

func (p Part) String() string {
	switch p {
	case About:
		return "about"
	case Ingredients:
		return "ingredients"
	case Steps:
		return "steps"
	default:
		return "none"
	}
}

// ParsePart reads a part name as printed by String.
func ParsePart(s string) (Part, error) {
	for _, p := range AllParts {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return noPart, fmt.Errorf("recipe: unknown part %q", s)
}
