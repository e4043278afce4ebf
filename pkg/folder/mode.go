package folder

// Mode is the list editing state of a folder.
type Mode int

const (
	Idle Mode = iota
	EditingFolders
	EditingRecipes
)

func (m Mode) String() string {
	switch m {
	case EditingFolders:
		return "editingFolders"
	case EditingRecipes:
		return "editingRecipes"
	default:
		return "idle"
	}
}

// Kind says whether a grid entry is a folder or a recipe.
type Kind int

const (
	KindFolder Kind = iota
	KindRecipe
)

func (k Kind) String() string {
	if k == KindRecipe {
		return "recipe"
	}
	return "folder"
}
