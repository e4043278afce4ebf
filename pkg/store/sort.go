package store

import (
	"sort"

	"tableflip.dev/cookbook/pkg/model"
)

func sortFolders(folders []model.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		l, r := folders[i], folders[j]
		if !l.Created.Equal(r.Created) {
			return l.Created.Before(r.Created)
		}
		if l.Name != r.Name {
			return l.Name < r.Name
		}
		return l.ID.String() < r.ID.String()
	})
}

func sortRecipes(recipes []model.Recipe) {
	sort.SliceStable(recipes, func(i, j int) bool {
		l, r := recipes[i], recipes[j]
		if !l.Created.Equal(r.Created) {
			return l.Created.Before(r.Created)
		}
		if l.Name != r.Name {
			return l.Name < r.Name
		}
		return l.ID.String() < r.ID.String()
	})
}
