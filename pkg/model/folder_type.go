package model

import (
	"fmt"
	"strings"
)

// FolderType classifies a folder.
type FolderType string

const (
	// FolderAll is the system folder listing every recipe; the library root.
	FolderAll FolderType = "system-all"
	// FolderStandard is the system default folder new recipes land in.
	FolderStandard FolderType = "system-standard"
	// FolderRecentlyDeleted is the system folder of deleted recipes.
	FolderRecentlyDeleted FolderType = "system-recently-deleted"
	// FolderUser is any folder a user created.
	FolderUser FolderType = "user"
)

// AllFolderTypes returns the supported folder types.
func AllFolderTypes() []FolderType {
	return []FolderType{
		FolderAll,
		FolderStandard,
		FolderRecentlyDeleted,
		FolderUser,
	}
}

// ParseFolderType converts a string to a FolderType. Empty input means a user folder.
func ParseFolderType(raw string) (FolderType, error) {
	t := FolderType(strings.ToLower(strings.TrimSpace(raw)))
	if t == "" {
		return FolderUser, nil
	}
	for _, candidate := range AllFolderTypes() {
		if candidate == t {
			return candidate, nil
		}
	}
	return FolderUser, fmt.Errorf("model: unknown folder type %q", raw)
}

// IsSystem reports whether the folder is managed by the app rather than the user.
func (t FolderType) IsSystem() bool {
	return t != FolderUser && t != ""
}
