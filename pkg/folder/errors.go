package folder

import "errors"

var (
	ErrNotFound  = errors.New("folder: not found")
	ErrDuplicate = errors.New("folder: duplicate id")
	// ErrCycle is returned when a move would put a folder under itself.
	ErrCycle = errors.New("folder: cycle")
	// ErrSystemFolder is returned when renaming or deleting a system folder.
	ErrSystemFolder = errors.New("folder: system folders cannot be changed")
	// ErrWrongMode is returned for selection outside the matching edit mode.
	ErrWrongMode = errors.New("folder: not in that edit mode")
	// ErrEmptySelection is returned when asking to delete nothing.
	ErrEmptySelection = errors.New("folder: nothing selected")
	// ErrNoPendingDeletion is returned when confirming with nothing requested.
	ErrNoPendingDeletion = errors.New("folder: no deletion pending")
	// ErrNoRename is returned when no rename overlay is open.
	ErrNoRename = errors.New("folder: no rename in progress")
	ErrEmptyName = errors.New("folder: name is empty")
)
