package photo

import (
	"errors"
	"fmt"
)

var (
	// ErrTimedOut is the cause recorded when an import outlives its deadline.
	ErrTimedOut = errors.New("photo: import timed out")
	// ErrUnreadable is returned by importers for items that are not images.
	ErrUnreadable = errors.New("photo: image could not be decoded")
	// ErrNoSelection means the edit needs a selected image and there is none.
	ErrNoSelection = errors.New("photo: no image selected")
	// ErrBusy means an import is in flight.
	ErrBusy = errors.New("photo: import in progress")
	// ErrCanceled is the result of an edit that was canceled or replaced.
	ErrCanceled = errors.New("photo: import canceled")
)

// Class groups import failures by what the user is told.
type Class int

const (
	// ClassUnknown is the catch-all.
	ClassUnknown Class = iota
	// ClassParse means the picked item was not a readable image.
	ClassParse
	// ClassTimeout means the import did not finish before the deadline.
	ClassTimeout
)

func (c Class) String() string {
	switch c {
	case ClassParse:
		return "parse"
	case ClassTimeout:
		return "timeout"
	default:
		return "unknown"
	}
}

// Failure is a classified import failure.
type Failure struct {
	Class Class
	Err   error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("photo: %s failure: %v", f.Class, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Notice is the dismissible message shown to the user.
func (f *Failure) Notice() string {
	switch f.Class {
	case ClassParse:
		return "Failed to parse image."
	case ClassTimeout:
		return "Importing the image timed out, try again."
	default:
		return "Something went wrong importing the image."
	}
}

func classify(data []byte, err, cause error) *Failure {
	switch {
	case errors.Is(cause, ErrTimedOut):
		return &Failure{Class: ClassTimeout, Err: ErrTimedOut}
	case errors.Is(err, ErrUnreadable):
		return &Failure{Class: ClassParse, Err: err}
	case err != nil:
		return &Failure{Class: ClassUnknown, Err: err}
	case len(data) == 0:
		return &Failure{Class: ClassParse, Err: ErrUnreadable}
	default:
		return nil
	}
}
