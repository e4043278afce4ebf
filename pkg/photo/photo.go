// Package photo is the image sub-state shared by folder covers, recipes and
// steps: an ordered list of images with a selection, and at most one import
// in flight that can be canceled and that gives up after a deadline.
package photo

import (
	"context"
	"sync"
	"time"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/ordered"
)

// DefaultTimeout bounds an import when Config.Timeout is zero.
const DefaultTimeout = 10 * time.Second

// Kind says where an imported image lands.
type Kind int

const (
	// Replace swaps the selected image.
	Replace Kind = iota
	// Add inserts just before the selected image.
	Add
	// AddWhenEmpty appends; it is the only kind that needs no selection.
	AddWhenEmpty
)

func (k Kind) String() string {
	switch k {
	case Replace:
		return "replace"
	case Add:
		return "add"
	default:
		return "addWhenEmpty"
	}
}

// Phase is the coarse state of a State.
type Phase int

const (
	Empty Phase = iota
	Populated
	EditInFlight
)

func (p Phase) String() string {
	switch p {
	case Populated:
		return "populated"
	case EditInFlight:
		return "editInFlight"
	default:
		return "empty"
	}
}

// Config carries the collaborators of a State.
type Config struct {
	Importer Importer
	Clock    clock.Clock
	IDs      ids.Source
	Timeout  time.Duration
}

// State is one photo sub-state instance.
type State struct {
	cfg Config

	mu       sync.Mutex
	images   *ordered.List[ids.ImageID, model.ImageRef]
	selected ids.ImageID
	edit     *Edit
	notice   *Failure
	gen      uint64
	onChange func()
}

// Edit is an import in flight.
type Edit struct {
	Kind   Kind
	Target ids.ImageID

	gen    uint64
	cancel context.CancelCauseFunc
	timer  clock.Timer
	done   chan struct{}
	err    error
}

// Done is closed once the edit finished, failed or was canceled.
func (e *Edit) Done() <-chan struct{} {
	return e.done
}

// Wait blocks until the edit is over and returns its outcome: nil, a
// *Failure, or ErrCanceled.
func (e *Edit) Wait() error {
	<-e.done
	return e.err
}

// New returns a State holding images, with the first one selected. An image
// without an id, or whose id is already taken, gets a fresh one.
func New(cfg Config, images []model.ImageRef) *State {
	if cfg.Clock == nil {
		cfg.Clock = clock.Real{}
	}
	if cfg.IDs == nil {
		cfg.IDs = ids.Random{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}
	s := &State{cfg: cfg, images: &ordered.List[ids.ImageID, model.ImageRef]{}}
	for _, img := range images {
		if img.ID.IsZero() || s.images.Contains(img.ID) {
			img.ID = s.newIDLocked()
		}
		_ = s.images.Append(img)
	}
	if s.images.Len() > 0 {
		s.selected = s.images.At(0).ID
	}
	return s
}

// OnChange registers fn to run, outside the state's lock, whenever the image
// list or selection changes.
func (s *State) OnChange(fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onChange = fn
}

// Phase reports the current state.
func (s *State) Phase() Phase {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.edit != nil:
		return EditInFlight
	case s.images.Len() > 0:
		return Populated
	default:
		return Empty
	}
}

// Images returns the images in order.
func (s *State) Images() []model.ImageRef {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images.Values()
}

// Selected returns the selected image.
func (s *State) Selected() (model.ImageRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.images.Get(s.selected)
}

// Select changes the selection.
func (s *State) Select(id ids.ImageID) error {
	s.mu.Lock()
	if !s.images.Contains(id) {
		s.mu.Unlock()
		return ErrNoSelection
	}
	s.selected = id
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
	return nil
}

// InFlight returns the running edit, if any.
func (s *State) InFlight() (*Edit, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.edit, s.edit != nil
}

// Notice returns the failure to show, if any.
func (s *State) Notice() *Failure {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.notice
}

// DismissNotice clears the failure notice.
func (s *State) DismissNotice() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notice = nil
}

// Begin starts importing h. Any import already in flight is canceled first.
// The import races the configured timeout on the State's clock.
func (s *State) Begin(ctx context.Context, kind Kind, h Handle) (*Edit, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var target ids.ImageID
	if kind != AddWhenEmpty {
		if !s.images.Contains(s.selected) {
			return nil, ErrNoSelection
		}
		target = s.selected
	}
	s.abortLocked()
	s.notice = nil
	s.gen++

	ictx, cancel := context.WithCancelCause(ctx)
	e := &Edit{
		Kind:   kind,
		Target: target,
		gen:    s.gen,
		cancel: cancel,
		done:   make(chan struct{}),
	}
	s.edit = e
	e.timer = s.cfg.Clock.AfterFunc(s.cfg.Timeout, func() {
		cancel(ErrTimedOut)
		s.finish(e.gen, nil, nil, ErrTimedOut)
	})
	importer := s.cfg.Importer
	go func() {
		var (
			data []byte
			err  error
		)
		if importer == nil {
			err = ErrUnreadable
		} else {
			data, err = importer.ImportOne(ictx, h)
		}
		s.finish(e.gen, data, err, context.Cause(ictx))
	}()
	return e, nil
}

// Cancel aborts the import in flight, leaving the images as they were.
func (s *State) Cancel() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.edit == nil {
		return false
	}
	s.abortLocked()
	return true
}

// Delete removes the selected image. The selection moves to the image that
// took its place, or the new last image.
func (s *State) Delete() error {
	s.mu.Lock()
	if s.edit != nil {
		s.mu.Unlock()
		return ErrBusy
	}
	i := s.images.Index(s.selected)
	if i < 0 {
		s.mu.Unlock()
		return ErrNoSelection
	}
	s.images.Remove(s.selected)
	switch n := s.images.Len(); {
	case n == 0:
		s.selected = ids.ImageID{}
	case i < n:
		s.selected = s.images.At(i).ID
	default:
		s.selected = s.images.At(n - 1).ID
	}
	fn := s.onChange
	s.mu.Unlock()
	notify(fn)
	return nil
}

func (s *State) abortLocked() {
	e := s.edit
	if e == nil {
		return
	}
	s.edit = nil
	e.timer.Stop()
	e.cancel(ErrCanceled)
	e.err = ErrCanceled
	close(e.done)
}

func (s *State) finish(gen uint64, data []byte, err, cause error) {
	s.mu.Lock()
	e := s.edit
	if e == nil || e.gen != gen {
		s.mu.Unlock()
		return
	}
	s.edit = nil
	e.timer.Stop()
	e.cancel(nil)

	var fn func()
	if failure := classify(data, err, cause); failure != nil {
		s.notice = failure
		e.err = failure
	} else {
		img := model.ImageRef{ID: s.newIDLocked(), Data: data}
		if err := s.spliceLocked(e, img); err != nil {
			e.err = err
		} else {
			s.selected = img.ID
			fn = s.onChange
		}
	}
	s.mu.Unlock()
	// Observers have seen the new image by the time Wait returns.
	notify(fn)
	close(e.done)
}

func (s *State) spliceLocked(e *Edit, img model.ImageRef) error {
	i := s.images.Index(e.Target)
	switch {
	case e.Kind == Replace && i >= 0:
		s.images.Remove(e.Target)
		return s.images.Insert(i, img)
	case e.Kind == Add && i >= 0:
		return s.images.Insert(i, img)
	default:
		return s.images.Append(img)
	}
}

// newIDLocked draws ids until one is not already in the list.
func (s *State) newIDLocked() ids.ImageID {
	for {
		id := ids.NewImage(s.cfg.IDs)
		if !s.images.Contains(id) {
			return id
		}
	}
}

func notify(fn func()) {
	if fn != nil {
		fn()
	}
}
