// Package debounce delays work until a quiet period has passed. Each scope
// holds at most one pending task; scheduling again cancels the pending task
// and restarts the window.
package debounce

import (
	"sync"
	"time"

	"tableflip.dev/cookbook/pkg/clock"
)

// Debouncer runs the most recently scheduled task for a scope once delay has
// elapsed without another Schedule for that scope.
type Debouncer struct {
	clock clock.Clock
	delay time.Duration

	mu      sync.Mutex
	pending map[string]*task
	gen     uint64
	stopped bool
}

type task struct {
	gen   uint64
	timer clock.Timer
	fn    func()
}

// New returns a Debouncer with the given quiet period.
func New(c clock.Clock, delay time.Duration) *Debouncer {
	if c == nil {
		c = clock.Real{}
	}
	return &Debouncer{
		clock:   c,
		delay:   delay,
		pending: make(map[string]*task),
	}
}

// Delay returns the quiet period.
func (d *Debouncer) Delay() time.Duration {
	return d.delay
}

// Schedule replaces any pending task for scope with fn.
func (d *Debouncer) Schedule(scope string, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	if prev, ok := d.pending[scope]; ok {
		prev.timer.Stop()
	}
	d.gen++
	t := &task{gen: d.gen, fn: fn}
	t.timer = d.clock.AfterFunc(d.delay, func() {
		d.fire(scope, t.gen)
	})
	d.pending[scope] = t
}

// Cancel drops the pending task for scope. It reports whether one existed.
func (d *Debouncer) Cancel(scope string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	t, ok := d.pending[scope]
	if !ok {
		return false
	}
	t.timer.Stop()
	delete(d.pending, scope)
	return true
}

// Pending reports whether scope has a task waiting.
func (d *Debouncer) Pending(scope string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	_, ok := d.pending[scope]
	return ok
}

// Scopes lists the scopes with a task waiting.
func (d *Debouncer) Scopes() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]string, 0, len(d.pending))
	for scope := range d.pending {
		out = append(out, scope)
	}
	return out
}

// Flush runs the pending task for scope now, on the caller's goroutine.
func (d *Debouncer) Flush(scope string) bool {
	d.mu.Lock()
	t, ok := d.pending[scope]
	if ok {
		t.timer.Stop()
		delete(d.pending, scope)
	}
	d.mu.Unlock()
	if ok {
		t.fn()
	}
	return ok
}

// Stop cancels every pending task and rejects future ones.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	for scope, t := range d.pending {
		t.timer.Stop()
		delete(d.pending, scope)
	}
}

func (d *Debouncer) fire(scope string, gen uint64) {
	d.mu.Lock()
	t, ok := d.pending[scope]
	// A replaced task whose timer could not be stopped in time must not run.
	if !ok || t.gen != gen {
		d.mu.Unlock()
		return
	}
	delete(d.pending, scope)
	d.mu.Unlock()
	t.fn()
}
