package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"tableflip.dev/cookbook/pkg/events"
)

const watchComponent events.ComponentID = "store.watch"

// DefaultThrottle is how long Watch gathers filesystem events before
// reporting them.
const DefaultThrottle = 100 * time.Millisecond

// Watch streams changes made to the record directory, by this process or
// another, until ctx is cancelled. Bursts are coalesced per record kind so a
// consumer sees one message per kind per throttle window. The channel is
// closed when the watch ends.
func (s *Disk) Watch(ctx context.Context) (<-chan events.ExternalChangeMsg, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("store: create watcher: %w", err)
	}
	var closeOnce sync.Once
	closeWatcher := func() {
		closeOnce.Do(func() {
			if err := watcher.Close(); err != nil {
				s.log.Error().Err(err).Msg("store: watcher close")
			}
		})
	}

	dirs, err := collectDirs(s.basePath)
	if err != nil {
		closeWatcher()
		return nil, fmt.Errorf("store: enumerate directories: %w", err)
	}
	watched := make(map[string]struct{}, len(dirs))
	for _, dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			closeWatcher()
			return nil, fmt.Errorf("store: watch %s: %w", dir, err)
		}
		watched[dir] = struct{}{}
	}

	out := make(chan events.ExternalChangeMsg, 64)
	go func() {
		defer close(out)
		defer closeWatcher()

		var sendMu sync.Mutex
		done := false
		send := func(msg events.ExternalChangeMsg) {
			sendMu.Lock()
			defer sendMu.Unlock()
			if done {
				return
			}
			select {
			case out <- msg:
			default:
			}
		}
		throttle := newEventThrottle(DefaultThrottle)
		defer func() {
			throttle.Stop()
			sendMu.Lock()
			done = true
			sendMu.Unlock()
		}()

		for {
			select {
			case <-ctx.Done():
				return
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				s.log.Warn().Err(err).Msg("store: watch error")
				throttle.Enqueue("", events.ExternalChangeMsg{Component: watchComponent, Op: "error"}, send)
			case evt, ok := <-watcher.Events:
				if !ok {
					return
				}
				if evt.Op&fsnotify.Create == fsnotify.Create {
					if dirs, err := collectDirs(evt.Name); err == nil {
						for _, dir := range dirs {
							if _, found := watched[dir]; found {
								continue
							}
							if err := watcher.Add(dir); err != nil {
								s.log.Warn().Str("dir", dir).Err(err).Msg("store: watch")
								continue
							}
							watched[dir] = struct{}{}
						}
					}
				}
				rel, err := filepath.Rel(s.basePath, evt.Name)
				if err != nil {
					continue
				}
				kind := kindForPath(rel)
				throttle.Enqueue(kind, events.ExternalChangeMsg{
					Component: watchComponent,
					Path:      rel,
					Op:        evt.Op.String(),
				}, send)
			}
		}
	}()
	return out, nil
}

// collectDirs returns base and every directory below it.
func collectDirs(base string) ([]string, error) {
	var dirs []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			dirs = append(dirs, filepath.Clean(path))
		}
		return nil
	})
	return dirs, err
}

// eventThrottle keeps the latest message per key and sends them together
// once delay has passed since the first message of a burst.
type eventThrottle struct {
	mu      sync.Mutex
	timer   *time.Timer
	pending map[string]events.ExternalChangeMsg
	order   []string
	delay   time.Duration
}

func newEventThrottle(delay time.Duration) *eventThrottle {
	return &eventThrottle{
		delay:   delay,
		pending: make(map[string]events.ExternalChangeMsg),
	}
}

func (t *eventThrottle) Enqueue(key string, msg events.ExternalChangeMsg, send func(events.ExternalChangeMsg)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.pending[key]; !ok {
		t.order = append(t.order, key)
	}
	t.pending[key] = msg
	if t.timer == nil {
		t.timer = time.AfterFunc(t.delay, func() {
			t.flush(send)
		})
	}
}

func (t *eventThrottle) flush(send func(events.ExternalChangeMsg)) {
	t.mu.Lock()
	pending, order := t.pending, t.order
	t.pending = make(map[string]events.ExternalChangeMsg)
	t.order = nil
	t.timer = nil
	t.mu.Unlock()

	for _, key := range order {
		send(pending[key])
	}
}

func (t *eventThrottle) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
