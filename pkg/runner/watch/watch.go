// Package watch contains the runner that follows changes to the library on
// disk.
package watch

import (
	"context"

	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/printers"
)

// Source streams external changes.
type Source interface {
	Watch(ctx context.Context) (<-chan events.ExternalChangeMsg, error)
}

// Watch prints changes until ctx is done.
type Watch struct {
	Source  Source
	Printer *printers.PrettyPrint
}

func (w *Watch) Do(ctx context.Context) error {
	ch, err := w.Source.Watch(ctx)
	if err != nil {
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			w.Printer.Event(msg)
		}
	}
}
