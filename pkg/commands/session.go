package commands

import (
	"context"
	"errors"
	"os"

	"tableflip.dev/cookbook/pkg/app"
	"tableflip.dev/cookbook/pkg/config"
	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/photo"
	"tableflip.dev/cookbook/pkg/printers"
	"tableflip.dev/cookbook/pkg/store"
)

// session is one opened library for the length of a command.
type session struct {
	cfg     *config.Config
	disk    *store.Disk
	bus     *events.Bus
	lib     *app.Library
	printer *printers.PrettyPrint
}

func openSession(ctx context.Context) (*session, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log := cfg.Logger(os.Stderr)
	disk, err := store.Open(cfg, store.WithLogger(log))
	if err != nil {
		return nil, err
	}
	sep := editor.DecimalSeparator(cfg.Locale)
	bus := events.NewBus(256)
	lib, err := app.New(app.Config{
		Store:     disk,
		Logger:    log,
		Bus:       bus,
		Delay:     cfg.Debounce,
		Separator: sep,
		Photo: photo.Config{
			Importer: photo.FileImporter{},
			Timeout:  cfg.ImportTimeout,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := lib.Load(ctx); err != nil {
		return nil, err
	}
	pp := printers.New(cfg.HideImages, sep)
	pp.ShowID = output.ShowID
	return &session{cfg: cfg, disk: disk, bus: bus, lib: lib, printer: pp}, nil
}

// close persists whatever is still pending and releases the library. Errors
// from the command win over errors from the final flush.
func (s *session) close(ctx context.Context, err error) error {
	ferr := s.lib.Flush(ctx)
	s.lib.Close()
	if output.Events {
		for _, m := range s.bus.Drain() {
			s.printer.Event(m)
		}
	}
	if err != nil {
		return err
	}
	if errors.Is(ferr, context.Canceled) {
		return nil
	}
	return ferr
}

// run opens a session, hands it to do and closes it.
func run(do func(ctx context.Context, s *session) error) error {
	ctx := context.Background()
	s, err := openSession(ctx)
	if err != nil {
		return output.HandleError(err)
	}
	return output.HandleError(s.close(ctx, do(ctx, s)))
}
