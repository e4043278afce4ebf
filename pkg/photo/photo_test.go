package photo

import (
	"context"
	"errors"
	"testing"
	"time"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

func bytesImporter(b []byte) Importer {
	return ImporterFunc(func(context.Context, Handle) ([]byte, error) {
		return b, nil
	})
}

// blockingImporter waits for ctx to end and reports what ended it.
type blockingImporter struct {
	causes chan error
}

func (b *blockingImporter) ImportOne(ctx context.Context, _ Handle) ([]byte, error) {
	<-ctx.Done()
	b.causes <- context.Cause(ctx)
	return nil, ctx.Err()
}

// newState draws image ids from src, which fixtures share so that ids never
// collide by accident.
func newState(imp Importer, c clock.Clock, src ids.Source, images ...model.ImageRef) *State {
	return New(Config{Importer: imp, Clock: c, IDs: src, Timeout: 5 * time.Second}, images)
}

func wait(t *testing.T, e *Edit) error {
	t.Helper()
	select {
	case <-e.Done():
		return e.Wait()
	case <-time.After(2 * time.Second):
		t.Fatal("edit did not finish")
		return nil
	}
}

func TestAddWhenEmptyAppendsAndSelects(t *testing.T) {
	s := newState(bytesImporter([]byte("png")), clock.NewFake(time.Unix(0, 0)), &ids.Sequence{})
	if s.Phase() != Empty {
		t.Fatalf("expected empty, got %s", s.Phase())
	}
	changed := 0
	s.OnChange(func() { changed++ })
	if _, err := s.Begin(context.Background(), Add, "x"); !errors.Is(err, ErrNoSelection) {
		t.Fatalf("add without selection should fail, got %v", err)
	}
	e, err := s.Begin(context.Background(), AddWhenEmpty, "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := wait(t, e); err != nil {
		t.Fatalf("import: %v", err)
	}
	imgs := s.Images()
	if len(imgs) != 1 || string(imgs[0].Data) != "png" {
		t.Fatalf("unexpected images %+v", imgs)
	}
	if sel, ok := s.Selected(); !ok || sel.ID != imgs[0].ID {
		t.Fatal("new image should be selected")
	}
	if s.Phase() != Populated || changed != 1 {
		t.Fatalf("phase %s changed %d", s.Phase(), changed)
	}
}

func TestSplicePositions(t *testing.T) {
	src := &ids.Sequence{}
	a := model.ImageRef{ID: ids.NewImage(src), Data: []byte("a")}
	b := model.ImageRef{ID: ids.NewImage(src), Data: []byte("b")}
	s := newState(bytesImporter([]byte("new")), clock.NewFake(time.Unix(0, 0)), src, a, b)
	if err := s.Select(b.ID); err != nil {
		t.Fatal(err)
	}

	e, err := s.Begin(context.Background(), Add, "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := wait(t, e); err != nil {
		t.Fatal(err)
	}
	imgs := s.Images()
	if len(imgs) != 3 || imgs[0].ID != a.ID || string(imgs[1].Data) != "new" || imgs[2].ID != b.ID {
		t.Fatalf("add should insert before selection: %+v", imgs)
	}

	added := imgs[1].ID
	e, err = s.Begin(context.Background(), Replace, "y")
	if err != nil {
		t.Fatal(err)
	}
	if err := wait(t, e); err != nil {
		t.Fatal(err)
	}
	imgs = s.Images()
	if len(imgs) != 3 || imgs[1].ID == added || imgs[2].ID != b.ID {
		t.Fatalf("replace should swap in place: %+v", imgs)
	}
	if sel, _ := s.Selected(); sel.ID != imgs[1].ID {
		t.Fatal("replacement should be selected")
	}

	if err := s.Delete(); err != nil {
		t.Fatal(err)
	}
	if sel, _ := s.Selected(); sel.ID != b.ID {
		t.Fatal("selection should move to the image that took the deleted slot")
	}
}

func TestImageIDsStayUnique(t *testing.T) {
	src := &ids.Sequence{}
	a := model.ImageRef{ID: ids.NewImage(src), Data: []byte("a")}
	dup := model.ImageRef{ID: a.ID, Data: []byte("dup")}
	blank := model.ImageRef{Data: []byte("blank")}
	// A fresh sequence hands out a's id first.
	s := newState(bytesImporter([]byte("new")), clock.NewFake(time.Unix(0, 0)), &ids.Sequence{}, a, dup, blank)

	e, err := s.Begin(context.Background(), AddWhenEmpty, "x")
	if err != nil {
		t.Fatal(err)
	}
	if err := wait(t, e); err != nil {
		t.Fatal(err)
	}
	imgs := s.Images()
	if len(imgs) != 4 {
		t.Fatalf("want 4 images, got %+v", imgs)
	}
	seen := make(map[ids.ImageID]bool)
	for _, img := range imgs {
		if img.ID.IsZero() || seen[img.ID] {
			t.Fatalf("image ids must be unique and set: %+v", imgs)
		}
		seen[img.ID] = true
	}
	if imgs[0].ID != a.ID || string(imgs[1].Data) != "dup" || string(imgs[3].Data) != "new" {
		t.Fatalf("order should be kept: %+v", imgs)
	}
}

func TestImportTimesOut(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	imp := &blockingImporter{causes: make(chan error, 1)}
	s := newState(imp, c, &ids.Sequence{})
	e, err := s.Begin(context.Background(), AddWhenEmpty, "slow")
	if err != nil {
		t.Fatal(err)
	}
	if s.Phase() != EditInFlight {
		t.Fatalf("expected in flight, got %s", s.Phase())
	}
	c.Advance(5 * time.Second)
	err = wait(t, e)
	var failure *Failure
	if !errors.As(err, &failure) || failure.Class != ClassTimeout {
		t.Fatalf("expected timeout failure, got %v", err)
	}
	if cause := <-imp.causes; !errors.Is(cause, ErrTimedOut) {
		t.Fatalf("underlying import should be canceled with ErrTimedOut, got %v", cause)
	}
	if s.Phase() != Empty {
		t.Fatalf("timed out edit should clear in-flight state, got %s", s.Phase())
	}
	if n := s.Notice(); n == nil || n.Class != ClassTimeout {
		t.Fatalf("expected timeout notice, got %v", n)
	}
	s.DismissNotice()
	if s.Notice() != nil {
		t.Fatal("notice should be dismissed")
	}
}

func TestFailureClasses(t *testing.T) {
	cases := []struct {
		name string
		imp  Importer
		want Class
	}{
		{"nil data", bytesImporter(nil), ClassParse},
		{"unreadable", ImporterFunc(func(context.Context, Handle) ([]byte, error) {
			return nil, ErrUnreadable
		}), ClassParse},
		{"other", ImporterFunc(func(context.Context, Handle) ([]byte, error) {
			return nil, errors.New("disk on fire")
		}), ClassUnknown},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := newState(tc.imp, clock.NewFake(time.Unix(0, 0)), &ids.Sequence{})
			e, err := s.Begin(context.Background(), AddWhenEmpty, "x")
			if err != nil {
				t.Fatal(err)
			}
			var failure *Failure
			if werr := wait(t, e); !errors.As(werr, &failure) || failure.Class != tc.want {
				t.Fatalf("want %s, got %v", tc.want, werr)
			}
			if len(s.Images()) != 0 {
				t.Fatal("failed import must not change images")
			}
			if failure.Notice() == "" {
				t.Fatal("failure should carry a notice")
			}
		})
	}
}

func TestBeginCancelsPreviousEdit(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	imp := &blockingImporter{causes: make(chan error, 2)}
	s := newState(imp, c, &ids.Sequence{})
	first, err := s.Begin(context.Background(), AddWhenEmpty, "a")
	if err != nil {
		t.Fatal(err)
	}
	second, err := s.Begin(context.Background(), AddWhenEmpty, "b")
	if err != nil {
		t.Fatal(err)
	}
	if err := wait(t, first); !errors.Is(err, ErrCanceled) {
		t.Fatalf("first edit should be canceled, got %v", err)
	}
	if cur, ok := s.InFlight(); !ok || cur != second {
		t.Fatal("second edit should be the one in flight")
	}
	if !s.Cancel() {
		t.Fatal("cancel should report an edit")
	}
	if err := wait(t, second); !errors.Is(err, ErrCanceled) {
		t.Fatalf("second edit should be canceled, got %v", err)
	}
	if s.Phase() != Empty || s.Notice() != nil {
		t.Fatal("cancel should restore the pre-edit state without a notice")
	}
	c.Advance(10 * time.Second)
	if s.Notice() != nil {
		t.Fatal("stale timeout fired after cancel")
	}
}
