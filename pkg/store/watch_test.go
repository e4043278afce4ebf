package store

import (
	"context"
	"testing"
	"time"

	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

func TestDiskWatchEmitsRecordChanges(t *testing.T) {
	s, err := Open(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}

	// Allow the watcher goroutine to subscribe before writing.
	time.Sleep(50 * time.Millisecond)

	r := model.Recipe{ID: ids.NewRecipe(&ids.Sequence{}), Name: "Soup"}
	if err := s.CreateRecipe(ctx, r); err != nil {
		t.Fatalf("create recipe: %v", err)
	}

	deadline := time.After(2 * time.Second)
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				t.Fatal("watch closed early")
			}
			if msg.Path != "" && msg.Op != "" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for a change event")
		}
	}
}

func TestDiskWatchClosesWithContext(t *testing.T) {
	s, err := Open(testConfig{path: t.TempDir()})
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch, err := s.Watch(ctx)
	if err != nil {
		t.Fatalf("watch: %v", err)
	}
	cancel()
	select {
	case _, ok := <-ch:
		for ok {
			_, ok = <-ch
		}
	case <-time.After(2 * time.Second):
		t.Fatal("watch did not close")
	}
}
