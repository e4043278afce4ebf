package watch

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/fatih/color"

	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/printers"
)

type fakeSource []events.ExternalChangeMsg

func (f fakeSource) Watch(context.Context) (<-chan events.ExternalChangeMsg, error) {
	ch := make(chan events.ExternalChangeMsg, len(f))
	for _, m := range f {
		ch <- m
	}
	close(ch)
	return ch, nil
}

func TestWatchPrintsUntilClosed(t *testing.T) {
	color.NoColor = true
	var buf bytes.Buffer
	w := &Watch{
		Source:  fakeSource{{Path: "recipe/00/1.json", Op: "WRITE"}},
		Printer: &printers.PrettyPrint{Out: &buf, Plain: true},
	}
	if err := w.Do(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(buf.String(), `path:"recipe/00/1.json" op:"WRITE"`) {
		t.Fatalf("unexpected output %q", buf.String())
	}
}
