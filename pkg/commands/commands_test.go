package commands

import (
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestCommandTree(t *testing.T) {
	root := New()
	var got []string
	for _, c := range root.Commands() {
		got = append(got, c.Name())
		for _, sub := range c.Commands() {
			got = append(got, c.Name()+" "+sub.Name())
		}
	}
	want := []string{
		"folder",
		"folder add",
		"folder mv",
		"folder rename",
		"folder rm",
		"folder show",
		"folders",
		"ingredient",
		"recipe",
		"recipe add",
		"recipe export",
		"recipe photo",
		"recipe reorder",
		"recipe rm",
		"recipe show",
		"step",
		"version",
		"watch",
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("commands (-want +got):\n%s", diff)
	}
}

func TestPersistentFlags(t *testing.T) {
	root := New()
	for _, name := range []string{"json", "show-id", "events"} {
		if root.PersistentFlags().Lookup(name) == nil {
			t.Fatalf("missing --%s", name)
		}
	}
	show, _, err := root.Find([]string{"recipe", "show"})
	if err != nil {
		t.Fatal(err)
	}
	if f := show.Flags().Lookup("scale"); f == nil || f.DefValue != "1" {
		t.Fatalf("recipe show --scale = %v", f)
	}
}
