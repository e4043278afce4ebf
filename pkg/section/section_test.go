package section

import (
	"math/rand"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/debounce"
	"tableflip.dev/cookbook/pkg/editor"
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

type (
	ingredientRows    = Rows[ids.IngredientID, model.Ingredient, *editor.Ingredient]
	ingredientSection = Section[ids.IngredientSectionID, ids.IngredientID, model.Ingredient, *editor.Ingredient]
	ingredientGroup   = Group[ids.IngredientSectionID, ids.IngredientID, model.Ingredient, *editor.Ingredient]
)

func ingredientFactory(src ids.Source) func() *editor.Ingredient {
	return func() *editor.Ingredient {
		return editor.NewIngredient(model.Ingredient{ID: ids.NewIngredient(src)}, '.', 1)
	}
}

func newIngredientRows(t *testing.T, src ids.Source, names ...string) *ingredientRows {
	t.Helper()
	var leaves []*editor.Ingredient
	for _, n := range names {
		leaves = append(leaves, editor.NewIngredient(model.Ingredient{ID: ids.NewIngredient(src), Name: n, Amount: 1}, '.', 1))
	}
	rows, err := NewRows[ids.IngredientID, model.Ingredient](ingredientFactory(src), leaves...)
	if err != nil {
		t.Fatal(err)
	}
	return rows
}

func newIngredientGroup(t *testing.T, src ids.Source, sched Scheduler) *ingredientGroup {
	t.Helper()
	g, err := NewGroup(Config[ids.IngredientSectionID, ids.IngredientID, model.Ingredient, *editor.Ingredient]{
		NewSectionID: func() ids.IngredientSectionID { return ids.NewIngredientSection(src) },
		NewLeaf:      ingredientFactory(src),
		Scheduler:    sched,
	})
	if err != nil {
		t.Fatal(err)
	}
	return g
}

func names(r *ingredientRows) []string {
	var out []string
	for _, s := range r.Snapshot() {
		out = append(out, s.Name)
	}
	return out
}

func TestLeadingNewlineInsertsAbove(t *testing.T) {
	rows := newIngredientRows(t, &ids.Sequence{}, "Bread")
	bread := rows.Keys()[0]
	if err := rows.FocusRow(bread, focus.Name); err != nil {
		t.Fatal(err)
	}
	d, err := rows.Edit(bread, func(e *editor.Ingredient) editor.Delegate { return e.EditName("\nBread") })
	if err != nil {
		t.Fatal(err)
	}
	if d != editor.InsertAbove {
		t.Fatalf("want insertAbove, got %s", d)
	}
	if diff := cmp.Diff([]string{"", "Bread"}, names(rows)); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	fresh := rows.Keys()[0]
	if !rows.Token().IsRow(fresh) {
		t.Fatal("new row should hold the section focus")
	}
	if leaf, _ := rows.Get(fresh); leaf.Focused() != focus.Name {
		t.Fatalf("new row should focus its first field, got %q", leaf.Focused())
	}
	if leaf, _ := rows.Get(bread); leaf.HasFocus() {
		t.Fatal("original row should lose focus")
	}
}

func TestTrailingNewlineInsertsStepBelow(t *testing.T) {
	src := &ids.Sequence{}
	first := editor.NewStep(model.Step{ID: ids.NewStep(src)}, nil)
	rows, err := NewRows[ids.StepID, model.Step](func() *editor.Step {
		return editor.NewStep(model.Step{ID: ids.NewStep(src)}, nil)
	}, first)
	if err != nil {
		t.Fatal(err)
	}
	if err := rows.FocusRow(first.Key(), focus.None); err != nil {
		t.Fatal(err)
	}
	edit := func(v string) editor.Delegate {
		d, err := rows.Edit(first.Key(), func(e *editor.Step) editor.Delegate { return e.EditDescription(v) })
		if err != nil {
			t.Fatal(err)
		}
		return d
	}
	edit("Preheat oven")
	if d := edit("Preheat oven\n"); d != editor.InsertBelow {
		t.Fatalf("want insertBelow, got %s", d)
	}
	steps := rows.Snapshot()
	if len(steps) != 2 || steps[0].Description != "Preheat oven" || steps[1].Description != "" {
		t.Fatalf("unexpected steps %+v", steps)
	}
	next, _ := rows.Get(steps[1].ID)
	if !rows.Token().IsRow(next.Key()) || next.Focused() != focus.Body {
		t.Fatal("new step should have focus on its body")
	}
}

func TestRowIdentifiersStayUnique(t *testing.T) {
	r := rand.New(rand.NewSource(11))
	rows := newIngredientRows(t, &ids.Sequence{}, "a")
	for op := 0; op < 500; op++ {
		keys := rows.Keys()
		switch r.Intn(4) {
		case 0:
			if _, err := rows.Append(); err != nil {
				t.Fatal(err)
			}
		case 1:
			if len(keys) > 0 {
				if _, err := rows.InsertNear(keys[r.Intn(len(keys))], r.Intn(2) == 0); err != nil {
					t.Fatal(err)
				}
			}
		case 2:
			if len(keys) > 0 {
				rows.Delete(keys[r.Intn(len(keys))])
			}
		case 3:
			rows.Blur()
		}
		seen := map[ids.IngredientID]bool{}
		for _, k := range rows.Keys() {
			if seen[k] {
				t.Fatalf("duplicate id %s after op %d", k, op)
			}
			seen[k] = true
		}
		if id, ok := rows.Token().Row(); ok && !seen[id] {
			t.Fatalf("focus points at removed row after op %d", op)
		}
	}
}

func TestEmptiedRowPrunedWhenFocusLeaves(t *testing.T) {
	rows := newIngredientRows(t, &ids.Sequence{}, "Salt", "Pepper")
	keys := rows.Keys()
	if err := rows.FocusRow(keys[0], focus.Name); err != nil {
		t.Fatal(err)
	}
	rows.Edit(keys[0], func(e *editor.Ingredient) editor.Delegate { return e.EditName("") })
	rows.Edit(keys[0], func(e *editor.Ingredient) editor.Delegate { return e.EditAmount("") })
	if rows.Len() != 2 {
		t.Fatal("row must survive while focused")
	}
	if err := rows.FocusRow(keys[1], focus.Name); err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff([]string{"Pepper"}, names(rows)); diff != "" {
		t.Fatalf("rows (-want +got):\n%s", diff)
	}
	if _, err := rows.Append(); err != nil {
		t.Fatal(err)
	}
	if !rows.Blur() || rows.Len() != 1 {
		t.Fatal("blank appended row should be pruned on blur")
	}
}

func TestClearFocusKeepsEmptyRows(t *testing.T) {
	rows := newIngredientRows(t, &ids.Sequence{})
	if _, err := rows.Append(); err != nil {
		t.Fatal(err)
	}
	rows.ClearFocus()
	if rows.Len() != 1 || rows.HasFocus() {
		t.Fatal("clearing focus must not touch data")
	}
}

func TestCollapseClearsEveryFocusToken(t *testing.T) {
	src := &ids.Sequence{}
	g := newIngredientGroup(t, src, nil)
	for _, name := range []string{"Produce", "Dairy"} {
		s, err := g.Add(name)
		if err != nil {
			t.Fatal(err)
		}
		for i := 0; i < 3; i++ {
			if _, err := g.AppendRow(s.Key()); err != nil {
				t.Fatal(err)
			}
			leaf := s.Rows().Leaves()[i]
			leaf.EditName("item")
		}
	}
	produce := g.Sections()[0]
	row := produce.Rows().Keys()[1]
	if err := g.FocusRow(produce.Key(), row, focus.Amount); err != nil {
		t.Fatal(err)
	}
	if !g.HasFocus() {
		t.Fatal("expected focus before collapse")
	}
	if err := g.CollapseSection(produce.Key()); err != nil {
		t.Fatal(err)
	}
	if produce.Expanded() || produce.HasFocus() || !produce.Rows().Token().IsNone() {
		t.Fatal("section token should be cleared")
	}
	for _, leaf := range produce.Rows().Leaves() {
		if leaf.HasFocus() {
			t.Fatalf("leaf %s kept focus after collapse", leaf.Key())
		}
	}
	if !g.Token().IsNone() {
		t.Fatal("group token should not point at a collapsed section")
	}

	if err := g.FocusName(g.Sections()[1].Key()); err != nil {
		t.Fatal(err)
	}
	g.Collapse()
	if g.HasFocus() || g.Expanded() {
		t.Fatal("group collapse should clear every token")
	}
}

func TestNamingEmptySectionCreatesOneRow(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	sched := debounce.New(c, 300*time.Millisecond)
	g := newIngredientGroup(t, &ids.Sequence{}, sched)
	s, err := g.Add("")
	if err != nil {
		t.Fatal(err)
	}
	for _, v := range []string{"P", "", "P", "Pr"} {
		if err := g.EditName(s.Key(), v); err != nil {
			t.Fatal(err)
		}
		c.Advance(100 * time.Millisecond)
	}
	if s.Rows().Len() != 0 {
		t.Fatal("row created before the edits settled")
	}
	c.Advance(300 * time.Millisecond)
	if s.Rows().Len() != 1 {
		t.Fatalf("want one row, got %d", s.Rows().Len())
	}
	if s.Rows().HasFocus() {
		t.Fatal("automatic first row must not steal focus from the heading")
	}
	if s.Name() != "Pr" {
		t.Fatalf("name: %q", s.Name())
	}
}

func TestSectionNameBoundaries(t *testing.T) {
	g := newIngredientGroup(t, &ids.Sequence{}, nil)
	s, err := g.Add("Produce")
	if err != nil {
		t.Fatal(err)
	}
	if err := g.FocusName(s.Key()); err != nil {
		t.Fatal(err)
	}
	if err := g.EditName(s.Key(), "Produce\n"); err != nil {
		t.Fatal(err)
	}
	if s.Name() != "Produce" || s.Rows().Len() != 1 {
		t.Fatalf("trailing newline should open the first row: %q %d", s.Name(), s.Rows().Len())
	}
	if s.NameFocused() || !s.Rows().Token().IsRow(s.Rows().Keys()[0]) {
		t.Fatal("focus should move into the first row")
	}

	if err := g.EditName(s.Key(), "\nProduce"); err != nil {
		t.Fatal(err)
	}
	if g.Len() != 2 || g.Sections()[1] != s {
		t.Fatal("leading newline should insert a section above")
	}
	above := g.Sections()[0]
	if !above.NameFocused() || !g.Token().IsRow(above.Key()) {
		t.Fatal("new section should have its name focused")
	}
	if s.HasFocus() {
		t.Fatal("original section should lose focus")
	}
	plain := g.Snapshot()
	if plain[1].Name != "Produce" || len(plain[1].Rows) != 1 {
		t.Fatalf("unexpected snapshot %+v", plain)
	}
}
