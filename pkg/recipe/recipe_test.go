package recipe

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/debounce"
	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/photo"
)

func newRecipe(t *testing.T, c clock.Clock, m model.Recipe) *Recipe {
	t.Helper()
	r, err := New(Config{IDs: &ids.Sequence{}, Clock: c}, m)
	if err != nil {
		t.Fatal(err)
	}
	return r
}

func TestScaleKeepsCanonicalAmounts(t *testing.T) {
	r := newRecipe(t, clock.NewFake(time.Unix(0, 0)), model.Recipe{Name: "Soup"})
	produce, err := r.AddIngredientSection("Produce")
	if err != nil {
		t.Fatal(err)
	}
	onion, err := r.InsertIngredient(produce, model.Ingredient{Name: "Onion", Amount: 2, Unit: "cups"})
	if err != nil {
		t.Fatal(err)
	}

	var persisted []float64
	r.Observe(func(m model.Recipe) {
		persisted = append(persisted, m.IngredientSections[0].Ingredients[0].Amount)
	})

	if err := r.SetScale(2); err != nil {
		t.Fatal(err)
	}
	if amount, text, _ := r.DisplayedAmount(produce, onion); amount != 4 || text != "4" {
		t.Fatalf("at scale 2: %v %q", amount, text)
	}
	if got := r.Snapshot().IngredientSections[0].Ingredients[0].Amount; got != 2 {
		t.Fatalf("snapshot amount at scale 2 should stay 2, got %v", got)
	}
	if err := r.EditIngredientUnit(produce, onion, "cup"); err != nil {
		t.Fatal(err)
	}
	if err := r.SetScale(1); err != nil {
		t.Fatal(err)
	}
	if amount, _, _ := r.DisplayedAmount(produce, onion); amount != 2 {
		t.Fatalf("back at scale 1: %v", amount)
	}
	if diff := cmp.Diff([]float64{2}, persisted); diff != "" {
		t.Fatalf("observed amounts (-want +got):\n%s", diff)
	}
}

func TestScaleRoundTripHasNoDrift(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	sid, _ := r.AddIngredientSection("Dry")
	id, _ := r.InsertIngredient(sid, model.Ingredient{Name: "Flour", Amount: 2})
	if err := r.SetScale(4); err != nil {
		t.Fatal(err)
	}
	if err := r.SetScale(1); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 20; i++ {
		_ = r.ScaleUp()
	}
	for i := 0; i < 20; i++ {
		_ = r.ScaleDown()
	}
	if r.Scale() != 0.25 {
		t.Fatalf("scale should bottom out at 0.25, got %v", r.Scale())
	}
	if err := r.SetScale(1); err != nil {
		t.Fatal(err)
	}
	amount, _, _ := r.DisplayedAmount(sid, id)
	if math.Abs(amount-2) > 1e-9 {
		t.Fatalf("drift: %v", amount)
	}
	if err := r.SetScale(1.5); err == nil {
		t.Fatal("1.5 is not on the step sequence")
	}
}

func TestTypingAtScaleStoresCanonical(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	sid, _ := r.AddIngredientSection("Dairy")
	id, _ := r.InsertIngredient(sid, model.Ingredient{Name: "Milk", Amount: 1})
	_ = r.SetScale(2)
	if err := r.EditIngredientAmount(sid, id, "3"); err != nil {
		t.Fatal(err)
	}
	if got := r.Snapshot().IngredientSections[0].Ingredients[0].Amount; got != 1.5 {
		t.Fatalf("want 1.5, got %v", got)
	}
}

func TestDeletePartNeedsConfirmation(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	if _, err := r.InsertAbout("Story", "Grandma's"); err != nil {
		t.Fatal(err)
	}
	sid, _ := r.AddStepSection("Method")
	if _, err := r.InsertStep(sid, "Boil"); err != nil {
		t.Fatal(err)
	}

	if err := r.ConfirmDelete(); !errors.Is(err, ErrNoPendingDeletion) {
		t.Fatalf("want ErrNoPendingDeletion, got %v", err)
	}
	r.RequestDelete(Steps)
	if p, ok := r.PendingDeletion(); !ok || p != Steps {
		t.Fatal("deletion should be pending")
	}
	r.CancelDelete()
	if len(r.Snapshot().StepSections) != 1 {
		t.Fatal("cancel must not change state")
	}
	r.RequestDelete(Steps)
	if err := r.ConfirmDelete(); err != nil {
		t.Fatal(err)
	}
	snap := r.Snapshot()
	if snap.StepSections != nil || len(snap.AboutSections) != 1 {
		t.Fatalf("only steps should be cleared: %+v", snap)
	}
	if _, ok := r.PendingDeletion(); ok {
		t.Fatal("pending deletion should be consumed")
	}
}

func TestMoveRowsWithinSection(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	sid, _ := r.AddStepSection("Method")
	var steps []ids.StepID
	for _, d := range []string{"Mix", "Knead", "Bake"} {
		id, err := r.InsertStep(sid, d)
		if err != nil {
			t.Fatal(err)
		}
		steps = append(steps, id)
	}
	var notified int
	r.Observe(func(model.Recipe) { notified++ })

	if err := r.MoveStep(sid, steps[2], 0); err != nil {
		t.Fatal(err)
	}
	var got []string
	for _, s := range r.Snapshot().StepSections[0].Steps {
		got = append(got, s.Description)
	}
	if diff := cmp.Diff([]string{"Bake", "Mix", "Knead"}, got); diff != "" {
		t.Fatalf("steps (-want +got):\n%s", diff)
	}
	if notified != 1 {
		t.Fatalf("want one notification, got %d", notified)
	}
	if err := r.MoveStep(sid, steps[0], 3); err == nil {
		t.Fatal("moving past the end should fail")
	}

	dairy, _ := r.AddIngredientSection("Dairy")
	milk, _ := r.InsertIngredient(dairy, model.Ingredient{Name: "Milk", Amount: 1})
	if _, err := r.InsertIngredient(dairy, model.Ingredient{Name: "Butter", Amount: 2}); err != nil {
		t.Fatal(err)
	}
	if err := r.MoveIngredient(dairy, milk, 1); err != nil {
		t.Fatal(err)
	}
	ings := r.Snapshot().IngredientSections[0].Ingredients
	if ings[0].Name != "Butter" || ings[1].Name != "Milk" {
		t.Fatalf("unexpected order %+v", ings)
	}
	if err := r.MoveIngredient(ids.IngredientSectionID{}, milk, 0); err == nil {
		t.Fatal("unknown section should fail")
	}
	if notified != 2 {
		t.Fatalf("failed moves must not notify, got %d notifications", notified)
	}
}

func TestCollapsePartClearsFocus(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	sid, _ := r.AddIngredientSection("Produce")
	id, _ := r.AddIngredient(sid)
	if err := r.EditIngredientName(sid, id, "Leek"); err != nil {
		t.Fatal(err)
	}
	if err := r.FocusIngredient(sid, id, focus.Unit); err != nil {
		t.Fatal(err)
	}
	if !r.HasFocus() {
		t.Fatal("expected focus")
	}
	r.Collapse(Ingredients)
	if r.HasFocus() || r.Expanded(Ingredients) {
		t.Fatal("collapse should clear focus")
	}
	r.Expand(Ingredients)
	if !r.Expanded(Ingredients) || len(r.Snapshot().IngredientSections[0].Ingredients) != 1 {
		t.Fatal("expand should restore without losing rows")
	}
}

func TestFocusMovePrunesEmptyRow(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	sid, _ := r.AddIngredientSection("Produce")
	if _, err := r.AddIngredient(sid); err != nil {
		t.Fatal(err)
	}
	if len(r.Snapshot().IngredientSections[0].Ingredients) != 1 {
		t.Fatal("blank row should exist while focused")
	}
	r.FocusName()
	if got := r.Snapshot().IngredientSections[0].Ingredients; len(got) != 0 {
		t.Fatalf("blank row should be pruned once focus leaves, got %+v", got)
	}
}

func TestStepTrailingNewlineOpensNextStep(t *testing.T) {
	r := newRecipe(t, nil, model.Recipe{})
	sid, _ := r.AddStepSection("Method")
	first, _ := r.AddStep(sid)
	if err := r.EditStep(sid, first, "Preheat oven"); err != nil {
		t.Fatal(err)
	}
	if err := r.EditStep(sid, first, "Preheat oven\n"); err != nil {
		t.Fatal(err)
	}
	steps := r.Snapshot().StepSections[0].Steps
	if len(steps) != 2 || steps[0].Description != "Preheat oven" || steps[1].Description != "" {
		t.Fatalf("unexpected steps %+v", steps)
	}
	if id, ok := r.StepFocus(sid); !ok || id != steps[1].ID {
		t.Fatal("focus should be on the new step")
	}
}

func TestSectionFirstRowIsDebounced(t *testing.T) {
	c := clock.NewFake(time.Unix(0, 0))
	r, err := New(Config{IDs: &ids.Sequence{}, Clock: c, Scheduler: debounce.New(c, 250*time.Millisecond)}, model.Recipe{})
	if err != nil {
		t.Fatal(err)
	}
	sid, _ := r.AddIngredientSection("")
	notified := 0
	r.Observe(func(model.Recipe) { notified++ })
	_ = r.EditIngredientSectionName(sid, "D")
	_ = r.EditIngredientSectionName(sid, "")
	_ = r.EditIngredientSectionName(sid, "D")
	c.Advance(250 * time.Millisecond)
	if got := len(r.Snapshot().IngredientSections[0].Ingredients); got != 1 {
		t.Fatalf("want one first row, got %d", got)
	}
	if notified != 4 {
		t.Fatalf("want 3 name changes and one row creation, got %d notifications", notified)
	}
}

func TestStepPhotoChangesReachObservers(t *testing.T) {
	imp := photo.ImporterFunc(func(context.Context, photo.Handle) ([]byte, error) {
		return []byte("jpeg"), nil
	})
	r, err := New(Config{IDs: &ids.Sequence{}, Photo: photo.Config{Importer: imp}}, model.Recipe{})
	if err != nil {
		t.Fatal(err)
	}
	sid, _ := r.AddStepSection("Method")
	step, _ := r.InsertStep(sid, "Knead")
	seen := make(chan model.Recipe, 1)
	r.Observe(func(m model.Recipe) { seen <- m })
	photos, err := r.StepPhotos(sid, step)
	if err != nil {
		t.Fatal(err)
	}
	e, err := photos.Begin(context.Background(), photo.AddWhenEmpty, "pick")
	if err != nil {
		t.Fatal(err)
	}
	if err := e.Wait(); err != nil {
		t.Fatal(err)
	}
	select {
	case m := <-seen:
		if imgs := m.StepSections[0].Steps[0].Images; len(imgs) != 1 || string(imgs[0].Data) != "jpeg" {
			t.Fatalf("unexpected images %+v", imgs)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("observer not notified")
	}
}

func TestEditNameBoundaries(t *testing.T) {
	c := clock.NewFake(time.Unix(100, 0))
	r := newRecipe(t, c, model.Recipe{Name: "Bread"})
	r.FocusName()
	r.EditName("Bread\n")
	if r.Name() != "Bread" || r.NameFocused() {
		t.Fatal("trailing newline should end editing without changing the name")
	}
	c.Advance(time.Minute)
	r.EditName("Sourdough")
	snap := r.Snapshot()
	if snap.Name != "Sourdough" || !snap.Edited.Equal(time.Unix(160, 0)) {
		t.Fatalf("unexpected snapshot %q %v", snap.Name, snap.Edited)
	}
	if !snap.Created.Equal(time.Unix(100, 0)) {
		t.Fatalf("created should be kept: %v", snap.Created)
	}
}
