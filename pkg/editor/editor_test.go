package editor

import (
	"testing"

	"golang.org/x/text/language"

	"tableflip.dev/cookbook/pkg/focus"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

func TestDetectBoundary(t *testing.T) {
	cases := []struct {
		prev, next string
		want       Boundary
	}{
		{"Bread", "\nBread", Leading},
		{"Bread", "Bread\n", Trailing},
		{"Bread", "Bre\nad", NoMatch},
		{"Bread", "\n\nBread", NoMatch},
		{"Bread", "Breads", NoMatch},
		{"", "\n", Leading},
	}
	for _, tc := range cases {
		if got := DetectBoundary(tc.prev, tc.next); got != tc.want {
			t.Fatalf("%q -> %q: want %s, got %s", tc.prev, tc.next, tc.want, got)
		}
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		prev, next string
		want       Change
	}{
		{"", "", Ignore},
		{" ", "\n", Ignore},
		{"", "a", Accept},
		{"Bread", "Breads", Accept},
		{"Bread", "  ", Cleared},
		{"Bread", "\nBread", BreakAbove},
		{"Bread", "Bread\n", BreakBelow},
	}
	for _, tc := range cases {
		if got := Classify(tc.prev, tc.next); got != tc.want {
			t.Fatalf("%q -> %q: want %d, got %d", tc.prev, tc.next, tc.want, got)
		}
	}
}

func newIngredient(name string, amount float64) *Ingredient {
	return NewIngredient(model.Ingredient{ID: ids.NewIngredient(&ids.Sequence{}), Name: name, Amount: amount, Unit: "cups"}, '.', 1)
}

func TestIngredientBoundaryNewlines(t *testing.T) {
	e := newIngredient("Bread", 1)
	e.FocusFirst()
	if d := e.EditName("\nBread"); d != InsertAbove {
		t.Fatalf("leading newline: want insertAbove, got %s", d)
	}
	if e.Name() != "Bread" || e.HasFocus() {
		t.Fatalf("leading newline must not change name and must clear focus: %q %v", e.Name(), e.HasFocus())
	}

	e.FocusFirst()
	if d := e.EditName("Bread\n"); d != Stay {
		t.Fatalf("trailing newline on name should stay, got %s", d)
	}
	if e.Name() != "Bread" || e.Focused() != focus.Amount {
		t.Fatalf("trailing newline on name should move to amount: %q %q", e.Name(), e.Focused())
	}
	if d := e.EditAmount("1\n"); d != Stay || e.Focused() != focus.Unit {
		t.Fatalf("trailing newline on amount should move to unit: %s %q", d, e.Focused())
	}
	if d := e.EditUnit("cups\n"); d != InsertBelow {
		t.Fatalf("trailing newline on last field should insert below, got %s", d)
	}
	if e.Unit() != "cups" || e.HasFocus() {
		t.Fatal("unit must be unchanged and focus cleared")
	}
}

func TestIngredientAmountFiltering(t *testing.T) {
	e := newIngredient("Flour", 2)
	e.EditAmount("2.5.1x")
	if e.AmountText() != "2.51" {
		t.Fatalf("filter should keep digits and one separator, got %q", e.AmountText())
	}
	if e.Amount() != 2.51 {
		t.Fatalf("amount should follow text, got %v", e.Amount())
	}
	e.EditAmount(".")
	if e.Amount() != 2.51 {
		t.Fatalf("unparsable text should keep the last good amount, got %v", e.Amount())
	}
	e.EditAmount("")
	if e.AmountText() != "" || e.Amount() != 2.51 {
		t.Fatalf("cleared text keeps the amount: %q %v", e.AmountText(), e.Amount())
	}
}

func TestIngredientUnitTypedKeyByKey(t *testing.T) {
	e := newIngredient("Milk", 8)
	e.EditUnit("")
	for _, r := range "fl oz" {
		e.EditUnit(e.Unit() + string(r))
	}
	if e.Unit() != "fl oz" {
		t.Fatalf("unit should be kept verbatim, got %q", e.Unit())
	}
	if got := e.Snapshot().Unit; got != "fl oz" {
		t.Fatalf("snapshot unit = %q", got)
	}
}

func TestIngredientScaleRoundTrip(t *testing.T) {
	e := newIngredient("Onion", 2)
	e.Rescale(4)
	if e.Amount() != 8 || e.AmountText() != "8" {
		t.Fatalf("scaled: %v %q", e.Amount(), e.AmountText())
	}
	if e.Snapshot().Amount != 2 {
		t.Fatalf("snapshot must stay canonical, got %v", e.Snapshot().Amount)
	}
	e.EditAmount("12")
	if got := e.Snapshot().Amount; got != 3 {
		t.Fatalf("typing at scale 4 should store 12/4, got %v", got)
	}
	for i := 0; i < 50; i++ {
		e.Rescale(0.25)
		e.Rescale(7)
	}
	e.Rescale(1)
	if diff := e.Amount() - 3; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("drift after rescaling: %v", e.Amount())
	}
}

func TestIngredientPruneOnBlur(t *testing.T) {
	e := newIngredient("Salt", 1)
	e.FocusFirst()
	e.EditName("")
	if e.Blur() != Stay {
		t.Fatal("row with an amount must survive blur")
	}
	e.EditAmount("")
	if e.Blur() != DeleteMe {
		t.Fatal("emptied row should ask to be deleted on blur")
	}
}

func TestDecimalSeparator(t *testing.T) {
	if got := DecimalSeparator(language.AmericanEnglish); got != '.' {
		t.Fatalf("en-US: got %q", got)
	}
	if got := DecimalSeparator(language.German); got != ',' {
		t.Fatalf("de: got %q", got)
	}
	e := NewIngredient(model.Ingredient{Name: "Milch", Amount: 1.5}, ',', 1)
	if e.AmountText() != "1,5" {
		t.Fatalf("expected localized text, got %q", e.AmountText())
	}
	e.EditAmount("2,25")
	if e.Snapshot().Amount != 2.25 {
		t.Fatalf("expected 2.25, got %v", e.Snapshot().Amount)
	}
}

func TestStepTrailingNewline(t *testing.T) {
	e := NewStep(model.Step{ID: ids.NewStep(&ids.Sequence{})}, nil)
	e.FocusFirst()
	e.EditDescription("Preheat oven")
	if d := e.EditDescription("Preheat oven\n"); d != InsertBelow {
		t.Fatalf("want insertBelow, got %s", d)
	}
	if e.Description() != "Preheat oven" {
		t.Fatalf("description changed: %q", e.Description())
	}
}

func TestAboutFields(t *testing.T) {
	e := NewAbout(model.AboutSection{ID: ids.NewAbout(&ids.Sequence{}), Name: "Notes"})
	e.FocusFirst()
	if d := e.EditName("Notes\n"); d != Stay || e.Focused() != focus.Body {
		t.Fatalf("name trailing newline should move to body: %s %q", d, e.Focused())
	}
	e.EditDescription("Family recipe")
	if d := e.EditDescription("Family recipe\n"); d != InsertBelow {
		t.Fatalf("body trailing newline should insert below, got %s", d)
	}
	e.EditName("")
	e.EditDescription("")
	if e.Blur() != DeleteMe {
		t.Fatal("empty about section should be pruned on blur")
	}
}
