package app

import (
	"context"
	"errors"
	"math"
	"sort"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/rs/zerolog"

	"tableflip.dev/cookbook/pkg/clock"
	"tableflip.dev/cookbook/pkg/events"
	"tableflip.dev/cookbook/pkg/folder"
	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
	"tableflip.dev/cookbook/pkg/store"
)

type fixture struct {
	lib   *Library
	store *store.Memory
	clock *clock.Fake
	bus   *events.Bus
	ids   *ids.Sequence
}

func newFixture(t *testing.T, src *ids.Sequence, folders []model.Folder, recipes []model.Recipe) *fixture {
	t.Helper()
	if src == nil {
		src = &ids.Sequence{}
	}
	f := &fixture{
		store: store.NewMemory(folders, recipes),
		clock: clock.NewFake(time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)),
		bus:   events.NewBus(256),
		ids:   src,
	}
	lib, err := New(Config{
		Store:  f.store,
		IDs:    src,
		Clock:  f.clock,
		Logger: zerolog.Nop(),
		Bus:    f.bus,
		Delay:  time.Second,
	})
	if err != nil {
		t.Fatal(err)
	}
	if err := lib.Load(context.Background()); err != nil {
		t.Fatalf("load: %v", err)
	}
	t.Cleanup(lib.Close)
	f.lib = lib
	return f
}

func TestCreateFolderNavigateAndRename(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, nil, nil)

	created, err := fx.lib.Root().CreateFolder()
	if err != nil {
		t.Fatal(err)
	}
	if created.Name != folder.NewFolderName {
		t.Fatalf("unexpected name %q", created.Name)
	}
	nav := fx.lib.Navigations()
	if len(nav) != 1 || nav[0].Kind != folder.KindFolder || nav[0].Folder != created.ID {
		t.Fatalf("expected navigation to the new folder, got %+v", nav)
	}

	child, err := fx.lib.OpenFolder(ctx, nav[0].Folder)
	if err != nil {
		t.Fatal(err)
	}
	if err := child.Rename("Desserts"); err != nil {
		t.Fatal(err)
	}
	fx.clock.Advance(time.Second)

	roots, err := fx.store.FetchRootFolders(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(roots) != 1 || roots[0].Name != "Desserts" {
		t.Fatalf("want one root folder named Desserts, got %+v", roots)
	}
	kids, err := fx.store.FetchFolders(ctx, roots[0].ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 0 {
		t.Fatalf("new folder should be empty, got %+v", kids)
	}
	if calls := fx.store.Calls(); len(calls) != 1 || calls[0].Op != store.OpCreateFolder {
		t.Fatalf("create and rename should coalesce into one create, got %+v", calls)
	}
	if got := fx.lib.Path(created.ID); got != "Desserts" {
		t.Fatalf("tree path: got %q", got)
	}

	var navigated bool
	for _, m := range fx.bus.Drain() {
		if n, ok := m.(events.NavigateMsg); ok && n.To.Name == folder.NewFolderName {
			navigated = true
		}
	}
	if !navigated {
		t.Fatal("expected a NavigateMsg for the new folder")
	}
}

func TestBatchDeleteRecipes(t *testing.T) {
	ctx := context.Background()
	src := &ids.Sequence{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	mains := model.Folder{ID: ids.NewFolder(src), Name: "Mains", Type: model.FolderUser, Created: at}
	var recipes []model.Recipe
	for i, name := range []string{"Stew", "Curry", "Pie", "Roast"} {
		recipes = append(recipes, model.Recipe{
			ID:       ids.NewRecipe(src),
			FolderID: mains.ID,
			Name:     name,
			Created:  at.Add(time.Duration(i) * time.Minute),
		})
	}
	fx := newFixture(t, src, []model.Folder{mains}, recipes)

	grid, err := fx.lib.OpenFolder(ctx, mains.ID)
	if err != nil {
		t.Fatal(err)
	}
	grid.EditRecipes()
	for _, r := range recipes[:3] {
		if err := grid.SelectRecipe(r.ID); err != nil {
			t.Fatal(err)
		}
	}

	if err := grid.RequestDelete(); err != nil {
		t.Fatal(err)
	}
	grid.CancelDelete()
	fx.clock.Advance(2 * time.Second)
	if n := len(grid.Recipes()); n != 4 {
		t.Fatalf("cancel must keep every recipe, got %d", n)
	}
	if calls := fx.store.Calls(); len(calls) != 0 {
		t.Fatalf("cancel must not reach the store, got %+v", calls)
	}

	if err := grid.RequestDelete(); err != nil {
		t.Fatal(err)
	}
	n, err := grid.ConfirmDelete()
	if err != nil {
		t.Fatal(err)
	}
	if n != 3 {
		t.Fatalf("want 3 removed, got %d", n)
	}
	fx.clock.Advance(time.Second)

	var deleted []string
	for _, c := range fx.store.CallsOf(store.OpDeleteRecipe) {
		deleted = append(deleted, c.ID)
	}
	want := []string{recipes[0].ID.String(), recipes[1].ID.String(), recipes[2].ID.String()}
	sort.Strings(deleted)
	sort.Strings(want)
	if diff := cmp.Diff(want, deleted); diff != "" {
		t.Fatalf("delete calls (-want +got):\n%s", diff)
	}
	if calls := fx.store.Calls(); len(calls) != 3 {
		t.Fatalf("want exactly three store calls, got %+v", calls)
	}
	left, err := fx.store.FetchRecipes(ctx, mains.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(left) != 1 || left[0].Name != "Roast" {
		t.Fatalf("unexpected survivors %+v", left)
	}
}

func TestScaledRecipePersistsCanonicalAmounts(t *testing.T) {
	ctx := context.Background()
	src := &ids.Sequence{}
	soup := model.Recipe{ID: ids.NewRecipe(src), Name: "Soup", Created: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	fx := newFixture(t, src, nil, []model.Recipe{soup})

	r, err := fx.lib.OpenRecipe(ctx, soup.ID)
	if err != nil {
		t.Fatal(err)
	}
	sid, err := r.AddIngredientSection("Produce")
	if err != nil {
		t.Fatal(err)
	}
	onion, err := r.InsertIngredient(sid, model.Ingredient{Name: "Onion", Amount: 2, Unit: "cups"})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.SetScale(2); err != nil {
		t.Fatal(err)
	}
	if shown, _, _ := r.DisplayedAmount(sid, onion); math.Abs(shown-4) > 1e-9 {
		t.Fatalf("displayed amount at scale 2: got %v", shown)
	}
	fx.clock.Advance(time.Second)

	stored := func() float64 {
		t.Helper()
		got, err := fx.store.FetchRecipe(ctx, soup.ID)
		if err != nil {
			t.Fatal(err)
		}
		if len(got.IngredientSections) != 1 || len(got.IngredientSections[0].Ingredients) != 1 {
			t.Fatalf("unexpected stored sections %+v", got.IngredientSections)
		}
		return got.IngredientSections[0].Ingredients[0].Amount
	}
	if got := stored(); got != 2 {
		t.Fatalf("stored amount at scale 2 must stay canonical, got %v", got)
	}

	if err := r.SetScale(1); err != nil {
		t.Fatal(err)
	}
	if shown, _, _ := r.DisplayedAmount(sid, onion); math.Abs(shown-2) > 1e-9 {
		t.Fatalf("displayed amount back at scale 1: got %v", shown)
	}
	fx.clock.Advance(time.Second)
	if got := stored(); got != 2 {
		t.Fatalf("stored amount: got %v", got)
	}
	if n := len(fx.store.CallsOf(store.OpUpdateRecipe)); n != 1 {
		t.Fatalf("changing scale alone must not write, got %d updates", n)
	}
}

func TestOpenFolderOpensAncestors(t *testing.T) {
	ctx := context.Background()
	src := &ids.Sequence{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	top := model.Folder{ID: ids.NewFolder(src), Name: "Baking", Type: model.FolderUser, Created: at}
	mid := model.Folder{ID: ids.NewFolder(src), ParentID: top.ID, Name: "Bread", Type: model.FolderUser, Created: at}
	fx := newFixture(t, src, []model.Folder{top, mid}, nil)

	child, err := fx.lib.OpenFolder(ctx, mid.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got := fx.lib.Path(mid.ID); got != "Baking/Bread" {
		t.Fatalf("path: got %q", got)
	}
	if err := child.Rename("Breads"); err != nil {
		t.Fatal(err)
	}
	if err := fx.lib.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	kids, err := fx.store.FetchFolders(ctx, top.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(kids) != 1 || kids[0].Name != "Breads" {
		t.Fatalf("rename should reach the store through the parent grid, got %+v", kids)
	}
	if nodes := fx.lib.Tree(); len(nodes) != 1 || len(nodes[0].Children) != 1 {
		t.Fatalf("unexpected tree %+v", nodes)
	}
}

func TestResolveByPathAndName(t *testing.T) {
	ctx := context.Background()
	src := &ids.Sequence{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	top := model.Folder{ID: ids.NewFolder(src), Name: "Baking", Type: model.FolderUser, Created: at}
	mid := model.Folder{ID: ids.NewFolder(src), ParentID: top.ID, Name: "Bread", Type: model.FolderUser, Created: at}
	rye := model.Recipe{ID: ids.NewRecipe(src), FolderID: mid.ID, Name: "Rye", Created: at}
	fx := newFixture(t, src, []model.Folder{top, mid}, []model.Recipe{rye})

	got, err := fx.lib.ResolveFolder("baking/BREAD")
	if err != nil || got != mid.ID {
		t.Fatalf("resolve path: %v %v", got, err)
	}
	if got, err := fx.lib.ResolveFolder(mid.ID.String()); err != nil || got != mid.ID {
		t.Fatalf("resolve id: %v %v", got, err)
	}
	if root, err := fx.lib.ResolveFolder("/"); err != nil || !root.IsZero() {
		t.Fatalf("resolve root: %v %v", root, err)
	}
	if _, err := fx.lib.ResolveFolder("Baking/Cakes"); !errors.Is(err, folder.ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
	rid, err := fx.lib.ResolveRecipe(ctx, mid.ID, "rye")
	if err != nil || rid != rye.ID {
		t.Fatalf("resolve recipe: %v %v", rid, err)
	}
}

func TestDeletedFolderStaysDeleted(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t, nil, nil, nil)
	root := fx.lib.Root()

	created, err := root.CreateFolder()
	if err != nil {
		t.Fatal(err)
	}
	child, err := fx.lib.OpenFolder(ctx, created.ID)
	if err != nil {
		t.Fatal(err)
	}
	m, err := child.CreateRecipe()
	if err != nil {
		t.Fatal(err)
	}
	cake, err := fx.lib.OpenRecipe(ctx, m.ID)
	if err != nil {
		t.Fatal(err)
	}
	cake.EditName("Cake")
	if err := fx.lib.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	if got, err := fx.store.FetchRecipe(ctx, m.ID); err != nil || got.Name != "Cake" {
		t.Fatalf("cake should be stored before the delete: %+v %v", got, err)
	}
	fx.store.Reset()

	// Pending edits inside the folder when it goes.
	cake.EditName("Cake 2")
	root.EditFolders()
	if err := root.SelectFolder(created.ID); err != nil {
		t.Fatal(err)
	}
	if err := root.RequestDelete(); err != nil {
		t.Fatal(err)
	}
	if _, err := root.ConfirmDelete(); err != nil {
		t.Fatal(err)
	}
	if fx.lib.engine.Tracking(created.ID) {
		t.Fatal("deleted folder should no longer be tracked")
	}
	if err := fx.lib.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	// Stale handles must not bring anything back.
	cake.EditName("Cake 3")
	if err := child.Rename("Ghost"); err != nil {
		t.Fatal(err)
	}
	fx.clock.Advance(2 * time.Second)
	if err := fx.lib.Flush(ctx); err != nil {
		t.Fatal(err)
	}

	if left, err := fx.store.FetchRecipes(ctx, created.ID); err != nil || len(left) != 0 {
		t.Fatalf("deleted folder still has recipes %+v %v", left, err)
	}
	if roots, err := fx.store.FetchRootFolders(ctx); err != nil || len(roots) != 0 {
		t.Fatalf("deleted folder came back %+v %v", roots, err)
	}
	var ops []store.Op
	for _, c := range fx.store.Calls() {
		ops = append(ops, c.Op)
	}
	if diff := cmp.Diff([]store.Op{store.OpDeleteFolder}, ops); diff != "" {
		t.Fatalf("store calls after the delete (-want +got):\n%s", diff)
	}
}

func TestMoveFolder(t *testing.T) {
	ctx := context.Background()
	src := &ids.Sequence{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	baking := model.Folder{ID: ids.NewFolder(src), Name: "Baking", Type: model.FolderUser, Created: at}
	dinner := model.Folder{ID: ids.NewFolder(src), Name: "Dinner", Type: model.FolderUser, Created: at.Add(time.Minute)}
	pies := model.Folder{ID: ids.NewFolder(src), ParentID: baking.ID, Name: "Pies", Type: model.FolderUser, Created: at}
	pork := model.Recipe{ID: ids.NewRecipe(src), FolderID: pies.ID, Name: "Pork Pie", Created: at}
	fx := newFixture(t, src, []model.Folder{baking, dinner, pies}, []model.Recipe{pork})

	if _, err := fx.lib.OpenFolder(ctx, pies.ID); err != nil {
		t.Fatal(err)
	}
	moved, err := fx.lib.MoveFolder(ctx, pies.ID, dinner.ID)
	if err != nil {
		t.Fatal(err)
	}
	if moved.ParentID != dinner.ID {
		t.Fatalf("moved record should point at Dinner, got %s", moved.ParentID)
	}
	if calls := fx.store.Calls(); len(calls) != 1 || calls[0].Op != store.OpUpdateFolder {
		t.Fatalf("a move is one folder update, got %+v", calls)
	}
	if got := fx.lib.Path(pies.ID); got != "Dinner/Pies" {
		t.Fatalf("path: got %q", got)
	}
	kids, err := fx.store.FetchFolders(ctx, dinner.ID)
	if err != nil || len(kids) != 1 || kids[0].ID != pies.ID {
		t.Fatalf("store children of Dinner: %+v %v", kids, err)
	}
	if left, _ := fx.store.FetchRecipes(ctx, pies.ID); len(left) != 1 {
		t.Fatalf("recipes travel with their folder, got %+v", left)
	}

	// The reopened aggregate persists through its new parent.
	grid, err := fx.lib.OpenFolder(ctx, pies.ID)
	if err != nil {
		t.Fatal(err)
	}
	if err := grid.Rename("Savoury Pies"); err != nil {
		t.Fatal(err)
	}
	if err := fx.lib.Flush(ctx); err != nil {
		t.Fatal(err)
	}
	kids, _ = fx.store.FetchFolders(ctx, dinner.ID)
	if len(kids) != 1 || kids[0].Name != "Savoury Pies" || kids[0].ParentID != dinner.ID {
		t.Fatalf("rename after move: %+v", kids)
	}
}

func TestMoveFolderRejectsCyclesAndTheRoot(t *testing.T) {
	ctx := context.Background()
	src := &ids.Sequence{}
	at := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	top := model.Folder{ID: ids.NewFolder(src), Name: "Baking", Type: model.FolderUser, Created: at}
	mid := model.Folder{ID: ids.NewFolder(src), ParentID: top.ID, Name: "Bread", Type: model.FolderUser, Created: at}
	fx := newFixture(t, src, []model.Folder{top, mid}, nil)

	if _, err := fx.lib.MoveFolder(ctx, top.ID, mid.ID); !errors.Is(err, folder.ErrCycle) {
		t.Fatalf("want ErrCycle, got %v", err)
	}
	if _, err := fx.lib.MoveFolder(ctx, ids.FolderID{}, mid.ID); !errors.Is(err, folder.ErrSystemFolder) {
		t.Fatalf("want ErrSystemFolder, got %v", err)
	}
	if calls := fx.store.Calls(); len(calls) != 0 {
		t.Fatalf("rejected moves must not write, got %+v", calls)
	}
	if got := fx.lib.Path(mid.ID); got != "Baking/Bread" {
		t.Fatalf("tree changed after a rejected move: %q", got)
	}
}
