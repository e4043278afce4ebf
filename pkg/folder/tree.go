package folder

import (
	"fmt"
	"slices"
	"sort"
	"strings"

	"tableflip.dev/cookbook/pkg/ids"
	"tableflip.dev/cookbook/pkg/model"
)

// Tree is the arena of every folder record, keyed by id. Each record keeps
// the ids of its children; parent links are plain id lookups. The zero id is
// the library root and is never stored.
type Tree struct {
	nodes map[ids.FolderID]*record
	roots []ids.FolderID
}

type record struct {
	folder   model.Folder
	children []ids.FolderID
}

// Node is one folder of a built tree.
type Node struct {
	Folder   model.Folder
	Depth    int
	Children []*Node
}

// NewTree builds a tree from flat records in any order. A record whose parent
// is unknown is attached to the root.
func NewTree(folders ...model.Folder) (*Tree, error) {
	t := &Tree{nodes: make(map[ids.FolderID]*record, len(folders))}
	for _, f := range folders {
		if f.ID.IsZero() {
			return nil, fmt.Errorf("folder: record %q has no id", f.Name)
		}
		if _, ok := t.nodes[f.ID]; ok {
			return nil, fmt.Errorf("%w: %s", ErrDuplicate, f.ID)
		}
		t.nodes[f.ID] = &record{folder: f}
	}
	ordered := make([]model.Folder, 0, len(folders))
	for _, r := range t.nodes {
		ordered = append(ordered, r.folder)
	}
	sortFolders(ordered)
	for _, f := range ordered {
		parent, ok := t.nodes[f.ParentID]
		if f.ParentID.IsZero() || !ok {
			t.nodes[f.ID].folder.ParentID = ids.FolderID{}
			t.roots = append(t.roots, f.ID)
			continue
		}
		parent.children = append(parent.children, f.ID)
	}
	if err := t.checkAcyclic(); err != nil {
		return nil, err
	}
	return t, nil
}

// Len returns the number of folders.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// Get returns the record for id.
func (t *Tree) Get(id ids.FolderID) (model.Folder, bool) {
	r, ok := t.nodes[id]
	if !ok {
		return model.Folder{}, false
	}
	return r.folder, true
}

// Add inserts f under f.ParentID, which must be the root or a known folder.
func (t *Tree) Add(f model.Folder) error {
	if f.ID.IsZero() {
		return fmt.Errorf("folder: record %q has no id", f.Name)
	}
	if _, ok := t.nodes[f.ID]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicate, f.ID)
	}
	if !f.ParentID.IsZero() {
		parent, ok := t.nodes[f.ParentID]
		if !ok {
			return fmt.Errorf("%w: parent %s", ErrNotFound, f.ParentID)
		}
		parent.children = append(parent.children, f.ID)
	} else {
		t.roots = append(t.roots, f.ID)
	}
	t.nodes[f.ID] = &record{folder: f}
	return nil
}

// Update replaces the record for f.ID. The parent link cannot change here;
// use Move.
func (t *Tree) Update(f model.Folder) error {
	r, ok := t.nodes[f.ID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, f.ID)
	}
	f.ParentID = r.folder.ParentID
	r.folder = f
	return nil
}

// Remove deletes id and everything under it. It returns the removed ids,
// deepest first.
func (t *Tree) Remove(id ids.FolderID) []ids.FolderID {
	r, ok := t.nodes[id]
	if !ok {
		return nil
	}
	var removed []ids.FolderID
	for _, child := range slices.Clone(r.children) {
		removed = append(removed, t.Remove(child)...)
	}
	t.detach(id)
	delete(t.nodes, id)
	return append(removed, id)
}

// Move re-parents id under parent. Moving a folder into itself or one of its
// descendants fails with ErrCycle.
func (t *Tree) Move(id, parent ids.FolderID) error {
	r, ok := t.nodes[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if !parent.IsZero() {
		if _, ok := t.nodes[parent]; !ok {
			return fmt.Errorf("%w: parent %s", ErrNotFound, parent)
		}
		for p := parent; !p.IsZero(); {
			if p == id {
				return fmt.Errorf("%w: %s under %s", ErrCycle, id, parent)
			}
			pr, ok := t.nodes[p]
			if !ok {
				break
			}
			p = pr.folder.ParentID
		}
	}
	t.detach(id)
	r.folder.ParentID = parent
	if parent.IsZero() {
		t.roots = append(t.roots, id)
	} else {
		t.nodes[parent].children = append(t.nodes[parent].children, id)
	}
	return nil
}

// Children returns the direct children of id; the zero id lists the roots.
func (t *Tree) Children(id ids.FolderID) []model.Folder {
	var list []ids.FolderID
	if id.IsZero() {
		list = t.roots
	} else if r, ok := t.nodes[id]; ok {
		list = r.children
	}
	out := make([]model.Folder, 0, len(list))
	for _, c := range list {
		out = append(out, t.nodes[c].folder)
	}
	return out
}

// Parent returns the parent record of id. Folders at the root have none.
func (t *Tree) Parent(id ids.FolderID) (model.Folder, bool) {
	r, ok := t.nodes[id]
	if !ok || r.folder.ParentID.IsZero() {
		return model.Folder{}, false
	}
	return t.Get(r.folder.ParentID)
}

// Path returns the folders from the root down to id, inclusive.
func (t *Tree) Path(id ids.FolderID) []model.Folder {
	var path []model.Folder
	for p := id; !p.IsZero(); {
		r, ok := t.nodes[p]
		if !ok {
			break
		}
		path = append(path, r.folder)
		p = r.folder.ParentID
	}
	slices.Reverse(path)
	return path
}

// PathString joins the names along Path with "/".
func (t *Tree) PathString(id ids.FolderID) string {
	var names []string
	for _, f := range t.Path(id) {
		names = append(names, f.Name)
	}
	return strings.Join(names, "/")
}

// Build reconstructs nested nodes from the arena.
func (t *Tree) Build() []*Node {
	return t.build(t.roots, 0)
}

func (t *Tree) build(list []ids.FolderID, depth int) []*Node {
	if len(list) == 0 {
		return nil
	}
	out := make([]*Node, 0, len(list))
	for _, id := range list {
		r := t.nodes[id]
		out = append(out, &Node{
			Folder:   r.folder,
			Depth:    depth,
			Children: t.build(r.children, depth+1),
		})
	}
	return out
}

// Sync replaces the children of parent with folders, keeping the records of
// grandchildren that are still present. It returns the ids of every folder
// that left the tree, nested ones included.
func (t *Tree) Sync(parent ids.FolderID, folders []model.Folder) ([]ids.FolderID, error) {
	keep := make(map[ids.FolderID]bool, len(folders))
	for _, f := range folders {
		keep[f.ID] = true
	}
	var removed []ids.FolderID
	for _, c := range t.Children(parent) {
		if !keep[c.ID] {
			removed = append(removed, t.Remove(c.ID)...)
		}
	}
	for _, f := range folders {
		f.ParentID = parent
		if _, ok := t.nodes[f.ID]; ok {
			if err := t.Update(f); err != nil {
				return removed, err
			}
			continue
		}
		if err := t.Add(f); err != nil {
			return removed, err
		}
	}
	return removed, nil
}

func (t *Tree) detach(id ids.FolderID) {
	r := t.nodes[id]
	drop := func(list []ids.FolderID) []ids.FolderID {
		return slices.DeleteFunc(list, func(c ids.FolderID) bool { return c == id })
	}
	if r.folder.ParentID.IsZero() {
		t.roots = drop(t.roots)
		return
	}
	if p, ok := t.nodes[r.folder.ParentID]; ok {
		p.children = drop(p.children)
	}
}

func (t *Tree) checkAcyclic() error {
	seen := make(map[ids.FolderID]bool, len(t.nodes))
	var walk func(list []ids.FolderID)
	walk = func(list []ids.FolderID) {
		for _, id := range list {
			seen[id] = true
			walk(t.nodes[id].children)
		}
	}
	walk(t.roots)
	if len(seen) != len(t.nodes) {
		return fmt.Errorf("%w: %d folders unreachable from the root", ErrCycle, len(t.nodes)-len(seen))
	}
	return nil
}

func sortFolders(folders []model.Folder) {
	sort.SliceStable(folders, func(i, j int) bool {
		if !folders[i].Created.Equal(folders[j].Created) {
			return folders[i].Created.Before(folders[j].Created)
		}
		return folders[i].Name < folders[j].Name
	})
}
