package tab

import "fmt"

// Tree is the split layout of one tab. It always holds at least one leaf,
// and its active id always resolves to a leaf of the current tree.
type Tree struct {
	root   Node
	active PaneID
	nextID PaneID
}

// NewTree creates a tree with a single leaf wrapping h.
func NewTree(h Handle) *Tree {
	return &Tree{
		root:   &Leaf{ID: 1, Handle: h},
		active: 1,
		nextID: 2,
	}
}

// Root returns the root node. Callers must not mutate it.
func (t *Tree) Root() Node {
	return t.root
}

// Active returns the id of the focused pane.
func (t *Tree) Active() PaneID {
	return t.active
}

// ActiveLeaf returns the focused leaf.
func (t *Tree) ActiveLeaf() *Leaf {
	return FindLeaf(t.root, t.active)
}

// Find returns the leaf with the given id, or nil.
func (t *Tree) Find(id PaneID) *Leaf {
	return FindLeaf(t.root, id)
}

// FindByHandle returns the leaf holding handle h, or nil.
func (t *Tree) FindByHandle(h HandleID) *Leaf {
	return FindLeafByHandle(t.root, h)
}

// CountLeaves returns the number of panes.
func (t *Tree) CountLeaves() int {
	return CountLeaves(t.root)
}

// Leaves returns all panes in pre-order.
func (t *Tree) Leaves() []*Leaf {
	return Leaves(t.root)
}

// Split splits pane id in the given direction, putting a new leaf for h on
// the right/bottom. The new leaf becomes active. Returns false without
// consuming an id when pane id does not exist.
func (t *Tree) Split(id PaneID, dir Direction, h Handle) (PaneID, bool) {
	fresh := &Leaf{ID: t.nextID, Handle: h}
	root, ok := splitLeaf(t.root, id, dir, fresh)
	if !ok {
		return 0, false
	}
	t.root = root
	t.active = fresh.ID
	t.nextID++
	return fresh.ID, true
}

// SplitActive splits the active pane.
func (t *Tree) SplitActive(dir Direction, h Handle) (PaneID, bool) {
	return t.Split(t.active, dir, h)
}

// Close removes pane id. The last pane of a tree is never closed here; the
// owning tab has to be closed instead. Returns whether a pane was removed.
func (t *Tree) Close(id PaneID) bool {
	removed, _ := t.close(id)
	return removed
}

// CloseActive closes the focused pane.
func (t *Tree) CloseActive() bool {
	return t.Close(t.active)
}

// CloseByHandle closes the pane holding handle h.
func (t *Tree) CloseByHandle(h HandleID) bool {
	leaf := t.FindByHandle(h)
	if leaf == nil {
		return false
	}
	return t.Close(leaf.ID)
}

// close performs the surgery and reports whether the active pointer had to
// be repaired afterwards.
func (t *Tree) close(id PaneID) (removed, repaired bool) {
	if t.CountLeaves() <= 1 {
		return false, false
	}
	res := ClosePane(t.root, id)
	if !res.Closed {
		return false, false
	}
	if res.Replacement != nil {
		t.root = res.Replacement
	}
	return true, t.repairActive()
}

// repairActive points the active id at the first leaf when it no longer
// resolves.
func (t *Tree) repairActive() bool {
	if t.Find(t.active) != nil {
		return false
	}
	if leaves := t.Leaves(); len(leaves) > 0 {
		t.active = leaves[0].ID
	}
	return true
}

// Focus makes pane id active. Unknown ids are ignored.
func (t *Tree) Focus(id PaneID) bool {
	if t.Find(id) == nil {
		return false
	}
	t.active = id
	return true
}

// FocusNext moves focus to the next pane in pre-order, wrapping around.
func (t *Tree) FocusNext() bool {
	return t.focusOffset(1)
}

// FocusPrev moves focus to the previous pane in pre-order, wrapping around.
func (t *Tree) FocusPrev() bool {
	return t.focusOffset(-1)
}

func (t *Tree) focusOffset(delta int) bool {
	leaves := t.Leaves()
	if len(leaves) <= 1 {
		return false
	}
	current := 0
	for i, leaf := range leaves {
		if leaf.ID == t.active {
			current = i
			break
		}
	}
	next := (current + delta + len(leaves)) % len(leaves)
	t.active = leaves[next].ID
	return true
}

// Validate checks the tree shape and that the active id resolves.
func (t *Tree) Validate() error {
	if err := Validate(t.root); err != nil {
		return err
	}
	if t.Find(t.active) == nil {
		return fmt.Errorf("active pane %d not in tree", t.active)
	}
	for _, leaf := range t.Leaves() {
		if leaf.ID >= t.nextID {
			return fmt.Errorf("pane %d not below allocator %d", leaf.ID, t.nextID)
		}
	}
	return nil
}
