package tab

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// PaneID identifies a pane within one tab. Ids start at 1 and are never
// reused, so a stale id resolves to nothing instead of to another pane.
type PaneID uint64

// HandleID identifies a terminal session across the whole process.
type HandleID uint64

// Direction says how a split arranges its children.
type Direction int

const (
	Horizontal Direction = iota // Children stacked top to bottom
	Vertical                    // Children arranged left to right
)

func (d Direction) String() string {
	switch d {
	case Horizontal:
		return "horizontal"
	case Vertical:
		return "vertical"
	default:
		return fmt.Sprintf("direction(%d)", int(d))
	}
}

// DefaultRatio is the share of a fresh split given to its left child.
const DefaultRatio = 0.5

// LaunchSpec is what a terminal session was started with: enough to open
// another one in the same place.
type LaunchSpec struct {
	Profile    string
	Shell      string
	Args       []string
	WorkingDir string
}

// Title returns the automatic tab title for a launch: the profile name when
// one was used, otherwise the shell program's name.
func (s LaunchSpec) Title() string {
	if s.Profile != "" {
		return s.Profile
	}
	if s.Shell == "" {
		return "shell"
	}
	base := filepath.Base(s.Shell)
	return strings.ToLower(strings.TrimSuffix(base, filepath.Ext(base)))
}

// Handle is a terminal session owned by the terminal collaborator. The tree
// only holds a reference; dropping a leaf never shuts the session down.
type Handle interface {
	HandleID() HandleID
	Launch() LaunchSpec
	WorkingDir() string
}

// Node is either a *Leaf or a *Split.
type Node interface {
	isNode()
}

// Leaf owns exactly one terminal handle.
type Leaf struct {
	ID     PaneID
	Handle Handle
}

// Split divides its area between two exclusively owned children.
type Split struct {
	Direction Direction
	Ratio     float64
	Left      Node
	Right     Node
}

func (*Leaf) isNode()  {}
func (*Split) isNode() {}

// CloseResult reports the outcome of ClosePane.
//
// Closed is false when the id is not in the subtree and nothing changed.
// When Closed is true, Replacement is what must take the closed subtree's
// place; a nil Replacement means the subtree was the target leaf itself and
// the caller has to promote its sibling (or, at the root, close the tab).
type CloseResult struct {
	Replacement Node
	Closed      bool
}

// ClosePane removes the leaf with the given id from the tree rooted at n.
// Only the path from n to the target is touched.
func ClosePane(n Node, id PaneID) CloseResult {
	switch n := n.(type) {
	case *Leaf:
		return CloseResult{Closed: n.ID == id}
	case *Split:
		if isLeaf(n.Left, id) {
			return CloseResult{Replacement: n.Right, Closed: true}
		}
		if isLeaf(n.Right, id) {
			return CloseResult{Replacement: n.Left, Closed: true}
		}

		if res := ClosePane(n.Left, id); res.Closed {
			if res.Replacement == nil {
				return CloseResult{Replacement: n.Right, Closed: true}
			}
			n.Left = res.Replacement
			return CloseResult{Replacement: n, Closed: true}
		}
		if res := ClosePane(n.Right, id); res.Closed {
			if res.Replacement == nil {
				return CloseResult{Replacement: n.Left, Closed: true}
			}
			n.Right = res.Replacement
			return CloseResult{Replacement: n, Closed: true}
		}
	}
	return CloseResult{}
}

func isLeaf(n Node, id PaneID) bool {
	leaf, ok := n.(*Leaf)
	return ok && leaf.ID == id
}

// splitLeaf replaces the leaf with id target by a split of that leaf and
// fresh, returning the (possibly new) subtree root.
func splitLeaf(n Node, target PaneID, dir Direction, fresh *Leaf) (Node, bool) {
	switch n := n.(type) {
	case *Leaf:
		if n.ID != target {
			return n, false
		}
		return &Split{Direction: dir, Ratio: DefaultRatio, Left: n, Right: fresh}, true
	case *Split:
		if left, ok := splitLeaf(n.Left, target, dir, fresh); ok {
			n.Left = left
			return n, true
		}
		if right, ok := splitLeaf(n.Right, target, dir, fresh); ok {
			n.Right = right
			return n, true
		}
	}
	return n, false
}

// FindLeaf returns the leaf with the given id, or nil.
func FindLeaf(n Node, id PaneID) *Leaf {
	return findLeaf(n, func(l *Leaf) bool { return l.ID == id })
}

// FindLeafByHandle returns the leaf holding the handle with the given id, or nil.
func FindLeafByHandle(n Node, h HandleID) *Leaf {
	return findLeaf(n, func(l *Leaf) bool { return l.Handle != nil && l.Handle.HandleID() == h })
}

func findLeaf(n Node, match func(*Leaf) bool) *Leaf {
	switch n := n.(type) {
	case *Leaf:
		if match(n) {
			return n
		}
	case *Split:
		if l := findLeaf(n.Left, match); l != nil {
			return l
		}
		return findLeaf(n.Right, match)
	}
	return nil
}

// CountLeaves returns the number of leaves under n.
func CountLeaves(n Node) int {
	switch n := n.(type) {
	case *Leaf:
		return 1
	case *Split:
		return CountLeaves(n.Left) + CountLeaves(n.Right)
	}
	return 0
}

// Leaves returns every leaf under n in pre-order, left to right.
func Leaves(n Node) []*Leaf {
	var leaves []*Leaf
	collectLeaves(n, &leaves)
	return leaves
}

func collectLeaves(n Node, leaves *[]*Leaf) {
	switch n := n.(type) {
	case *Leaf:
		*leaves = append(*leaves, n)
	case *Split:
		collectLeaves(n.Left, leaves)
		collectLeaves(n.Right, leaves)
	}
}

// Validate checks that the tree under n is well formed: every split has two
// children and a ratio strictly between 0 and 1, every leaf has a handle,
// and no pane id appears twice.
func Validate(n Node) error {
	if n == nil {
		return errors.New("tree has no root")
	}
	seen := make(map[PaneID]bool)
	var errs []error
	validateNode(n, "root", seen, &errs)
	return errors.Join(errs...)
}

func validateNode(n Node, path string, seen map[PaneID]bool, errs *[]error) {
	switch n := n.(type) {
	case *Leaf:
		if n == nil {
			*errs = append(*errs, fmt.Errorf("%s: nil leaf", path))
			return
		}
		if n.ID == 0 {
			*errs = append(*errs, fmt.Errorf("%s: leaf without id", path))
		}
		if seen[n.ID] {
			*errs = append(*errs, fmt.Errorf("%s: duplicate pane id %d", path, n.ID))
		}
		seen[n.ID] = true
		if n.Handle == nil {
			*errs = append(*errs, fmt.Errorf("%s: pane %d has no terminal handle", path, n.ID))
		}
	case *Split:
		if n == nil {
			*errs = append(*errs, fmt.Errorf("%s: nil split", path))
			return
		}
		if n.Ratio <= 0 || n.Ratio >= 1 {
			*errs = append(*errs, fmt.Errorf("%s: ratio %v outside (0,1)", path, n.Ratio))
		}
		if n.Left == nil {
			*errs = append(*errs, fmt.Errorf("%s: split missing left child", path))
		} else {
			validateNode(n.Left, path+".left", seen, errs)
		}
		if n.Right == nil {
			*errs = append(*errs, fmt.Errorf("%s: split missing right child", path))
		} else {
			validateNode(n.Right, path+".right", seen, errs)
		}
	default:
		*errs = append(*errs, fmt.Errorf("%s: unknown node %T", path, n))
	}
}
