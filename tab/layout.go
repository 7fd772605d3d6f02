package tab

// ResizeDirection indicates which way the divider next to the active pane moves.
type ResizeDirection int

const (
	ResizeLeft ResizeDirection = iota
	ResizeRight
	ResizeUp
	ResizeDown
)

func (d ResizeDirection) String() string {
	switch d {
	case ResizeLeft:
		return "left"
	case ResizeRight:
		return "right"
	case ResizeUp:
		return "up"
	case ResizeDown:
		return "down"
	default:
		return "unknown"
	}
}

const (
	minSplitRatio = 0.1
	maxSplitRatio = 0.9
)

// PaneLayout contains layout information for rendering a pane
type PaneLayout struct {
	PaneID PaneID
	Handle Handle
	X      float64 // Offset X (0.0 to 1.0)
	Y      float64 // Offset Y (0.0 to 1.0)
	Width  float64 // Width (0.0 to 1.0)
	Height float64 // Height (0.0 to 1.0)
}

// Layouts returns the fractional rectangle of every pane, in pre-order.
func (t *Tree) Layouts() []PaneLayout {
	var layouts []PaneLayout
	collectLayouts(t.root, 0, 0, 1, 1, &layouts)
	return layouts
}

func collectLayouts(n Node, x, y, width, height float64, layouts *[]PaneLayout) {
	switch n := n.(type) {
	case *Leaf:
		*layouts = append(*layouts, PaneLayout{
			PaneID: n.ID,
			Handle: n.Handle,
			X:      x,
			Y:      y,
			Width:  width,
			Height: height,
		})
	case *Split:
		ratio := n.Ratio
		if ratio <= 0 || ratio >= 1 {
			ratio = DefaultRatio
		}
		switch n.Direction {
		case Vertical:
			first := width * ratio
			collectLayouts(n.Left, x, y, first, height, layouts)
			collectLayouts(n.Right, x+first, y, width-first, height, layouts)
		case Horizontal:
			first := height * ratio
			collectLayouts(n.Left, x, y, width, first, layouts)
			collectLayouts(n.Right, x, y+first, width, height-first, layouts)
		}
	}
}

// Resize moves the divider of the closest ancestor split of the active pane
// whose axis matches direction. The ratio stays within [0.1, 0.9]. Returns
// false when no such split exists or the ratio is already at its bound.
func (t *Tree) Resize(direction ResizeDirection, delta float64) bool {
	if delta < 0 {
		delta = -delta
	}

	var axis Direction
	ratioDelta := delta
	switch direction {
	case ResizeLeft:
		axis, ratioDelta = Vertical, -delta
	case ResizeRight:
		axis = Vertical
	case ResizeUp:
		axis, ratioDelta = Horizontal, -delta
	case ResizeDown:
		axis = Horizontal
	default:
		return false
	}

	path := pathTo(t.root, t.active)
	for i := len(path) - 1; i >= 0; i-- {
		parent := path[i]
		if parent.Direction != axis {
			continue
		}
		ratio := parent.Ratio
		if ratio <= 0 || ratio >= 1 {
			ratio = DefaultRatio
		}
		ratio += ratioDelta
		if ratio < minSplitRatio {
			ratio = minSplitRatio
		}
		if ratio > maxSplitRatio {
			ratio = maxSplitRatio
		}
		if ratio == parent.Ratio {
			return false
		}
		parent.Ratio = ratio
		return true
	}
	return false
}

// pathTo returns the splits from n down to the leaf with id, outermost first.
func pathTo(n Node, id PaneID) []*Split {
	switch n := n.(type) {
	case *Leaf:
		if n.ID == id {
			return []*Split{}
		}
	case *Split:
		if p := pathTo(n.Left, id); p != nil {
			return append([]*Split{n}, p...)
		}
		if p := pathTo(n.Right, id); p != nil {
			return append([]*Split{n}, p...)
		}
	}
	return nil
}
