package render

import (
	"fmt"
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/javanhut/raven-session/tab"
)

// Tree renders an indented outline of a pane tree. The active pane is
// marked with "*".
func Tree(root tab.Node, active tab.PaneID) string {
	var sb strings.Builder
	writeNode(&sb, root, active, "", "")
	return sb.String()
}

func writeNode(sb *strings.Builder, n tab.Node, active tab.PaneID, prefix, childPrefix string) {
	switch n := n.(type) {
	case *tab.Leaf:
		sb.WriteString(prefix)
		sb.WriteString(leafLabel(n, active))
		sb.WriteByte('\n')
	case *tab.Split:
		fmt.Fprintf(sb, "%s%s %.2f\n", prefix, n.Direction, n.Ratio)
		writeNode(sb, n.Left, active, childPrefix+"├─ ", childPrefix+"│  ")
		writeNode(sb, n.Right, active, childPrefix+"└─ ", childPrefix+"   ")
	default:
		sb.WriteString(prefix)
		sb.WriteString("(empty)\n")
	}
}

func leafLabel(l *tab.Leaf, active tab.PaneID) string {
	marker := " "
	if l.ID == active {
		marker = "*"
	}
	label := fmt.Sprintf("%s pane %d", marker, l.ID)
	if l.Handle == nil {
		return label
	}
	title := l.Handle.Launch().Title()
	label += "  " + runewidth.FillRight(Truncate(title, DefaultMaxTitleWidth), 12)
	if dir := l.Handle.WorkingDir(); dir != "" {
		label += " " + dir
	}
	return strings.TrimRight(label, " ")
}

// Layouts renders the fractional rectangle of every pane, one per line.
func Layouts(layouts []tab.PaneLayout) string {
	var sb strings.Builder
	for _, l := range layouts {
		fmt.Fprintf(&sb, "pane %d: x=%.2f y=%.2f w=%.2f h=%.2f\n", l.PaneID, l.X, l.Y, l.Width, l.Height)
	}
	return sb.String()
}
