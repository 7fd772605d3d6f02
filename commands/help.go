package commands

import (
	"fmt"
	"strings"

	"github.com/javanhut/raven-session/keybindings"
)

const commandHelp = `
Raven Session - Commands
========================

Tabs:
  new-tab [profile] [dir]     Open a tab
  dup-tab <tab-id>            Duplicate a tab's active pane into a new tab
  close-tab <tab-id>          Close a tab
  move-tab <from> <to>        Move a tab (1-based positions)
  rename-tab <id> [title...]  Set a tab title; no title restores the automatic one
  select-tab <position>       Activate a tab
  next-tab / prev-tab         Cycle tabs

Panes:
  split <h|v>                 Split the active pane
  close-pane                  Close the active pane
  select-pane <pane-id>       Focus a pane in the active tab
  next-pane / prev-pane       Cycle panes
  resize <dir> [delta]        Move the divider next to the active pane

Other:
  list                        List tabs
  tree [tab-id]               Show a tab's pane tree
  help                        Show this help
  quit                        Exit
`

// Help returns the command reference followed by the current key bindings.
func Help(keys *keybindings.Map) string {
	var sb strings.Builder
	sb.WriteString(commandHelp)
	if keys == nil {
		return sb.String()
	}
	sb.WriteString("\nKeybindings:\n")
	for _, b := range keys.Bindings() {
		fmt.Fprintf(&sb, "  %-18s %s\n", b.Chord, b.Action)
	}
	sb.WriteString("\n")
	return sb.String()
}
