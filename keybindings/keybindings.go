// Package keybindings maps key chords such as "ctrl+shift+t" to named
// session actions.
package keybindings

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/javanhut/raven-session/tab"
)

// Action names. They are what config files bind chords to.
const (
	ActionNone            = "none"
	ActionExit            = "exit"
	ActionNewTab          = "new_tab"
	ActionDuplicateTab    = "duplicate_tab"
	ActionCloseTab        = "close_tab"
	ActionNextTab         = "next_tab"
	ActionPrevTab         = "prev_tab"
	ActionMoveTabLeft     = "move_tab_left"
	ActionMoveTabRight    = "move_tab_right"
	ActionSplitVertical   = "split_vertical"
	ActionSplitHorizontal = "split_horizontal"
	ActionClosePane       = "close_pane"
	ActionNextPane        = "next_pane"
	ActionPrevPane        = "prev_pane"
	ActionResizeLeft      = "resize_left"
	ActionResizeRight     = "resize_right"
	ActionResizeUp        = "resize_up"
	ActionResizeDown      = "resize_down"

	// selectTabPrefix is followed by a 1-based position, e.g. "select_tab_3".
	selectTabPrefix = "select_tab_"
)

// ResizeStep is the ratio change applied by one resize key press.
const ResizeStep = 0.05

var simpleActions = []string{
	ActionExit, ActionNewTab, ActionDuplicateTab, ActionCloseTab, ActionNextTab, ActionPrevTab,
	ActionMoveTabLeft, ActionMoveTabRight, ActionSplitVertical, ActionSplitHorizontal,
	ActionClosePane, ActionNextPane, ActionPrevPane,
	ActionResizeLeft, ActionResizeRight, ActionResizeUp, ActionResizeDown,
}

// ValidAction reports whether name is a known action.
func ValidAction(name string) bool {
	if slices.Contains(simpleActions, name) {
		return true
	}
	_, ok := selectTabPosition(name)
	return ok
}

func selectTabPosition(name string) (int, bool) {
	rest, ok := strings.CutPrefix(name, selectTabPrefix)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(rest)
	if err != nil || n < 1 {
		return 0, false
	}
	return n - 1, true
}

// Binding is one chord and the action it triggers.
type Binding struct {
	Chord  string
	Action string
}

// Map resolves chords to action names.
type Map struct {
	bindings map[string]string
}

// DefaultBindings returns the built-in chords.
func DefaultBindings() *Map {
	m := &Map{bindings: map[string]string{
		"ctrl+q":          ActionExit,
		"ctrl+shift+t":    ActionNewTab,
		"ctrl+shift+d":    ActionDuplicateTab,
		"ctrl+shift+x":    ActionCloseTab,
		"ctrl+tab":        ActionNextTab,
		"ctrl+shift+tab":  ActionPrevTab,
		"ctrl+shift+pgup": ActionMoveTabLeft,
		"ctrl+shift+pgdn": ActionMoveTabRight,
		"ctrl+shift+v":    ActionSplitVertical,
		"ctrl+shift+h":    ActionSplitHorizontal,
		"ctrl+shift+w":    ActionClosePane,
		"ctrl+shift+]":    ActionNextPane,
		"ctrl+shift+[":    ActionPrevPane,
		"ctrl+alt+left":   ActionResizeLeft,
		"ctrl+alt+right":  ActionResizeRight,
		"ctrl+alt+up":     ActionResizeUp,
		"ctrl+alt+down":   ActionResizeDown,
	}}
	for i := 1; i <= 9; i++ {
		m.bindings[fmt.Sprintf("alt+%d", i)] = fmt.Sprintf("%s%d", selectTabPrefix, i)
	}
	return m
}

// Resolve returns the action bound to chord.
func (m *Map) Resolve(chord string) (string, bool) {
	normalized, err := NormalizeChord(chord)
	if err != nil {
		return "", false
	}
	action, ok := m.bindings[normalized]
	return action, ok
}

// Merge applies overrides on top of the map. Binding a chord to "none" or
// to an empty action removes it. Every override is checked; nothing is
// applied when any of them is invalid.
func (m *Map) Merge(overrides map[string]string) error {
	var errs []error
	normalized := make(map[string]string, len(overrides))
	for chord, action := range overrides {
		key, err := NormalizeChord(chord)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		action = strings.TrimSpace(strings.ToLower(action))
		if action != "" && action != ActionNone && !ValidAction(action) {
			errs = append(errs, fmt.Errorf("chord %q: unknown action %q", chord, action))
			continue
		}
		normalized[key] = action
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}
	for chord, action := range normalized {
		if action == "" || action == ActionNone {
			delete(m.bindings, chord)
			continue
		}
		m.bindings[chord] = action
	}
	return nil
}

// Bindings returns every binding sorted by action, then chord.
func (m *Map) Bindings() []Binding {
	out := make([]Binding, 0, len(m.bindings))
	for chord, action := range m.bindings {
		out = append(out, Binding{Chord: chord, Action: action})
	}
	slices.SortFunc(out, func(a, b Binding) int {
		if c := strings.Compare(a.Action, b.Action); c != 0 {
			return c
		}
		return strings.Compare(a.Chord, b.Chord)
	})
	return out
}

var modifierOrder = []string{"ctrl", "alt", "shift", "super"}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"alt":     "alt",
	"meta":    "alt",
	"option":  "alt",
	"shift":   "shift",
	"super":   "super",
	"cmd":     "super",
	"win":     "super",
}

var keyAliases = map[string]string{
	"pageup":   "pgup",
	"pagedown": "pgdn",
	"return":   "enter",
	"esc":      "escape",
}

// NormalizeChord lower-cases a chord and orders its modifiers as
// ctrl+alt+shift+super, so "Shift+Ctrl+T" and "ctrl+shift+t" compare equal.
func NormalizeChord(chord string) (string, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(chord)), "+")
	// A trailing "+" means the key itself is '+'.
	if len(parts) >= 2 && parts[len(parts)-1] == "" && parts[len(parts)-2] == "" {
		parts = append(parts[:len(parts)-2], "+")
	}

	mods := make(map[string]bool)
	key := ""
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if mod, ok := modifierAliases[p]; ok {
			mods[mod] = true
			continue
		}
		if p == "" {
			return "", fmt.Errorf("chord %q: empty key", chord)
		}
		if key != "" {
			return "", fmt.Errorf("chord %q: more than one key", chord)
		}
		if alias, ok := keyAliases[p]; ok {
			p = alias
		}
		key = p
	}
	if key == "" {
		return "", fmt.Errorf("chord %q: no key", chord)
	}

	out := make([]string, 0, len(mods)+1)
	for _, mod := range modifierOrder {
		if mods[mod] {
			out = append(out, mod)
		}
	}
	return strings.Join(append(out, key), "+"), nil
}

// SessionAction turns an action name into a layout action. activeTab and
// activePos describe the current selection, for actions that target it.
// Returns false for actions that are not layout changes, such as exit.
func SessionAction(name string, activeTab tab.TabID, activePos int) (tab.Action, bool) {
	if pos, ok := selectTabPosition(name); ok {
		return tab.SelectTab{Position: pos}, true
	}
	switch name {
	case ActionNewTab:
		return tab.NewTab{}, true
	case ActionDuplicateTab:
		return tab.DuplicateTab{TabID: activeTab}, true
	case ActionCloseTab:
		return tab.CloseTab{TabID: activeTab}, true
	case ActionNextTab:
		return tab.NextTab{}, true
	case ActionPrevTab:
		return tab.PrevTab{}, true
	case ActionMoveTabLeft:
		return tab.MoveTab{From: activePos, To: activePos - 1}, true
	case ActionMoveTabRight:
		return tab.MoveTab{From: activePos, To: activePos + 1}, true
	case ActionSplitVertical:
		return tab.SplitActivePane{Direction: tab.Vertical}, true
	case ActionSplitHorizontal:
		return tab.SplitActivePane{Direction: tab.Horizontal}, true
	case ActionClosePane:
		return tab.CloseActivePane{}, true
	case ActionNextPane:
		return tab.NextPane{}, true
	case ActionPrevPane:
		return tab.PrevPane{}, true
	case ActionResizeLeft:
		return tab.ResizePane{Direction: tab.ResizeLeft, Delta: ResizeStep}, true
	case ActionResizeRight:
		return tab.ResizePane{Direction: tab.ResizeRight, Delta: ResizeStep}, true
	case ActionResizeUp:
		return tab.ResizePane{Direction: tab.ResizeUp, Delta: ResizeStep}, true
	case ActionResizeDown:
		return tab.ResizePane{Direction: tab.ResizeDown, Delta: ResizeStep}, true
	}
	return nil, false
}
