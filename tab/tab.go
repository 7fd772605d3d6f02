// Package tab holds the session layout of the terminal: tabs, the split tree
// of panes inside each tab, and the active tab and pane.
//
// Nothing in this package locks. A Session is owned by a single goroutine,
// normally through a Loop, and every notification coming from terminal
// sessions is resolved again by handle when it is applied.
package tab

import "strings"

// TabID identifies a tab for its whole lifetime, independent of position.
type TabID uint64

// Tab is one tab of the session: a pane tree plus its title state.
type Tab struct {
	id          TabID
	title       string
	customTitle *string
	launch      LaunchSpec
	panes       *Tree
	bell        bool
}

func newTab(id TabID, launch LaunchSpec, h Handle) *Tab {
	return &Tab{
		id:     id,
		title:  launch.Title(),
		launch: launch,
		panes:  NewTree(h),
	}
}

// ID returns the tab ID
func (t *Tab) ID() TabID {
	return t.id
}

// Panes returns the tab's pane tree.
func (t *Tab) Panes() *Tree {
	return t.panes
}

// Launch returns the launch spec the tab was opened with.
func (t *Tab) Launch() LaunchSpec {
	return t.launch
}

// Title returns the automatic title.
func (t *Tab) Title() string {
	return t.title
}

// CustomTitle returns the user override, if any.
func (t *Tab) CustomTitle() (string, bool) {
	if t.customTitle == nil {
		return "", false
	}
	return *t.customTitle, true
}

// DisplayTitle returns the custom title if set, otherwise the automatic one.
func (t *Tab) DisplayTitle() string {
	if title, ok := t.CustomTitle(); ok {
		return title
	}
	return t.title
}

// Rename sets or clears the custom title. A nil or all-whitespace title
// clears it.
func (t *Tab) Rename(title *string) {
	if title == nil || strings.TrimSpace(*title) == "" {
		t.customTitle = nil
		return
	}
	trimmed := strings.TrimSpace(*title)
	t.customTitle = &trimmed
}

// SetAutoTitle updates the automatic title unless a custom title is set.
// Reports whether the displayed title changed.
func (t *Tab) SetAutoTitle(title string) bool {
	if t.customTitle != nil || t.title == title {
		return false
	}
	t.title = title
	return true
}

// HasUnseenBell reports whether a pane rang the bell since the tab was last selected.
func (t *Tab) HasUnseenBell() bool {
	return t.bell
}

// ActiveDir returns the active pane's working directory when available.
func (t *Tab) ActiveDir() string {
	leaf := t.panes.ActiveLeaf()
	if leaf == nil || leaf.Handle == nil {
		return ""
	}
	return leaf.Handle.WorkingDir()
}

// TabInfo is the read-only view of a tab handed to the renderer.
type TabInfo struct {
	ID            TabID
	Title         string
	HasUnseenBell bool
	PaneCount     int
}

func (t *Tab) info() TabInfo {
	return TabInfo{
		ID:            t.id,
		Title:         t.DisplayTitle(),
		HasUnseenBell: t.bell,
		PaneCount:     t.panes.CountLeaves(),
	}
}
