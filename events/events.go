// Package events carries outbound session notifications to the renderer and
// to whoever owns the terminal processes.
package events

import "time"

// Kind identifies what happened to the session layout.
type Kind string

const (
	LayoutChanged        Kind = "layout_changed"
	FocusRequested       Kind = "focus_requested"
	PaneReleased         Kind = "pane_released"
	WindowCloseRequested Kind = "window_close_requested"
	TitleChanged         Kind = "title_changed"
	Bell                 Kind = "bell"
	ContentUpdated       Kind = "content_updated"
)

// Lossless reports whether every subscriber must see events of this kind.
// The others may be dropped for a subscriber that falls behind.
func (k Kind) Lossless() bool {
	return k == PaneReleased || k == WindowCloseRequested
}

// Event is a single outbound notification. Ids are plain integers so this
// package stays free of the layout types.
type Event struct {
	Kind      Kind
	TabID     uint64
	PaneID    uint64
	Handle    uint64
	Timestamp time.Time
}

// Publisher accepts events.
type Publisher interface {
	Publish(ev Event)
}
