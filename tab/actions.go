package tab

import (
	"fmt"

	"go.uber.org/zap"
)

// Action is a user request to change the layout.
type Action interface {
	actionName() string
}

type (
	NewTab struct {
		Profile    string
		WorkingDir string
	}
	DuplicateTab struct {
		TabID TabID
	}
	CloseTab struct {
		TabID TabID
	}
	CloseActivePane struct{}
	SplitActivePane struct {
		Direction Direction
	}
	MoveTab struct {
		From, To int
	}
	// RenameTab sets the custom title; a nil Title clears it.
	RenameTab struct {
		TabID TabID
		Title *string
	}
	SelectTab struct {
		Position int
	}
	SelectPane struct {
		PaneID PaneID
	}
	NextTab    struct{}
	PrevTab    struct{}
	NextPane   struct{}
	PrevPane   struct{}
	ResizePane struct {
		Direction ResizeDirection
		Delta     float64
	}
)

func (NewTab) actionName() string          { return "new_tab" }
func (DuplicateTab) actionName() string    { return "duplicate_tab" }
func (CloseTab) actionName() string        { return "close_tab" }
func (CloseActivePane) actionName() string { return "close_pane" }
func (SplitActivePane) actionName() string { return "split_pane" }
func (MoveTab) actionName() string         { return "move_tab" }
func (RenameTab) actionName() string       { return "rename_tab" }
func (SelectTab) actionName() string       { return "select_tab" }
func (SelectPane) actionName() string      { return "select_pane" }
func (NextTab) actionName() string         { return "next_tab" }
func (PrevTab) actionName() string         { return "prev_tab" }
func (NextPane) actionName() string        { return "next_pane" }
func (PrevPane) actionName() string        { return "prev_pane" }
func (ResizePane) actionName() string      { return "resize_pane" }

// ActionName returns the stable name of an action, as used by key bindings
// and logs.
func ActionName(a Action) string {
	if a == nil {
		return ""
	}
	return a.actionName()
}

// Apply dispatches an action. Requests naming stale tabs or panes are
// no-ops; only failures to open a terminal or hit limits are errors.
func (s *Session) Apply(a Action) error {
	if s.closed {
		return ErrSessionClosed
	}
	s.log.Debug("applying action", zap.String("action", ActionName(a)))

	var err error
	switch a := a.(type) {
	case NewTab:
		_, err = s.NewTab(a.Profile, a.WorkingDir)
	case DuplicateTab:
		_, err = s.DuplicateTab(a.TabID)
	case CloseTab:
		s.RemoveTab(a.TabID)
	case CloseActivePane:
		s.CloseActivePane()
	case SplitActivePane:
		_, err = s.SplitActivePane(a.Direction)
	case MoveTab:
		s.MoveTab(a.From, a.To)
	case RenameTab:
		s.RenameTab(a.TabID, a.Title)
	case SelectTab:
		s.SelectTab(a.Position)
	case SelectPane:
		s.SelectPane(a.PaneID)
	case NextTab:
		s.SelectNextTab()
	case PrevTab:
		s.SelectPrevTab()
	case NextPane:
		s.FocusNextPane()
	case PrevPane:
		s.FocusPrevPane()
	case ResizePane:
		s.ResizeActivePane(a.Direction, a.Delta)
	default:
		return fmt.Errorf("unsupported action %T", a)
	}
	if err != nil {
		return fmt.Errorf("%s: %w", ActionName(a), err)
	}
	return nil
}
