package tab

import (
	"go.uber.org/zap"

	"github.com/javanhut/raven-session/events"
)

// NotificationKind is the kind of event a terminal session reports.
type NotificationKind int

const (
	TitleChanged NotificationKind = iota
	ProcessExited
	Bell
	ContentUpdated
)

func (k NotificationKind) String() string {
	switch k {
	case TitleChanged:
		return "title_changed"
	case ProcessExited:
		return "process_exited"
	case Bell:
		return "bell"
	case ContentUpdated:
		return "content_updated"
	default:
		return "unknown"
	}
}

// Notification is an asynchronous event from a terminal session, addressed
// by handle. It may arrive after the pane is gone.
type Notification struct {
	Handle   HandleID
	Kind     NotificationKind
	Title    string
	ExitCode *int
}

// HandleNotification applies a terminal notification to the layout. The
// handle is resolved against the current tabs; notifications for handles no
// longer in any tab are dropped. Reports whether the handle resolved.
func (s *Session) HandleNotification(n Notification) bool {
	t, leaf := s.locate(n.Handle)
	s.metrics.ObserveNotification(n.Kind.String(), t == nil)
	if t == nil {
		s.log.Debug("stale notification dropped", zap.Stringer("kind", n.Kind),
			zap.Uint64("handle", uint64(n.Handle)))
		return false
	}

	switch n.Kind {
	case TitleChanged:
		if t.SetAutoTitle(n.Title) {
			s.publish(events.TitleChanged, t.id, leaf.ID, n.Handle)
		}
	case ProcessExited:
		fields := []zap.Field{zap.Uint64("tab_id", uint64(t.id)), zap.Uint64("pane_id", uint64(leaf.ID))}
		if n.ExitCode != nil {
			fields = append(fields, zap.Int("exit_code", *n.ExitCode))
		}
		s.log.Debug("pane process exited", fields...)
		if t.panes.CountLeaves() <= 1 {
			s.RemoveTab(t.id)
		} else {
			s.closePane(t, leaf.ID)
		}
	case Bell:
		if s.ActiveTab() != t {
			t.bell = true
			s.publish(events.Bell, t.id, leaf.ID, n.Handle)
		}
	case ContentUpdated:
		s.publish(events.ContentUpdated, t.id, leaf.ID, n.Handle)
	}
	return true
}
