package tab

import (
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/javanhut/raven-session/events"
	"github.com/javanhut/raven-session/metrics"
)

var (
	ErrTabLimit      = errors.New("tab limit reached")
	ErrPaneLimit     = errors.New("pane limit reached")
	ErrNoActiveTab   = errors.New("no active tab")
	ErrSessionClosed = errors.New("session closed")
)

// LastTabPolicy decides what happens when the last tab goes away.
type LastTabPolicy int

const (
	// CloseWindow asks the owning window to close and leaves the session empty.
	CloseWindow LastTabPolicy = iota
	// OpenDefaultTab replaces the last tab with a fresh default tab.
	OpenDefaultTab
)

func (p LastTabPolicy) String() string {
	switch p {
	case CloseWindow:
		return "close-window"
	case OpenDefaultTab:
		return "new-tab"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

// ParseLastTabPolicy parses the config spelling of a policy.
func ParseLastTabPolicy(s string) (LastTabPolicy, error) {
	switch s {
	case "close-window":
		return CloseWindow, nil
	case "new-tab":
		return OpenDefaultTab, nil
	default:
		return CloseWindow, fmt.Errorf("unknown last tab policy %q (want close-window or new-tab)", s)
	}
}

// Opener starts terminal sessions. It is implemented by the terminal collaborator.
type Opener interface {
	Open(spec LaunchSpec) (Handle, error)
}

// Options configure a Session.
type Options struct {
	OnLastTabClosed LastTabPolicy
	// MaxTabs and MaxPanes cap the layout; zero means unlimited.
	MaxTabs  int
	MaxPanes int
	// Resolve turns a profile name and working directory into a launch
	// spec. When nil the values are used as given.
	Resolve func(profile, cwd string) LaunchSpec
}

// Option customizes a Session at construction.
type Option func(*Session)

// WithLogger sets the session logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) {
		if log != nil {
			s.log = log
		}
	}
}

// WithPublisher sets where outbound events go.
func WithPublisher(p events.Publisher) Option {
	return func(s *Session) {
		s.pub = p
	}
}

// WithMetrics sets the metrics sink.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Session) {
		s.metrics = m
	}
}

// Session is the ordered set of tabs plus the active position.
type Session struct {
	tabs      []*Tab
	active    int
	nextTabID TabID
	opts      Options
	opener    Opener
	pub       events.Publisher
	log       *zap.Logger
	metrics   *metrics.Metrics
	closed    bool
}

// NewSession creates a session and opens its first tab with the default profile.
func NewSession(opener Opener, opts Options, options ...Option) (*Session, error) {
	s := &Session{
		active:    -1,
		nextTabID: 1,
		opts:      opts,
		opener:    opener,
		log:       zap.NewNop(),
	}
	for _, o := range options {
		o(s)
	}
	if _, err := s.NewTab("", ""); err != nil {
		return nil, err
	}
	return s, nil
}

// Options returns the current options.
func (s *Session) Options() Options {
	return s.opts
}

// SetOptions replaces the options, e.g. after a config reload. The layout is
// left as is even if it exceeds new caps.
func (s *Session) SetOptions(opts Options) {
	s.opts = opts
	s.log.Info("session options updated", zap.Stringer("on_last_tab_closed", opts.OnLastTabClosed),
		zap.Int("max_tabs", opts.MaxTabs), zap.Int("max_panes", opts.MaxPanes))
}

// Closed reports whether the last tab was removed under the CloseWindow policy.
func (s *Session) Closed() bool {
	return s.closed
}

// Len returns the number of tabs.
func (s *Session) Len() int {
	return len(s.tabs)
}

// Tabs returns the tabs in order. The slice is a copy.
func (s *Session) Tabs() []*Tab {
	return slices.Clone(s.tabs)
}

// Tab returns the tab with the given id, or nil.
func (s *Session) Tab(id TabID) *Tab {
	if pos := s.position(id); pos >= 0 {
		return s.tabs[pos]
	}
	return nil
}

// ActivePosition returns the position of the active tab.
func (s *Session) ActivePosition() (int, bool) {
	if s.active < 0 || s.active >= len(s.tabs) {
		return 0, false
	}
	return s.active, true
}

// ActiveTab returns the active tab, or nil when the session is empty.
func (s *Session) ActiveTab() *Tab {
	pos, ok := s.ActivePosition()
	if !ok {
		return nil
	}
	return s.tabs[pos]
}

// ListTabs returns the renderer's view of the tab bar.
func (s *Session) ListTabs() []TabInfo {
	infos := make([]TabInfo, 0, len(s.tabs))
	for _, t := range s.tabs {
		infos = append(infos, t.info())
	}
	return infos
}

// RenderTree returns the pane tree of a tab and its active pane.
func (s *Session) RenderTree(id TabID) (Node, PaneID, bool) {
	t := s.Tab(id)
	if t == nil {
		return nil, 0, false
	}
	return t.panes.Root(), t.panes.Active(), true
}

// NewTab opens a tab for the given profile and working directory, appends
// it and makes it active.
func (s *Session) NewTab(profile, cwd string) (*Tab, error) {
	return s.openTab(s.resolve(profile, cwd))
}

// DuplicateTab opens a new tab running what the source tab's active pane
// runs, in that pane's current directory. Unknown ids are ignored.
func (s *Session) DuplicateTab(id TabID) (*Tab, error) {
	src := s.Tab(id)
	if src == nil {
		s.log.Debug("duplicate of unknown tab ignored", zap.Uint64("tab_id", uint64(id)))
		return nil, nil
	}
	spec := src.launch
	if leaf := src.panes.ActiveLeaf(); leaf != nil && leaf.Handle != nil {
		spec = leaf.Handle.Launch()
	}
	if dir := src.ActiveDir(); dir != "" {
		spec.WorkingDir = dir
	}
	return s.openTab(spec)
}

func (s *Session) openTab(spec LaunchSpec) (*Tab, error) {
	if s.closed {
		return nil, ErrSessionClosed
	}
	if s.opts.MaxTabs > 0 && len(s.tabs) >= s.opts.MaxTabs {
		return nil, ErrTabLimit
	}
	h, err := s.opener.Open(spec)
	if err != nil {
		return nil, fmt.Errorf("opening terminal for new tab: %w", err)
	}

	t := newTab(s.nextTabID, spec, h)
	s.nextTabID++
	s.tabs = append(s.tabs, t)
	s.active = len(s.tabs) - 1

	s.log.Debug("tab opened", zap.Uint64("tab_id", uint64(t.id)), zap.String("title", t.title),
		zap.String("cwd", spec.WorkingDir))
	s.layoutChanged(t.id)
	s.publish(events.FocusRequested, t.id, t.panes.Active(), h.HandleID())
	return t, nil
}

// RemoveTab closes the tab with the given id and rebases the active
// position. When no tab is left the configured LastTabPolicy applies.
func (s *Session) RemoveTab(id TabID) bool {
	pos := s.position(id)
	if pos < 0 {
		s.log.Debug("remove of unknown tab ignored", zap.Uint64("tab_id", uint64(id)))
		return false
	}
	t := s.tabs[pos]
	s.tabs = slices.Delete(s.tabs, pos, pos+1)
	for _, leaf := range t.panes.Leaves() {
		s.release(t.id, leaf)
	}
	s.log.Debug("tab removed", zap.Uint64("tab_id", uint64(id)), zap.Int("position", pos))

	if len(s.tabs) == 0 {
		s.active = -1
		s.lastTabClosed()
		return true
	}

	switch {
	case s.active < 0:
		s.active = 0
	case s.active == pos:
		s.active = min(pos, len(s.tabs)-1)
	case pos < s.active:
		s.active--
	}
	s.layoutChanged(id)
	s.activated()
	return true
}

func (s *Session) lastTabClosed() {
	if s.opts.OnLastTabClosed == OpenDefaultTab {
		_, err := s.NewTab("", "")
		if err == nil {
			s.log.Info("last tab closed, opened default tab")
			return
		}
		s.log.Error("last tab closed, default tab failed to open; closing window", zap.Error(err))
	}
	s.closed = true
	s.log.Info("last tab closed, closing window")
	s.updateGauges()
	s.publish(events.WindowCloseRequested, 0, 0, 0)
}

// MoveTab moves the tab at position from to position to and keeps the same
// tab active.
func (s *Session) MoveTab(from, to int) bool {
	if from < 0 || from >= len(s.tabs) || to < 0 || to >= len(s.tabs) || from == to {
		return false
	}
	t := s.tabs[from]
	s.tabs = slices.Delete(s.tabs, from, from+1)
	s.tabs = slices.Insert(s.tabs, to, t)

	switch {
	case s.active == from:
		s.active = to
	case from < s.active && s.active <= to:
		s.active--
	case to <= s.active && s.active < from:
		s.active++
	}
	s.layoutChanged(t.id)
	return true
}

// RenameTab sets or clears a tab's custom title.
func (s *Session) RenameTab(id TabID, title *string) bool {
	t := s.Tab(id)
	if t == nil {
		s.log.Debug("rename of unknown tab ignored", zap.Uint64("tab_id", uint64(id)))
		return false
	}
	t.Rename(title)
	s.publish(events.TitleChanged, t.id, 0, 0)
	return true
}

// SelectTab makes the tab at pos active.
func (s *Session) SelectTab(pos int) bool {
	if pos < 0 || pos >= len(s.tabs) {
		return false
	}
	s.active = pos
	s.activated()
	return true
}

// SelectNextTab activates the next tab, wrapping around.
func (s *Session) SelectNextTab() bool {
	if len(s.tabs) <= 1 || s.active < 0 {
		return false
	}
	return s.SelectTab((s.active + 1) % len(s.tabs))
}

// SelectPrevTab activates the previous tab, wrapping around.
func (s *Session) SelectPrevTab() bool {
	if len(s.tabs) <= 1 || s.active < 0 {
		return false
	}
	return s.SelectTab((s.active - 1 + len(s.tabs)) % len(s.tabs))
}

// SelectPane focuses a pane of the active tab.
func (s *Session) SelectPane(id PaneID) bool {
	t := s.ActiveTab()
	if t == nil || !t.panes.Focus(id) {
		s.log.Debug("select of unknown pane ignored", zap.Uint64("pane_id", uint64(id)))
		return false
	}
	s.focusActive(t)
	return true
}

// FocusNextPane cycles focus forward within the active tab.
func (s *Session) FocusNextPane() bool {
	t := s.ActiveTab()
	if t == nil || !t.panes.FocusNext() {
		return false
	}
	s.focusActive(t)
	return true
}

// FocusPrevPane cycles focus backward within the active tab.
func (s *Session) FocusPrevPane() bool {
	t := s.ActiveTab()
	if t == nil || !t.panes.FocusPrev() {
		return false
	}
	s.focusActive(t)
	return true
}

// SplitActivePane splits the active pane of the active tab. The new pane
// runs the active pane's profile in its working directory and gets focus.
func (s *Session) SplitActivePane(dir Direction) (PaneID, error) {
	t := s.ActiveTab()
	if t == nil {
		return 0, ErrNoActiveTab
	}
	if s.opts.MaxPanes > 0 && t.panes.CountLeaves() >= s.opts.MaxPanes {
		return 0, ErrPaneLimit
	}

	spec := s.resolve(t.launch.Profile, "")
	if leaf := t.panes.ActiveLeaf(); leaf != nil && leaf.Handle != nil {
		spec = s.resolve(leaf.Handle.Launch().Profile, leaf.Handle.WorkingDir())
	}
	h, err := s.opener.Open(spec)
	if err != nil {
		return 0, fmt.Errorf("opening terminal for split: %w", err)
	}

	id, ok := t.panes.SplitActive(dir, h)
	if !ok {
		s.release(t.id, &Leaf{Handle: h})
		return 0, nil
	}
	s.log.Debug("pane split", zap.Uint64("tab_id", uint64(t.id)), zap.Uint64("pane_id", uint64(id)),
		zap.Stringer("direction", dir))
	s.layoutChanged(t.id)
	s.focusActive(t)
	return id, nil
}

// CloseActivePane closes the active pane of the active tab. The last pane
// of a tab is refused; closing it means closing the tab.
func (s *Session) CloseActivePane() bool {
	t := s.ActiveTab()
	if t == nil {
		return false
	}
	return s.closePane(t, t.panes.Active())
}

// ResizeActivePane moves the divider next to the active pane.
func (s *Session) ResizeActivePane(dir ResizeDirection, delta float64) bool {
	t := s.ActiveTab()
	if t == nil || !t.panes.Resize(dir, delta) {
		return false
	}
	s.layoutChanged(t.id)
	return true
}

// closePane runs the tree surgery for pane id of t and releases its handle.
func (s *Session) closePane(t *Tab, id PaneID) bool {
	leaf := t.panes.Find(id)
	if leaf == nil {
		return false
	}
	wasActive := t.panes.Active() == id
	removed, repaired := t.panes.close(id)
	if !removed {
		return false
	}
	if repaired {
		s.metrics.ObserveRepair()
		s.log.Debug("active pane repaired", zap.Uint64("tab_id", uint64(t.id)),
			zap.Uint64("pane_id", uint64(t.panes.Active())))
	}
	s.release(t.id, leaf)
	s.layoutChanged(t.id)
	if wasActive || repaired {
		s.focusActive(t)
	}
	return true
}

// locate finds the tab and leaf holding handle h.
func (s *Session) locate(h HandleID) (*Tab, *Leaf) {
	for _, t := range s.tabs {
		if leaf := t.panes.FindByHandle(h); leaf != nil {
			return t, leaf
		}
	}
	return nil, nil
}

func (s *Session) position(id TabID) int {
	return slices.IndexFunc(s.tabs, func(t *Tab) bool { return t.id == id })
}

func (s *Session) resolve(profile, cwd string) LaunchSpec {
	if s.opts.Resolve != nil {
		return s.opts.Resolve(profile, cwd)
	}
	return LaunchSpec{Profile: profile, WorkingDir: cwd}
}

// activated runs after the active position changed.
func (s *Session) activated() {
	t := s.ActiveTab()
	if t == nil {
		return
	}
	t.bell = false
	s.focusActive(t)
}

func (s *Session) focusActive(t *Tab) {
	if s.ActiveTab() != t {
		return
	}
	var handle uint64
	if leaf := t.panes.ActiveLeaf(); leaf != nil && leaf.Handle != nil {
		handle = uint64(leaf.Handle.HandleID())
	}
	s.publish(events.FocusRequested, t.id, t.panes.Active(), HandleID(handle))
}

// release drops this session's reference to a pane's terminal. The
// terminal's owner decides what to do with it.
func (s *Session) release(tabID TabID, leaf *Leaf) {
	if leaf.Handle == nil {
		return
	}
	s.publish(events.PaneReleased, tabID, leaf.ID, leaf.Handle.HandleID())
}

func (s *Session) layoutChanged(id TabID) {
	s.updateGauges()
	s.publish(events.LayoutChanged, id, 0, 0)
}

func (s *Session) updateGauges() {
	panes := 0
	for _, t := range s.tabs {
		panes += t.panes.CountLeaves()
	}
	s.metrics.SetLayout(len(s.tabs), panes)
}

func (s *Session) publish(kind events.Kind, tabID TabID, paneID PaneID, h HandleID) {
	if s.pub == nil {
		return
	}
	s.pub.Publish(events.Event{
		Kind:   kind,
		TabID:  uint64(tabID),
		PaneID: uint64(paneID),
		Handle: uint64(h),
	})
}

// Validate checks every tab's tree and the active position.
func (s *Session) Validate() error {
	var errs []error
	seen := make(map[TabID]bool)
	for _, t := range s.tabs {
		if seen[t.id] {
			errs = append(errs, fmt.Errorf("duplicate tab id %d", t.id))
		}
		seen[t.id] = true
		if err := t.panes.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("tab %d: %w", t.id, err))
		}
	}
	switch {
	case len(s.tabs) == 0 && !s.closed:
		errs = append(errs, errors.New("session has no tabs"))
	case len(s.tabs) > 0 && (s.active < 0 || s.active >= len(s.tabs)):
		errs = append(errs, fmt.Errorf("active position %d out of range", s.active))
	}
	return errors.Join(errs...)
}
