package cmd

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/javanhut/raven-session/events"
	"github.com/javanhut/raven-session/keybindings"
	"github.com/javanhut/raven-session/render"
	"github.com/javanhut/raven-session/tab"
)

type stubHandle struct {
	id   tab.HandleID
	spec tab.LaunchSpec
}

func (h stubHandle) HandleID() tab.HandleID { return h.id }
func (h stubHandle) Launch() tab.LaunchSpec { return h.spec }
func (h stubHandle) WorkingDir() string     { return h.spec.WorkingDir }

type stubOpener struct {
	next tab.HandleID
}

func (o *stubOpener) Open(spec tab.LaunchSpec) (tab.Handle, error) {
	o.next++
	if spec.Shell == "" {
		spec.Shell = "/bin/sh"
	}
	return stubHandle{id: o.next, spec: spec}, nil
}

type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

type hostFixture struct {
	host *host
	loop *tab.Loop
	out  *safeBuffer

	mu       sync.Mutex
	released []tab.HandleID
}

func newHostFixture(t *testing.T) (*hostFixture, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	s, err := tab.NewSession(&stubOpener{}, tab.Options{})
	require.NoError(t, err)
	loop := tab.NewLoop(s)
	go func() { _ = loop.Run(ctx) }()

	f := &hostFixture{loop: loop, out: &safeBuffer{}}
	release := func(id tab.HandleID) error {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.released = append(f.released, id)
		return nil
	}
	f.host = newHost(loop, render.NewTabBar(render.DefaultTheme()), keybindings.DefaultBindings(), release, f.out, zap.NewNop())
	return f, ctx
}

func (f *hostFixture) tabCount(t *testing.T, ctx context.Context) int {
	t.Helper()
	var n int
	require.NoError(t, f.loop.Query(ctx, func(s *tab.Session) { n = s.Len() }))
	return n
}

func TestHost_ExecuteCommands(t *testing.T) {
	f, ctx := newHostFixture(t)

	require.NoError(t, f.host.execute(ctx, "split v"))
	require.NoError(t, f.host.execute(ctx, "tree"))
	require.Contains(t, f.out.String(), "vertical 0.50")

	require.NoError(t, f.host.execute(ctx, "new-tab"))
	require.Equal(t, 2, f.tabCount(t, ctx))

	require.NoError(t, f.host.execute(ctx, "list"))
	require.Contains(t, f.out.String(), "* 2  id=2")
}

func TestHost_ExecuteBinding(t *testing.T) {
	f, ctx := newHostFixture(t)

	require.NoError(t, f.host.execute(ctx, "Ctrl+Shift+T"))
	require.Equal(t, 2, f.tabCount(t, ctx))

	require.NoError(t, f.host.execute(ctx, "ctrl+shift+x"))
	require.Equal(t, 1, f.tabCount(t, ctx))
}

func TestHost_ExecuteErrorsArePrinted(t *testing.T) {
	f, ctx := newHostFixture(t)

	require.NoError(t, f.host.execute(ctx, ""))
	require.NoError(t, f.host.execute(ctx, "bogus"))
	require.NoError(t, f.host.execute(ctx, "tree 99"))

	out := f.out.String()
	require.Contains(t, out, `error: unknown command "bogus"`)
	require.Contains(t, out, "error: no tab with id 99")
}

func TestHost_Quit(t *testing.T) {
	f, ctx := newHostFixture(t)
	require.ErrorIs(t, f.host.execute(ctx, "quit"), errQuit)
	require.ErrorIs(t, f.host.execute(ctx, "ctrl+q"), errQuit)
}

func TestHost_ReadCommandsEndsAtEOF(t *testing.T) {
	f, ctx := newHostFixture(t)
	lines := scanLines(ctx, strings.NewReader("new-tab\nhelp\n"))

	require.ErrorIs(t, f.host.readCommands(ctx, lines), errQuit)
	require.Equal(t, 2, f.tabCount(t, ctx))
	require.Contains(t, f.out.String(), "Keybindings:")
}

func TestHost_HandleEvents(t *testing.T) {
	f, ctx := newHostFixture(t)

	evs := make(chan events.Event, 8)
	evs <- events.Event{Kind: events.PaneReleased, Handle: 7}
	evs <- events.Event{Kind: events.LayoutChanged}
	evs <- events.Event{Kind: events.LayoutChanged}
	evs <- events.Event{Kind: events.TitleChanged}
	close(evs)

	require.NoError(t, f.host.handleEvents(ctx, evs))
	require.Equal(t, []tab.HandleID{7}, f.released)
	require.Equal(t, 1, strings.Count(f.out.String(), "RT 1/1"))
}

func TestHost_HandleEventsWindowClose(t *testing.T) {
	f, ctx := newHostFixture(t)

	evs := make(chan events.Event, 2)
	evs <- events.Event{Kind: events.WindowCloseRequested}
	require.ErrorIs(t, f.host.handleEvents(ctx, evs), errQuit)
}

func TestHost_HandleEventsAfterContentFlood(t *testing.T) {
	f, ctx := newHostFixture(t)

	bus := events.NewBusWithBuffer(8)
	defer bus.Close()
	evs := bus.Subscribe(ctx)

	for i := 0; i < 500; i++ {
		bus.Publish(events.Event{Kind: events.ContentUpdated, Handle: uint64(i % 4)})
		bus.Publish(events.Event{Kind: events.LayoutChanged})
	}
	bus.Publish(events.Event{Kind: events.PaneReleased, Handle: 3})
	bus.Publish(events.Event{Kind: events.PaneReleased, Handle: 4})
	bus.Publish(events.Event{Kind: events.WindowCloseRequested})

	require.ErrorIs(t, f.host.handleEvents(ctx, evs), errQuit)
	require.Equal(t, []tab.HandleID{3, 4}, f.released)
}
