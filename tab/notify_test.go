package tab

import (
	"context"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/javanhut/raven-session/events"
	"github.com/javanhut/raven-session/metrics"
)

func TestHandleNotification_TitleChanged(t *testing.T) {
	s, _, rec := newTestSession(t, Options{})
	rec.reset()

	require.True(t, s.HandleNotification(Notification{Handle: 1, Kind: TitleChanged, Title: "vim main.go"}))
	require.Equal(t, "vim main.go", s.ListTabs()[0].Title)
	require.Equal(t, []events.Kind{events.TitleChanged}, rec.kinds())

	custom := "editor"
	s.RenameTab(1, &custom)
	require.True(t, s.HandleNotification(Notification{Handle: 1, Kind: TitleChanged, Title: "htop"}))
	require.Equal(t, "editor", s.ListTabs()[0].Title, "custom title wins")

	s.RenameTab(1, nil)
	require.Equal(t, "vim main.go", s.ListTabs()[0].Title)
}

func TestHandleNotification_ProcessExitedClosesPane(t *testing.T) {
	s, _, rec := newTestSession(t, Options{})
	_, _ = s.SplitActivePane(Vertical)
	rec.reset()

	code := 0
	require.True(t, s.HandleNotification(Notification{Handle: 2, Kind: ProcessExited, ExitCode: &code}))
	require.Equal(t, 1, s.Len())
	require.Equal(t, 1, s.ActiveTab().Panes().CountLeaves())
	require.Equal(t, PaneID(1), s.ActiveTab().Panes().Active())
	require.Equal(t, []uint64{2}, rec.released())
}

func TestHandleNotification_ProcessExitedLastPaneClosesTab(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	_, _ = s.NewTab("", "")

	require.True(t, s.HandleNotification(Notification{Handle: 2, Kind: ProcessExited}))
	require.Equal(t, []TabID{1}, tabIDs(s))
	require.Equal(t, 0, activePos(t, s))
}

func TestHandleNotification_ProcessExitedLastTabAppliesPolicy(t *testing.T) {
	s, _, rec := newTestSession(t, Options{OnLastTabClosed: CloseWindow})

	require.True(t, s.HandleNotification(Notification{Handle: 1, Kind: ProcessExited}))
	require.True(t, s.Closed())
	require.Contains(t, rec.kinds(), events.WindowCloseRequested)
}

func TestHandleNotification_Bell(t *testing.T) {
	s, _, rec := newTestSession(t, Options{})
	_, _ = s.NewTab("", "")
	rec.reset()

	require.True(t, s.HandleNotification(Notification{Handle: 2, Kind: Bell}))
	require.False(t, s.ListTabs()[1].HasUnseenBell, "active tab is already visible")
	require.Empty(t, rec.kinds())

	require.True(t, s.HandleNotification(Notification{Handle: 1, Kind: Bell}))
	require.True(t, s.ListTabs()[0].HasUnseenBell)
	require.Equal(t, []events.Kind{events.Bell}, rec.kinds())
}

func TestHandleNotification_ContentUpdated(t *testing.T) {
	s, _, rec := newTestSession(t, Options{})
	rec.reset()

	require.True(t, s.HandleNotification(Notification{Handle: 1, Kind: ContentUpdated}))
	require.Equal(t, []events.Kind{events.ContentUpdated}, rec.kinds())
}

func TestHandleNotification_StaleHandle(t *testing.T) {
	m := metrics.New(prometheus.NewRegistry())
	rec := &recorder{}
	s, err := NewSession(&fakeOpener{}, Options{}, WithPublisher(rec), WithMetrics(m))
	require.NoError(t, err)
	_, _ = s.SplitActivePane(Vertical)
	require.True(t, s.CloseActivePane())
	rec.reset()

	for _, kind := range []NotificationKind{TitleChanged, ProcessExited, Bell, ContentUpdated} {
		require.False(t, s.HandleNotification(Notification{Handle: 2, Kind: kind, Title: "late"}))
	}
	require.Empty(t, rec.kinds())
	require.Equal(t, 1, s.ActiveTab().Panes().CountLeaves())
	require.Equal(t, 1.0, testutil.ToFloat64(m.StaleNotifications.WithLabelValues("process_exited")))
	require.NoError(t, s.Validate())
}

func TestHandleNotification_LifecycleEventsSurviveContentFlood(t *testing.T) {
	bus := events.NewBus()
	defer bus.Close()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	evs := bus.Subscribe(ctx)

	s, err := NewSession(&fakeOpener{}, Options{OnLastTabClosed: CloseWindow}, WithPublisher(bus))
	require.NoError(t, err)
	_, err = s.SplitActivePane(Vertical)
	require.NoError(t, err)

	// Nobody reads while the busy terminal floods the bus.
	for i := 0; i < 200; i++ {
		s.HandleNotification(Notification{Handle: HandleID(1 + i%2), Kind: ContentUpdated})
	}
	require.True(t, s.HandleNotification(Notification{Handle: 1, Kind: ProcessExited}))
	require.True(t, s.HandleNotification(Notification{Handle: 2, Kind: ProcessExited}))
	require.True(t, s.Closed())

	var released []uint64
	timeout := time.After(time.Second)
	for {
		select {
		case ev := <-evs:
			if ev.Kind == events.PaneReleased {
				released = append(released, ev.Handle)
			}
			if ev.Kind != events.WindowCloseRequested {
				continue
			}
			require.ElementsMatch(t, []uint64{1, 2}, released)
			return
		case <-timeout:
			require.Fail(t, "close request never reached the subscriber", "released %v", released)
			return
		}
	}
}
