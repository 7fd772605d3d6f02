package tab

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

func startLoop(t *testing.T, s *Session) (*Loop, context.CancelFunc) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(s)
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return l, cancel
}

func TestLoop_SubmitAndQuery(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	l, _ := startLoop(t, s)
	ctx := context.Background()

	require.NoError(t, l.Submit(ctx, NewTab{}))
	require.NoError(t, l.Submit(ctx, SplitActivePane{Direction: Vertical}))

	var infos []TabInfo
	require.NoError(t, l.Query(ctx, func(s *Session) { infos = s.ListTabs() }))
	require.Len(t, infos, 2)
	require.Equal(t, 2, infos[1].PaneCount)
}

func TestLoop_SubmitReturnsApplyError(t *testing.T) {
	s, opener, _ := newTestSession(t, Options{})
	l, _ := startLoop(t, s)
	opener.fail = true

	require.Error(t, l.Submit(context.Background(), NewTab{}))
}

func TestLoop_ConcurrentNotifications(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	_, _ = s.SplitActivePane(Vertical)
	_, _ = s.SplitActivePane(Horizontal)
	l, _ := startLoop(t, s)
	ctx := context.Background()

	var wg sync.WaitGroup
	for h := HandleID(1); h <= 3; h++ {
		wg.Add(1)
		go func(h HandleID) {
			defer wg.Done()
			for range 20 {
				_ = l.Notify(ctx, Notification{Handle: h, Kind: ContentUpdated})
				_ = l.Notify(ctx, Notification{Handle: h, Kind: TitleChanged, Title: "busy"})
			}
		}(h)
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		_ = l.Submit(ctx, CloseActivePane{})
		_ = l.Notify(ctx, Notification{Handle: 1, Kind: ProcessExited})
	}()
	wg.Wait()

	var err error
	require.NoError(t, l.Query(ctx, func(s *Session) { err = s.Validate() }))
	require.NoError(t, err)
}

func TestLoop_StoppedRejectsWork(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(s)
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)

	err := l.Submit(context.Background(), NextTab{})
	require.ErrorIs(t, err, ErrLoopStopped)
}

func TestLoop_StoppedRejectsNotifications(t *testing.T) {
	s, _, _ := newTestSession(t, Options{})
	ctx, cancel := context.WithCancel(context.Background())
	l := NewLoop(s)
	done := make(chan error, 1)
	go func() { done <- l.Run(ctx) }()

	cancel()
	<-done

	// The ops buffer has room, so every send must still be refused.
	for range 100 {
		err := l.Notify(context.Background(), Notification{Handle: 1, Kind: ContentUpdated})
		require.ErrorIs(t, err, ErrLoopStopped)
	}
}
