package tab

import (
	"context"
	"errors"
)

// ErrLoopStopped is returned for work submitted after Run has returned.
var ErrLoopStopped = errors.New("session loop stopped")

type op struct {
	fn   func(*Session)
	done chan struct{}
}

// Loop serializes all access to a Session on one goroutine. Input handlers
// submit actions, terminal readers post notifications, and both are applied
// in arrival order.
type Loop struct {
	session *Session
	ops     chan op
	stopped chan struct{}
}

// NewLoop creates a loop owning s. Call Run to start it.
func NewLoop(s *Session) *Loop {
	return &Loop{
		session: s,
		ops:     make(chan op, 64),
		stopped: make(chan struct{}),
	}
}

// Run applies queued work until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	defer close(l.stopped)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case o := <-l.ops:
			o.fn(l.session)
			if o.done != nil {
				close(o.done)
			}
		}
	}
}

// Submit applies an action and waits for its result.
func (l *Loop) Submit(ctx context.Context, a Action) error {
	var applyErr error
	if err := l.do(ctx, func(s *Session) { applyErr = s.Apply(a) }, true); err != nil {
		return err
	}
	return applyErr
}

// Notify queues a terminal notification without waiting for it.
func (l *Loop) Notify(ctx context.Context, n Notification) error {
	return l.do(ctx, func(s *Session) { s.HandleNotification(n) }, false)
}

// Query runs fn on the loop goroutine and waits for it. fn must not keep
// references to the session.
func (l *Loop) Query(ctx context.Context, fn func(*Session)) error {
	return l.do(ctx, fn, true)
}

func (l *Loop) do(ctx context.Context, fn func(*Session), wait bool) error {
	o := op{fn: fn}
	if wait {
		o.done = make(chan struct{})
	}
	// A stopped loop never drains ops, so a buffered send would still succeed.
	select {
	case <-l.stopped:
		return ErrLoopStopped
	default:
	}
	select {
	case l.ops <- o:
	case <-l.stopped:
		return ErrLoopStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	if !wait {
		return nil
	}
	select {
	case <-o.done:
		return nil
	case <-l.stopped:
		// Run may have applied the op right before stopping.
		select {
		case <-o.done:
			return nil
		default:
			return ErrLoopStopped
		}
	case <-ctx.Done():
		return ctx.Err()
	}
}
