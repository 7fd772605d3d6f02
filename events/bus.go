package events

import (
	"context"
	"slices"
	"sync"
	"time"
)

const defaultBufferSize = 64

// Bus fans events out to every subscriber. Publishing never blocks. Each
// subscriber has its own queue: lossless kinds are always queued, a pending
// ContentUpdated absorbs later ones for the same handle, and other events
// are dropped while the queue is full.
type Bus struct {
	mu         sync.RWMutex
	subs       map[*subscriber]struct{}
	done       chan struct{}
	bufferSize int
}

type subscriber struct {
	out   chan Event
	stop  chan struct{}
	wake  chan struct{}
	limit int

	mu    sync.Mutex
	queue []Event
}

// NewBus creates a bus with the default per-subscriber buffer.
func NewBus() *Bus {
	return NewBusWithBuffer(defaultBufferSize)
}

// NewBusWithBuffer creates a bus with a custom per-subscriber buffer.
func NewBusWithBuffer(size int) *Bus {
	if size < 1 {
		size = 1
	}
	return &Bus{
		subs:       make(map[*subscriber]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
	}
}

// Subscribe returns a channel of events that is closed when ctx is
// cancelled or the bus is closed.
func (b *Bus) Subscribe(ctx context.Context) <-chan Event {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event)
		close(ch)
		return ch
	default:
	}

	sub := &subscriber{
		out:   make(chan Event),
		stop:  make(chan struct{}),
		wake:  make(chan struct{}, 1),
		limit: b.bufferSize,
	}
	b.subs[sub] = struct{}{}
	go sub.run()

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()
		if _, ok := b.subs[sub]; !ok {
			return
		}
		delete(b.subs, sub)
		close(sub.stop)
	}()

	return sub.out
}

// Publish delivers ev to all current subscribers.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	if ev.Timestamp.IsZero() {
		ev.Timestamp = time.Now()
	}
	for sub := range b.subs {
		sub.push(ev)
	}
}

// Close shuts the bus down and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub.stop)
	}
	b.subs = nil
}

// SubscriberCount returns the number of live subscriptions.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

func (s *subscriber) push(ev Event) {
	s.mu.Lock()
	switch {
	case ev.Kind.Lossless():
		s.queue = append(s.queue, ev)
	case ev.Kind == ContentUpdated && slices.ContainsFunc(s.queue, func(q Event) bool {
		return q.Kind == ContentUpdated && q.Handle == ev.Handle
	}):
		// Absorbed by the pending update.
	case len(s.queue) >= s.limit:
		// Dropped.
	default:
		s.queue = append(s.queue, ev)
	}
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *subscriber) pop() (Event, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Event{}, false
	}
	ev := s.queue[0]
	s.queue[0] = Event{}
	s.queue = s.queue[1:]
	return ev, true
}

// run moves queued events to out in order until stop is closed.
func (s *subscriber) run() {
	defer close(s.out)
	for {
		ev, ok := s.pop()
		if !ok {
			select {
			case <-s.wake:
				continue
			case <-s.stop:
				return
			}
		}
		select {
		case s.out <- ev:
		case <-s.stop:
			return
		}
	}
}
