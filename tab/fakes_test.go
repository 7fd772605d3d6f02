package tab

import (
	"errors"
	"sync"

	"github.com/javanhut/raven-session/events"
)

type fakeHandle struct {
	id     HandleID
	launch LaunchSpec
	cwd    string
}

func (h *fakeHandle) HandleID() HandleID { return h.id }
func (h *fakeHandle) Launch() LaunchSpec  { return h.launch }
func (h *fakeHandle) WorkingDir() string  { return h.cwd }

type fakeOpener struct {
	next   HandleID
	fail   bool
	opened []LaunchSpec
}

func (o *fakeOpener) Open(spec LaunchSpec) (Handle, error) {
	if o.fail {
		return nil, errors.New("pty unavailable")
	}
	o.next++
	o.opened = append(o.opened, spec)
	return &fakeHandle{id: o.next, launch: spec, cwd: spec.WorkingDir}, nil
}

func newHandle(id HandleID) *fakeHandle {
	return &fakeHandle{id: id}
}

type recorder struct {
	mu     sync.Mutex
	events []events.Event
}

func (r *recorder) Publish(ev events.Event) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *recorder) kinds() []events.Kind {
	r.mu.Lock()
	defer r.mu.Unlock()
	kinds := make([]events.Kind, 0, len(r.events))
	for _, ev := range r.events {
		kinds = append(kinds, ev.Kind)
	}
	return kinds
}

func (r *recorder) released() []uint64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	var handles []uint64
	for _, ev := range r.events {
		if ev.Kind == events.PaneReleased {
			handles = append(handles, ev.Handle)
		}
	}
	return handles
}

func (r *recorder) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
