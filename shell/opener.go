package shell

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/javanhut/raven-session/parser"
	"github.com/javanhut/raven-session/tab"
)

// Registry maps handle ids to running sessions.
type Registry struct {
	mu       sync.Mutex
	sessions map[tab.HandleID]*PtySession
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[tab.HandleID]*PtySession)}
}

// Add registers s under its handle id.
func (r *Registry) Add(s *PtySession) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[s.HandleID()] = s
}

// Get returns the session for id.
func (r *Registry) Get(id tab.HandleID) (*PtySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	return s, ok
}

// Remove unregisters id and returns the session that was registered.
func (r *Registry) Remove(id tab.HandleID) (*PtySession, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	return s, ok
}

// Len returns the number of registered sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// drain removes and returns every session.
func (r *Registry) drain() []*PtySession {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := make([]*PtySession, 0, len(r.sessions))
	for id, s := range r.sessions {
		all = append(all, s)
		delete(r.sessions, id)
	}
	return all
}

// stream is the part of a PtySession the output pump reads from.
type stream interface {
	HandleID() tab.HandleID
	Read(buf []byte) (int, error)
	Done() <-chan struct{}
	ExitCode() (int, bool)
	setReportedDir(dir string)
}

// Opener implements tab.Opener by starting PTY sessions. Notifications from
// every session it started are delivered on one channel.
type Opener struct {
	ctx      context.Context
	opts     StartOptions
	registry *Registry
	notes    chan tab.Notification
	log      *zap.Logger
	nextID   atomic.Uint64
	wg       sync.WaitGroup
}

// NewOpener creates an opener. Pumps stop delivering once ctx is done.
func NewOpener(ctx context.Context, opts StartOptions, log *zap.Logger) *Opener {
	if log == nil {
		log = zap.NewNop()
	}
	return &Opener{
		ctx:      ctx,
		opts:     opts,
		registry: NewRegistry(),
		notes:    make(chan tab.Notification, 256),
		log:      log,
	}
}

// Open starts spec in a new PTY and begins pumping its output.
func (o *Opener) Open(spec tab.LaunchSpec) (tab.Handle, error) {
	if err := o.ctx.Err(); err != nil {
		return nil, err
	}
	id := tab.HandleID(o.nextID.Add(1))
	s, err := NewPtySession(id, spec, o.opts)
	if err != nil {
		return nil, err
	}
	o.registry.Add(s)
	o.log.Debug("terminal started", zap.Uint64("handle", uint64(id)), zap.String("shell", s.spec.Shell),
		zap.String("cwd", s.spec.WorkingDir), zap.Int("pid", s.Pid()))

	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		o.pump(s)
	}()
	return s, nil
}

// Notifications returns the channel terminal notifications are sent on.
func (o *Opener) Notifications() <-chan tab.Notification {
	return o.notes
}

// Registry returns the sessions this opener started and has not released.
func (o *Opener) Registry() *Registry {
	return o.registry
}

// Release shuts down the session for id. Unknown ids are ignored.
func (o *Opener) Release(id tab.HandleID) error {
	s, ok := o.registry.Remove(id)
	if !ok {
		return nil
	}
	o.log.Debug("terminal released", zap.Uint64("handle", uint64(id)))
	return s.Close()
}

// Close shuts down every remaining session and waits for the pumps. Pumps
// block while the notification channel is full, so call Close after the
// opener's context is done or while notifications are still drained.
func (o *Opener) Close() error {
	var errs []error
	for _, s := range o.registry.drain() {
		errs = append(errs, s.Close())
	}
	o.wg.Wait()
	return errors.Join(errs...)
}

func (o *Opener) pump(s stream) {
	id := s.HandleID()
	scanner := parser.NewScanner()
	buf := make([]byte, 4096)
	for {
		n, err := s.Read(buf)
		if n > 0 {
			for _, sig := range scanner.Feed(buf[:n]) {
				switch sig.Kind {
				case parser.SignalTitle:
					o.emit(tab.Notification{Handle: id, Kind: tab.TitleChanged, Title: sig.Value})
				case parser.SignalWorkingDir:
					s.setReportedDir(sig.Value)
				case parser.SignalBell:
					o.emit(tab.Notification{Handle: id, Kind: tab.Bell})
				}
			}
			o.emit(tab.Notification{Handle: id, Kind: tab.ContentUpdated})
		}
		if err != nil {
			break
		}
	}

	select {
	case <-s.Done():
	case <-o.ctx.Done():
		return
	}
	note := tab.Notification{Handle: id, Kind: tab.ProcessExited}
	if code, ok := s.ExitCode(); ok {
		note.ExitCode = &code
	}
	o.log.Debug("terminal exited", zap.Uint64("handle", uint64(id)))
	o.emit(note)
}

func (o *Opener) emit(n tab.Notification) {
	select {
	case o.notes <- n:
	case <-o.ctx.Done():
	}
}
