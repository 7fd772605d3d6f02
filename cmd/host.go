package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/javanhut/raven-session/commands"
	"github.com/javanhut/raven-session/config"
	"github.com/javanhut/raven-session/events"
	"github.com/javanhut/raven-session/keybindings"
	"github.com/javanhut/raven-session/metrics"
	"github.com/javanhut/raven-session/render"
	"github.com/javanhut/raven-session/shell"
	"github.com/javanhut/raven-session/tab"
)

// errQuit ends the run without reporting a failure.
var errQuit = errors.New("quit")

type runConfig struct {
	cfg         *config.Config
	configPath  string
	overrides   *viper.Viper
	keys        *keybindings.Map
	metricsAddr string
	in          io.Reader
	out         io.Writer
	log         *zap.Logger
}

func run(ctx context.Context, rc runConfig) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	bus := events.NewBus()
	defer bus.Close()

	opener := shell.NewOpener(ctx, shell.StartOptions{
		Cols: rc.cfg.Cols,
		Rows: rc.cfg.Rows,
		Env:  rc.cfg.Shell.AdditionalEnv,
	}, rc.log.Named("shell"))

	opts, err := rc.cfg.SessionOptions()
	if err != nil {
		return err
	}
	session, err := tab.NewSession(opener, opts,
		tab.WithLogger(rc.log.Named("session")),
		tab.WithPublisher(bus),
		tab.WithMetrics(m),
	)
	if err != nil {
		cancel()
		return errors.Join(fmt.Errorf("opening first tab: %w", err), opener.Close())
	}

	loop := tab.NewLoop(session)
	h := newHost(loop, render.NewTabBar(render.ThemeByName(rc.cfg.Theme)), rc.keys, opener.Release, rc.out, rc.log)
	evs := bus.Subscribe(ctx)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return loop.Run(gctx)
	})
	g.Go(func() error {
		return forwardNotifications(gctx, opener.Notifications(), loop)
	})
	g.Go(func() error {
		return h.handleEvents(gctx, evs)
	})
	g.Go(func() error {
		if err := h.printBar(gctx); err != nil {
			return err
		}
		return h.readCommands(gctx, scanLines(gctx, rc.in))
	})
	if w, err := config.NewWatcher(rc.configPath, config.DefaultDebounce, rc.log.Named("config")); err != nil {
		rc.log.Warn("config reload disabled", zap.Error(err))
	} else {
		g.Go(func() error {
			return w.Run(gctx, func(cfg *config.Config) {
				h.reload(gctx, cfg, rc.overrides)
			})
		})
	}
	if rc.metricsAddr != "" {
		g.Go(func() error {
			return serveMetrics(gctx, rc.metricsAddr, reg, rc.log)
		})
	}

	err = g.Wait()
	cancel()
	if closeErr := opener.Close(); closeErr != nil {
		rc.log.Debug("closing terminals", zap.Error(closeErr))
	}
	if errors.Is(err, errQuit) {
		return nil
	}
	return err
}

func forwardNotifications(ctx context.Context, notes <-chan tab.Notification, loop *tab.Loop) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case n := <-notes:
			if err := loop.Notify(ctx, n); err != nil {
				return err
			}
		}
	}
}

// scanLines delivers lines read from r until EOF or ctx is done.
func scanLines(ctx context.Context, r io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		for sc.Scan() {
			select {
			case lines <- sc.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}

func serveMetrics(ctx context.Context, addr string, reg *prometheus.Registry, log *zap.Logger) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		stopCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(stopCtx); err != nil {
			log.Warn("metrics server stop failed", zap.Error(err))
		}
	}()

	log.Info("metrics server listening", zap.String("addr", addr))
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("metrics server: %w", err)
	}
	return nil
}

// host connects the session loop to the command prompt and to the
// terminals.
type host struct {
	loop    *tab.Loop
	bar     *render.TabBar
	keys    atomic.Pointer[keybindings.Map]
	parser  atomic.Pointer[commands.Parser]
	release func(tab.HandleID) error
	log     *zap.Logger

	mu  sync.Mutex
	out io.Writer
}

func newHost(loop *tab.Loop, bar *render.TabBar, keys *keybindings.Map, release func(tab.HandleID) error, out io.Writer, log *zap.Logger) *host {
	h := &host{
		loop:    loop,
		bar:     bar,
		release: release,
		log:     log,
		out:     out,
	}
	h.setKeys(keys)
	return h
}

func (h *host) setKeys(keys *keybindings.Map) {
	h.keys.Store(keys)
	h.parser.Store(commands.NewParser(keys))
}

func (h *host) printf(format string, args ...any) {
	h.mu.Lock()
	defer h.mu.Unlock()
	fmt.Fprintf(h.out, format, args...)
}

func (h *host) readCommands(ctx context.Context, lines <-chan string) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				return errQuit
			}
			if err := h.execute(ctx, line); err != nil {
				return err
			}
		}
	}
}

// execute runs one command line. Command mistakes are printed; only a quit
// request or a stopped loop is returned.
func (h *host) execute(ctx context.Context, line string) error {
	r, err := h.parser.Load().Parse(line)
	if errors.Is(err, commands.ErrEmpty) {
		return nil
	}
	if err != nil {
		h.printf("error: %v\n", err)
		return nil
	}

	switch {
	case r.Binding != "":
		return h.runBinding(ctx, r.Binding)
	case r.Action != nil:
		return h.submit(ctx, r.Action)
	}

	switch r.Query {
	case commands.QueryList:
		return h.printList(ctx)
	case commands.QueryTree:
		return h.printTree(ctx, r.TabID)
	case commands.QueryHelp:
		h.printf("%s", commands.Help(h.keys.Load()))
	case commands.QueryQuit:
		return errQuit
	}
	return nil
}

func (h *host) runBinding(ctx context.Context, name string) error {
	var (
		activeTab tab.TabID
		activePos int
	)
	err := h.loop.Query(ctx, func(s *tab.Session) {
		if t := s.ActiveTab(); t != nil {
			activeTab = t.ID()
		}
		activePos, _ = s.ActivePosition()
	})
	if err != nil {
		return err
	}
	a, ok := keybindings.SessionAction(name, activeTab, activePos)
	if !ok {
		return nil
	}
	return h.submit(ctx, a)
}

func (h *host) submit(ctx context.Context, a tab.Action) error {
	err := h.loop.Submit(ctx, a)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, tab.ErrLoopStopped), ctx.Err() != nil:
		return err
	}
	h.printf("error: %v\n", err)
	return nil
}

func (h *host) printBar(ctx context.Context) error {
	var line string
	err := h.loop.Query(ctx, func(s *tab.Session) {
		pos, ok := s.ActivePosition()
		if !ok {
			pos = -1
		}
		line = h.bar.Render(s.ListTabs(), pos, 0)
	})
	if err != nil {
		return err
	}
	h.printf("%s\n", line)
	return nil
}

func (h *host) printList(ctx context.Context) error {
	var out string
	err := h.loop.Query(ctx, func(s *tab.Session) {
		pos, _ := s.ActivePosition()
		for i, t := range s.ListTabs() {
			marker := " "
			if i == pos {
				marker = "*"
			}
			out += fmt.Sprintf("%s %d  id=%d  %s  panes=%d\n", marker, i+1, t.ID, t.Title, t.PaneCount)
		}
	})
	if err != nil {
		return err
	}
	h.printf("%s", out)
	return nil
}

func (h *host) printTree(ctx context.Context, id tab.TabID) error {
	var out string
	err := h.loop.Query(ctx, func(s *tab.Session) {
		if id == 0 {
			if t := s.ActiveTab(); t != nil {
				id = t.ID()
			}
		}
		root, active, ok := s.RenderTree(id)
		if !ok {
			out = fmt.Sprintf("error: no tab with id %d\n", id)
			return
		}
		out = render.Tree(root, active)
	})
	if err != nil {
		return err
	}
	h.printf("%s", out)
	return nil
}

func (h *host) handleEvents(ctx context.Context, evs <-chan events.Event) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-evs:
			if !ok {
				return nil
			}
			// Structural changes arrive in bursts; redraw once per burst.
			redraw := false
			for {
				switch ev.Kind {
				case events.PaneReleased:
					if err := h.release(tab.HandleID(ev.Handle)); err != nil {
						h.log.Warn("releasing terminal", zap.Uint64("handle", ev.Handle), zap.Error(err))
					}
				case events.WindowCloseRequested:
					h.log.Info("last tab closed")
					return errQuit
				case events.LayoutChanged, events.TitleChanged, events.Bell:
					redraw = true
				case events.FocusRequested:
					h.log.Debug("focus requested", zap.Uint64("tab_id", ev.TabID), zap.Uint64("pane_id", ev.PaneID))
				}
				next, more := pending(evs)
				if !more {
					break
				}
				ev = next
			}
			if redraw {
				if err := h.printBar(ctx); err != nil {
					return err
				}
			}
		}
	}
}

func pending(evs <-chan events.Event) (events.Event, bool) {
	select {
	case ev, ok := <-evs:
		return ev, ok
	default:
		return events.Event{}, false
	}
}

// reload applies a changed config file to the running session. Settings
// that only matter at startup, such as the terminal size, are ignored.
func (h *host) reload(ctx context.Context, cfg *config.Config, overrides *viper.Viper) {
	if err := applyOverrides(cfg, overrides); err != nil {
		h.log.Warn("ignoring reloaded config", zap.Error(err))
		return
	}
	keys := keybindings.DefaultBindings()
	if err := keys.Merge(cfg.Keybindings); err != nil {
		h.log.Warn("ignoring reloaded config", zap.Error(err))
		return
	}
	opts, err := cfg.SessionOptions()
	if err != nil {
		h.log.Warn("ignoring reloaded config", zap.Error(err))
		return
	}
	if err := h.loop.Query(ctx, func(s *tab.Session) { s.SetOptions(opts) }); err != nil {
		return
	}
	h.setKeys(keys)
}
