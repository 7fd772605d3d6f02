// Package shell runs terminal sessions in pseudo-terminals and reports their
// titles, bells and exits back to the session layout.
package shell

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"os/user"
	"strconv"
	"strings"
	"sync"
	"syscall"

	"github.com/creack/pty"

	"github.com/javanhut/raven-session/tab"
)

// PtySession manages a pseudo-terminal connection to a shell. It implements
// tab.Handle.
type PtySession struct {
	id   tab.HandleID
	spec tab.LaunchSpec
	cmd  *exec.Cmd
	pty  *os.File
	mu   sync.Mutex

	stateMu  sync.Mutex
	lastDir  string
	exitCode int
	closed   bool

	done chan struct{}
}

// StartOptions control how a PtySession is started.
type StartOptions struct {
	Cols, Rows uint16
	// Env entries are applied on top of the inherited environment.
	Env map[string]string
}

// NewPtySession starts spec in a new PTY.
func NewPtySession(id tab.HandleID, spec tab.LaunchSpec, opts StartOptions) (*PtySession, error) {
	spec.Shell = FindShell(spec.Shell)

	currentUser, err := user.Current()
	if err != nil {
		return nil, fmt.Errorf("looking up current user: %w", err)
	}

	cmd := exec.Command(spec.Shell, spec.Args...)

	// New session so the shell is independent of our controlling terminal
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setsid: true,
	}

	env := os.Environ()
	env = replaceEnv(env, "TERM", "xterm-256color")
	env = replaceEnv(env, "COLORTERM", "truecolor")
	env = replaceEnv(env, "TERM_PROGRAM", "raven-session")
	env = replaceEnv(env, "RAVEN_TERMINAL", "1")
	env = replaceEnv(env, "HOME", currentUser.HomeDir)
	env = replaceEnv(env, "USER", currentUser.Username)
	env = replaceEnv(env, "SHELL", spec.Shell)
	env = replaceEnv(env, "COLUMNS", strconv.Itoa(int(opts.Cols)))
	env = replaceEnv(env, "LINES", strconv.Itoa(int(opts.Rows)))
	for k, v := range opts.Env {
		env = replaceEnv(env, k, v)
	}
	cmd.Env = env
	cmd.Dir = startDir(spec.WorkingDir, currentUser.HomeDir)
	spec.WorkingDir = cmd.Dir

	ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{
		Cols: opts.Cols,
		Rows: opts.Rows,
	})
	if err != nil {
		return nil, fmt.Errorf("starting %s: %w", spec.Shell, err)
	}

	session := &PtySession{
		id:   id,
		spec: spec,
		cmd:  cmd,
		pty:  ptmx,
		done: make(chan struct{}),
	}

	// Monitor for process exit
	go func() {
		err := cmd.Wait()
		code := 0
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else if err != nil {
			code = -1
		}
		session.stateMu.Lock()
		session.exitCode = code
		session.stateMu.Unlock()
		close(session.done)
	}()

	return session, nil
}

// startDir returns dir when it is an existing directory, otherwise home.
func startDir(dir, home string) string {
	if dir != "" {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			return dir
		}
	}
	return home
}

func replaceEnv(env []string, key, value string) []string {
	prefix := key + "="
	for i := len(env) - 1; i >= 0; i-- {
		if strings.HasPrefix(env[i], prefix) {
			env = append(env[:i], env[i+1:]...)
		}
	}
	return append(env, prefix+value)
}

// HandleID returns the process-wide id of the session.
func (p *PtySession) HandleID() tab.HandleID {
	return p.id
}

// Launch returns what the session was started with.
func (p *PtySession) Launch() tab.LaunchSpec {
	return p.spec
}

// WorkingDir returns the shell's current directory: the live process cwd
// when readable, else the last OSC 7 report, else the start directory.
func (p *PtySession) WorkingDir() string {
	if dir := p.CurrentDir(); dir != "" {
		return dir
	}
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	if p.lastDir != "" {
		return p.lastDir
	}
	return p.spec.WorkingDir
}

// CurrentDir returns the process working directory if available.
func (p *PtySession) CurrentDir() string {
	if p == nil || p.cmd == nil || p.cmd.Process == nil {
		return ""
	}
	path, err := os.Readlink(fmt.Sprintf("/proc/%d/cwd", p.cmd.Process.Pid))
	if err != nil {
		return ""
	}
	return path
}

func (p *PtySession) setReportedDir(dir string) {
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	p.lastDir = dir
}

// Pid returns the shell's process id.
func (p *PtySession) Pid() int {
	if p.cmd.Process == nil {
		return 0
	}
	return p.cmd.Process.Pid
}

// Read reads from the PTY
func (p *PtySession) Read(buf []byte) (int, error) {
	return p.pty.Read(buf)
}

// Write writes to the PTY
func (p *PtySession) Write(data []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.pty.Write(data)
}

// Resize resizes the PTY
func (p *PtySession) Resize(cols, rows uint16) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return pty.Setsize(p.pty, &pty.Winsize{
		Cols: cols,
		Rows: rows,
	})
}

// Done is closed once the shell process has exited.
func (p *PtySession) Done() <-chan struct{} {
	return p.done
}

// HasExited returns true if the shell process has exited
func (p *PtySession) HasExited() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

// ExitCode returns the exit status once the process has exited.
func (p *PtySession) ExitCode() (int, bool) {
	if !p.HasExited() {
		return 0, false
	}
	p.stateMu.Lock()
	defer p.stateMu.Unlock()
	return p.exitCode, true
}

// Close kills the shell and closes the PTY. Safe to call more than once.
func (p *PtySession) Close() error {
	p.stateMu.Lock()
	if p.closed {
		p.stateMu.Unlock()
		return nil
	}
	p.closed = true
	p.stateMu.Unlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cmd.Process != nil && !p.HasExited() {
		_ = p.cmd.Process.Kill()
	}
	return p.pty.Close()
}
