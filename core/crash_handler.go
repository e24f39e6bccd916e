package core

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/lixenwraith/vi-git/terminal"
)

// IssueURL is where crash reports direct users
const IssueURL = "https://github.com/lixenwraith/vi-git/issues"

// ErrAlreadyInstalled is returned when a Guard is installed a second time
var ErrAlreadyInstalled = errors.New("crash guard already installed")

// Restorer returns the terminal to a usable state, must be safe to call repeatedly
type Restorer interface {
	Leave() error
}

// Guard is the process crash handler
// Go has no process-wide panic hook, so every goroutine the runtime starts goes
// through Guard.Go and main defers Guard.Recover
type Guard struct {
	log    *slog.Logger
	stderr io.Writer
	exit   func(code int)

	installed atomic.Bool
	mu        sync.Mutex
	restorer  Restorer
	handling  atomic.Bool
}

// GuardOption customizes a Guard, mainly for tests
type GuardOption func(*Guard)

// WithExit replaces os.Exit
func WithExit(exit func(code int)) GuardOption {
	return func(g *Guard) { g.exit = exit }
}

// WithStderr replaces os.Stderr as the report destination
func WithStderr(w io.Writer) GuardOption {
	return func(g *Guard) { g.stderr = w }
}

// NewGuard creates an uninstalled guard reporting to log and stderr
func NewGuard(log *slog.Logger, opts ...GuardOption) *Guard {
	if log == nil {
		log = slog.Default()
	}
	g := &Guard{
		log:    log,
		stderr: os.Stderr,
		exit:   os.Exit,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Install arms the guard, must happen before any terminal mutation
func (g *Guard) Install() error {
	if !g.installed.CompareAndSwap(false, true) {
		return ErrAlreadyInstalled
	}
	return nil
}

// Installed reports whether Install has run
func (g *Guard) Installed() bool {
	return g.installed.Load()
}

// SetRestorer registers the terminal restoration invoked before reporting
func (g *Guard) SetRestorer(r Restorer) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.restorer = r
}

// Recover must be deferred directly; it turns a panic into cleanup and a report
func (g *Guard) Recover() {
	if r := recover(); r != nil {
		g.Handle(r, debug.Stack())
	}
}

// Go runs fn in a new goroutine with panic recovery
// Use this instead of the 'go' keyword to ensure terminal cleanup on crash
func (g *Guard) Go(fn func()) {
	go func() {
		defer g.Recover()
		fn()
	}()
}

// Handle restores the terminal, reports the fault and exits
// Only the first concurrent crash is reported; later ones wait for exit
func (g *Guard) Handle(r any, stack []byte) {
	if !g.handling.CompareAndSwap(false, true) {
		select {}
	}

	g.mu.Lock()
	restorer := g.restorer
	g.mu.Unlock()

	restored := false
	if restorer != nil {
		if err := restorer.Leave(); err != nil {
			g.log.Error("terminal restore during crash failed", "error", err)
		} else {
			restored = true
		}
	}
	if !restored {
		terminal.EmergencyReset(g.stderr)
	}

	id := uuid.New()
	report := fmt.Sprintf(
		"\nvi-git was closed due to an unexpected panic.\nPlease file an issue on %s with the following info:\n\nincident: %s\n\n%v\n\ntrace:\n%s\n",
		IssueURL, id, r, stack,
	)

	g.log.Error("panic", "incident", id.String(), "panic", fmt.Sprint(r), "trace", string(stack))
	fmt.Fprint(g.stderr, report)
	if f, ok := g.stderr.(*os.File); ok {
		f.Sync()
	}

	g.exit(1)
}
