// Package engine runs the session loop: it waits on the session's event sources,
// dispatches to the application and redraws, and rebuilds the session when the
// application re-targets another repository
package engine

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/input"
	"github.com/lixenwraith/vi-git/keys"
	"github.com/lixenwraith/vi-git/render"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/terminal"
	"github.com/lixenwraith/vi-git/theme"
	"github.com/lixenwraith/vi-git/workpool"
)

const (
	// SpinnerInterval is the animation clock period
	SpinnerInterval = 80 * time.Millisecond
	// TickInterval is the default polling period
	TickInterval = 5 * time.Second
)

// Updater selects the session's change source
type Updater uint8

const (
	UpdaterTicker  Updater = iota // Periodic polling
	UpdaterWatcher                // Filesystem notifications
)

func (u Updater) String() string {
	if u == UpdaterWatcher {
		return "watcher"
	}
	return "ticker"
}

// QuitKind is the terminal request of a session
type QuitKind uint8

const (
	QuitNone QuitKind = iota
	QuitClose
	QuitOpenSubmodule
)

// QuitState is what the application wants once IsQuit reports true
type QuitState struct {
	Kind QuitKind
	Path repo.Path // For QuitOpenSubmodule
}

func (q QuitState) String() string {
	switch q.Kind {
	case QuitNone:
		return "none"
	case QuitClose:
		return "close"
	case QuitOpenSubmodule:
		return "open submodule " + q.Path.String()
	default:
		return fmt.Sprintf("QuitKind(%d)", uint8(q.Kind))
	}
}

// Application is the state machine driven by a session
type Application interface {
	HandleInput(ev input.Event) error
	Update() error
	UpdateAsync(n event.AsyncNotification) error
	Draw(f *render.Frame) error
	// RequiresRedraw reports, and resets, a pending full repaint request
	RequiresRedraw() bool
	AnyWorkPending() bool
	IsQuit() bool
	QuitState() QuitState
}

// Input is the process-wide input handle
type Input interface {
	Receiver() <-chan input.Event
	Suspend(fn func() error) error
}

// Env is everything an application instance is built from
type Env struct {
	Repo  repo.Path
	Git   chan<- event.GitNotification
	App   chan<- event.AppNotification
	Input Input
	Theme theme.Theme
	Keys  keys.KeyConfig
	Pool  *workpool.Pool
	Log   *slog.Logger
}

// AppFactory builds a fresh application for one session
type AppFactory func(env Env) (Application, error)

// Screen is the terminal surface used by the loop, satisfied by *terminal.Terminal
type Screen interface {
	SetTitle(title string) error
	HideCursor() error
	Clear() error
	Size() (int, int)
	Flush(cells []terminal.Cell, width, height int) error
	DrawCell(x, y int, c terminal.Cell) error
}

// Watcher is a per-session change notifier
type Watcher interface {
	Receiver() <-chan struct{}
	Close() error
}

// WatcherFactory starts a notifier for a repository
type WatcherFactory func(path repo.Path) (Watcher, error)

// Ticker is a stoppable periodic channel
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock provides tickers and time, replaceable in tests
type Clock interface {
	Now() time.Time
	NewTicker(d time.Duration) Ticker
}

type realClock struct{}

type realTicker struct{ t *time.Ticker }

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTicker(d time.Duration) Ticker {
	return realTicker{time.NewTicker(d)}
}

func (r realTicker) C() <-chan time.Time { return r.t.C }
func (r realTicker) Stop()               { r.t.Stop() }
