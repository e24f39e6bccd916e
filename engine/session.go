package engine

import (
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/render"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/spinner"
	"github.com/lixenwraith/vi-git/status"
)

// session owns one channel set and one application instance
type session struct {
	rt      *Runtime
	log     *slog.Logger
	path    repo.Path
	src     event.Sources
	app     Application
	spinner *spinner.Spinner
	frame   *render.Frame
	metrics sessionMetrics

	cleanup []func()
}

func (rt *Runtime) newSession(cfg Config, path repo.Path) (*session, error) {
	s := &session{
		rt:      rt,
		log:     cfg.Log.With("repo", path.String()),
		path:    path,
		spinner: spinner.New(cfg.Theme.Spinner),
		frame:   render.NewFrame(rt.Screen.Size()),
		metrics: newSessionMetrics(cfg.Metrics),
	}
	s.metrics.sessions.Add(1)
	s.metrics.repo.Set(path.String())

	gitCh := make(chan event.GitNotification, channelSize)
	appCh := make(chan event.AppNotification, channelSize)
	s.src.Git = gitCh
	s.src.App = appCh
	s.src.Input = rt.Input.Receiver()

	// The unused change source stays nil and never fires
	switch cfg.Updater {
	case UpdaterWatcher:
		w, err := rt.NewWatcher(path)
		if err != nil {
			return nil, fmt.Errorf("start watcher: %w", err)
		}
		s.src.Watcher = w.Receiver()
		s.cleanup = append(s.cleanup, func() {
			if err := w.Close(); err != nil {
				s.log.Warn("close watcher failed", "error", err)
			}
		})
	default:
		tk := rt.Clock.NewTicker(cfg.TickInterval)
		s.src.Ticker = tk.C()
		s.cleanup = append(s.cleanup, tk.Stop)
	}

	spin := rt.Clock.NewTicker(cfg.SpinnerInterval)
	s.src.Spinner = spin.C()
	s.cleanup = append(s.cleanup, spin.Stop)

	app, err := rt.NewApp(Env{
		Repo:  path,
		Git:   gitCh,
		App:   appCh,
		Input: rt.Input,
		Theme: cfg.Theme,
		Keys:  cfg.Keys,
		Pool:  cfg.Pool,
		Log:   cfg.Log,
	})
	if err != nil {
		s.close()
		return nil, fmt.Errorf("create application: %w", err)
	}
	s.app = app

	if rt.Title != nil {
		if title, err := rt.Title(cfg.AppName, path); err != nil {
			s.log.Warn("resolve title failed", "error", err)
		} else if err := rt.Screen.SetTitle(title); err != nil {
			s.log.Warn("set title failed", "error", err)
		}
	}
	if err := rt.Screen.HideCursor(); err != nil {
		s.log.Warn("hide cursor failed", "error", err)
	}

	s.log.Info("session started", "updater", cfg.Updater.String())
	return s, nil
}

// close releases the session's sources; in-flight work is left to finish unobserved
func (s *session) close() {
	for i := len(s.cleanup) - 1; i >= 0; i-- {
		s.cleanup[i]()
	}
	s.cleanup = nil
}

// run loops until the application asks to quit or a handler fails
func (s *session) run() (QuitState, error) {
	first := true
	for {
		var ev event.Event
		if first {
			// Forced full update before any source is consulted
			ev = event.Event{Kind: event.KindNotify}
			first = false
		} else {
			var err error
			if ev, err = event.Select(s.src); err != nil {
				return QuitState{}, err
			}
		}

		start := s.rt.Clock.Now()
		s.metrics.events[ev.Kind].Add(1)

		if ev.Kind == event.KindSpinnerUpdate {
			s.spinner.Update()
			s.drawSpinner()
			continue
		}

		if err := s.dispatch(ev); err != nil {
			return QuitState{}, fmt.Errorf("%s event: %w", ev.Kind, err)
		}

		s.draw()
		s.spinner.SetState(s.app.AnyWorkPending())
		s.drawSpinner()

		elapsed := s.rt.Clock.Now().Sub(start)
		s.metrics.lastIteration.Set(elapsed)
		s.metrics.maxIteration.Max(elapsed)
		s.log.Debug("iteration", "event", ev.Kind.String(), "elapsed", elapsed)

		if s.app.IsQuit() {
			return s.app.QuitState(), nil
		}
	}
}

func (s *session) dispatch(ev event.Event) error {
	switch ev.Kind {
	case event.KindInput:
		if ev.Input.IsPollingResumed() {
			// An external program may have left the cursor visible
			if err := s.rt.Screen.HideCursor(); err != nil {
				s.log.Warn("hide cursor failed", "error", err)
			}
		}
		return s.app.HandleInput(ev.Input)

	case event.KindTick, event.KindNotify:
		return s.app.Update()

	case event.KindAsync:
		if ev.Async.IsUnchanged() {
			s.metrics.filtered.Add(1)
			return nil
		}
		return s.app.UpdateAsync(ev.Async)
	}
	return nil
}

// draw renders a full frame; failures are logged and the loop continues
func (s *session) draw() {
	w, h := s.rt.Screen.Size()
	if fw, fh := s.frame.Size(); fw != w || fh != h {
		// The terminal repaints everything after a resize, spinner included
		s.frame.Resize(w, h)
		s.spinner.Invalidate()
	} else {
		s.frame.Clear()
	}

	if s.app.RequiresRedraw() {
		if err := s.rt.Screen.Clear(); err != nil {
			s.log.Error("clear failed", "error", err)
		}
		s.spinner.Invalidate()
	}

	if err := s.app.Draw(s.frame); err != nil {
		s.metrics.drawErrors.Add(1)
		s.log.Error("draw failed", "error", err)
	}
	if err := s.rt.Screen.Flush(s.frame.Cells(), w, h); err != nil {
		s.log.Error("flush failed", "error", err)
	}
}

func (s *session) drawSpinner() {
	if err := s.spinner.Draw(s.rt.Screen); err != nil {
		s.log.Error("draw spinner failed", "error", err)
	}
}

type sessionMetrics struct {
	events        map[event.Kind]*atomic.Int64
	filtered      *atomic.Int64
	drawErrors    *atomic.Int64
	sessions      *atomic.Int64
	lastIteration *status.Duration
	maxIteration  *status.Duration
	repo          *status.Label
}

func newSessionMetrics(r *status.Registry) sessionMetrics {
	m := sessionMetrics{
		events:        make(map[event.Kind]*atomic.Int64),
		filtered:      r.Counters.Get("events.filtered_unchanged"),
		drawErrors:    r.Counters.Get("draw.errors"),
		sessions:      r.Counters.Get("sessions"),
		lastIteration: r.Durations.Get("loop.iteration_last"),
		maxIteration:  r.Durations.Get("loop.iteration_max"),
		repo:          r.Labels.Get("repo"),
	}
	for _, k := range []event.Kind{event.KindTick, event.KindNotify, event.KindSpinnerUpdate, event.KindAsync, event.KindInput} {
		m.events[k] = r.Counters.Get("events." + k.String())
	}
	return m
}
