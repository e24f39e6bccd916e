package engine

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/input"
	"github.com/lixenwraith/vi-git/render"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/terminal"
)

// recorder is a shared, ordered call log
type recorder struct {
	mu  sync.Mutex
	ops []string
}

func (r *recorder) add(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ops = append(r.ops, op)
}

func (r *recorder) list() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ops...)
}

func (r *recorder) count(op string) int {
	n := 0
	for _, o := range r.list() {
		if o == op {
			n++
		}
	}
	return n
}

type fakeScreen struct {
	rec    *recorder
	mu     sync.Mutex
	w, h   int
	titles []string
	cells  []terminal.Cell
}

func (s *fakeScreen) SetTitle(title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.titles = append(s.titles, title)
	return nil
}

func (s *fakeScreen) HideCursor() error {
	s.rec.add("hide-cursor")
	return nil
}

func (s *fakeScreen) Clear() error {
	s.rec.add("clear")
	return nil
}

func (s *fakeScreen) Size() (int, int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w, s.h
}

func (s *fakeScreen) Flush([]terminal.Cell, int, int) error {
	s.rec.add("flush")
	return nil
}

func (s *fakeScreen) DrawCell(x, y int, c terminal.Cell) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cells = append(s.cells, c)
	return nil
}

func (s *fakeScreen) spinnerCells() []terminal.Cell {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]terminal.Cell(nil), s.cells...)
}

// fakeInput delivers through an unbuffered channel so every send is consumed in order
type fakeInput struct {
	ch chan input.Event
}

func (f *fakeInput) Receiver() <-chan input.Event  { return f.ch }
func (f *fakeInput) Suspend(fn func() error) error { return fn() }

func key(r rune) input.Event {
	return input.Event{Kind: input.KindTerminal, Term: terminal.Event{Type: terminal.EventKey, Key: tcell.KeyRune, Rune: r}}
}

var errBoom = errors.New("boom")

const (
	testTimeout = 2 * time.Second
	testPoll    = 5 * time.Millisecond
)

// fakeApp quits on 'q', re-targets on 'o', fails on 'x'
type fakeApp struct {
	rec       *recorder
	env       Env
	mu        sync.Mutex
	pending   bool
	redraw    bool
	drawErr   error
	updateErr error
	quit      QuitState
}

func (a *fakeApp) HandleInput(ev input.Event) error {
	a.rec.add("input")
	a.mu.Lock()
	defer a.mu.Unlock()
	switch ev.Term.Rune {
	case 'q':
		a.quit = QuitState{Kind: QuitClose}
	case 'o':
		a.quit = QuitState{Kind: QuitOpenSubmodule, Path: repo.At("/sub")}
	case 'x':
		return errBoom
	case 'r':
		a.redraw = true
	case 'p':
		a.pending = true
	}
	return nil
}

func (a *fakeApp) Update() error {
	a.rec.add("update")
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.updateErr
}

func (a *fakeApp) UpdateAsync(event.AsyncNotification) error {
	a.rec.add("async")
	return nil
}

func (a *fakeApp) Draw(*render.Frame) error {
	a.rec.add("draw")
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.drawErr
}

func (a *fakeApp) RequiresRedraw() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	r := a.redraw
	a.redraw = false
	return r
}

func (a *fakeApp) AnyWorkPending() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.pending
}

func (a *fakeApp) IsQuit() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quit.Kind != QuitNone
}

func (a *fakeApp) QuitState() QuitState {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.quit
}

type fakeTicker struct {
	d       time.Duration
	ch      chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (t *fakeTicker) C() <-chan time.Time { return t.ch }

func (t *fakeTicker) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
}

func (t *fakeTicker) isStopped() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.stopped
}

type fakeClock struct {
	mu      sync.Mutex
	tickers []*fakeTicker
	created chan *fakeTicker
}

func newFakeClock() *fakeClock {
	return &fakeClock{created: make(chan *fakeTicker, 16)}
}

func (c *fakeClock) Now() time.Time { return time.Unix(0, 0) }

func (c *fakeClock) NewTicker(d time.Duration) Ticker {
	t := &fakeTicker{d: d, ch: make(chan time.Time)}
	c.mu.Lock()
	c.tickers = append(c.tickers, t)
	c.mu.Unlock()
	c.created <- t
	return t
}

func (c *fakeClock) all() []*fakeTicker {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]*fakeTicker(nil), c.tickers...)
}

type fakeWatcher struct {
	ch     chan struct{}
	mu     sync.Mutex
	closed bool
}

func (w *fakeWatcher) Receiver() <-chan struct{} { return w.ch }

func (w *fakeWatcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.closed = true
	return nil
}

func (w *fakeWatcher) isClosed() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.closed
}

// harness wires fakes into a Runtime and exposes each session's app
type harness struct {
	t      *testing.T
	rec    *recorder
	screen *fakeScreen
	input  *fakeInput
	clock  *fakeClock
	rt     *Runtime
	apps   chan *fakeApp
	done   chan error

	configure func(a *fakeApp)
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	rec := &recorder{}
	h := &harness{
		t:      t,
		rec:    rec,
		screen: &fakeScreen{rec: rec, w: 40, h: 10},
		input:  &fakeInput{ch: make(chan input.Event)},
		clock:  newFakeClock(),
		apps:   make(chan *fakeApp, 8),
		done:   make(chan error, 1),
	}
	h.rt = &Runtime{
		Screen: h.screen,
		Input:  h.input,
		Clock:  h.clock,
		NewApp: func(env Env) (Application, error) {
			a := &fakeApp{rec: rec, env: env}
			if h.configure != nil {
				h.configure(a)
			}
			h.apps <- a
			return a, nil
		},
		Title: func(name string, p repo.Path) (string, error) {
			return name + " (" + p.String() + ")", nil
		},
	}
	return h
}

func (h *harness) start(cfg Config) {
	go func() { h.done <- h.rt.Run(cfg) }()
}

func (h *harness) nextApp() *fakeApp {
	h.t.Helper()
	select {
	case a := <-h.apps:
		return a
	case <-time.After(2 * time.Second):
		h.t.Fatal("no application created")
		return nil
	}
}

func (h *harness) send(ev input.Event) {
	h.t.Helper()
	select {
	case h.input.ch <- ev:
	case <-time.After(2 * time.Second):
		h.t.Fatal("loop did not receive input")
	}
}

func (h *harness) wait() error {
	h.t.Helper()
	select {
	case err := <-h.done:
		return err
	case <-time.After(2 * time.Second):
		h.t.Fatal("runtime did not return")
		return nil
	}
}

func tick(t *testing.T, tk *fakeTicker) {
	t.Helper()
	select {
	case tk.ch <- time.Now():
	case <-time.After(2 * time.Second):
		t.Fatal("loop did not receive tick")
	}
}

// tickers returns the session's change ticker (nil for watcher) and spinner ticker
func (h *harness) tickers(cfg Config) (change, spin *fakeTicker) {
	h.t.Helper()
	next := func() *fakeTicker {
		select {
		case tk := <-h.clock.created:
			return tk
		case <-time.After(2 * time.Second):
			h.t.Fatal("ticker not created")
			return nil
		}
	}
	if cfg.Updater == UpdaterTicker {
		change = next()
	}
	spin = next()
	return change, spin
}
