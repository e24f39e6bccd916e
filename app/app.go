// Package app is the bundled application driven by the engine: a status list of the
// work tree with submodule navigation, file preview and editor hand-off
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/vi-git/engine"
	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/gitstatus"
	"github.com/lixenwraith/vi-git/input"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/terminal"
	"github.com/lixenwraith/vi-git/workpool"
)

type rowKind uint8

const (
	rowFile rowKind = iota
	rowSubmodule
)

type row struct {
	kind   rowKind
	path   string
	status [2]byte
}

// Option customizes the application, mainly for tests
type Option func(*options)

type options struct {
	runner    gitstatus.Runner
	submitter gitstatus.Submitter
	editor    func(file string) error
}

// WithRunner replaces the git binary
func WithRunner(r gitstatus.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithSubmitter replaces the worker pool
func WithSubmitter(s gitstatus.Submitter) Option {
	return func(o *options) { o.submitter = s }
}

// WithEditor replaces the external editor launcher
func WithEditor(fn func(file string) error) Option {
	return func(o *options) { o.editor = fn }
}

// App implements engine.Application
type App struct {
	env     engine.Env
	log     *slog.Logger
	workdir string
	fetcher *gitstatus.Fetcher
	preview *previewer
	editor  func(file string) error

	rows     []row
	selected int
	showHelp bool
	redraw   bool
	message  string
	quit     engine.QuitState
}

// Factory returns an engine.AppFactory building a fresh App per session
func Factory(opts ...Option) engine.AppFactory {
	return func(env engine.Env) (engine.Application, error) {
		return New(env, opts...)
	}
}

// New creates the application for env.Repo
func New(env engine.Env, opts ...Option) (*App, error) {
	o := options{
		runner: gitstatus.ExecRunner(env.Repo),
		editor: launchEditor,
	}
	if env.Pool != nil {
		o.submitter = env.Pool
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.submitter == nil {
		return nil, errors.New("no worker pool")
	}

	workdir := env.Repo.WorkDir()
	if workdir == "" {
		wd, err := repo.Discover(env.Repo.GitPath())
		if err != nil {
			return nil, err
		}
		workdir = wd
	}

	log := env.Log
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}

	return &App{
		env:     env,
		log:     log,
		workdir: workdir,
		fetcher: gitstatus.NewFetcher(o.submitter, env.Git, o.runner),
		preview: newPreviewer(o.submitter, env.App),
		editor:  o.editor,
	}, nil
}

// HandleInput reacts to keys, resizes and input state changes
func (a *App) HandleInput(ev input.Event) error {
	if ev.Kind == input.KindState {
		if ev.State == input.StatePolling {
			a.redraw = true
		}
		return nil
	}

	switch ev.Term.Type {
	case terminal.EventResize:
		a.redraw = true
		return nil
	case terminal.EventKey:
	default:
		return nil
	}

	k := a.env.Keys.Keys
	switch {
	case k.Exit.Matches(ev.Term), k.Quit.Matches(ev.Term):
		a.quit = engine.QuitState{Kind: engine.QuitClose}
	case k.MoveUp.Matches(ev.Term):
		a.move(a.selected - 1)
	case k.MoveDown.Matches(ev.Term):
		a.move(a.selected + 1)
	case k.Home.Matches(ev.Term):
		a.move(0)
	case k.End.Matches(ev.Term):
		a.move(len(a.rows) - 1)
	case k.ToggleHelp.Matches(ev.Term):
		a.showHelp = !a.showHelp
	case k.Refresh.Matches(ev.Term):
		return a.Update()
	case k.Edit.Matches(ev.Term):
		return a.edit()
	case k.OpenSubmodule.Matches(ev.Term):
		a.openSubmodule()
	}
	return nil
}

// Update re-polls the repository
func (a *App) Update() error {
	err := a.fetcher.Fetch()
	if errors.Is(err, workpool.ErrQueueFull) {
		a.log.Warn("status refresh skipped", "error", err)
		return nil
	}
	return err
}

// UpdateAsync pulls finished background results into view state
func (a *App) UpdateAsync(n event.AsyncNotification) error {
	switch n.Source {
	case event.SourceGit:
		a.rebuild()
	case event.SourceApp:
		if n.App == event.AppSyntaxHighlightDone {
			if err := a.preview.err(); err != nil {
				a.log.Debug("preview failed", "error", err)
			}
		}
	}
	return nil
}

func (a *App) rebuild() {
	var current string
	if a.selected < len(a.rows) {
		current = a.rows[a.selected].path
	}

	items, err := a.fetcher.Status()
	if err != nil {
		a.message = err.Error()
		a.log.Warn("status failed", "error", err)
	}
	subs, err := a.fetcher.Submodules()
	if err != nil {
		a.log.Debug("submodule status failed", "error", err)
	}

	rows := make([]row, 0, len(items)+len(subs))
	for _, it := range items {
		rows = append(rows, row{kind: rowFile, path: it.Path, status: [2]byte{it.Index, it.Worktree}})
	}
	for _, s := range subs {
		rows = append(rows, row{kind: rowSubmodule, path: s.Path, status: [2]byte{s.State, ' '}})
	}
	a.rows = rows

	a.selected = 0
	for i, r := range rows {
		if r.path == current {
			a.selected = i
			break
		}
	}
	a.requestPreview()
}

func (a *App) move(to int) {
	if len(a.rows) == 0 {
		return
	}
	to = max(0, min(to, len(a.rows)-1))
	if to == a.selected {
		return
	}
	a.selected = to
	a.message = ""
	a.requestPreview()
}

func (a *App) current() (row, bool) {
	if a.selected < 0 || a.selected >= len(a.rows) {
		return row{}, false
	}
	return a.rows[a.selected], true
}

func (a *App) requestPreview() {
	r, ok := a.current()
	if !ok || r.kind != rowFile {
		a.preview.reset()
		return
	}
	if err := a.preview.request(filepath.Join(a.workdir, r.path)); err != nil {
		a.log.Warn("preview skipped", "error", err)
	}
}

func (a *App) edit() error {
	r, ok := a.current()
	if !ok || r.kind != rowFile {
		return nil
	}
	file := filepath.Join(a.workdir, r.path)
	if err := a.env.Input.Suspend(func() error { return a.editor(file) }); err != nil {
		a.message = err.Error()
		a.log.Error("editor failed", "file", file, "error", err)
	}
	a.redraw = true
	return a.Update()
}

func (a *App) openSubmodule() {
	r, ok := a.current()
	if !ok || r.kind != rowSubmodule {
		return
	}
	a.quit = engine.QuitState{
		Kind: engine.QuitOpenSubmodule,
		Path: repo.At(filepath.Join(a.workdir, r.path)),
	}
}

// RequiresRedraw reports and clears a pending full repaint
func (a *App) RequiresRedraw() bool {
	r := a.redraw
	a.redraw = false
	return r
}

// AnyWorkPending reports running background jobs
func (a *App) AnyWorkPending() bool {
	return a.fetcher.Pending() || a.preview.pending()
}

func (a *App) IsQuit() bool {
	return a.quit.Kind != engine.QuitNone
}

func (a *App) QuitState() engine.QuitState {
	return a.quit
}

// launchEditor runs the user's editor on file with the inherited tty
func launchEditor(file string) error {
	editor := ""
	for _, env := range []string{"GIT_EDITOR", "VISUAL", "EDITOR"} {
		if v := strings.TrimSpace(os.Getenv(env)); v != "" {
			editor = v
			break
		}
	}
	if editor == "" {
		editor = "vi"
	}

	args := strings.Fields(editor)
	cmd := exec.Command(args[0], append(args[1:], file)...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s: %w", editor, err)
	}
	return nil
}
