// Package watcher signals repository changes from filesystem events
package watcher

import (
	"io/fs"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce batches bursts of filesystem events into one signal
const DefaultDebounce = 2 * time.Second

// skipDirs are not watched; they change constantly without affecting status
var skipDirs = map[string]bool{
	"objects": true,
	"logs":    true,
	"lfs":     true,
}

// Option configures a RepoWatcher
type Option func(*RepoWatcher)

// WithDebounce overrides DefaultDebounce
func WithDebounce(d time.Duration) Option {
	return func(w *RepoWatcher) { w.debounce = d }
}

// WithSpawn sets how the event goroutine is started, normally core.Guard.Go
func WithSpawn(spawn func(func())) Option {
	return func(w *RepoWatcher) { w.spawn = spawn }
}

// WithLogger sets the logger for watch errors
func WithLogger(log *slog.Logger) Option {
	return func(w *RepoWatcher) { w.log = log }
}

// RepoWatcher emits a unit value on its receiver after changes settle
// Its lifetime is one session
type RepoWatcher struct {
	fsw      *fsnotify.Watcher
	out      chan struct{}
	debounce time.Duration
	spawn    func(func())
	log      *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

// New watches root recursively
func New(root string, opts ...Option) (*RepoWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &RepoWatcher{
		fsw:      fsw,
		out:      make(chan struct{}, 1),
		debounce: DefaultDebounce,
		spawn:    func(fn func()) { go fn() },
		log:      slog.New(slog.DiscardHandler),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}

	if err := w.addTree(root); err != nil {
		fsw.Close()
		return nil, err
	}

	w.spawn(w.loop)
	return w, nil
}

// Receiver returns the change signal channel
func (w *RepoWatcher) Receiver() <-chan struct{} {
	return w.out
}

// Close stops watching and waits for the event goroutine
func (w *RepoWatcher) Close() error {
	var err error
	w.closeOnce.Do(func() {
		err = w.fsw.Close()
		<-w.done
	})
	return err
}

func (w *RepoWatcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable subtrees are skipped, the root must succeed
			if path == root {
				return err
			}
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if path != root && skipDirs[d.Name()] && filepath.Base(filepath.Dir(path)) == ".git" {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			w.log.Warn("watch failed", "path", path, "error", err)
		}
		return nil
	})
}

func (w *RepoWatcher) loop() {
	defer close(w.done)

	var (
		timer  *time.Timer
		timerC <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Has(fsnotify.Create) {
				// New directories are not covered by the initial walk
				w.addTree(ev.Name)
			}
			if timerC == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.log.Error("watcher error", "error", err)

		case <-timerC:
			timerC = nil
			select {
			case w.out <- struct{}{}:
			default:
				// Signal already pending
			}
		}
	}
}
