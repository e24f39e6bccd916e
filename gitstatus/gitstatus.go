// Package gitstatus runs git queries on the worker pool and reports completion
// through the git notification channel
package gitstatus

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/workpool"
)

// Runner executes git with args and returns stdout
type Runner func(ctx context.Context, args ...string) ([]byte, error)

// Submitter queues background jobs, satisfied by *workpool.Pool
type Submitter interface {
	Submit(job workpool.Job) error
}

// ExecRunner runs the git binary against path
func ExecRunner(path repo.Path) Runner {
	return func(ctx context.Context, args ...string) ([]byte, error) {
		full := gitArgs(path, args...)
		cmd := exec.CommandContext(ctx, "git", full...)
		var stderr bytes.Buffer
		cmd.Stderr = &stderr
		out, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("git %s: %w: %s", strings.Join(args, " "), err, strings.TrimSpace(stderr.String()))
		}
		return out, nil
	}
}

func gitArgs(path repo.Path, args ...string) []string {
	var prefix []string
	if path.IsExplicit() {
		prefix = []string{"--git-dir", path.GitPath(), "--work-tree", path.WorkDir()}
	} else {
		prefix = []string{"-C", path.GitPath()}
	}
	return append(prefix, args...)
}

// query is one kind of background git call whose last result is cached
// A new request while one is in flight is skipped
type query[T any] struct {
	pool     Submitter
	sender   chan<- event.GitNotification
	run      Runner
	args     []string
	parse    func([]byte) (T, error)
	notify   event.GitNotification
	inFlight atomic.Bool

	mu      sync.Mutex
	lastRaw []byte
	last    T
	err     error
}

// fetch queues the query; it returns false when one is already running
func (q *query[T]) fetch() (bool, error) {
	if !q.inFlight.CompareAndSwap(false, true) {
		return false, nil
	}
	if err := q.pool.Submit(q.job); err != nil {
		q.inFlight.Store(false)
		return false, err
	}
	return true, nil
}

func (q *query[T]) job(ctx context.Context) {
	out, err := q.run(ctx, q.args...)
	notification := q.notify

	q.mu.Lock()
	switch {
	case err != nil:
		q.err = err
	case q.err == nil && q.lastRaw != nil && bytes.Equal(out, q.lastRaw):
		notification = event.GitFinishUnchanged
	default:
		parsed, perr := q.parse(out)
		q.err = perr
		if perr == nil {
			q.last = parsed
			q.lastRaw = out
		}
	}
	q.mu.Unlock()

	// Cleared before the send so a woken loop never sees finished work as pending
	q.inFlight.Store(false)

	// Receiver may be gone after a session ended
	select {
	case q.sender <- notification:
	default:
	}
}

func (q *query[T]) result() (T, error) {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.last, q.err
}

// Item is one entry of the porcelain status
type Item struct {
	Path     string
	Index    byte // Staged state, ' ' when unmodified
	Worktree byte // Unstaged state
}

// Submodule is one entry of git submodule status
type Submodule struct {
	Path   string
	Commit string
	State  byte // ' ' in sync, '-' not initialized, '+' differs, 'U' conflict
}

// Fetcher owns the background status and submodule queries of one session
type Fetcher struct {
	status     query[[]Item]
	submodules query[[]Submodule]
}

// NewFetcher creates the queries; results are announced on sender
func NewFetcher(pool Submitter, sender chan<- event.GitNotification, run Runner) *Fetcher {
	return &Fetcher{
		status: query[[]Item]{
			pool:   pool,
			sender: sender,
			run:    run,
			args:   []string{"status", "--porcelain=v1", "-z", "--untracked-files=all"},
			parse:  ParseStatus,
			notify: event.GitStatus,
		},
		submodules: query[[]Submodule]{
			pool:   pool,
			sender: sender,
			run:    run,
			args:   []string{"submodule", "status"},
			parse:  ParseSubmodules,
			notify: event.GitSubmodules,
		},
	}
}

// Fetch queues both queries
func (f *Fetcher) Fetch() error {
	if _, err := f.status.fetch(); err != nil {
		return fmt.Errorf("queue status: %w", err)
	}
	if _, err := f.submodules.fetch(); err != nil {
		return fmt.Errorf("queue submodules: %w", err)
	}
	return nil
}

// Pending reports whether any query is running
func (f *Fetcher) Pending() bool {
	return f.status.inFlight.Load() || f.submodules.inFlight.Load()
}

// Status returns the last parsed status and the last query error
func (f *Fetcher) Status() ([]Item, error) {
	return f.status.result()
}

// Submodules returns the last parsed submodule list and the last query error
func (f *Fetcher) Submodules() ([]Submodule, error) {
	return f.submodules.result()
}

// ParseStatus decodes NUL separated porcelain v1 output
func ParseStatus(out []byte) ([]Item, error) {
	var items []Item
	fields := bytes.Split(out, []byte{0})
	for i := 0; i < len(fields); i++ {
		f := fields[i]
		if len(f) == 0 {
			continue
		}
		if len(f) < 4 || f[2] != ' ' {
			return nil, fmt.Errorf("malformed status entry %q", f)
		}
		item := Item{Index: f[0], Worktree: f[1], Path: string(f[3:])}
		// Renames and copies are followed by the source path
		if item.Index == 'R' || item.Index == 'C' {
			i++
		}
		items = append(items, item)
	}
	return items, nil
}

// ParseSubmodules decodes git submodule status lines
func ParseSubmodules(out []byte) ([]Submodule, error) {
	var subs []Submodule
	for _, line := range strings.Split(string(out), "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		state := line[0]
		fields := strings.Fields(line[1:])
		if len(fields) < 2 {
			return nil, fmt.Errorf("malformed submodule entry %q", line)
		}
		subs = append(subs, Submodule{State: state, Commit: fields[0], Path: fields[1]})
	}
	return subs, nil
}
