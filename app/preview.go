package app

import (
	"bufio"
	"context"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/lixenwraith/vi-git/event"
	"github.com/lixenwraith/vi-git/gitstatus"
)

const (
	previewMaxLines = 500
	previewChunk    = 100
)

// previewer loads the selected file on the pool, reporting progress per chunk
type previewer struct {
	pool   gitstatus.Submitter
	sender chan<- event.AppNotification
	busy   atomic.Int32

	mu      sync.Mutex
	gen     uint64
	path    string
	lines   []string
	loadErr error
}

func newPreviewer(pool gitstatus.Submitter, sender chan<- event.AppNotification) *previewer {
	return &previewer{pool: pool, sender: sender}
}

func (p *previewer) request(path string) error {
	p.mu.Lock()
	p.gen++
	gen := p.gen
	p.path = path
	p.lines = nil
	p.loadErr = nil
	p.mu.Unlock()

	p.busy.Add(1)
	err := p.pool.Submit(func(ctx context.Context) {
		done := p.load(ctx, gen, path)
		p.busy.Add(-1)
		if done {
			p.notify(event.AppSyntaxHighlightDone)
		}
	})
	if err != nil {
		p.busy.Add(-1)
	}
	return err
}

// load reads the file; true when the result was published for the current request
func (p *previewer) load(ctx context.Context, gen uint64, path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return p.finish(gen, nil, err)
	}
	defer f.Close()

	var lines []string
	sc := bufio.NewScanner(f)
	for sc.Scan() && len(lines) < previewMaxLines {
		if ctx.Err() != nil {
			return false
		}
		lines = append(lines, strings.ReplaceAll(sc.Text(), "\t", "    "))
		if len(lines)%previewChunk == 0 {
			if !p.store(gen, lines) {
				return false
			}
			p.notify(event.AppSyntaxHighlightProgress)
		}
	}
	return p.finish(gen, lines, sc.Err())
}

// store publishes partial lines; false when a newer request superseded this one
func (p *previewer) store(gen uint64, lines []string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.lines = append([]string(nil), lines...)
	return true
}

func (p *previewer) finish(gen uint64, lines []string, err error) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if gen != p.gen {
		return false
	}
	p.lines = lines
	p.loadErr = err
	return true
}

func (p *previewer) notify(n event.AppNotification) {
	select {
	case p.sender <- n:
	default:
	}
}

func (p *previewer) reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	p.path = ""
	p.lines = nil
	p.loadErr = nil
}

func (p *previewer) snapshot() (string, []string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.path, p.lines
}

func (p *previewer) err() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.loadErr
}

func (p *previewer) pending() bool {
	return p.busy.Load() > 0
}
