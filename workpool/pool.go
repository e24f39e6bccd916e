// Package workpool provides the fixed-size worker pool used by background work
package workpool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"

	"golang.org/x/sync/errgroup"
)

// DefaultSize is the worker count used by the runtime
const DefaultSize = 4

// queueSize bounds pending jobs; Submit fails fast instead of blocking the caller
const queueSize = 256

var (
	ErrClosed    = errors.New("worker pool closed")
	ErrQueueFull = errors.New("worker pool queue full")
)

// Job is a unit of background work
// The context is cancelled when the pool is closed; long jobs must honor it
type Job func(ctx context.Context)

// PanicHandler receives panics raised by jobs
type PanicHandler func(r any, stack []byte)

// Pool runs jobs on a fixed set of workers
type Pool struct {
	size    int
	jobs    chan Job
	group   *errgroup.Group
	ctx     context.Context
	cancel  context.CancelFunc
	onPanic PanicHandler

	mu     sync.RWMutex
	closed bool
}

// New starts a pool with size workers
func New(size int, onPanic PanicHandler) (*Pool, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid worker count %d", size)
	}

	ctx, cancel := context.WithCancel(context.Background())
	group, gctx := errgroup.WithContext(ctx)

	p := &Pool{
		size:    size,
		jobs:    make(chan Job, queueSize),
		group:   group,
		ctx:     gctx,
		cancel:  cancel,
		onPanic: onPanic,
	}

	for range size {
		group.Go(p.worker)
	}
	return p, nil
}

// Size returns the number of workers
func (p *Pool) Size() int {
	return p.size
}

// Submit queues a job without blocking
func (p *Pool) Submit(job Job) error {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.closed {
		return ErrClosed
	}
	select {
	case p.jobs <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Close stops accepting jobs, cancels the job context and waits for workers
// Queued jobs still run, with an already cancelled context
func (p *Pool) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.jobs)
	p.mu.Unlock()

	p.cancel()
	return p.group.Wait()
}

func (p *Pool) worker() error {
	for job := range p.jobs {
		p.run(job)
	}
	return nil
}

func (p *Pool) run(job Job) {
	defer func() {
		if r := recover(); r != nil {
			if p.onPanic == nil {
				panic(r)
			}
			p.onPanic(r, debug.Stack())
		}
	}()
	job(p.ctx)
}
