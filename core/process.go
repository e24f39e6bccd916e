package core

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lixenwraith/vi-git/workpool"
)

// ErrAlreadyInitialized is returned by a second Process.Init
var ErrAlreadyInitialized = errors.New("process already initialized")

// Process holds the process-wide state: the crash guard and the worker pool
// Both are created by a single Init call and never reconfigured
type Process struct {
	once sync.Once

	guard *Guard
	pool  *workpool.Pool
}

// ProcessConfig parameterizes Init
type ProcessConfig struct {
	Workers      int
	Log          *slog.Logger
	GuardOptions []GuardOption
}

// Init installs the crash guard and starts the worker pool
// The guard is installed first so pool startup faults are already covered
func (p *Process) Init(cfg ProcessConfig) error {
	err := ErrAlreadyInitialized
	p.once.Do(func() {
		err = p.init(cfg)
	})
	return err
}

func (p *Process) init(cfg ProcessConfig) error {
	if cfg.Workers == 0 {
		cfg.Workers = workpool.DefaultSize
	}

	guard := NewGuard(cfg.Log, cfg.GuardOptions...)
	if err := guard.Install(); err != nil {
		return err
	}

	pool, err := workpool.New(cfg.Workers, guard.Handle)
	if err != nil {
		return fmt.Errorf("init worker pool: %w", err)
	}

	p.guard = guard
	p.pool = pool
	return nil
}

// Guard returns the installed crash guard, nil before a successful Init
func (p *Process) Guard() *Guard {
	return p.guard
}

// Pool returns the worker pool, nil before a successful Init
func (p *Process) Pool() *workpool.Pool {
	return p.pool
}

// Close stops the worker pool, waiting for running jobs
func (p *Process) Close() error {
	if p.pool == nil {
		return nil
	}
	return p.pool.Close()
}
