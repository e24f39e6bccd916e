// Package input forwards decoded terminal input to the runtime loop and lets the
// application hand the tty to an external program
package input

import (
	"errors"
	"fmt"
	"sync"

	"github.com/lixenwraith/vi-git/terminal"
)

// Kind distinguishes input payloads
type Kind uint8

const (
	KindTerminal Kind = iota // Key or resize from the terminal
	KindState                // Reader state change
)

// State reports whether the reader currently owns the tty
type State uint8

const (
	StatePaused  State = iota // External program owns the tty
	StatePolling              // Reading resumed after a pause
)

func (s State) String() string {
	switch s {
	case StatePaused:
		return "paused"
	case StatePolling:
		return "polling"
	default:
		return fmt.Sprintf("State(%d)", uint8(s))
	}
}

// Event is one item delivered on the input channel
type Event struct {
	Kind  Kind
	Term  terminal.Event // For KindTerminal
	State State          // For KindState
}

// IsPollingResumed reports whether the event marks the end of a suspension
func (e Event) IsPollingResumed() bool {
	return e.Kind == KindState && e.State == StatePolling
}

// Terminal is the subset of *terminal.Terminal the input layer drives
type Terminal interface {
	Enter() error
	Leave() error
	StartInput(spawn func(func()))
	StopInput()
	Events() <-chan terminal.Event
}

// ErrClosed is returned by Suspend after Close
var ErrClosed = errors.New("input closed")

const bufferSize = 256

// Input owns the terminal reader for the whole process
// It outlives sessions; each session receives from the same channel
type Input struct {
	term  Terminal
	spawn func(func())
	out   chan Event

	mu     sync.Mutex
	closed bool
	stopCh chan struct{}
	doneCh chan struct{}
}

// New starts reading terminal input; spawn starts goroutines, normally core.Guard.Go
func New(term Terminal, spawn func(func())) *Input {
	if spawn == nil {
		spawn = func(fn func()) { go fn() }
	}
	in := &Input{
		term:   term,
		spawn:  spawn,
		out:    make(chan Event, bufferSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
	term.StartInput(spawn)
	spawn(in.forward)
	return in
}

// Receiver returns the channel the runtime loop selects on
func (in *Input) Receiver() <-chan Event {
	return in.out
}

func (in *Input) forward() {
	defer close(in.doneCh)
	events := in.term.Events()
	for {
		select {
		case <-in.stopCh:
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			in.send(Event{Kind: KindTerminal, Term: ev})
		}
	}
}

func (in *Input) send(ev Event) {
	select {
	case in.out <- ev:
	default:
		// Loop stalled, drop
	}
}

// Suspend stops reading, restores the normal terminal, runs fn, then re-enters
// StatePaused is emitted before fn and StatePolling after the terminal is back
func (in *Input) Suspend(fn func() error) error {
	in.mu.Lock()
	defer in.mu.Unlock()
	if in.closed {
		return ErrClosed
	}

	in.term.StopInput()
	in.send(Event{Kind: KindState, State: StatePaused})

	var errs []error
	if err := in.term.Leave(); err != nil {
		errs = append(errs, err)
	}
	if err := fn(); err != nil {
		errs = append(errs, err)
	}
	if err := in.term.Enter(); err != nil {
		// Without the terminal there is nothing to resume
		return errors.Join(append(errs, fmt.Errorf("re-enter terminal: %w", err))...)
	}

	in.term.StartInput(in.spawn)
	in.send(Event{Kind: KindState, State: StatePolling})
	return errors.Join(errs...)
}

// Close stops the reader and the forwarding goroutine
func (in *Input) Close() {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.closed = true
	in.mu.Unlock()

	in.term.StopInput()
	close(in.stopCh)
	<-in.doneCh
}
