package event

import (
	"errors"
	"fmt"
	"time"

	"github.com/lixenwraith/vi-git/input"
)

// ErrSourceClosed is returned when a session channel was closed by its producer
var ErrSourceClosed = errors.New("event source closed")

// Sources is one session's channel set
// A nil channel never becomes ready, which keeps an unused source inert
type Sources struct {
	Input   <-chan input.Event
	Git     <-chan GitNotification
	App     <-chan AppNotification
	Ticker  <-chan time.Time
	Watcher <-chan struct{}
	Spinner <-chan time.Time
}

// Select blocks until one source is ready and returns its value tagged by origin
// Between simultaneously ready sources the choice is random; callers must not rely on order
func Select(src Sources) (Event, error) {
	select {
	case ev, ok := <-src.Input:
		if !ok {
			return Event{}, closed("input")
		}
		return Event{Kind: KindInput, Input: ev}, nil

	case n, ok := <-src.Git:
		if !ok {
			return Event{}, closed("git")
		}
		return Event{Kind: KindAsync, Async: AsyncNotification{Source: SourceGit, Git: n}}, nil

	case n, ok := <-src.App:
		if !ok {
			return Event{}, closed("app")
		}
		return Event{Kind: KindAsync, Async: AsyncNotification{Source: SourceApp, App: n}}, nil

	case _, ok := <-src.Ticker:
		if !ok {
			return Event{}, closed("ticker")
		}
		return Event{Kind: KindTick}, nil

	case _, ok := <-src.Watcher:
		if !ok {
			return Event{}, closed("watcher")
		}
		return Event{Kind: KindNotify}, nil

	case _, ok := <-src.Spinner:
		if !ok {
			return Event{}, closed("spinner")
		}
		return Event{Kind: KindSpinnerUpdate}, nil
	}
}

func closed(name string) error {
	return fmt.Errorf("%w: %s", ErrSourceClosed, name)
}
