// Package event defines the runtime loop's tagged events and the multi-source wait
package event

import (
	"fmt"

	"github.com/lixenwraith/vi-git/input"
)

// Kind tags the origin of an Event
type Kind uint8

const (
	// KindTick is the periodic polling timer
	// Trigger: Ticker channel | Payload: none
	KindTick Kind = iota

	// KindNotify is a filesystem change, also synthesized for the first iteration
	// Trigger: Watcher channel | Payload: none
	KindNotify

	// KindSpinnerUpdate is the animation clock
	// Trigger: Spinner channel | Payload: none
	KindSpinnerUpdate

	// KindAsync is a background work completion
	// Trigger: App or Git channel | Payload: Async
	KindAsync

	// KindInput is a key, resize or input state change
	// Trigger: Input channel | Payload: Input
	KindInput
)

var kindNames = [...]string{
	KindTick:          "tick",
	KindNotify:        "notify",
	KindSpinnerUpdate: "spinner",
	KindAsync:         "async",
	KindInput:         "input",
}

func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// Event is exactly one value taken from exactly one source
type Event struct {
	Kind  Kind
	Async AsyncNotification
	Input input.Event
}

// Source identifies which background tier completed
type Source uint8

const (
	SourceApp Source = iota
	SourceGit
)

// AppNotification is an application-tier background completion
type AppNotification uint8

const (
	AppSyntaxHighlightProgress AppNotification = iota
	AppSyntaxHighlightDone
)

// GitNotification is a git-tier background completion
type GitNotification uint8

const (
	GitStatus GitNotification = iota
	GitSubmodules
	// GitFinishUnchanged marks a job that produced no material change
	GitFinishUnchanged
)

func (n GitNotification) String() string {
	switch n {
	case GitStatus:
		return "status"
	case GitSubmodules:
		return "submodules"
	case GitFinishUnchanged:
		return "finish-unchanged"
	default:
		return fmt.Sprintf("GitNotification(%d)", uint8(n))
	}
}

// AsyncNotification carries which subsystem completed
type AsyncNotification struct {
	Source Source
	App    AppNotification // For SourceApp
	Git    GitNotification // For SourceGit
}

// IsUnchanged reports the git no-op marker that the loop filters
func (n AsyncNotification) IsUnchanged() bool {
	return n.Source == SourceGit && n.Git == GitFinishUnchanged
}

func (n AsyncNotification) String() string {
	if n.Source == SourceGit {
		return "git:" + n.Git.String()
	}
	switch n.App {
	case AppSyntaxHighlightProgress:
		return "app:highlight-progress"
	case AppSyntaxHighlightDone:
		return "app:highlight-done"
	default:
		return fmt.Sprintf("app:%d", uint8(n.App))
	}
}
