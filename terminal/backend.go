package terminal

// Backend abstracts platform-specific terminal operations.
// Raw mode entry and exit are separate from output so that restoration
// steps can be attempted independently of each other.
type Backend interface {
	// EnterRaw switches input to non-canonical, non-echoing mode
	EnterRaw() error

	// LeaveRaw restores the mode captured by EnterRaw
	LeaveRaw() error

	// Size returns current terminal dimensions
	Size() (width, height int)

	// Write writes raw bytes to the terminal output
	Write(p []byte) error

	// Read blocks until input is available, the stop channel is closed, or an error occurs
	// A nil slice with nil error means timeout or stop
	Read(stopCh <-chan struct{}) ([]byte, error)

	// SetResizeHandler registers a callback for terminal resize events, nil handler stops delivery
	SetResizeHandler(handler func(width, height int))
}
