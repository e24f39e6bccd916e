package terminal

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/charmbracelet/x/ansi"
)

// Terminal owns the session's terminal device: mode changes, output and input decoding
type Terminal struct {
	backend Backend
	output  *outputBuffer
	input   *inputReader
	eventCh chan Event
	log     *slog.Logger

	mu          sync.Mutex
	rawMode     bool
	altScreen   bool
	resizeArmed bool
}

// New creates a Terminal over an explicit backend
func New(backend Backend, colorMode ColorMode, log *slog.Logger) *Terminal {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	t := &Terminal{
		backend: backend,
		eventCh: make(chan Event, 256),
		log:     log,
	}
	t.output = newOutputBuffer(backendWriter{backend}, colorMode)
	t.input = newInputReader(backend, t.eventCh)
	return t
}

// NewStdio creates a Terminal on the process stdin/stdout
func NewStdio(colorMode ColorMode, log *slog.Logger) *Terminal {
	return New(newBackend(), colorMode, log)
}

// Enter switches to raw mode and the alternate screen buffer
// On failure the steps already taken stay recorded so Leave can undo them
func (t *Terminal) Enter() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if !t.rawMode {
		if err := t.backend.EnterRaw(); err != nil {
			return fmt.Errorf("enable raw mode: %w", err)
		}
		t.rawMode = true
	}

	if !t.altScreen {
		// DECAWM off prevents scroll when writing the bottom-right corner
		seq := append(append([]byte{}, csiAltScreenEnter...), csiAutoWrapOff...)
		if err := t.output.write(seq); err != nil {
			return fmt.Errorf("enter alternate screen: %w", err)
		}
		t.altScreen = true
	}

	if !t.resizeArmed {
		t.backend.SetResizeHandler(t.onResize)
		t.resizeArmed = true
	}

	w, h := t.backend.Size()
	t.output.resize(w, h)
	return nil
}

// Leave restores the terminal: leaves the alternate screen, then leaves raw mode
// Each step runs regardless of the other's outcome; failures are logged and joined
// Safe to call repeatedly, only steps still in effect are attempted
func (t *Terminal) Leave() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.resizeArmed {
		t.backend.SetResizeHandler(nil)
		t.resizeArmed = false
	}

	var errs []error

	if t.altScreen {
		if err := t.leaveAltScreen(); err != nil {
			t.log.Error("leave alternate screen failed", "error", err)
			errs = append(errs, fmt.Errorf("leave alternate screen: %w", err))
		} else {
			t.altScreen = false
		}
	}

	if t.rawMode {
		if err := t.backend.LeaveRaw(); err != nil {
			t.log.Error("leave raw mode failed", "error", err)
			errs = append(errs, fmt.Errorf("leave raw mode: %w", err))
		} else {
			t.rawMode = false
		}
	}

	return errors.Join(errs...)
}

func (t *Terminal) leaveAltScreen() error {
	seq := make([]byte, 0, 32)
	seq = append(seq, csiSGR0...)
	seq = append(seq, csiCursorShow...)
	seq = append(seq, csiAltScreenExit...)
	// Re-enable auto-wrap after leaving so the main buffer wraps again
	seq = append(seq, csiAutoWrapOn...)
	return t.output.write(seq)
}

// Active reports whether any mode change is still in effect
func (t *Terminal) Active() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.rawMode || t.altScreen
}

// SetTitle sets the window title
func (t *Terminal) SetTitle(title string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output.write([]byte(ansi.SetWindowTitle(title)))
}

// HideCursor hides the text cursor
func (t *Terminal) HideCursor() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output.write(csiCursorHide)
}

// ShowCursor shows the text cursor
func (t *Terminal) ShowCursor() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output.write(csiCursorShow)
}

// Size returns current terminal dimensions
func (t *Terminal) Size() (int, int) {
	return t.backend.Size()
}

// Clear erases the screen and forces the next Flush to repaint every cell
func (t *Terminal) Clear() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output.clear()
}

// Flush writes a row-major cell buffer, emitting only cells changed since the last flush
// A frame sized for stale dimensions is dropped to avoid resize corruption
func (t *Terminal) Flush(cells []Cell, width, height int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if w, h := t.backend.Size(); w != width || h != height {
		return nil
	}
	return t.output.flush(cells, width, height)
}

// DrawCell writes one cell directly, bypassing the diff buffer
// The next Flush only overwrites it if the frame content at that position changes
func (t *Terminal) DrawCell(x, y int, c Cell) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.output.writeCell(x, y, c)
}

// StartInput launches the stdin decoder; spawn runs the read loop goroutine
func (t *Terminal) StartInput(spawn func(func())) {
	t.input.start(spawn)
}

// StopInput halts the stdin decoder so another program can read the tty
func (t *Terminal) StopInput() {
	t.input.stop()
}

// Events returns the decoded input and resize event stream
func (t *Terminal) Events() <-chan Event {
	return t.eventCh
}

func (t *Terminal) onResize(w, h int) {
	select {
	case t.eventCh <- Event{Type: EventResize, Width: w, Height: h}:
	default:
	}
}

// backendWriter adapts Backend to io.Writer for buffered output
type backendWriter struct {
	b Backend
}

func (w backendWriter) Write(p []byte) (int, error) {
	if err := w.b.Write(p); err != nil {
		return 0, err
	}
	return len(p), nil
}

// EmergencyReset attempts to restore terminal to sane state
// Used when no Terminal instance is reachable from the failing code path
func EmergencyReset(w io.Writer) {
	w.Write(csiSGR0)
	w.Write(csiCursorShow)
	w.Write(csiAltScreenExit)
	w.Write(csiAutoWrapOn)

	if f, ok := w.(*os.File); ok {
		f.Sync()
	}

	// Escape sequences alone don't restore termios
	resetTerminalMode()
}
