package terminal

import (
	"sync"
	"time"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"
)

// EventType distinguishes input event categories
type EventType uint8

const (
	EventKey EventType = iota
	EventResize
	EventError  // Read error
	EventClosed // Input closed
)

// Event represents a terminal input event
// Key and Mod use the tcell key vocabulary so key bindings share one definition
type Event struct {
	Type   EventType
	Key    tcell.Key
	Rune   rune
	Mod    tcell.ModMask
	Width  int   // For EventResize
	Height int   // For EventResize
	Err    error // For EventError
}

// keyNone marks a consumed but unknown sequence
const keyNone tcell.Key = -1

// escapeTimeout is the duration to wait after ESC to distinguish
// standalone ESC from escape sequence start
const escapeTimeout = 50 * time.Millisecond

// inputReader decodes raw stdin bytes into events
// It can be stopped and restarted so an external program can own stdin in between
type inputReader struct {
	backend Backend
	eventCh chan Event

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
	doneCh  chan struct{}

	// Persistent buffer for stream assembly across reads
	buf     []byte
	escSeen time.Time
}

// newInputReader creates a new input reader delivering into eventCh
func newInputReader(backend Backend, eventCh chan Event) *inputReader {
	return &inputReader{
		backend: backend,
		eventCh: eventCh,
		buf:     make([]byte, 0, 256),
	}
}

// start begins reading input in a goroutine
func (r *inputReader) start(spawn func(func())) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.running {
		return
	}
	r.running = true
	r.stopCh = make(chan struct{})
	r.doneCh = make(chan struct{})
	r.buf = r.buf[:0]

	stopCh, doneCh := r.stopCh, r.doneCh
	spawn(func() { r.readLoop(stopCh, doneCh) })
}

// stop signals the reader to stop and waits for the read loop to observe it
func (r *inputReader) stop() {
	r.mu.Lock()
	if !r.running {
		r.mu.Unlock()
		return
	}
	r.running = false
	stopCh, doneCh := r.stopCh, r.doneCh
	r.mu.Unlock()

	close(stopCh)
	// Bounded wait, a stuck read must not hang teardown
	select {
	case <-doneCh:
	case <-time.After(4 * pollTimeoutMs * time.Millisecond):
	}
}

// readLoop is the main input reading goroutine
func (r *inputReader) readLoop(stopCh <-chan struct{}, doneCh chan<- struct{}) {
	defer close(doneCh)

	for {
		data, err := r.backend.Read(stopCh)
		if err != nil {
			r.sendEvent(Event{Type: EventError, Err: err})
			return
		}

		select {
		case <-stopCh:
			return
		default:
		}

		if len(data) == 0 {
			// Timeout: emit pending standalone ESC
			if len(r.buf) == 1 && r.buf[0] == 0x1b && time.Since(r.escSeen) >= escapeTimeout {
				r.sendEvent(Event{Type: EventKey, Key: tcell.KeyEscape})
				r.buf = r.buf[:0]
			}
			continue
		}

		if len(r.buf) == 0 && data[0] == 0x1b {
			r.escSeen = time.Now()
		}
		r.buf = append(r.buf, data...)

		consumed := r.parseInput(r.buf)
		if consumed > 0 {
			n := copy(r.buf, r.buf[consumed:])
			r.buf = r.buf[:n]
		}
	}
}

// parseInput parses raw bytes into events and returns bytes consumed (stop on incomplete sequence)
func (r *inputReader) parseInput(data []byte) int {
	i := 0
	n := len(data)

	for i < n {
		b := data[i]

		switch {
		case b >= 0x20 && b < 0x7f:
			r.sendEvent(Event{Type: EventKey, Key: tcell.KeyRune, Rune: rune(b)})
			i++

		case b == 0x1b:
			if i+1 >= n {
				return i // Wait for more data or timeout
			}
			consumed, ev := parseEscape(data[i:])
			if consumed == 0 {
				return i
			}
			if ev.Key != keyNone {
				r.sendEvent(ev)
			}
			i += consumed

		case b < 0x20:
			r.sendEvent(parseControl(b))
			i++

		case b == 0x7f:
			r.sendEvent(Event{Type: EventKey, Key: tcell.KeyBackspace2})
			i++

		default:
			if !utf8.FullRune(data[i:]) {
				return i
			}
			rn, size := utf8.DecodeRune(data[i:])
			r.sendEvent(Event{Type: EventKey, Key: tcell.KeyRune, Rune: rn})
			i += size
		}
	}
	return i
}

// parseEscape attempts to parse an escape sequence, returns 0 on incomplete
func parseEscape(data []byte) (int, Event) {
	if len(data) < 2 {
		return 0, Event{}
	}

	switch {
	case data[1] == 0x1b:
		return 2, Event{Type: EventKey, Key: tcell.KeyEscape, Mod: tcell.ModAlt}
	case data[1] == '[':
		return parseCSI(data)
	case data[1] == 'O':
		return parseSS3(data)
	case data[1] < 0x20:
		ev := parseControl(data[1])
		ev.Mod |= tcell.ModAlt
		return 2, ev
	case data[1] < 0x7f:
		return 2, Event{Type: EventKey, Key: tcell.KeyRune, Rune: rune(data[1]), Mod: tcell.ModAlt}
	}

	// ESC followed by a non-ASCII byte: report ESC alone, reparse the rest
	return 1, Event{Type: EventKey, Key: tcell.KeyEscape}
}

// csiFinal maps CSI final bytes (no numeric parameter) to keys
var csiFinal = map[byte]tcell.Key{
	'A': tcell.KeyUp,
	'B': tcell.KeyDown,
	'C': tcell.KeyRight,
	'D': tcell.KeyLeft,
	'H': tcell.KeyHome,
	'F': tcell.KeyEnd,
	'Z': tcell.KeyBacktab,
	'P': tcell.KeyF1,
	'Q': tcell.KeyF2,
	'R': tcell.KeyF3,
	'S': tcell.KeyF4,
}

// csiTilde maps "ESC [ N ~" parameters to keys
var csiTilde = map[int]tcell.Key{
	1: tcell.KeyHome, 2: tcell.KeyInsert, 3: tcell.KeyDelete, 4: tcell.KeyEnd,
	5: tcell.KeyPgUp, 6: tcell.KeyPgDn, 7: tcell.KeyHome, 8: tcell.KeyEnd,
	11: tcell.KeyF1, 12: tcell.KeyF2, 13: tcell.KeyF3, 14: tcell.KeyF4,
	15: tcell.KeyF5, 17: tcell.KeyF6, 18: tcell.KeyF7, 19: tcell.KeyF8,
	20: tcell.KeyF9, 21: tcell.KeyF10, 23: tcell.KeyF11, 24: tcell.KeyF12,
}

// parseCSI parses "ESC [ params final", returns 0 on incomplete
func parseCSI(data []byte) (int, Event) {
	const maxScan = 16

	end := 2
	for ; end < len(data) && end < maxScan; end++ {
		b := data[end]
		if (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '~' {
			break
		}
		if b < 0x20 || b > 0x7e {
			return end, Event{Type: EventKey, Key: keyNone}
		}
	}
	if end >= len(data) {
		if end >= maxScan {
			return end, Event{Type: EventKey, Key: keyNone}
		}
		return 0, Event{}
	}

	params := parseParams(data[2:end])
	final := data[end]
	consumed := end + 1

	var mod tcell.ModMask
	if len(params) > 1 {
		mod = decodeModifier(params[1])
	}

	if final == '~' {
		if len(params) > 0 {
			if key, ok := csiTilde[params[0]]; ok {
				return consumed, Event{Type: EventKey, Key: key, Mod: mod}
			}
		}
		return consumed, Event{Type: EventKey, Key: keyNone}
	}

	if key, ok := csiFinal[final]; ok {
		if key == tcell.KeyBacktab {
			mod |= tcell.ModShift
		}
		return consumed, Event{Type: EventKey, Key: key, Mod: mod}
	}
	return consumed, Event{Type: EventKey, Key: keyNone}
}

// parseSS3 parses "ESC O x" sequences
func parseSS3(data []byte) (int, Event) {
	if len(data) < 3 {
		return 0, Event{}
	}
	if key, ok := csiFinal[data[2]]; ok {
		return 3, Event{Type: EventKey, Key: key}
	}
	return 3, Event{Type: EventKey, Key: keyNone}
}

// parseParams splits "1;5" style numeric parameters
func parseParams(p []byte) []int {
	if len(p) == 0 {
		return nil
	}
	params := make([]int, 1, 2)
	for _, b := range p {
		switch {
		case b >= '0' && b <= '9':
			params[len(params)-1] = params[len(params)-1]*10 + int(b-'0')
		case b == ';':
			params = append(params, 0)
		}
	}
	return params
}

// decodeModifier converts xterm modifier parameter (1 + bitmask) to tcell modifiers
func decodeModifier(p int) tcell.ModMask {
	if p < 2 {
		return tcell.ModNone
	}
	bits := p - 1
	var mod tcell.ModMask
	if bits&1 != 0 {
		mod |= tcell.ModShift
	}
	if bits&2 != 0 {
		mod |= tcell.ModAlt
	}
	if bits&4 != 0 {
		mod |= tcell.ModCtrl
	}
	return mod
}

// parseControl maps C0 control bytes to keys
// Typeable controls keep their ASCII key; the rest land in tcell's KeyCtrlSpace..KeyCtrlUnderscore block
func parseControl(b byte) Event {
	switch b {
	case 0x0a, 0x0d:
		return Event{Type: EventKey, Key: tcell.KeyEnter}
	case 0x08:
		return Event{Type: EventKey, Key: tcell.KeyBackspace}
	case 0x09:
		return Event{Type: EventKey, Key: tcell.KeyTab}
	}
	return Event{Type: EventKey, Key: tcell.KeyCtrlSpace + tcell.Key(b), Mod: tcell.ModCtrl}
}

// sendEvent sends an event to the channel, non-blocking
func (r *inputReader) sendEvent(ev Event) {
	select {
	case r.eventCh <- ev:
	default:
		// Channel full, drop event
	}
}
