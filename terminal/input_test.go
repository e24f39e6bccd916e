package terminal

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
)

func collect(t *testing.T, ch <-chan Event, n int) []Event {
	t.Helper()
	var evs []Event
	timeout := time.After(time.Second)
	for len(evs) < n {
		select {
		case ev := <-ch:
			evs = append(evs, ev)
		case <-timeout:
			t.Fatalf("Timed out after %d of %d events", len(evs), n)
		}
	}
	return evs
}

func newTestReader() (*inputReader, chan Event) {
	ch := make(chan Event, 64)
	return newInputReader(NewMockBackend(80, 24), ch), ch
}

func TestParseInputPrintable(t *testing.T) {
	r, ch := newTestReader()
	if n := r.parseInput([]byte("qé")); n != 3 {
		t.Fatalf("Expected 3 bytes consumed, got %d", n)
	}
	evs := collect(t, ch, 2)
	if evs[0].Key != tcell.KeyRune || evs[0].Rune != 'q' {
		t.Errorf("Unexpected first event %+v", evs[0])
	}
	if evs[1].Rune != 'é' {
		t.Errorf("Unexpected second event %+v", evs[1])
	}
}

func TestParseInputIncompleteUTF8Waits(t *testing.T) {
	r, _ := newTestReader()
	if n := r.parseInput([]byte{0xc3}); n != 0 {
		t.Errorf("Expected incomplete rune to wait, consumed %d", n)
	}
}

func TestParseInputControlKeys(t *testing.T) {
	r, ch := newTestReader()
	r.parseInput([]byte{0x0d, 0x09, 0x7f, 0x03})
	evs := collect(t, ch, 4)

	want := []tcell.Key{tcell.KeyEnter, tcell.KeyTab, tcell.KeyBackspace2, tcell.KeyCtrlC}
	for i, k := range want {
		if evs[i].Key != k {
			t.Errorf("Event %d: got key %v, want %v", i, evs[i].Key, k)
		}
	}
	if evs[3].Mod&tcell.ModCtrl == 0 {
		t.Error("Expected Ctrl modifier on Ctrl-C")
	}
}

func TestParseInputControlBytesUseCtrlBlock(t *testing.T) {
	r, ch := newTestReader()
	r.parseInput([]byte{0x00, 0x01, 0x1a, 0x1f})
	evs := collect(t, ch, 4)

	want := []tcell.Key{tcell.KeyCtrlSpace, tcell.KeyCtrlA, tcell.KeyCtrlZ, tcell.KeyCtrlUnderscore}
	for i, k := range want {
		if evs[i].Key != k {
			t.Errorf("Event %d: got key %v, want %v", i, evs[i].Key, k)
		}
		if evs[i].Mod != tcell.ModCtrl {
			t.Errorf("Event %d: expected ModCtrl, got %v", i, evs[i].Mod)
		}
	}
}

func TestParseInputCSI(t *testing.T) {
	tests := []struct {
		seq string
		key tcell.Key
		mod tcell.ModMask
	}{
		{"\x1b[A", tcell.KeyUp, tcell.ModNone},
		{"\x1b[B", tcell.KeyDown, tcell.ModNone},
		{"\x1b[1;5C", tcell.KeyRight, tcell.ModCtrl},
		{"\x1b[3~", tcell.KeyDelete, tcell.ModNone},
		{"\x1b[5~", tcell.KeyPgUp, tcell.ModNone},
		{"\x1b[Z", tcell.KeyBacktab, tcell.ModShift},
		{"\x1bOP", tcell.KeyF1, tcell.ModNone},
	}

	for _, tt := range tests {
		r, ch := newTestReader()
		if n := r.parseInput([]byte(tt.seq)); n != len(tt.seq) {
			t.Errorf("%q: consumed %d of %d", tt.seq, n, len(tt.seq))
			continue
		}
		ev := collect(t, ch, 1)[0]
		if ev.Key != tt.key || ev.Mod != tt.mod {
			t.Errorf("%q: got key=%v mod=%v, want key=%v mod=%v", tt.seq, ev.Key, ev.Mod, tt.key, tt.mod)
		}
	}
}

func TestParseInputAltRune(t *testing.T) {
	r, ch := newTestReader()
	r.parseInput([]byte("\x1bx"))
	ev := collect(t, ch, 1)[0]
	if ev.Key != tcell.KeyRune || ev.Rune != 'x' || ev.Mod != tcell.ModAlt {
		t.Errorf("Unexpected Alt-x event %+v", ev)
	}
}

func TestParseInputUnknownCSISwallowed(t *testing.T) {
	r, ch := newTestReader()
	if n := r.parseInput([]byte("\x1b[99~a")); n != 6 {
		t.Fatalf("Expected whole input consumed, got %d", n)
	}
	ev := collect(t, ch, 1)[0]
	if ev.Rune != 'a' {
		t.Errorf("Expected unknown sequence dropped, got %+v", ev)
	}
}

func TestInputReaderStartStop(t *testing.T) {
	mb := NewMockBackend(80, 24)
	term := New(mb, ColorModeTrueColor, nil)
	term.StartInput(func(fn func()) { go fn() })

	mb.Feed([]byte("k"))
	ev := collect(t, term.Events(), 1)[0]
	if ev.Rune != 'k' {
		t.Fatalf("Unexpected event %+v", ev)
	}

	term.StopInput()
	term.StartInput(func(fn func()) { go fn() })
	mb.Feed([]byte("j"))
	ev = collect(t, term.Events(), 1)[0]
	if ev.Rune != 'j' {
		t.Fatalf("Unexpected event after restart %+v", ev)
	}
	term.StopInput()
}

func TestResizeDeliveredAsEvent(t *testing.T) {
	mb := NewMockBackend(80, 24)
	term := New(mb, ColorModeTrueColor, nil)
	if err := term.Enter(); err != nil {
		t.Fatalf("Enter failed: %v", err)
	}
	mb.Resize(100, 30)

	ev := collect(t, term.Events(), 1)[0]
	if ev.Type != EventResize || ev.Width != 100 || ev.Height != 30 {
		t.Errorf("Unexpected resize event %+v", ev)
	}
}
