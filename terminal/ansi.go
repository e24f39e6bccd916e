package terminal

import (
	"bufio"
	"strconv"

	"github.com/charmbracelet/x/ansi"
)

// Mode and screen sequences, converted once so the flush path writes bytes
var (
	csiSGR0  = []byte(ansi.ResetStyle)
	csiClear = []byte(ansi.EraseEntireScreen + ansi.CursorHomePosition)

	csiCursorHide = []byte(ansi.HideCursor)
	csiCursorShow = []byte(ansi.ShowCursor)

	csiAltScreenEnter = []byte(ansi.SetModeAltScreenSaveCursor)
	csiAltScreenExit  = []byte(ansi.ResetModeAltScreenSaveCursor)

	// DECAWM off keeps the bottom-right cell from scrolling the screen
	csiAutoWrapOn  = []byte(ansi.SetModeAutoWrap)
	csiAutoWrapOff = []byte(ansi.ResetModeAutoWrap)
)

// Fragments of parameterized sequences assembled in place by the writers below
var (
	csi    = []byte("\x1b[")
	csiEnd = []byte("m")
)

// writeInt writes a non-negative decimal parameter; negatives clamp to 0
func writeInt(w *bufio.Writer, n int) {
	var scratch [20]byte
	w.Write(strconv.AppendInt(scratch[:0], int64(max(n, 0)), 10))
}

// writeCursorPos moves to 0-indexed x,y (CUP is 1-indexed)
func writeCursorPos(w *bufio.Writer, x, y int) {
	w.Write(csi)
	writeInt(w, y+1)
	w.WriteByte(';')
	writeInt(w, x+1)
	w.WriteByte('H')
}

// writeCursorForward moves right n cells, no-op for n <= 0
func writeCursorForward(w *bufio.Writer, n int) {
	if n <= 0 {
		return
	}
	w.Write(csi)
	writeInt(w, n)
	w.WriteByte('C')
}
