package terminal

import (
	"bufio"
	"io"

	"github.com/mattn/go-runewidth"
)

// outputBuffer manages double-buffered terminal output with diffing
type outputBuffer struct {
	front     []Cell
	valid     []bool
	width     int
	height    int
	colorMode ColorMode
	writer    *bufio.Writer

	cursorX     int
	cursorY     int
	cursorValid bool

	// Style state for coalescing
	lastFg    RGB
	lastBg    RGB
	lastAttr  Attr
	lastValid bool
}

// newOutputBuffer creates a new output buffer
func newOutputBuffer(w io.Writer, colorMode ColorMode) *outputBuffer {
	return &outputBuffer{
		writer:    bufio.NewWriterSize(w, 64*1024),
		colorMode: colorMode,
	}
}

// resize updates buffer dimensions and invalidates every cell
func (o *outputBuffer) resize(width, height int) {
	size := width * height
	if cap(o.front) < size {
		o.front = make([]Cell, size)
		o.valid = make([]bool, size)
	} else {
		o.front = o.front[:size]
		o.valid = o.valid[:size]
	}
	o.width = width
	o.height = height
	o.forceFullRedraw()
}

// flush writes cells to terminal, diffing against front buffer
func (o *outputBuffer) flush(cells []Cell, width, height int) error {
	if width != o.width || height != o.height {
		o.resize(width, height)
	}

	if len(cells) < width*height {
		return nil
	}

	w := o.writer

	for y := 0; y < height; y++ {
		rowStart := y * width
		x := 0

		for x < width {
			idx := rowStart + x
			if o.valid[idx] && cells[idx] == o.front[idx] {
				x++
				continue
			}

			// Position cursor once for this dirty region
			if !o.cursorValid || x != o.cursorX || y != o.cursorY {
				if o.cursorValid && y == o.cursorY && x > o.cursorX {
					writeCursorForward(w, x-o.cursorX)
				} else {
					writeCursorPos(w, x, y)
				}
				o.cursorX = x
				o.cursorY = y
				o.cursorValid = true
			}

			// Write all contiguous dirty cells, emitting style only when changed
			for x < width {
				cidx := rowStart + x
				c := cells[cidx]
				if o.valid[cidx] && c == o.front[cidx] {
					break
				}

				// Continuation of a wide rune, the terminal already covered it
				if c.Rune == 0 && x > 0 && runewidth.RuneWidth(cells[cidx-1].Rune) == 2 {
					o.front[cidx] = c
					o.valid[cidx] = true
					x++
					continue
				}

				o.writeStyle(w, c.Fg, c.Bg, c.Attrs)

				r := c.Rune
				if r == 0 {
					r = ' '
				}
				if r < 0x80 {
					w.WriteByte(byte(r))
					o.cursorX++
				} else {
					w.WriteRune(r)
					o.cursorX += max(runewidth.RuneWidth(r), 1)
				}

				o.front[cidx] = c
				o.valid[cidx] = true
				x++
			}
		}
	}

	w.Write(csiSGR0)
	o.lastValid = false

	return w.Flush()
}

// writeCell writes a single cell at a position without touching the front buffer
// Used for overlays drawn on top of the last flushed frame
func (o *outputBuffer) writeCell(x, y int, c Cell) error {
	w := o.writer
	writeCursorPos(w, x, y)
	o.lastValid = false
	o.writeStyle(w, c.Fg, c.Bg, c.Attrs)
	r := c.Rune
	if r == 0 {
		r = ' '
	}
	w.WriteRune(r)
	w.Write(csiSGR0)
	o.lastValid = false
	o.cursorValid = false
	return w.Flush()
}

// writeStyle emits a single combined SGR sequence when style changes
func (o *outputBuffer) writeStyle(w *bufio.Writer, fg, bg RGB, attr Attr) {
	if o.lastValid && fg == o.lastFg && bg == o.lastBg && attr == o.lastAttr {
		return
	}

	w.Write(csi)
	w.WriteByte('0')

	styleAttr := attr & AttrStyle
	if styleAttr&AttrBold != 0 {
		w.Write([]byte(";1"))
	}
	if styleAttr&AttrDim != 0 {
		w.Write([]byte(";2"))
	}
	if styleAttr&AttrItalic != 0 {
		w.Write([]byte(";3"))
	}
	if styleAttr&AttrUnderline != 0 {
		w.Write([]byte(";4"))
	}
	if styleAttr&AttrReverse != 0 {
		w.Write([]byte(";7"))
	}

	if attr&AttrFgRGB != 0 {
		o.writeColorInline(w, 38, fg)
	}
	if attr&AttrBgRGB != 0 {
		o.writeColorInline(w, 48, bg)
	}
	w.Write(csiEnd)

	o.lastFg = fg
	o.lastBg = bg
	o.lastAttr = attr
	o.lastValid = true
}

// writeColorInline writes color parameters (no CSI prefix, no 'm' suffix)
// base is 38 for foreground, 48 for background
func (o *outputBuffer) writeColorInline(w *bufio.Writer, base int, c RGB) {
	w.WriteByte(';')
	writeInt(w, base)
	if o.colorMode == ColorModeTrueColor {
		w.Write([]byte(";2;"))
		writeInt(w, int(c.R))
		w.WriteByte(';')
		writeInt(w, int(c.G))
		w.WriteByte(';')
		writeInt(w, int(c.B))
		return
	}
	w.Write([]byte(";5;"))
	writeInt(w, int(RGBTo256(c)))
}

// forceFullRedraw invalidates the front buffer to force complete redraw
func (o *outputBuffer) forceFullRedraw() {
	for i := range o.valid {
		o.valid[i] = false
	}
	o.lastValid = false
	o.cursorValid = false
}

// clear erases the physical screen and invalidates the front buffer
func (o *outputBuffer) clear() error {
	w := o.writer
	w.Write(csiSGR0)
	w.Write(csiClear)
	o.forceFullRedraw()
	return w.Flush()
}

// write emits raw bytes through the buffered writer to keep stream order
func (o *outputBuffer) write(p []byte) error {
	o.writer.Write(p)
	return o.writer.Flush()
}
