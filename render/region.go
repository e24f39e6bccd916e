package render

import (
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-runewidth"

	"github.com/lixenwraith/vi-git/terminal"
)

// Style is a foreground/background/attribute triple
// Zero colors mean the terminal default
type Style struct {
	Fg    terminal.RGB
	Bg    terminal.RGB
	Attrs terminal.Attr
}

// Cell builds a terminal cell with color flags derived from the style
func (s Style) Cell(r rune) terminal.Cell {
	return terminal.Cell{Rune: r, Fg: s.Fg, Bg: s.Bg, Attrs: s.Attrs}
}

// Region represents a rectangular area within a frame
// All coordinates are relative to the region's origin
type Region struct {
	Cells  []terminal.Cell
	TotalW int // Total width of the underlying cell buffer
	X, Y   int // Absolute position in cell buffer
	W, H   int
}

// Sub returns a nested region relative to r, clipped to r's bounds
func (r Region) Sub(x, y, w, h int) Region {
	if x < 0 {
		w += x
		x = 0
	}
	if y < 0 {
		h += y
		y = 0
	}
	w = min(w, r.W-x)
	h = min(h, r.H-y)

	return Region{
		Cells:  r.Cells,
		TotalW: r.TotalW,
		X:      r.X + x,
		Y:      r.Y + y,
		W:      max(w, 0),
		H:      max(h, 0),
	}
}

// Set writes one cell with bounds checking
func (r Region) Set(x, y int, c terminal.Cell) {
	if x < 0 || x >= r.W || y < 0 || y >= r.H {
		return
	}
	idx := (r.Y+y)*r.TotalW + r.X + x
	if uint(idx) < uint(len(r.Cells)) {
		r.Cells[idx] = c
	}
}

// Fill paints every cell with a blank in the given style
func (r Region) Fill(s Style) {
	for y := 0; y < r.H; y++ {
		for x := 0; x < r.W; x++ {
			r.Set(x, y, s.Cell(' '))
		}
	}
}

// Text writes s on row y starting at x, truncated with an ellipsis to the region width
// Wide runes take two cells; returns the number of cells written
func (r Region) Text(x, y int, s string, style Style) int {
	if y < 0 || y >= r.H || x >= r.W {
		return 0
	}
	avail := r.W - x
	if ansi.StringWidth(s) > avail {
		s = ansi.Truncate(s, avail, "…")
	}

	col := x
	for _, ch := range s {
		w := runewidth.RuneWidth(ch)
		if w == 0 {
			continue
		}
		if col+w > r.W {
			break
		}
		r.Set(col, y, style.Cell(ch))
		if w == 2 {
			// Continuation cell, the terminal renders the wide rune over it
			r.Set(col+1, y, style.Cell(0))
		}
		col += w
	}
	return col - x
}

// Line fills row y with style then writes s from the left edge
func (r Region) Line(y int, s string, style Style) {
	r.Sub(0, y, r.W, 1).Fill(style)
	r.Text(0, y, s, style)
}
