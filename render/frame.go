// Package render provides the cell frame the application draws into each redraw pass
package render

import (
	"github.com/lixenwraith/vi-git/terminal"
)

// Frame is a row-major cell buffer sized to the terminal
type Frame struct {
	cells  []terminal.Cell
	width  int
	height int
}

// NewFrame creates a cleared frame
func NewFrame(width, height int) *Frame {
	f := &Frame{}
	f.Resize(width, height)
	return f
}

// Resize adjusts dimensions, reallocating only if capacity is insufficient
func (f *Frame) Resize(width, height int) {
	if width < 0 {
		width = 0
	}
	if height < 0 {
		height = 0
	}
	size := width * height
	if cap(f.cells) < size {
		f.cells = make([]terminal.Cell, size)
	} else {
		f.cells = f.cells[:size]
	}
	f.width = width
	f.height = height
	f.Clear()
}

// Clear resets all cells to blank using exponential copy
func (f *Frame) Clear() {
	if len(f.cells) == 0 {
		return
	}
	f.cells[0] = terminal.Cell{Rune: ' '}
	for filled := 1; filled < len(f.cells); filled *= 2 {
		copy(f.cells[filled:], f.cells[:filled])
	}
}

// Size returns frame dimensions
func (f *Frame) Size() (int, int) {
	return f.width, f.height
}

// Cells exposes the backing slice for flushing
func (f *Frame) Cells() []terminal.Cell {
	return f.cells
}

// At returns the cell at x,y or a zero cell when out of bounds
func (f *Frame) At(x, y int) terminal.Cell {
	if x < 0 || x >= f.width || y < 0 || y >= f.height {
		return terminal.Cell{}
	}
	return f.cells[y*f.width+x]
}

// Region returns the whole frame as a drawable region
func (f *Frame) Region() Region {
	return Region{
		Cells:  f.cells,
		TotalW: f.width,
		W:      f.width,
		H:      f.height,
	}
}

// Row returns the text of row y with trailing blanks removed, for tests and logs
func (f *Frame) Row(y int) string {
	if y < 0 || y >= f.height {
		return ""
	}
	runes := make([]rune, 0, f.width)
	for x := 0; x < f.width; x++ {
		r := f.cells[y*f.width+x].Rune
		if r == 0 {
			continue
		}
		runes = append(runes, r)
	}
	end := len(runes)
	for end > 0 && runes[end-1] == ' ' {
		end--
	}
	return string(runes[:end])
}
