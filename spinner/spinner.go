// Package spinner draws the one-cell background work indicator
package spinner

import (
	"strings"
	"unicode/utf8"

	"github.com/charmbracelet/bubbles/spinner"

	"github.com/lixenwraith/vi-git/terminal"
)

// Drawer writes a single cell outside the frame diff, satisfied by *terminal.Terminal
type Drawer interface {
	DrawCell(x, y int, c terminal.Cell) error
}

// Spinner cycles glyphs while work is pending and shows a blank cell when idle
// It only writes when the visible glyph changes
type Spinner struct {
	frames  []rune
	idx     int
	pending bool
	fg      terminal.RGB

	drawn bool
	last  rune
}

// New creates a spinner with the braille dot frames
func New(fg terminal.RGB) *Spinner {
	return &Spinner{
		frames: glyphs(spinner.Dot.Frames),
		fg:     fg,
	}
}

// glyphs takes the first rune of each frame, frames carry trailing padding
func glyphs(frames []string) []rune {
	out := make([]rune, 0, len(frames))
	for _, f := range frames {
		f = strings.TrimSpace(f)
		if r, _ := utf8.DecodeRuneInString(f); r != utf8.RuneError {
			out = append(out, r)
		}
	}
	if len(out) == 0 {
		out = append(out, '|', '/', '-', '\\')
	}
	return out
}

// Update advances the animation phase
func (s *Spinner) Update() {
	s.idx = (s.idx + 1) % len(s.frames)
}

// SetState sets whether background work is pending
func (s *Spinner) SetState(pending bool) {
	s.pending = pending
}

// Pending reports the last state set
func (s *Spinner) Pending() bool {
	return s.pending
}

// Glyph returns the rune currently due on screen
func (s *Spinner) Glyph() rune {
	if !s.pending {
		return ' '
	}
	return s.frames[s.idx]
}

// Invalidate forces the next Draw to write, used after the screen was cleared
func (s *Spinner) Invalidate() {
	s.drawn = false
}

// Draw writes the glyph at the top-left cell if it changed since the last draw
func (s *Spinner) Draw(d Drawer) error {
	g := s.Glyph()
	if s.drawn && g == s.last {
		return nil
	}

	cell := terminal.Cell{Rune: g}
	if s.pending {
		cell.Fg = s.fg
		cell.Attrs = terminal.AttrFgRGB
	}
	if err := d.DrawCell(0, 0, cell); err != nil {
		return err
	}
	s.drawn = true
	s.last = g
	return nil
}
