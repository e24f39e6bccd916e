package app

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/lixenwraith/vi-git/keys"
	"github.com/lixenwraith/vi-git/render"
	"github.com/lixenwraith/vi-git/terminal"
)

// Cell (0,0) belongs to the spinner
const titleIndent = 2

func fg(c terminal.RGB) render.Style {
	return render.Style{Fg: c, Attrs: terminal.AttrFgRGB}
}

// Draw renders title, status list, preview and help line
func (a *App) Draw(f *render.Frame) error {
	w, h := f.Size()
	if w < 10 || h < 3 {
		return nil
	}
	th := a.env.Theme
	root := f.Region()

	title := fmt.Sprintf("%s  %d changes", a.workdir, a.fileCount())
	root.Sub(titleIndent, 0, w-titleIndent, 1).Text(0, 0, title, render.Style{
		Fg:    th.Title,
		Attrs: terminal.AttrFgRGB | terminal.AttrBold,
	})

	body := root.Sub(0, 1, w, h-2)
	listW := max(w/2, 20)
	list := body.Sub(0, 0, listW, body.H)
	side := body.Sub(listW+1, 0, w-listW-1, body.H)

	a.drawList(list)
	if a.showHelp {
		a.drawHelp(side)
	} else {
		a.drawPreview(side)
	}
	a.drawFooter(root.Sub(0, h-1, w, 1))
	return nil
}

func (a *App) fileCount() int {
	n := 0
	for _, r := range a.rows {
		if r.kind == rowFile {
			n++
		}
	}
	return n
}

func (a *App) drawList(r render.Region) {
	th := a.env.Theme
	if len(a.rows) == 0 {
		r.Text(1, 0, "working tree clean", fg(th.Text))
		return
	}

	// Keep the selection visible
	offset := 0
	if a.selected >= r.H {
		offset = a.selected - r.H + 1
	}

	for y := 0; y < r.H && offset+y < len(a.rows); y++ {
		idx := offset + y
		item := a.rows[idx]

		style := fg(a.statusColor(item))
		label := fmt.Sprintf("%c%c %s", item.status[0], item.status[1], item.path)
		if item.kind == rowSubmodule {
			label = "[S] " + item.path
		}
		if idx == a.selected {
			style = render.Style{
				Fg:    th.SelectionFg,
				Bg:    th.SelectionBg,
				Attrs: terminal.AttrFgRGB | terminal.AttrBgRGB,
			}
			r.Line(y, " "+label, style)
			continue
		}
		r.Text(1, y, label, style)
	}
}

func (a *App) statusColor(r row) terminal.RGB {
	th := a.env.Theme
	if r.kind == rowSubmodule {
		return th.Submodule
	}
	x, y := r.status[0], r.status[1]
	switch {
	case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
		return th.Conflict
	case x == '?':
		return th.Untracked
	case x == 'D' || y == 'D':
		return th.Deleted
	case x == 'A':
		return th.Added
	default:
		return th.Modified
	}
}

func (a *App) drawPreview(r render.Region) {
	path, lines := a.preview.snapshot()
	if path == "" {
		return
	}
	rel, err := filepath.Rel(a.workdir, path)
	if err != nil {
		rel = path
	}
	r.Text(0, 0, rel, render.Style{Fg: a.env.Theme.Title, Attrs: terminal.AttrFgRGB | terminal.AttrUnderline})
	if err := a.preview.err(); err != nil {
		r.Text(0, 1, err.Error(), fg(a.env.Theme.Deleted))
		return
	}
	for i, line := range lines {
		if i+1 >= r.H {
			break
		}
		r.Text(0, i+1, line, fg(a.env.Theme.PreviewLines))
	}
}

func (a *App) drawHelp(r render.Region) {
	for i, entry := range helpEntries(a.env.Keys) {
		if i >= r.H {
			break
		}
		r.Text(0, i, fmt.Sprintf("%-10s %s", entry.key, entry.desc), fg(a.env.Theme.Help))
	}
}

func (a *App) drawFooter(r render.Region) {
	th := a.env.Theme
	bar := render.Style{Fg: th.Help, Bg: th.HelpBg, Attrs: terminal.AttrFgRGB | terminal.AttrBgRGB}
	if a.message != "" {
		bar.Fg = th.Deleted
		r.Line(0, " "+a.message, bar)
		return
	}
	r.Line(0, " "+HelpLine(a.env.Keys), bar)
}

type helpEntry struct {
	key  string
	desc string
}

func helpEntries(cfg keys.KeyConfig) []helpEntry {
	k := cfg.Keys
	return []helpEntry{
		{k.Quit.String(), "quit"},
		{k.ToggleHelp.String(), "help"},
		{k.Edit.String(), "edit file"},
		{k.OpenSubmodule.String(), "open submodule"},
		{k.Refresh.String(), "refresh"},
		{k.MoveUp.String() + "/" + k.MoveDown.String(), "move"},
		{k.Home.String() + "/" + k.End.String(), "first/last"},
	}
}

// HelpLine renders the key bindings as a single footer line
func HelpLine(cfg keys.KeyConfig) string {
	entries := helpEntries(cfg)
	parts := make([]string, len(entries))
	for i, e := range entries {
		parts[i] = e.key + " " + e.desc
	}
	return strings.Join(parts, "  ")
}
