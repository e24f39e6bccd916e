// Package theme holds the display colors shared across sessions
package theme

import (
	"fmt"
	"os"
	"reflect"

	"github.com/gdamore/tcell/v2"
	"gopkg.in/yaml.v3"

	"github.com/lixenwraith/vi-git/terminal"
)

// Theme is a flat set of colors; the zero RGB means terminal default
type Theme struct {
	Text         terminal.RGB `yaml:"text"`
	Title        terminal.RGB `yaml:"title"`
	SelectionBg  terminal.RGB `yaml:"selection_bg"`
	SelectionFg  terminal.RGB `yaml:"selection_fg"`
	Added        terminal.RGB `yaml:"added"`
	Modified     terminal.RGB `yaml:"modified"`
	Deleted      terminal.RGB `yaml:"deleted"`
	Untracked    terminal.RGB `yaml:"untracked"`
	Conflict     terminal.RGB `yaml:"conflict"`
	Submodule    terminal.RGB `yaml:"submodule"`
	Help         terminal.RGB `yaml:"help"`
	HelpBg       terminal.RGB `yaml:"help_bg"`
	Spinner      terminal.RGB `yaml:"spinner"`
	PreviewLines terminal.RGB `yaml:"preview"`
}

// Default returns the built-in colors
func Default() Theme {
	return Theme{
		Text:         rgb("silver"),
		Title:        rgb("white"),
		SelectionBg:  rgb("#264f78"),
		SelectionFg:  rgb("white"),
		Added:        rgb("green"),
		Modified:     rgb("yellow"),
		Deleted:      rgb("red"),
		Untracked:    rgb("fuchsia"),
		Conflict:     rgb("orangered"),
		Submodule:    rgb("aqua"),
		Help:         rgb("lightgray"),
		HelpBg:       rgb("#303030"),
		Spinner:      rgb("aqua"),
		PreviewLines: rgb("darkgray"),
	}
}

// ParseColor resolves a W3C color name or #rrggbb
func ParseColor(s string) (terminal.RGB, error) {
	c := tcell.GetColor(s)
	if !c.Valid() {
		return terminal.RGB{}, fmt.Errorf("unknown color %q", s)
	}
	r, g, b := c.RGB()
	return terminal.RGB{R: uint8(r), G: uint8(g), B: uint8(b)}, nil
}

func rgb(s string) terminal.RGB {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Load reads color overrides from a yaml mapping of field name to color
func Load(path string) (Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Default(), fmt.Errorf("read theme %s: %w", path, err)
	}

	var raw map[string]string
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return Default(), fmt.Errorf("decode theme %s: %w", path, err)
	}

	t := Default()
	v := reflect.ValueOf(&t).Elem()
	typ := v.Type()
	fields := make(map[string]int, typ.NumField())
	for i := range typ.NumField() {
		fields[typ.Field(i).Tag.Get("yaml")] = i
	}

	for name, value := range raw {
		idx, ok := fields[name]
		if !ok {
			return Default(), fmt.Errorf("theme %s: unknown field %q", path, name)
		}
		c, err := ParseColor(value)
		if err != nil {
			return Default(), fmt.Errorf("theme %s: %s: %w", path, name, err)
		}
		v.Field(idx).Set(reflect.ValueOf(c))
	}
	return t, nil
}

// Init loads path when set, falling back to Default on any error
// The error is returned for logging only
func Init(path string) (Theme, error) {
	if path == "" {
		return Default(), nil
	}
	return Load(path)
}
