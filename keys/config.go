package keys

import (
	"fmt"
	"reflect"

	"github.com/BurntSushi/toml"
	"github.com/gdamore/tcell/v2"
)

// KeysList is the full binding table
type KeysList struct {
	Quit          Key `toml:"quit"`
	Exit          Key `toml:"exit"`
	MoveUp        Key `toml:"move_up"`
	MoveDown      Key `toml:"move_down"`
	Home          Key `toml:"home"`
	End           Key `toml:"end"`
	Edit          Key `toml:"edit_file"`
	OpenSubmodule Key `toml:"open_submodule"`
	Refresh       Key `toml:"refresh"`
	ToggleHelp    Key `toml:"toggle_help"`
}

// KeyConfig is carried unchanged across session restarts
type KeyConfig struct {
	Keys KeysList
}

// Default returns the built-in bindings
func Default() KeyConfig {
	return KeyConfig{Keys: KeysList{
		Quit:          Rune('q'),
		Exit:          Code(tcell.KeyCtrlC),
		MoveUp:        Code(tcell.KeyUp),
		MoveDown:      Code(tcell.KeyDown),
		Home:          Code(tcell.KeyHome),
		End:           Code(tcell.KeyEnd),
		Edit:          Rune('e'),
		OpenSubmodule: Code(tcell.KeyEnter),
		Refresh:       Rune('r'),
		ToggleHelp:    Rune('?'),
	}}
}

// Load reads overrides from a toml file of name = "binding" pairs on top of Default
// An empty path returns Default
func Load(path string) (KeyConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	var raw map[string]string
	if _, err := toml.DecodeFile(path, &raw); err != nil {
		return Default(), fmt.Errorf("decode key config %s: %w", path, err)
	}
	if err := cfg.apply(raw); err != nil {
		return Default(), fmt.Errorf("key config %s: %w", path, err)
	}
	return cfg, nil
}

// apply overrides fields by their toml tag
func (c *KeyConfig) apply(raw map[string]string) error {
	v := reflect.ValueOf(&c.Keys).Elem()
	t := v.Type()
	fields := make(map[string]int, t.NumField())
	for i := range t.NumField() {
		fields[t.Field(i).Tag.Get("toml")] = i
	}

	for name, binding := range raw {
		idx, ok := fields[name]
		if !ok {
			return fmt.Errorf("unknown binding %q", name)
		}
		k, err := Parse(binding)
		if err != nil {
			return fmt.Errorf("binding %q: %w", name, err)
		}
		v.Field(idx).Set(reflect.ValueOf(k))
	}
	return nil
}
