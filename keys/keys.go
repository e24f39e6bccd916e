// Package keys holds the key binding table shared across sessions
package keys

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/lixenwraith/vi-git/terminal"
)

// Key is one binding in tcell's key vocabulary
type Key struct {
	Code tcell.Key
	Rune rune // For tcell.KeyRune
	Mod  tcell.ModMask
}

// Rune returns a binding for a printable character
func Rune(r rune) Key {
	return Key{Code: tcell.KeyRune, Rune: r}
}

// Code returns a binding for a special key
func Code(k tcell.Key) Key {
	return Key{Code: k}
}

// Matches reports whether a decoded terminal key event triggers the binding
func (k Key) Matches(ev terminal.Event) bool {
	if ev.Type != terminal.EventKey || ev.Key != k.Code {
		return false
	}
	if k.Code == tcell.KeyRune {
		// Shift is implied by the rune itself
		return ev.Rune == k.Rune && ev.Mod&^tcell.ModShift == k.Mod&^tcell.ModShift
	}
	if k.Code >= tcell.KeyCtrlSpace && k.Code <= tcell.KeyCtrlUnderscore {
		// Control codes carry ModCtrl implicitly
		return ev.Mod&^tcell.ModCtrl == k.Mod&^tcell.ModCtrl
	}
	return ev.Mod == k.Mod
}

// String renders the binding the way Parse accepts it
func (k Key) String() string {
	var b strings.Builder
	if k.Mod&tcell.ModAlt != 0 {
		b.WriteString("Alt-")
	}
	if k.Mod&tcell.ModShift != 0 && k.Code != tcell.KeyRune {
		b.WriteString("Shift-")
	}
	switch {
	case k.Code == tcell.KeyRune && k.Rune == ' ':
		b.WriteString("Space")
	case k.Code == tcell.KeyRune:
		b.WriteRune(k.Rune)
	default:
		if name, ok := tcell.KeyNames[k.Code]; ok {
			b.WriteString(name)
		} else {
			fmt.Fprintf(&b, "Key(%d)", int(k.Code))
		}
	}
	return b.String()
}

var namedKeys = func() map[string]tcell.Key {
	m := make(map[string]tcell.Key, len(tcell.KeyNames))
	for k, name := range tcell.KeyNames {
		m[strings.ToLower(name)] = k
	}
	return m
}()

// Parse reads a binding such as "q", "Space", "Enter", "Ctrl-C", "Alt-x" or "Shift-Up"
func Parse(s string) (Key, error) {
	if s == "" {
		return Key{}, fmt.Errorf("empty key")
	}

	var mod tcell.ModMask
	rest := s
	for {
		lower := strings.ToLower(rest)
		switch {
		case strings.HasPrefix(lower, "alt-") && len(rest) > 4:
			mod |= tcell.ModAlt
			rest = rest[4:]
			continue
		case strings.HasPrefix(lower, "shift-") && len(rest) > 6:
			mod |= tcell.ModShift
			rest = rest[6:]
			continue
		}
		break
	}

	if utf8.RuneCountInString(rest) == 1 {
		r, _ := utf8.DecodeRuneInString(rest)
		return Key{Code: tcell.KeyRune, Rune: r, Mod: mod}, nil
	}
	if strings.EqualFold(rest, "space") {
		return Key{Code: tcell.KeyRune, Rune: ' ', Mod: mod}, nil
	}
	if code, ok := namedKeys[strings.ToLower(rest)]; ok {
		return Key{Code: code, Mod: mod}, nil
	}
	return Key{}, fmt.Errorf("unknown key %q", s)
}
