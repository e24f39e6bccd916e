package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lixenwraith/vi-git/terminal"
)

func TestParseColor(t *testing.T) {
	c, err := ParseColor("#102030")
	require.NoError(t, err)
	assert.Equal(t, terminal.RGB{R: 0x10, G: 0x20, B: 0x30}, c)

	c, err = ParseColor("red")
	require.NoError(t, err)
	assert.Equal(t, terminal.RGB{R: 255}, c)

	_, err = ParseColor("not-a-color")
	assert.Error(t, err)
}

func TestLoadOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "theme.yaml")
	require.NoError(t, os.WriteFile(path, []byte("added: \"#00ff00\"\nspinner: blue\n"), 0o644))

	th, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, terminal.RGB{G: 255}, th.Added)
	assert.Equal(t, terminal.RGB{B: 255}, th.Spinner)
	assert.Equal(t, Default().Deleted, th.Deleted)
}

func TestInitFallsBack(t *testing.T) {
	dir := t.TempDir()

	th, err := Init("")
	assert.NoError(t, err)
	assert.Equal(t, Default(), th)

	th, err = Init(filepath.Join(dir, "missing.yaml"))
	assert.Error(t, err)
	assert.Equal(t, Default(), th)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("added: nocolor\n"), 0o644))
	th, err = Init(bad)
	assert.Error(t, err)
	assert.Equal(t, Default(), th)
}
