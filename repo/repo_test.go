package repo

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeGitDir(t *testing.T, dir string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "objects"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "refs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "HEAD"), []byte("ref: refs/heads/main\n"), 0o644))
}

func TestDiscoverFromSubdirectory(t *testing.T) {
	root := t.TempDir()
	makeGitDir(t, filepath.Join(root, ".git"))
	sub := filepath.Join(root, "a", "b")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	got, err := Discover(sub)
	require.NoError(t, err)
	assert.Equal(t, root, got)
	assert.NoError(t, OpenError(At(sub)))
}

func TestDiscoverGitFile(t *testing.T) {
	root := t.TempDir()
	makeGitDir(t, filepath.Join(root, "modules", "child"))
	work := filepath.Join(root, "child")
	require.NoError(t, os.MkdirAll(work, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(work, ".git"), []byte("gitdir: ../modules/child\n"), 0o644))

	got, err := Discover(work)
	require.NoError(t, err)
	assert.Equal(t, work, got)
}

func TestOpenErrorNotRepository(t *testing.T) {
	err := OpenError(At(t.TempDir()))
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestOpenErrorMissingPath(t *testing.T) {
	err := OpenError(At(filepath.Join(t.TempDir(), "missing")))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestOpenErrorExplicit(t *testing.T) {
	root := t.TempDir()
	gitDir := filepath.Join(root, "store.git")
	makeGitDir(t, gitDir)
	work := filepath.Join(root, "tree")
	require.NoError(t, os.MkdirAll(work, 0o755))

	p := Explicit(gitDir, work)
	assert.True(t, p.IsExplicit())
	assert.Equal(t, gitDir, p.GitPath())
	assert.Equal(t, work, p.WorkDir())
	assert.NoError(t, OpenError(p))

	assert.ErrorIs(t, OpenError(Explicit(work, work)), ErrNotRepository)
}
