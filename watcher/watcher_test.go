package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChangeSignalsOnceAfterDebounce(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	for i := range 5 {
		name := filepath.Join(root, "f"+string(rune('a'+i)))
		require.NoError(t, os.WriteFile(name, []byte("x"), 0o644))
	}

	select {
	case <-w.Receiver():
	case <-time.After(2 * time.Second):
		t.Fatal("no change signal")
	}

	select {
	case <-w.Receiver():
		t.Fatal("burst produced more than one signal")
	case <-time.After(200 * time.Millisecond):
	}
}

func TestNewDirectoryIsWatched(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, WithDebounce(20*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	<-w.Receiver()

	// Give the create handler time to register the new directory
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(sub, "file"), []byte("x"), 0o644))

	select {
	case <-w.Receiver():
	case <-time.After(2 * time.Second):
		t.Fatal("change in new directory not seen")
	}
}

func TestNewMissingRoot(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestCloseIdempotent(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)
	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())
}
