package terminal

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// TitlePath collapses the home directory prefix of path to "~"
// Paths outside home are returned unchanged
func TitlePath(path, home string) string {
	if home == "" {
		return path
	}
	home = filepath.Clean(home)
	path = filepath.Clean(path)

	if path == home {
		return "~"
	}
	rel, err := filepath.Rel(home, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return filepath.Join("~", rel)
}

// RepoTitle builds the window title for a repository path
// The path is made absolute and symlink-resolved before abbreviation
func RepoTitle(appName, path string) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("resolve %q: %w", path, err)
	}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		abs = resolved
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to find the home directory: %w", err)
	}
	if resolvedHome, err := filepath.EvalSymlinks(home); err == nil {
		home = resolvedHome
	}

	return fmt.Sprintf("%s (%s)", appName, TitlePath(abs, home)), nil
}
