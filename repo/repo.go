// Package repo locates and validates the repository a session is bound to
package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotRepository is returned when no git repository is found
var ErrNotRepository = errors.New("not a git repository")

// Path locates a repository: a plain path inside a work tree, or an explicit
// git dir with a separate work dir
type Path struct {
	Dir     string // Path inside the work tree, or the git dir when Workdir is set
	Workdir string
}

// At returns a plain repository path
func At(dir string) Path {
	return Path{Dir: dir}
}

// Explicit returns a path with a separate git dir and work dir
func Explicit(gitDir, workdir string) Path {
	return Path{Dir: gitDir, Workdir: workdir}
}

// GitPath returns the path git commands should be pointed at
func (p Path) GitPath() string {
	return p.Dir
}

// WorkDir returns the work tree root, or "" when it is not known without discovery
func (p Path) WorkDir() string {
	return p.Workdir
}

// IsExplicit reports whether a separate work dir was given
func (p Path) IsExplicit() bool {
	return p.Workdir != ""
}

func (p Path) String() string {
	if p.IsExplicit() {
		return fmt.Sprintf("%s (git dir %s)", p.Workdir, p.Dir)
	}
	return p.Dir
}

// OpenError returns nil if p names an openable repository
func OpenError(p Path) error {
	if p.IsExplicit() {
		if !isGitDir(p.Dir) {
			return fmt.Errorf("%w: %s", ErrNotRepository, p.Dir)
		}
		if fi, err := os.Stat(p.Workdir); err != nil {
			return fmt.Errorf("open work dir: %w", err)
		} else if !fi.IsDir() {
			return fmt.Errorf("work dir %s is not a directory", p.Workdir)
		}
		return nil
	}

	if _, err := Discover(p.Dir); err != nil {
		return err
	}
	return nil
}

// Discover walks up from dir and returns the work tree root containing a .git entry
func Discover(dir string) (string, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", dir, err)
	}
	fi, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", dir, err)
	}
	if !fi.IsDir() {
		return "", fmt.Errorf("%w: %s is not a directory", ErrNotRepository, dir)
	}

	// A bare repository or git dir opened directly
	if isGitDir(abs) {
		return abs, nil
	}

	for cur := abs; ; {
		if hasDotGit(cur) {
			return cur, nil
		}
		parent := filepath.Dir(cur)
		if parent == cur {
			return "", fmt.Errorf("%w: %s", ErrNotRepository, dir)
		}
		cur = parent
	}
}

func hasDotGit(dir string) bool {
	dotGit := filepath.Join(dir, ".git")
	fi, err := os.Stat(dotGit)
	if err != nil {
		return false
	}
	if fi.IsDir() {
		return isGitDir(dotGit)
	}
	// Gitfile used by submodules and linked worktrees
	target, err := readGitFile(dotGit)
	if err != nil {
		return false
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(dir, target)
	}
	return isGitDir(target)
}

func readGitFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	line := strings.TrimSpace(string(data))
	target, ok := strings.CutPrefix(line, "gitdir:")
	if !ok {
		return "", fmt.Errorf("invalid gitfile %s", path)
	}
	return strings.TrimSpace(target), nil
}

func isGitDir(dir string) bool {
	for _, name := range []string{"HEAD", "objects", "refs"} {
		if _, err := os.Stat(filepath.Join(dir, name)); err != nil {
			return false
		}
	}
	return true
}
