package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"runtime/debug"
	"time"

	"github.com/lixenwraith/vi-git/app"
	"github.com/lixenwraith/vi-git/config"
	"github.com/lixenwraith/vi-git/core"
	"github.com/lixenwraith/vi-git/engine"
	"github.com/lixenwraith/vi-git/input"
	"github.com/lixenwraith/vi-git/keys"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/terminal"
	"github.com/lixenwraith/vi-git/theme"
	"github.com/lixenwraith/vi-git/watcher"
)

// version is overridden at build time with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	os.Exit(run(os.Args[1:]))
}

// run returns the process exit code
func run(args []string) int {
	start := time.Now()

	cfg, err := config.Load(args)
	if err != nil {
		if errors.Is(err, config.ErrHelp) {
			return 0
		}
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	if cfg.BugReport {
		bugReport(os.Stdout)
		return 0
	}

	logger, logFile := setupLogging(cfg.Logging)
	if logFile != nil {
		defer logFile.Close()
	}

	// Crash guard and worker pool exist before the terminal is touched
	var proc core.Process
	if err := proc.Init(core.ProcessConfig{Log: logger}); err != nil {
		logger.Error("startup failed", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	defer proc.Close()
	guard := proc.Guard()
	defer guard.Recover()

	path := repo.At(cfg.Directory)
	if cfg.Workdir != "" {
		path = repo.Explicit(cfg.Directory, cfg.Workdir)
	}
	if err := repo.OpenError(path); err != nil {
		logger.Error("invalid path", "path", path.String(), "error", err)
		fmt.Fprintf(os.Stderr, "invalid path\nplease run %s inside of a non-bare git repository\n", config.AppName)
		return 1
	}

	keyCfg, err := keys.Load(cfg.KeyConfig)
	if err != nil {
		logger.Warn("key config load failed, using defaults", "error", err)
		fmt.Fprintf(os.Stderr, "KeyConfig loading error: %v\n", err)
	}

	th, err := theme.Init(cfg.Theme)
	if err != nil {
		logger.Warn("theme load failed, using defaults", "error", err)
	}

	updater := engine.UpdaterTicker
	if cfg.Watcher {
		updater = engine.UpdaterWatcher
	}

	err = runTerminal(logger, &proc, engine.Config{
		AppName:      config.AppName,
		Repo:         path,
		Updater:      updater,
		TickInterval: cfg.TickInterval,
		Theme:        th,
		Keys:         keyCfg,
		Pool:         proc.Pool(),
		Log:          logger,
	}, start)
	if err != nil {
		logger.Error("exited with error", "error", err)
		fmt.Fprintf(os.Stderr, "%s: %v\n", config.AppName, err)
		return 1
	}
	return 0
}

// runTerminal brackets the runtime with terminal setup and teardown
// Errors are returned after the terminal is restored so they stay visible
func runTerminal(logger *slog.Logger, proc *core.Process, cfg engine.Config, start time.Time) error {
	guard := proc.Guard()
	term := terminal.NewStdio(terminal.DetectColorMode(), logger)
	guard.SetRestorer(term)

	if err := term.Enter(); err != nil {
		// Undo whatever part of Enter succeeded
		term.Leave()
		return fmt.Errorf("setup terminal: %w", err)
	}
	defer func() {
		if err := term.Leave(); err != nil {
			logger.Error("shutdown terminal failed", "error", err)
		}
	}()

	in := input.New(term, guard.Go)
	defer in.Close()

	rt := &engine.Runtime{
		Screen: term,
		Input:  in,
		NewApp: app.Factory(),
		NewWatcher: func(p repo.Path) (engine.Watcher, error) {
			root := p.WorkDir()
			if root == "" {
				var err error
				if root, err = repo.Discover(p.GitPath()); err != nil {
					return nil, err
				}
			}
			return watcher.New(root, watcher.WithSpawn(guard.Go), watcher.WithLogger(logger))
		},
		Title: func(appName string, p repo.Path) (string, error) {
			return terminal.RepoTitle(appName, p.GitPath())
		},
	}

	logger.Debug("startup finished", "elapsed", time.Since(start), "pool", proc.Pool().Size())
	return rt.Run(cfg)
}

func bugReport(w io.Writer) {
	v := version
	if info, ok := debug.ReadBuildInfo(); ok && v == "dev" && info.Main.Version != "" {
		v = info.Main.Version
	}
	fmt.Fprintf(w, "%s %s\n", config.AppName, v)
	fmt.Fprintf(w, "go: %s\n", runtime.Version())
	fmt.Fprintf(w, "os: %s/%s\n", runtime.GOOS, runtime.GOARCH)
	for _, env := range []string{"TERM", "COLORTERM", "TERM_PROGRAM", "SHELL"} {
		fmt.Fprintf(w, "%s: %s\n", env, os.Getenv(env))
	}
}
