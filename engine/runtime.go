package engine

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/lixenwraith/vi-git/keys"
	"github.com/lixenwraith/vi-git/repo"
	"github.com/lixenwraith/vi-git/status"
	"github.com/lixenwraith/vi-git/theme"
	"github.com/lixenwraith/vi-git/workpool"
)

// channelSize buffers background notifications so late senders rarely block
const channelSize = 256

// Config is the session-independent state carried across restarts
type Config struct {
	AppName         string
	Repo            repo.Path
	Updater         Updater
	TickInterval    time.Duration
	SpinnerInterval time.Duration
	Theme           theme.Theme
	Keys            keys.KeyConfig
	Pool            *workpool.Pool
	Log             *slog.Logger
	Metrics         *status.Registry
}

// Runtime holds the collaborators shared by every session
type Runtime struct {
	Screen     Screen
	Input      Input
	NewApp     AppFactory
	NewWatcher WatcherFactory // Required for UpdaterWatcher
	Clock      Clock
	// Title returns the window title for a repository, nil disables titles
	Title func(appName string, path repo.Path) (string, error)
}

// Run drives sessions until one ends without a re-target request
// Each restart builds new channels and a new application against the new path
func (rt *Runtime) Run(cfg Config) error {
	if err := rt.defaults(&cfg); err != nil {
		return err
	}

	path := cfg.Repo
	for {
		s, err := rt.newSession(cfg, path)
		if err != nil {
			return err
		}

		quit, err := s.run()
		s.close()
		cfg.Log.LogAttrs(context.Background(), slog.LevelDebug, "session metrics", cfg.Metrics.Attrs()...)
		if err != nil {
			return err
		}

		if quit.Kind != QuitOpenSubmodule {
			cfg.Log.Info("session closed", "repo", path.String())
			return nil
		}

		cfg.Log.Info("restarting session", "from", path.String(), "to", quit.Path.String())
		path = quit.Path
	}
}

func (rt *Runtime) defaults(cfg *Config) error {
	if rt.Screen == nil || rt.Input == nil || rt.NewApp == nil {
		return errors.New("runtime needs a screen, input and app factory")
	}
	if cfg.Updater == UpdaterWatcher && rt.NewWatcher == nil {
		return errors.New("watcher updater without a watcher factory")
	}
	if rt.Clock == nil {
		rt.Clock = realClock{}
	}
	if cfg.Log == nil {
		cfg.Log = slog.New(slog.DiscardHandler)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = TickInterval
	}
	if cfg.SpinnerInterval <= 0 {
		cfg.SpinnerInterval = SpinnerInterval
	}
	if cfg.Metrics == nil {
		cfg.Metrics = status.NewRegistry()
	}
	if cfg.AppName == "" {
		cfg.AppName = "vi-git"
	}
	return nil
}
