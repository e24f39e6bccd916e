// Package config resolves command-line flags, environment and the optional config file
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

const (
	AppName   = "vi-git"
	envPrefix = "VIGIT"

	DefaultTickInterval = 5 * time.Second
)

// ErrHelp is returned when --help was requested and usage was printed
var ErrHelp = pflag.ErrHelp

// Config holds the resolved startup options
type Config struct {
	Directory    string        `mapstructure:"directory"`
	Workdir      string        `mapstructure:"workdir"`
	Theme        string        `mapstructure:"theme"`
	KeyConfig    string        `mapstructure:"key_config"`
	Watcher      bool          `mapstructure:"watcher"`
	TickInterval time.Duration `mapstructure:"tick_interval"`
	Logging      bool          `mapstructure:"logging"`
	BugReport    bool          `mapstructure:"bugreport"`
}

// Dir returns the per-user config directory
func Dir() string {
	if d, err := os.UserConfigDir(); err == nil {
		return filepath.Join(d, AppName)
	}
	return filepath.Join(os.Getenv("HOME"), ".config", AppName)
}

// Load parses args (without the program name) and merges env and config.toml
// Precedence: flags, then VIGIT_* env, then config file, then defaults
func Load(args []string) (Config, error) {
	fs := pflag.NewFlagSet(AppName, pflag.ContinueOnError)
	fs.StringP("directory", "d", ".", "set the git directory")
	fs.StringP("workdir", "w", "", "set the working directory")
	fs.StringP("theme", "t", "", "theme file, relative paths resolve in the config directory")
	fs.String("key-config", "", "key binding file, defaults to key_bindings.toml in the config directory")
	fs.Bool("watcher", false, "use a filesystem watcher instead of polling to detect changes")
	fs.Duration("tick-interval", DefaultTickInterval, "polling interval when the watcher is off")
	fs.BoolP("logging", "l", false, "store logging output in the cache directory")
	fs.Bool("bugreport", false, "print environment info for bug reports and exit")

	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	v := viper.New()
	v.SetDefault("directory", ".")
	v.SetDefault("tick_interval", DefaultTickInterval)

	for flag, key := range map[string]string{
		"directory":     "directory",
		"workdir":       "workdir",
		"theme":         "theme",
		"key-config":    "key_config",
		"watcher":       "watcher",
		"tick-interval": "tick_interval",
		"logging":       "logging",
		"bugreport":     "bugreport",
	} {
		if err := v.BindPFlag(key, fs.Lookup(flag)); err != nil {
			return Config{}, fmt.Errorf("bind flag %s: %w", flag, err)
		}
	}

	v.SetConfigType("toml")
	v.AddConfigPath(Dir())
	v.SetConfigName("config")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_", ".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if c.TickInterval <= 0 {
		return Config{}, fmt.Errorf("tick interval must be positive, got %s", c.TickInterval)
	}
	c.Theme = resolve(c.Theme)
	if c.KeyConfig == "" {
		if p := filepath.Join(Dir(), "key_bindings.toml"); fileExists(p) {
			c.KeyConfig = p
		}
	} else {
		c.KeyConfig = resolve(c.KeyConfig)
	}
	return c, nil
}

// resolve maps a bare file name into the config directory
func resolve(p string) string {
	if p == "" || filepath.IsAbs(p) || strings.ContainsRune(p, filepath.Separator) {
		return p
	}
	if fileExists(p) {
		return p
	}
	return filepath.Join(Dir(), p)
}

func fileExists(p string) bool {
	fi, err := os.Stat(p)
	return err == nil && !fi.IsDir()
}
