package main

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

const (
	logFileName = "vi-git.log"
	maxLogSize  = 10 * 1024 * 1024
)

// logDir is the cache directory holding the log file
var logDir = defaultLogDir()

func defaultLogDir() string {
	if d, err := os.UserCacheDir(); err == nil {
		return filepath.Join(d, "vi-git")
	}
	return filepath.Join(os.TempDir(), "vi-git")
}

// setupLogging installs the process logger
// Disabled logging discards everything and returns a nil file
func setupLogging(debug bool) (*slog.Logger, *os.File) {
	if !debug {
		log.SetOutput(io.Discard)
		logger := slog.New(slog.DiscardHandler)
		slog.SetDefault(logger)
		return logger, nil
	}

	if err := os.MkdirAll(logDir, 0o755); err != nil {
		fmt.Fprintf(os.Stderr, "create log directory: %v\n", err)
		return setupLogging(false)
	}

	logPath := filepath.Join(logDir, logFileName)

	// Rotate oversized logs to a timestamped file
	if info, err := os.Stat(logPath); err == nil && info.Size() > maxLogSize {
		rotated := filepath.Join(logDir, fmt.Sprintf("vi-git-%s.log", time.Now().Format("20060102-150405")))
		if err := os.Rename(logPath, rotated); err != nil {
			fmt.Fprintf(os.Stderr, "rotate log: %v\n", err)
		}
	}

	f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open log file: %v\n", err)
		return setupLogging(false)
	}

	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	slog.SetDefault(logger)
	return logger, f
}
