package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/jmgilman/go/objcache/cache"
	"github.com/jmgilman/go/objcache/config"
)

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// newLogger builds the cache logger from cfg. Logs go to stderr unless a
// file is configured, in which case they rotate through lumberjack.
func newLogger(cfg config.LogConfig) (*cache.Logger, io.Closer, error) {
	level, err := cache.ParseLogLevel(cfg.Level)
	if err != nil {
		return nil, nil, err
	}

	switch cfg.Format {
	case "", "text", "json":
	default:
		return nil, nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}

	out, closer, err := logOutput(cfg)
	if err != nil {
		return nil, nil, err
	}

	return cache.NewLogger(cache.LogConfig{
		Level:  level,
		JSON:   cfg.Format == "json",
		Output: out,
	}), closer, nil
}

func logOutput(cfg config.LogConfig) (io.Writer, io.Closer, error) {
	if cfg.File == "" {
		return stdErr, nopCloser{}, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.File), 0o755); err != nil {
		return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	rotator := &lumberjack.Logger{
		Filename:   cfg.File,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		LocalTime:  true,
	}
	return rotator, rotator, nil
}
