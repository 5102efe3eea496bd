// Package logger provides the panel's structured logging setup and rotating
// file writers for captured process output.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, in lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes the on-disk mirror for one process's captured output.
// The supervisor merges stdout and stderr, so a single file per process is
// enough. If Path is empty and Dir is set, the file is Dir/<name>.log.
type Config struct {
	Dir        string `json:"dir" mapstructure:"dir"`
	Path       string `json:"path" mapstructure:"path"`
	MaxSizeMB  int    `json:"max_size_mb" mapstructure:"max_size_mb"`
	MaxBackups int    `json:"max_backups" mapstructure:"max_backups"`
	MaxAgeDays int    `json:"max_age_days" mapstructure:"max_age_days"`
	Compress   bool   `json:"compress" mapstructure:"compress"`
}

// Enabled reports whether any destination is configured.
func (c Config) Enabled() bool { return c.Dir != "" || c.Path != "" }

// Writer returns a rotating io.WriteCloser for the named process.
func (c Config) Writer(name string) (io.WriteCloser, error) {
	path := c.Path
	if path == "" {
		if c.Dir == "" {
			return nil, fmt.Errorf("logger: no output destination for %q", name)
		}
		if err := os.MkdirAll(c.Dir, 0o750); err != nil {
			return nil, err
		}
		path = filepath.Join(c.Dir, fmt.Sprintf("%s.log", name))
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}, nil
}

func valOr(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

// New builds the panel's own slog.Logger writing to w. level accepts
// debug|info|warn|error (case-insensitive); anything else means info.
func New(w io.Writer, level string, color bool) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(level)}
	if color {
		return slog.New(NewColorTextHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func parseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
