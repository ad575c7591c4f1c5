// Package logger builds the slog loggers edgeup uses for its own output:
// a colorized terminal handler for interactive commands and a rotated file
// destination for the long-running agent.
package logger

import (
	"io"
	"log/slog"
	"path/filepath"
	"strings"

	lj "gopkg.in/natefinch/lumberjack.v2"
)

// Rotation defaults, lumberjack semantics.
const (
	DefaultMaxSizeMB  = 10
	DefaultMaxBackups = 3
	DefaultMaxAgeDays = 7
)

// Config describes a rotated log destination. Path overrides Dir; when only
// Dir is set the file is Dir/<name>.log.
type Config struct {
	Dir        string `mapstructure:"dir"`
	Path       string `mapstructure:"path"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Writer returns a rotating io.WriteCloser for the given name, or nil when
// the config names no destination.
func (c Config) Writer(name string) io.WriteCloser {
	path := c.Path
	if path == "" && c.Dir != "" {
		path = filepath.Join(c.Dir, name+".log")
	}
	if path == "" {
		return nil
	}
	return &lj.Logger{
		Filename:   path,
		MaxSize:    valOr(c.MaxSizeMB, DefaultMaxSizeMB),
		MaxBackups: valOr(c.MaxBackups, DefaultMaxBackups),
		MaxAge:     valOr(c.MaxAgeDays, DefaultMaxAgeDays),
		Compress:   c.Compress,
	}
}

// ParseLevel maps a level name to slog.Level. Unknown names mean info.
func ParseLevel(s string) slog.Level {
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

// NewTerminal returns a logger with ANSI level coloring for interactive use.
func NewTerminal(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(NewColorHandler(w, &slog.HandlerOptions{Level: level}))
}

// NewRotating returns a logger writing text records to the rotated
// destination for name, plus the closer to flush on shutdown. Falls back to
// the given writer when the config names no file.
func NewRotating(c Config, name string, fallback io.Writer, level slog.Level) (*slog.Logger, io.Closer) {
	w := c.Writer(name)
	if w == nil {
		return slog.New(slog.NewTextHandler(fallback, &slog.HandlerOptions{Level: level})), nil
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), w
}

func valOr(v int, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
