package logger

import (
	"bytes"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		"WARN":    slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Fatalf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestWriterPathResolution(t *testing.T) {
	dir := t.TempDir()

	c := Config{Dir: dir}
	w := c.Writer("agent")
	if w == nil {
		t.Fatal("nil writer with Dir set")
	}
	if _, err := w.Write([]byte("hello\n")); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	b, err := os.ReadFile(filepath.Join(dir, "agent.log"))
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	if !strings.Contains(string(b), "hello") {
		t.Fatalf("log content %q", b)
	}

	explicit := filepath.Join(dir, "custom.out")
	c = Config{Dir: dir, Path: explicit}
	w = c.Writer("ignored")
	if _, err := w.Write([]byte("x")); err != nil {
		t.Fatalf("write: %v", err)
	}
	_ = w.Close()
	if _, err := os.Stat(explicit); err != nil {
		t.Fatalf("explicit path not used: %v", err)
	}

	if (Config{}).Writer("none") != nil {
		t.Fatal("empty config produced a writer")
	}
}

func TestNewTerminalColorsLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewTerminal(&buf, slog.LevelInfo)
	lg.Warn("disk almost full")
	out := buf.String()
	if !strings.Contains(out, "\033[33m") {
		t.Fatalf("warn output not colored: %q", out)
	}
	if !strings.Contains(out, "disk almost full") {
		t.Fatalf("message missing: %q", out)
	}
}

func TestNewTerminalHonorsLevel(t *testing.T) {
	var buf bytes.Buffer
	lg := NewTerminal(&buf, slog.LevelWarn)
	lg.Info("should be suppressed")
	if buf.Len() != 0 {
		t.Fatalf("info leaked through warn level: %q", buf.String())
	}
}

func TestNewRotatingFallback(t *testing.T) {
	var buf bytes.Buffer
	lg, closer := NewRotating(Config{}, "agent", &buf, slog.LevelInfo)
	if closer != nil {
		t.Fatal("expected nil closer for fallback logger")
	}
	lg.Info("fallback line")
	if !strings.Contains(buf.String(), "fallback line") {
		t.Fatalf("fallback writer unused: %q", buf.String())
	}

	dir := t.TempDir()
	lg, closer = NewRotating(Config{Dir: dir}, "agent", &buf, slog.LevelInfo)
	if closer == nil {
		t.Fatal("expected closer for file logger")
	}
	lg.Info("file line")
	_ = closer.Close()
	b, err := os.ReadFile(filepath.Join(dir, "agent.log"))
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), "file line") {
		t.Fatalf("file content %q", b)
	}
}
