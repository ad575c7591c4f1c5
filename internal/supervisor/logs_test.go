package supervisor

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogsTail(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	svc := shellService(dir, "gateway", 0, "sleep 60")
	sup := testSupervisor(t, svc)

	if err := os.MkdirAll(filepath.Dir(svc.LogPath), 0o750); err != nil {
		t.Fatal(err)
	}
	var sb strings.Builder
	for i := 1; i <= 50; i++ {
		fmt.Fprintf(&sb, "line %d\n", i)
	}
	if err := os.WriteFile(svc.LogPath, []byte(sb.String()), 0o640); err != nil {
		t.Fatal(err)
	}

	lines, err := sup.Logs("gateway", 5)
	if err != nil {
		t.Fatalf("Logs: %v", err)
	}
	if len(lines) != 5 || lines[0] != "line 46" || lines[4] != "line 50" {
		t.Fatalf("tail = %v", lines)
	}

	// Asking for more lines than exist returns them all.
	lines, err = sup.Logs("gateway", 500)
	if err != nil {
		t.Fatalf("Logs(500): %v", err)
	}
	if len(lines) != 50 {
		t.Fatalf("tail(500) returned %d lines, want 50", len(lines))
	}
}

func TestLogsNotFound(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	sup := testSupervisor(t, shellService(dir, "gateway", 0, "sleep 60"))
	_, err := sup.Logs("gateway", 10)
	if !errors.Is(err, ErrLogNotFound) {
		t.Fatalf("Logs on missing file = %v, want ErrLogNotFound", err)
	}
}

func TestTailLinesNoTrailingNewline(t *testing.T) {
	path := filepath.Join(t.TempDir(), "x.log")
	if err := os.WriteFile(path, []byte("one\ntwo\nthree"), 0o640); err != nil {
		t.Fatal(err)
	}
	lines, err := tailLines(path, 2)
	if err != nil {
		t.Fatalf("tailLines: %v", err)
	}
	if len(lines) != 2 || lines[0] != "two" || lines[1] != "three" {
		t.Fatalf("tailLines = %v", lines)
	}
}

func TestTailLinesEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.log")
	if err := os.WriteFile(path, nil, 0o640); err != nil {
		t.Fatal(err)
	}
	lines, err := tailLines(path, 10)
	if err != nil || len(lines) != 0 {
		t.Fatalf("tailLines(empty) = (%v, %v)", lines, err)
	}
}
