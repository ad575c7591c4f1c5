package remote

import (
	"context"
	"errors"
	"runtime"
	"strings"
	"testing"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix-only test")
	}
}

func TestLocalExecutorStdout(t *testing.T) {
	requireUnix(t)
	out, err := LocalExecutor{}.Run(context.Background(), "local", "", "echo yes")
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if strings.TrimSpace(out) != "yes" {
		t.Fatalf("stdout = %q, want yes", out)
	}
}

func TestLocalExecutorNonZeroExit(t *testing.T) {
	requireUnix(t)
	_, err := LocalExecutor{}.Run(context.Background(), "local", "", "echo sad >&2; exit 3")
	if !errors.Is(err, ErrRemoteCommandFailed) {
		t.Fatalf("Run = %v, want ErrRemoteCommandFailed", err)
	}
	var cmdErr *CommandError
	if !errors.As(err, &cmdErr) {
		t.Fatalf("error does not carry CommandError: %v", err)
	}
	if cmdErr.ExitCode != 3 || !strings.Contains(cmdErr.Stderr, "sad") {
		t.Fatalf("CommandError = %+v", cmdErr)
	}
}

func TestLocalExecutorExistenceProbeProtocol(t *testing.T) {
	requireUnix(t)
	dir := t.TempDir()
	probe := "test -d " + dir + " && echo yes || echo no"
	out, err := LocalExecutor{}.Run(context.Background(), "local", "", probe)
	if err != nil || strings.TrimSpace(out) != "yes" {
		t.Fatalf("probe on existing dir = (%q, %v)", out, err)
	}
	probe = "test -d " + dir + "/absent && echo yes || echo no"
	out, err = LocalExecutor{}.Run(context.Background(), "local", "", probe)
	if err != nil || strings.TrimSpace(out) != "no" {
		t.Fatalf("probe on missing dir = (%q, %v)", out, err)
	}
}

func TestRunShellSeparatesStreams(t *testing.T) {
	requireUnix(t)
	stdout, stderr, code, err := RunShell(context.Background(), "echo out; echo err >&2")
	if err != nil || code != 0 {
		t.Fatalf("RunShell = code %d err %v", code, err)
	}
	if strings.TrimSpace(stdout) != "out" || strings.TrimSpace(stderr) != "err" {
		t.Fatalf("streams = (%q, %q)", stdout, stderr)
	}
}
