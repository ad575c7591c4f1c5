package remote

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
	"time"

	"github.com/loykin/edgeup/internal/metrics"
)

// RunShell executes command through the platform shell and returns its
// separated output and exit code. A nil error with a non-zero code means
// the command itself failed; a non-nil error means it could not run.
func RunShell(ctx context.Context, command string) (stdout, stderr string, exitCode int, err error) {
	cmd := shellCommand(ctx, command)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf
	runErr := cmd.Run()
	stdout = outBuf.String()
	stderr = errBuf.String()
	if runErr == nil {
		return stdout, stderr, 0, nil
	}
	var exitErr *exec.ExitError
	if errors.As(runErr, &exitErr) {
		return stdout, stderr, exitErr.ExitCode(), nil
	}
	return stdout, stderr, -1, runErr
}

// LocalExecutor runs commands on the calling host through the shell. The
// identity argument is ignored: the OS user is the identity. Used for
// single-host deployments and as the agent's execution backend.
type LocalExecutor struct{}

func (LocalExecutor) Run(ctx context.Context, _ string, _ string, command string) (string, error) {
	began := time.Now()
	stdout, stderr, code, err := RunShell(ctx, command)
	if err != nil {
		metrics.IncRemoteCommand("error")
		return "", err
	}
	if code != 0 {
		metrics.IncRemoteCommand("failed")
		metrics.ObserveRemoteCommand("failed", time.Since(began).Seconds())
		return stdout, &CommandError{Command: command, ExitCode: code, Stderr: stderrTail(strings.TrimSpace(stderr))}
	}
	metrics.IncRemoteCommand("ok")
	metrics.ObserveRemoteCommand("ok", time.Since(began).Seconds())
	return stdout, nil
}
