// Package remote abstracts "run this command on host X as identity Y".
// Orchestration logic depends only on the Executor contract; the concrete
// channel (local shell, token-authenticated HTTP agent) is swappable.
package remote

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrAuthenticationFailed means the remote side rejected the identity.
	ErrAuthenticationFailed = errors.New("authentication failed")
	// ErrConnectionFailed means the channel itself broke before the
	// command could report an exit status.
	ErrConnectionFailed = errors.New("connection failed")
	// ErrRemoteCommandFailed means the command ran and exited non-zero.
	ErrRemoteCommandFailed = errors.New("remote command failed")
)

// Executor runs a single shell command on a host under an identity and
// returns its stdout. A non-zero exit maps to ErrRemoteCommandFailed.
type Executor interface {
	Run(ctx context.Context, host, identity, command string) (string, error)
}

// CommandError carries the exit status and a stderr tail for a command
// that ran but failed. It unwraps to ErrRemoteCommandFailed.
type CommandError struct {
	Command  string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("command exited %d", e.ExitCode)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *CommandError) Unwrap() error { return ErrRemoteCommandFailed }

// stderrTail keeps error payloads short; full output stays on the remote
// side's logs.
func stderrTail(s string) string {
	const max = 512
	if len(s) <= max {
		return s
	}
	return "..." + s[len(s)-max:]
}
