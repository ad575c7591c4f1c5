//go:build !windows

package supervisor

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own session so it has no controlling
// terminal and survives supervisor exit. The session makes the child a
// process-group leader, which is what terminate/kill signal.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
