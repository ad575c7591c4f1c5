//go:build windows

package supervisor

import (
	"os/exec"
	"syscall"
)

const createNewProcessGroup = 0x00000200

// detach starts the child in its own process group so it survives
// supervisor exit.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{CreationFlags: createNewProcessGroup}
}
