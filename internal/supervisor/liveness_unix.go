//go:build !windows

package supervisor

import (
	"bytes"
	"errors"
	"os"
	"runtime"
	"strconv"
	"syscall"
)

// pidAlive returns true if a process with the given pid exists (or EPERM).
// A Linux zombie counts as dead: the pid lingers until reaped but the
// process cannot run again, and a stale record must not read as running.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	if runtime.GOOS == "linux" && isZombie(pid) {
		return false
	}
	err := syscall.Kill(pid, 0)
	return err == nil || errors.Is(err, syscall.EPERM)
}

// isZombie reports whether /proc/<pid>/status shows state Z.
func isZombie(pid int) bool {
	b, err := os.ReadFile("/proc/" + strconv.Itoa(pid) + "/status")
	if err != nil {
		return false
	}
	return bytes.Contains(b, []byte("State:\tZ"))
}

// terminate asks the service for a graceful shutdown. The signal goes to
// the process group (the service leads its own session), falling back to
// the bare pid when the group signal is rejected.
func terminate(pid int) {
	if syscall.Kill(-pid, syscall.SIGTERM) != nil {
		_ = syscall.Kill(pid, syscall.SIGTERM)
	}
}

// kill ends the service unconditionally, group first.
func kill(pid int) {
	if syscall.Kill(-pid, syscall.SIGKILL) != nil {
		_ = syscall.Kill(pid, syscall.SIGKILL)
	}
}
