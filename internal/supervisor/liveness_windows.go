//go:build windows

package supervisor

import "syscall"

var (
	kernel32             = syscall.NewLazyDLL("kernel32.dll")
	procOpenProcess      = kernel32.NewProc("OpenProcess")
	procTerminateProcess = kernel32.NewProc("TerminateProcess")
	procCloseHandle      = kernel32.NewProc("CloseHandle")
)

const (
	processTerminate        = 0x0001
	processQueryInformation = 0x0400
)

// pidAlive returns true if a process with the given pid can be opened.
func pidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}
	h, err := openProcess(processQueryInformation, uint32(pid))
	if err != nil {
		return false
	}
	_ = closeHandle(h)
	return true
}

// terminate has no graceful phase on Windows; both phases call
// TerminateProcess, which is the closest native equivalent.
func terminate(pid int) { endProcess(pid) }

func kill(pid int) { endProcess(pid) }

func endProcess(pid int) {
	if pid < 0 {
		pid = -pid
	}
	h, err := openProcess(processTerminate, uint32(pid))
	if err != nil {
		// Unable to open usually means the process is already gone.
		return
	}
	defer func() { _ = closeHandle(h) }()
	_, _, _ = procTerminateProcess.Call(uintptr(h), uintptr(1))
}

func openProcess(access uint32, pid uint32) (syscall.Handle, error) {
	ret, _, err := procOpenProcess.Call(uintptr(access), uintptr(0), uintptr(pid))
	if ret == 0 {
		return 0, err
	}
	return syscall.Handle(ret), nil
}

func closeHandle(h syscall.Handle) error {
	ret, _, err := procCloseHandle.Call(uintptr(h))
	if ret == 0 {
		return err
	}
	return nil
}
