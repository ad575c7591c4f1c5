package supervisor

import (
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/loykin/edgeup/internal/registry"
)

func requireUnix(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("unix-only test")
	}
}

func waitUntil(timeout, interval time.Duration, cond func() bool) bool {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return true
		}
		time.Sleep(interval)
	}
	return cond()
}

// shellService builds a descriptor that runs script through /bin/sh with
// pid/log files under dir.
func shellService(dir, name string, order int, script string) registry.Service {
	return registry.Service{
		Name:        name,
		BinaryPath:  "/bin/sh",
		LaunchArgs:  []string{"-c", script},
		LogPath:     filepath.Join(dir, "logs", name+".log"),
		PIDFilePath: filepath.Join(dir, "run", name+".pid"),
		StartOrder:  order,
	}
}

func testSupervisor(t *testing.T, services ...registry.Service) *Supervisor {
	t.Helper()
	reg, err := registry.New(services)
	if err != nil {
		t.Fatalf("registry.New: %v", err)
	}
	return New(reg, Options{
		LaunchWait:   150 * time.Millisecond,
		StopTimeout:  400 * time.Millisecond,
		KillTimeout:  2 * time.Second,
		PollInterval: 25 * time.Millisecond,
		StepPause:    10 * time.Millisecond,
	}, nil, nil)
}
