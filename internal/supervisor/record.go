package supervisor

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// The PID record is the durable state between invocations: present means
// the service was started and not yet confirmed stopped. Its content is the
// decimal pid and nothing else. Presence never guarantees liveness; callers
// re-verify against the OS every time.

// writeRecord persists pid as the sole content of the PID file, creating
// the parent directory when missing.
func writeRecord(path string, pid int) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(strconv.Itoa(pid)), 0o600)
}

// readRecord reads the recorded pid. A missing file yields exists=false:
// the service was never started or its stop completed. An unparseable file
// yields exists=true with an error so callers can treat the record as
// stale rather than absent.
func readRecord(path string) (pid int, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	first, _, _ := strings.Cut(string(b), "\n")
	pid, perr := strconv.Atoi(strings.TrimSpace(first))
	if perr != nil || pid <= 0 {
		return 0, true, fmt.Errorf("invalid pid record in %s", path)
	}
	return pid, true, nil
}

// removeRecord deletes the PID file; a missing file is not an error.
func removeRecord(path string) error {
	err := os.Remove(path)
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
