package supervisor

import "time"

// State is the derived condition of a service. It is computed from the PID
// record plus an OS liveness probe, never stored.
type State string

const (
	// StateStopped means no PID record exists: the service was never
	// started or its last stop completed.
	StateStopped State = "stopped"
	// StateRunning means the recorded pid is alive.
	StateRunning State = "running"
	// StateUnknown means a PID record exists but the process is gone. The
	// record is stale; the next Start or Stop cleans it up.
	StateUnknown State = "unknown"
)

// Status is a point-in-time snapshot of one service.
type Status struct {
	Name      string        `json:"name"`
	State     State         `json:"state"`
	PID       int           `json:"pid,omitempty"`
	StartedAt time.Time     `json:"started_at,omitempty"`
	Uptime    time.Duration `json:"uptime,omitempty"`
	PIDFile   string        `json:"pid_file,omitempty"`
	LogPath   string        `json:"log_path,omitempty"`
}

// Running reports whether the snapshot shows a live process.
func (s Status) Running() bool { return s.State == StateRunning }
