// Package supervisor starts, stops, and inspects the managed service chain
// using PID files as the only durable state. A PID record is never trusted
// on its own: liveness is re-verified against the OS on every decision.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/loykin/edgeup/internal/history"
	"github.com/loykin/edgeup/internal/metrics"
	"github.com/loykin/edgeup/internal/registry"
)

var (
	// ErrStartFailed means the launched process was not alive after the
	// post-launch check. The service's log file is the diagnostic surface.
	ErrStartFailed = errors.New("start failed")
	// ErrStopFailed means the process survived both the graceful and the
	// forceful phase. The PID record is kept so a later stop can retry.
	ErrStopFailed = errors.New("stop failed")
)

// Options tune the bounded waits. Zero values take the defaults.
type Options struct {
	// LaunchWait is how long a freshly launched process is watched before
	// it is declared started.
	LaunchWait time.Duration
	// StopTimeout bounds the graceful phase after SIGTERM.
	StopTimeout time.Duration
	// KillTimeout bounds the forceful phase after SIGKILL.
	KillTimeout time.Duration
	// PollInterval is the liveness probe cadence inside every wait.
	PollInterval time.Duration
	// StepPause is the pause between services in StartAll/StopAll.
	StepPause time.Duration
	// Host tags history events with the machine being managed.
	Host string
}

const (
	defaultLaunchWait   = time.Second
	defaultStopTimeout  = 10 * time.Second
	defaultKillTimeout  = 2 * time.Second
	defaultPollInterval = 200 * time.Millisecond
	defaultStepPause    = time.Second
)

func (o *Options) fill() {
	if o.LaunchWait <= 0 {
		o.LaunchWait = defaultLaunchWait
	}
	if o.StopTimeout <= 0 {
		o.StopTimeout = defaultStopTimeout
	}
	if o.KillTimeout <= 0 {
		o.KillTimeout = defaultKillTimeout
	}
	if o.PollInterval <= 0 {
		o.PollInterval = defaultPollInterval
	}
	if o.StepPause <= 0 {
		o.StepPause = defaultStepPause
	}
}

// Supervisor drives the lifecycle of every service in the registry. The
// mutex serializes lifecycle mutations when embedded in a concurrent host
// program; the orchestration flow itself is sequential.
type Supervisor struct {
	reg    *registry.Registry
	opts   Options
	logger *slog.Logger
	sink   history.Sink

	mu sync.Mutex
}

// New builds a supervisor over the given registry. logger and sink may be
// nil; events are then dropped.
func New(reg *registry.Registry, opts Options, logger *slog.Logger, sink history.Sink) *Supervisor {
	opts.fill()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Supervisor{reg: reg, opts: opts, logger: logger, sink: sink}
}

// Start brings the named service up. Already running is success with no
// side effect. A failed launch leaves no PID record behind.
func (s *Supervisor) Start(ctx context.Context, name string) error {
	svc, err := s.reg.Lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.startLocked(ctx, svc)
}

func (s *Supervisor) startLocked(ctx context.Context, svc registry.Service) error {
	pid, exists, _ := readRecord(svc.PIDFilePath)
	if exists && pidAlive(pid) {
		s.logger.Info("service already running", "service", svc.Name, "pid", pid)
		return nil
	}
	if exists {
		// Stale record from an external death or an unparseable file.
		s.logger.Warn("removing stale pid record", "service", svc.Name, "pid_file", svc.PIDFilePath)
		if err := removeRecord(svc.PIDFilePath); err != nil {
			return fmt.Errorf("start %s: clear stale pid record: %w", svc.Name, err)
		}
	}

	pid, err := s.launch(svc)
	if err != nil {
		metrics.IncStartFailure(svc.Name)
		return fmt.Errorf("start %s: %v: %w", svc.Name, err, ErrStartFailed)
	}
	if err := writeRecord(svc.PIDFilePath, pid); err != nil {
		kill(pid)
		metrics.IncStartFailure(svc.Name)
		return fmt.Errorf("start %s: record pid: %w", svc.Name, err)
	}

	// Watch the launch window; an early exit fails the start immediately.
	died := waitFor(ctx, s.opts.LaunchWait, s.opts.PollInterval, func() bool {
		return !pidAlive(pid)
	})
	if died {
		_ = removeRecord(svc.PIDFilePath)
		metrics.IncStartFailure(svc.Name)
		history.Record(ctx, s.sink, s.logger, history.Event{
			Type: history.EventFail, Service: svc.Name, Host: s.opts.Host, PID: pid,
			Detail: "process exited during launch window",
		})
		return fmt.Errorf("start %s: process exited during launch, see %s: %w",
			svc.Name, svc.LogPath, ErrStartFailed)
	}

	metrics.IncStart(svc.Name)
	metrics.SetRunning(svc.Name, true)
	history.Record(ctx, s.sink, s.logger, history.Event{
		Type: history.EventStart, Service: svc.Name, Host: s.opts.Host, PID: pid,
	})
	s.logger.Info("service started", "service", svc.Name, "pid", pid, "log", svc.LogPath)
	return nil
}

// launch spawns the service binary in its own session with combined output
// appended to the service log file. The log file descriptor is inherited by
// the child directly so logging keeps working after the supervisor exits.
func (s *Supervisor) launch(svc registry.Service) (int, error) {
	if err := os.MkdirAll(filepath.Dir(svc.LogPath), 0o750); err != nil {
		return 0, err
	}
	logFile, err := os.OpenFile(svc.LogPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return 0, err
	}
	defer func() { _ = logFile.Close() }()

	env := launchEnv(svc)
	cmd := exec.Command(svc.BinaryPath, expandArgs(svc.LaunchArgs, env)...)
	cmd.Env = env
	cmd.Stdout = logFile
	cmd.Stderr = logFile
	detach(cmd)
	if err := cmd.Start(); err != nil {
		return 0, err
	}
	pid := cmd.Process.Pid
	// Not a waited-on child: release it so it keeps running on its own.
	_ = cmd.Process.Release()
	return pid, nil
}

// Stop takes the named service down with the graceful→forceful protocol.
// Already stopped is success with no signal delivered. The PID record is
// removed once liveness is confirmed false, whichever phase achieved it.
func (s *Supervisor) Stop(ctx context.Context, name string) error {
	svc, err := s.reg.Lookup(name)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stopLocked(ctx, svc)
}

func (s *Supervisor) stopLocked(ctx context.Context, svc registry.Service) error {
	pid, exists, rerr := readRecord(svc.PIDFilePath)
	if !exists {
		s.logger.Info("service already stopped", "service", svc.Name)
		return nil
	}
	if rerr != nil || !pidAlive(pid) {
		// Stale record: the process is gone, only the file remains.
		if err := removeRecord(svc.PIDFilePath); err != nil {
			return fmt.Errorf("stop %s: clear stale pid record: %w", svc.Name, err)
		}
		metrics.SetRunning(svc.Name, false)
		s.logger.Info("service already stopped, cleared stale pid record", "service", svc.Name)
		return nil
	}

	gone := func() bool { return !pidAlive(pid) }

	terminate(pid)
	if !waitFor(ctx, s.opts.StopTimeout, s.opts.PollInterval, gone) {
		s.logger.Warn("graceful stop timed out, killing", "service", svc.Name, "pid", pid)
		kill(pid)
		if !waitFor(ctx, s.opts.KillTimeout, s.opts.PollInterval, gone) {
			return fmt.Errorf("stop %s: pid %d still alive after kill, pid file %s kept: %w",
				svc.Name, pid, svc.PIDFilePath, ErrStopFailed)
		}
	}

	if err := removeRecord(svc.PIDFilePath); err != nil {
		return fmt.Errorf("stop %s: remove pid record: %w", svc.Name, err)
	}
	metrics.IncStop(svc.Name)
	metrics.SetRunning(svc.Name, false)
	history.Record(ctx, s.sink, s.logger, history.Event{
		Type: history.EventStop, Service: svc.Name, Host: s.opts.Host, PID: pid,
	})
	s.logger.Info("service stopped", "service", svc.Name, "pid", pid)
	return nil
}

// Restart stops then starts the named service.
func (s *Supervisor) Restart(ctx context.Context, name string) error {
	if err := s.Stop(ctx, name); err != nil {
		return err
	}
	return s.Start(ctx, name)
}

// Status reports the derived state of the named service. Read-only: a
// stale PID record is reported as unknown, never deleted here.
func (s *Supervisor) Status(name string) (Status, error) {
	svc, err := s.reg.Lookup(name)
	if err != nil {
		return Status{}, err
	}
	return s.statusOf(svc), nil
}

func (s *Supervisor) statusOf(svc registry.Service) Status {
	st := Status{Name: svc.Name, PIDFile: svc.PIDFilePath, LogPath: svc.LogPath}
	pid, exists, err := readRecord(svc.PIDFilePath)
	if !exists {
		st.State = StateStopped
		return st
	}
	if err != nil || !pidAlive(pid) {
		st.State = StateUnknown
		st.PID = pid
		return st
	}
	st.State = StateRunning
	st.PID = pid
	if startedAt := procStartUnix(pid); startedAt > 0 {
		st.StartedAt = time.Unix(startedAt, 0)
		st.Uptime = time.Since(st.StartedAt).Truncate(time.Second)
	}
	return st
}

// StatusAll reports every service in start order.
func (s *Supervisor) StatusAll() []Status {
	services := s.reg.Services()
	out := make([]Status, 0, len(services))
	for _, svc := range services {
		out = append(out, s.statusOf(svc))
	}
	return out
}

// AllRunning reports whether every service in the registry is running.
func (s *Supervisor) AllRunning() bool {
	for _, st := range s.StatusAll() {
		if !st.Running() {
			return false
		}
	}
	return true
}

// StartAll brings the chain up in ascending start order with a short pause
// between services. The first failure aborts the sweep.
func (s *Supervisor) StartAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, svc := range s.reg.Services() {
		if i > 0 {
			pause(ctx, s.opts.StepPause)
		}
		if err := s.startLocked(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}

// StopAll takes the chain down in descending start order with a short
// pause between services. The first failure aborts the sweep.
func (s *Supervisor) StopAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, svc := range s.reg.ReverseServices() {
		if i > 0 {
			pause(ctx, s.opts.StepPause)
		}
		if err := s.stopLocked(ctx, svc); err != nil {
			return err
		}
	}
	return nil
}
