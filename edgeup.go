package edgeup

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/loykin/edgeup/internal/agent"
	cfg "github.com/loykin/edgeup/internal/config"
	"github.com/loykin/edgeup/internal/history"
	"github.com/loykin/edgeup/internal/history/factory"
	"github.com/loykin/edgeup/internal/identity"
	"github.com/loykin/edgeup/internal/metrics"
	"github.com/loykin/edgeup/internal/orchestrator"
	"github.com/loykin/edgeup/internal/portalloc"
	"github.com/loykin/edgeup/internal/registry"
	"github.com/loykin/edgeup/internal/remote"
	"github.com/loykin/edgeup/internal/supervisor"
)

// Re-export core types for external consumers.
// These are aliases so conversions are zero-cost.

type Service = registry.Service

type Status = supervisor.Status

type HistoryEvent = history.Event

type HistorySink = history.Sink

type Credential = identity.Credential

type Executor = remote.Executor

// Supervisor is a thin facade over internal/supervisor.Supervisor.
// It provides a stable public API for embedding.

type Supervisor struct{ inner *supervisor.Supervisor }

type SupervisorOptions = supervisor.Options

func NewSupervisor(services []Service, opts SupervisorOptions, logger *slog.Logger, sink HistorySink) (*Supervisor, error) {
	reg, err := registry.New(services)
	if err != nil {
		return nil, err
	}
	return &Supervisor{inner: supervisor.New(reg, opts, logger, sink)}, nil
}

func (s *Supervisor) Start(ctx context.Context, name string) error { return s.inner.Start(ctx, name) }
func (s *Supervisor) Stop(ctx context.Context, name string) error  { return s.inner.Stop(ctx, name) }
func (s *Supervisor) Restart(ctx context.Context, name string) error {
	return s.inner.Restart(ctx, name)
}
func (s *Supervisor) StartAll(ctx context.Context) error { return s.inner.StartAll(ctx) }
func (s *Supervisor) StopAll(ctx context.Context) error  { return s.inner.StopAll(ctx) }
func (s *Supervisor) Status(name string) (Status, error) { return s.inner.Status(name) }
func (s *Supervisor) StatusAll() []Status                { return s.inner.StatusAll() }
func (s *Supervisor) AllRunning() bool                   { return s.inner.AllRunning() }
func (s *Supervisor) Logs(name string, lineCount int) ([]string, error) {
	return s.inner.Logs(name, lineCount)
}

// DefaultServices returns the built-in chain rooted at the given
// installation directory.
func DefaultServices(root string) []Service { return cfg.DefaultServices(root) }

// AllocatePort derives the stable per-tenant port for an identifier.
func AllocatePort(identifier string, basePort int) int {
	return portalloc.Allocate(identifier, basePort)
}

// Orchestrator facade

type Orchestrator struct{ inner *orchestrator.Orchestrator }

type OrchestratorConfig = orchestrator.Config

func NewOrchestrator(c OrchestratorConfig, exec Executor, intro identity.Introspector, logger *slog.Logger, sink HistorySink) (*Orchestrator, error) {
	inner, err := orchestrator.New(c, exec, intro, logger, sink)
	if err != nil {
		return nil, err
	}
	return &Orchestrator{inner: inner}, nil
}

func (o *Orchestrator) Deploy(ctx context.Context) error { return o.inner.Deploy(ctx) }
func (o *Orchestrator) Down(ctx context.Context) error   { return o.inner.Down(ctx) }

// NewLocalExecutor runs commands through the local shell.
func NewLocalExecutor() Executor { return remote.LocalExecutor{} }

// NewAgentExecutor runs commands through a remote agent endpoint.
func NewAgentExecutor(c remote.AgentConfig) (Executor, error) { return remote.NewAgentExecutor(c) }

func LoadConfig(path string) (*cfg.Config, error) {
	return cfg.Load(path)
}

// NewHistorySink opens the journal sink matching the DSN scheme; an empty
// DSN yields a no-op sink.
func NewHistorySink(dsn string) (HistorySink, error) {
	return factory.NewSinkFromDSN(dsn)
}

// NewAgentHandler returns the agent's HTTP handler for mounting into an
// existing server. An empty token disables the exec endpoint.
func NewAgentHandler(token string, logger *slog.Logger) http.Handler {
	return agent.NewRouter(token, logger).Handler()
}

// Metrics helpers (public facade)

func RegisterMetrics(r prometheus.Registerer) error { return metrics.Register(r) }
func RegisterMetricsDefault() error                 { return metrics.Register(prometheus.DefaultRegisterer) }

// MetricsHandler exposes the default registry for mounting at /metrics.
func MetricsHandler() http.Handler { return metrics.Handler() }
