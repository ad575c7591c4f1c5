// Package orchestrator drives the end-to-end flow against an edge host:
// detect the installation, install it when absent with a deterministically
// derived tenant port, and make sure the whole chain is running. Every
// action on the host goes through the remote.Executor contract, so the
// same flow works over the local shell or the agent channel.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/loykin/edgeup/internal/history"
	"github.com/loykin/edgeup/internal/identity"
	"github.com/loykin/edgeup/internal/metrics"
	"github.com/loykin/edgeup/internal/portalloc"
	"github.com/loykin/edgeup/internal/remote"
)

var (
	// ErrConfigurationInvalid means a required parameter is missing.
	ErrConfigurationInvalid = errors.New("configuration invalid")
	// ErrInstallationUnhealthy means the chain was not fully running even
	// after a start sweep. The operator inspects the service logs.
	ErrInstallationUnhealthy = errors.New("installation unhealthy")
)

// Config names the deploy target and the parameters fed into the
// installation procedure.
type Config struct {
	// Host is the edge host being managed. "local" targets the calling
	// machine through the local executor.
	Host string
	// Identity is the credential presented to the executor per call.
	// Optional for the local channel.
	Identity string
	// BasePort is the bottom of the tenant port window.
	BasePort int
	// InstallRoot is the installation tree on the target host. Shell
	// variables like $HOME are expanded by the remote shell.
	InstallRoot string
	// BinPath locates the edgeup binary on the target host.
	BinPath string
}

const (
	// DefaultBasePort keeps tenant ports clear of well-known ranges.
	DefaultBasePort = 50000
	// DefaultInstallRoot is expanded by the remote identity's shell.
	DefaultInstallRoot = "$HOME/.edgeup"
	defaultBinPath     = "edgeup"
)

func (c *Config) fill() {
	if c.BasePort <= 0 {
		c.BasePort = DefaultBasePort
	}
	if c.InstallRoot == "" {
		c.InstallRoot = DefaultInstallRoot
	}
	if c.BinPath == "" {
		c.BinPath = defaultBinPath
	}
}

func (c *Config) validate() error {
	if c.Host == "" {
		return fmt.Errorf("%w: target host required", ErrConfigurationInvalid)
	}
	if strings.ContainsAny(c.InstallRoot, " \t\n'\"") {
		return fmt.Errorf("%w: install root must not contain spaces or quotes", ErrConfigurationInvalid)
	}
	return nil
}

// Orchestrator runs the deploy and teardown flows.
type Orchestrator struct {
	cfg    Config
	exec   remote.Executor
	intro  identity.Introspector
	logger *slog.Logger
	sink   history.Sink
}

// New wires the flow. intro resolves the tenant subject embedded in the
// gateway config; logger and sink may be nil.
func New(cfg Config, exec remote.Executor, intro identity.Introspector, logger *slog.Logger, sink history.Sink) (*Orchestrator, error) {
	if exec == nil {
		return nil, fmt.Errorf("%w: executor required", ErrConfigurationInvalid)
	}
	cfg.fill()
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Orchestrator{cfg: cfg, exec: exec, intro: intro, logger: logger, sink: sink}, nil
}

// Deploy is idempotent end to end: a host that is already installed and
// running comes out unchanged.
func (o *Orchestrator) Deploy(ctx context.Context) error {
	if err := o.cfg.validate(); err != nil {
		return err
	}

	installed, err := o.installed(ctx)
	if err != nil {
		metrics.IncDeploy("error")
		return err
	}

	if !installed {
		if err := o.install(ctx); err != nil {
			metrics.IncDeploy("error")
			history.Record(ctx, o.sink, o.logger, history.Event{
				Type: history.EventFail, Host: o.cfg.Host, Detail: err.Error(),
			})
			return err
		}
	} else {
		o.logger.Info("installation already present", "host", o.cfg.Host, "root", o.cfg.InstallRoot)
	}

	if err := o.ensureRunning(ctx); err != nil {
		metrics.IncDeploy("unhealthy")
		return err
	}

	metrics.IncDeploy("ok")
	history.Record(ctx, o.sink, o.logger, history.Event{
		Type: history.EventDeploy, Host: o.cfg.Host,
	})
	o.logger.Info("deploy complete", "host", o.cfg.Host)
	return nil
}

// Down stops the whole chain on the target host without touching the
// installed tree.
func (o *Orchestrator) Down(ctx context.Context) error {
	if err := o.cfg.validate(); err != nil {
		return err
	}
	if _, err := o.run(ctx, o.stopAllCmd()); err != nil {
		return fmt.Errorf("stop chain on %s: %w", o.cfg.Host, err)
	}
	history.Record(ctx, o.sink, o.logger, history.Event{
		Type: history.EventStop, Host: o.cfg.Host, Detail: "chain stopped",
	})
	o.logger.Info("chain stopped", "host", o.cfg.Host)
	return nil
}

// installed probes the target with a single existence check whose stdout
// is literally yes or no.
func (o *Orchestrator) installed(ctx context.Context) (bool, error) {
	out, err := o.run(ctx, o.probeCmd())
	if err != nil {
		return false, fmt.Errorf("probe installation on %s: %w", o.cfg.Host, err)
	}
	return strings.TrimSpace(out) == "yes", nil
}

// install computes the tenant parameters and runs the on-host setup. The
// port derives from the remote username, so repeated runs land on the
// same port without any registry.
func (o *Orchestrator) install(ctx context.Context) error {
	username, err := o.run(ctx, "whoami")
	if err != nil {
		return fmt.Errorf("resolve remote username: %w", err)
	}
	username = strings.TrimSpace(username)

	var subject string
	if o.intro != nil {
		subject, err = o.intro.Subject(ctx)
		if err != nil {
			return fmt.Errorf("resolve tenant subject: %w", err)
		}
	} else {
		o.logger.Warn("no identity introspector configured, installing without a subject")
	}

	port := portalloc.Allocate(username, o.cfg.BasePort)

	address, err := o.run(ctx, "hostname -f")
	if err != nil {
		return fmt.Errorf("resolve public address: %w", err)
	}
	address = strings.TrimSpace(address)

	o.logger.Info("installing service chain",
		"host", o.cfg.Host, "username", username, "port", port, "address", address)

	if _, err := o.run(ctx, o.setupCmd(port, address, subject)); err != nil {
		return fmt.Errorf("run setup on %s: %w", o.cfg.Host, err)
	}
	history.Record(ctx, o.sink, o.logger, history.Event{
		Type: history.EventInstall, Host: o.cfg.Host,
		Detail: fmt.Sprintf("port=%d address=%s", port, address),
	})
	return nil
}

// ensureRunning is the lighter sibling of stop-all/start-all: a start
// sweep only when the status check says the chain is not fully up, then
// one re-check.
func (o *Orchestrator) ensureRunning(ctx context.Context) error {
	if o.chainHealthy(ctx) == nil {
		o.logger.Info("all services already running", "host", o.cfg.Host)
		return nil
	}

	o.logger.Info("starting service chain", "host", o.cfg.Host)
	if _, err := o.run(ctx, o.startAllCmd()); err != nil {
		return fmt.Errorf("start chain on %s: %w", o.cfg.Host, err)
	}

	if err := o.chainHealthy(ctx); err != nil {
		return fmt.Errorf("chain still not fully running on %s after start, inspect the service logs under %s: %w",
			o.cfg.Host, o.cfg.InstallRoot, ErrInstallationUnhealthy)
	}
	return nil
}

// chainHealthy leans on the status command's exit contract: non-zero when
// any service is not running.
func (o *Orchestrator) chainHealthy(ctx context.Context) error {
	_, err := o.run(ctx, o.statusCmd())
	return err
}

func (o *Orchestrator) run(ctx context.Context, command string) (string, error) {
	return o.exec.Run(ctx, o.cfg.Host, o.cfg.Identity, command)
}

func (o *Orchestrator) probeCmd() string {
	return fmt.Sprintf("test -d %s/config && echo yes || echo no", o.cfg.InstallRoot)
}

func (o *Orchestrator) setupCmd(port int, address, subject string) string {
	cmd := fmt.Sprintf("%s setup --install-root %s --port %d --address %s",
		o.cfg.BinPath, o.cfg.InstallRoot, port, address)
	if subject != "" {
		cmd += " --subject " + subject
	}
	return cmd
}

func (o *Orchestrator) statusCmd() string {
	return fmt.Sprintf("%s status --install-root %s", o.cfg.BinPath, o.cfg.InstallRoot)
}

func (o *Orchestrator) startAllCmd() string {
	return fmt.Sprintf("%s start all --install-root %s", o.cfg.BinPath, o.cfg.InstallRoot)
}

func (o *Orchestrator) stopAllCmd() string {
	return fmt.Sprintf("%s stop all --install-root %s", o.cfg.BinPath, o.cfg.InstallRoot)
}
