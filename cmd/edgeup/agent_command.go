package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/loykin/edgeup/internal/agent"
	"github.com/loykin/edgeup/internal/config"
	"github.com/loykin/edgeup/internal/identity"
	"github.com/loykin/edgeup/internal/install"
	"github.com/loykin/edgeup/internal/logger"
	"github.com/loykin/edgeup/internal/metrics"
)

func createAgentCommand(c *command, flags *AgentFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Serve the remote-execution channel on this host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			if flags.Daemon {
				return daemonizeAgent(cfg, flags)
			}
			return runAgent(cmd.Context(), cfg, flags)
		},
	}
	cmd.Flags().StringVar(&flags.Listen, "listen", "", "listen address (overrides config)")
	cmd.Flags().BoolVar(&flags.TLS, "tls", false, "serve TLS with the installation's certificate")
	cmd.Flags().BoolVar(&flags.Daemon, "daemon", false, "detach and keep serving after this terminal exits")
	cmd.Flags().StringVar(&flags.LogFile, "log-file", "", "agent log destination in daemon mode")
	cmd.Flags().StringVar(&flags.PIDFile, "pid-file", "", "where the daemonized agent records its pid")
	return cmd
}

func runAgent(ctx context.Context, cfg *config.Config, flags *AgentFlags) error {
	listen := flags.Listen
	if listen == "" {
		listen = cfg.Agent.Listen
	}

	cred, err := identity.Load(cfg.CredentialPath())
	if err != nil {
		return fmt.Errorf("agent needs the credential file for its token: %w", err)
	}

	level := logger.ParseLevel(cfg.LogLevel)
	log, closer := logger.NewRotating(logger.Config{Path: agentLogPath(cfg, flags)}, "agent", os.Stderr, level)
	if closer != nil {
		defer func() { _ = closer.Close() }()
	}

	if err := metrics.Register(prometheus.DefaultRegisterer); err != nil {
		log.Warn("metrics registration failed", "error", err)
	}

	serverCfg := agent.ServerConfig{Listen: listen, Token: cred.Token}
	if flags.TLS || cfg.Agent.TLS {
		layout := install.DefaultLayout(cfg.InstallRoot)
		serverCfg.TLSCert = layout.CertPath()
		serverCfg.TLSKey = layout.KeyPath()
	}

	srv, err := agent.NewServer(serverCfg, agent.NewRouter(cred.Token, log).Handler())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("agent serving", "listen", listen, "tls", serverCfg.TLSCert != "")
	return agent.Serve(ctx, srv)
}

// daemonizeAgent re-executes the agent detached from the terminal, writing
// its pid for later teardown.
func daemonizeAgent(cfg *config.Config, flags *AgentFlags) error {
	args := []string{"agent"}
	if flags.Listen != "" {
		args = append(args, "--listen", flags.Listen)
	}
	if flags.TLS {
		args = append(args, "--tls")
	}
	if flags.LogFile != "" {
		args = append(args, "--log-file", flags.LogFile)
	}

	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, args...)
	cmd.Env = os.Environ()
	configureDaemonAttrs(cmd)

	logPath := agentLogPath(cfg, flags)
	if err := os.MkdirAll(filepath.Dir(logPath), 0o750); err != nil {
		return err
	}
	out, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o640)
	if err != nil {
		return err
	}
	defer func() { _ = out.Close() }()
	cmd.Stdout = out
	cmd.Stderr = out

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("daemonize agent: %w", err)
	}
	pid := cmd.Process.Pid
	_ = cmd.Process.Release()

	pidPath := flags.PIDFile
	if pidPath == "" {
		pidPath = filepath.Join(install.DefaultLayout(cfg.InstallRoot).DataDir, "agent.pid")
	}
	if err := os.MkdirAll(filepath.Dir(pidPath), 0o750); err != nil {
		return err
	}
	if err := os.WriteFile(pidPath, []byte(strconv.Itoa(pid)), 0o600); err != nil {
		return err
	}
	fmt.Printf("agent daemonized (pid %d, log %s)\n", pid, logPath)
	return nil
}

func agentLogPath(cfg *config.Config, flags *AgentFlags) string {
	if flags.LogFile != "" {
		return flags.LogFile
	}
	if cfg.Agent.LogFile != "" {
		return cfg.Agent.LogFile
	}
	return filepath.Join(install.DefaultLayout(cfg.InstallRoot).LogsDir, "agent.log")
}
