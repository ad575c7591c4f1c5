package main

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/loykin/edgeup/internal/config"
	"github.com/loykin/edgeup/internal/history"
	"github.com/loykin/edgeup/internal/history/factory"
	"github.com/loykin/edgeup/internal/install"
	"github.com/loykin/edgeup/internal/logger"
	"github.com/loykin/edgeup/internal/metrics"
	"github.com/loykin/edgeup/internal/portalloc"
	"github.com/loykin/edgeup/internal/supervisor"
)

// command carries the shared state the handlers build from flags and
// configuration.
type command struct {
	global *GlobalFlags
}

func (c *command) loadConfig() (*config.Config, error) {
	cfg, err := config.Load(c.global.ConfigPath)
	if err != nil {
		return nil, err
	}
	if c.global.InstallRoot != "" {
		cfg.InstallRoot = c.global.InstallRoot
	}
	if c.global.LogLevel != "" {
		cfg.LogLevel = c.global.LogLevel
	}
	return cfg, nil
}

func (c *command) terminalLogger(cfg *config.Config) *slog.Logger {
	return logger.NewTerminal(os.Stderr, logger.ParseLevel(cfg.LogLevel))
}

// buildSupervisor wires the registry, journal sink, and metrics behind a
// supervisor. The returned closer flushes the sink.
func (c *command) buildSupervisor(cfg *config.Config) (*supervisor.Supervisor, history.Sink, func(), error) {
	reg, err := cfg.Registry()
	if err != nil {
		return nil, nil, nil, err
	}
	log := c.terminalLogger(cfg)
	sink, err := factory.NewSinkFromDSN(cfg.HistoryDSN)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("open history sink: %w", err)
	}
	_ = metrics.Register(prometheus.DefaultRegisterer)
	sup := supervisor.New(reg, supervisor.Options{Host: cfg.Host}, log, sink)
	return sup, sink, func() { _ = sink.Close() }, nil
}

// serviceTarget interprets the [service|all] positional argument.
func serviceTarget(args []string) string {
	if len(args) == 0 {
		return "all"
	}
	return args[0]
}

func createStartCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "start [service|all]",
		Short: "Start one service or the whole chain in order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sup, _, done, err := c.buildSupervisor(cfg)
			if err != nil {
				return err
			}
			defer done()
			if target := serviceTarget(args); target != "all" {
				return sup.Start(cmd.Context(), target)
			}
			return sup.StartAll(cmd.Context())
		},
	}
}

func createStopCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "stop [service|all]",
		Short: "Stop one service or the whole chain in reverse order",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sup, _, done, err := c.buildSupervisor(cfg)
			if err != nil {
				return err
			}
			defer done()
			if target := serviceTarget(args); target != "all" {
				return sup.Stop(cmd.Context(), target)
			}
			return sup.StopAll(cmd.Context())
		},
	}
}

func createRestartCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart [service|all]",
		Short: "Restart one service or the whole chain",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sup, _, done, err := c.buildSupervisor(cfg)
			if err != nil {
				return err
			}
			defer done()
			if target := serviceTarget(args); target != "all" {
				return sup.Restart(cmd.Context(), target)
			}
			if err := sup.StopAll(cmd.Context()); err != nil {
				return err
			}
			return sup.StartAll(cmd.Context())
		},
	}
}

func createStatusCommand(c *command) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show service states; exits non-zero unless everything runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sup, _, done, err := c.buildSupervisor(cfg)
			if err != nil {
				return err
			}
			defer done()

			statuses := sup.StatusAll()
			w := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(w, "%-14s %-9s %-8s %s\n", "SERVICE", "STATE", "PID", "UPTIME")
			allRunning := true
			for _, st := range statuses {
				pid, uptime := "-", "-"
				if st.PID > 0 {
					pid = strconv.Itoa(st.PID)
				}
				if st.Running() && st.Uptime > 0 {
					uptime = st.Uptime.String()
				}
				if !st.Running() {
					allRunning = false
				}
				_, _ = fmt.Fprintf(w, "%-14s %-9s %-8s %s\n", st.Name, st.State, pid, uptime)
			}
			if !allRunning {
				return fmt.Errorf("not all services are running")
			}
			return nil
		},
	}
}

func createLogsCommand(c *command, flags *LogsFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logs <service> [lineCount]",
		Short: "Show the last lines of a service's log file",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			sup, _, done, err := c.buildSupervisor(cfg)
			if err != nil {
				return err
			}
			defer done()

			lines := flags.Lines
			if len(args) == 2 {
				n, err := strconv.Atoi(args[1])
				if err != nil || n <= 0 {
					return fmt.Errorf("invalid line count %q", args[1])
				}
				lines = n
			}
			out, err := sup.Logs(args[0], lines)
			if err != nil {
				return err
			}
			for _, line := range out {
				cmd.Println(line)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&flags.Lines, "lines", "n", supervisor.DefaultLogLines, "number of lines to show")
	return cmd
}

func createSetupCommand(c *command, flags *SetupFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Materialize the installation: layout, certificate, configs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			reg, err := cfg.Registry()
			if err != nil {
				return err
			}
			log := c.terminalLogger(cfg)
			mgr := install.NewManager(install.DefaultLayout(cfg.InstallRoot), log)

			port := flags.Port
			if port == 0 {
				port = portalloc.Allocate(currentUsername(), cfg.BasePort)
				log.Info("derived port from username", "port", port)
			}
			if flags.Regenerate {
				if err := mgr.EnsureLayout(); err != nil {
					return err
				}
				if err := mgr.EnsureCertificate(flags.Address, install.CertOptions{Regenerate: true}); err != nil {
					return err
				}
			}
			params := install.Params{
				Port:     port,
				Address:  flags.Address,
				Subject:  flags.Subject,
				LogLevel: cfg.LogLevel,
			}
			if err := mgr.Apply(reg, params); err != nil {
				return err
			}
			cmd.Printf("installation ready under %s (port %d)\n", cfg.InstallRoot, port)
			return nil
		},
	}
	cmd.Flags().IntVar(&flags.Port, "port", 0, "tenant port (default: derived from the username)")
	cmd.Flags().StringVar(&flags.Address, "address", "", "public address the certificate and gateway bind to")
	cmd.Flags().StringVar(&flags.Subject, "subject", "", "tenant subject the gateway authorizes")
	cmd.Flags().BoolVar(&flags.Regenerate, "regenerate-cert", false, "replace an existing certificate pair")
	return cmd
}

func createPortCommand(c *command, flags *PortFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "port <identifier>",
		Short: "Print the deterministic port for a tenant identifier",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			base := flags.BasePort
			if base == 0 {
				cfg, err := c.loadConfig()
				if err != nil {
					return err
				}
				base = cfg.BasePort
			}
			cmd.Println(portalloc.Allocate(args[0], base))
			return nil
		},
	}
	cmd.Flags().IntVar(&flags.BasePort, "base-port", 0, "bottom of the tenant port window")
	return cmd
}

func currentUsername() string {
	if u := os.Getenv("USER"); u != "" {
		return u
	}
	return os.Getenv("USERNAME")
}
