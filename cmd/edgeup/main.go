package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var version = "0.1.0"

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func buildRoot() *cobra.Command {
	global := &GlobalFlags{}
	c := &command{global: global}

	root := &cobra.Command{
		Use:           "edgeup",
		Short:         "Install and supervise the edge service chain",
		Long:          "edgeup installs, starts, stops, and inspects a chain of dependent services on an edge host,\nderiving a stable per-tenant port without any coordination service.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&global.ConfigPath, "config", "", "path to the edgeup TOML config file")
	root.PersistentFlags().StringVar(&global.InstallRoot, "install-root", "", "installation root directory (overrides config)")
	root.PersistentFlags().StringVar(&global.LogLevel, "log-level", "", "log level: debug, info, warn, error")

	logsFlags := &LogsFlags{}
	setupFlags := &SetupFlags{}
	deployFlags := &DeployFlags{}
	downFlags := &DeployFlags{}
	agentFlags := &AgentFlags{}
	portFlags := &PortFlags{}

	root.AddCommand(
		createStartCommand(c),
		createStopCommand(c),
		createRestartCommand(c),
		createStatusCommand(c),
		createLogsCommand(c, logsFlags),
		createSetupCommand(c, setupFlags),
		createDeployCommand(c, deployFlags),
		createDownCommand(c, downFlags),
		createAgentCommand(c, agentFlags),
		createPortCommand(c, portFlags),
		createVersionCommand(),
	)
	return root
}

func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the edgeup version",
		Run: func(cmd *cobra.Command, _ []string) {
			cmd.Printf("edgeup %s\n", version)
		},
	}
}
