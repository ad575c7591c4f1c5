package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/loykin/edgeup/internal/config"
	"github.com/loykin/edgeup/internal/history/factory"
	"github.com/loykin/edgeup/internal/identity"
	"github.com/loykin/edgeup/internal/orchestrator"
	"github.com/loykin/edgeup/internal/remote"
)

// buildExecutor picks the channel: the local shell for "local", the agent
// HTTP channel otherwise.
func buildExecutor(cfg *config.Config, flags *DeployFlags) (remote.Executor, string, error) {
	host := flags.Host
	if host == "" {
		host = cfg.Host
	}
	if host == "" {
		return nil, "", fmt.Errorf("%w: target host required (--host or EDGEUP_HOST)",
			orchestrator.ErrConfigurationInvalid)
	}
	if host == "local" {
		return remote.LocalExecutor{}, host, nil
	}

	agentURL := flags.AgentURL
	if agentURL == "" {
		agentURL = cfg.AgentURL
	}
	if agentURL == "" {
		return nil, "", fmt.Errorf("%w: agent URL required for remote host %s (--agent-url or EDGEUP_AGENT_URL)",
			orchestrator.ErrConfigurationInvalid, host)
	}
	var token string
	if cred, err := identity.Load(cfg.CredentialPath()); err == nil {
		token = cred.Token
	} else if !errors.Is(err, os.ErrNotExist) {
		return nil, "", err
	}
	exec, err := remote.NewAgentExecutor(remote.AgentConfig{
		BaseURL:  agentURL,
		Token:    token,
		Timeout:  flags.Timeout,
		Insecure: flags.Insecure,
	})
	if err != nil {
		return nil, "", err
	}
	return exec, host, nil
}

func (c *command) buildOrchestrator(cfg *config.Config, flags *DeployFlags) (*orchestrator.Orchestrator, func(), error) {
	exec, host, err := buildExecutor(cfg, flags)
	if err != nil {
		return nil, nil, err
	}
	sink, err := factory.NewSinkFromDSN(cfg.HistoryDSN)
	if err != nil {
		return nil, nil, fmt.Errorf("open history sink: %w", err)
	}
	basePort := flags.BasePort
	if basePort == 0 {
		basePort = cfg.BasePort
	}

	var intro identity.Introspector
	if _, err := os.Stat(cfg.CredentialPath()); err == nil {
		intro = identity.FromCredential(cfg.CredentialPath())
	}

	orc, err := orchestrator.New(orchestrator.Config{
		Host:        host,
		BasePort:    basePort,
		InstallRoot: cfg.InstallRoot,
		BinPath:     flags.BinPath,
	}, exec, intro, c.terminalLogger(cfg), sink)
	if err != nil {
		_ = sink.Close()
		return nil, nil, err
	}
	return orc, func() { _ = sink.Close() }, nil
}

func createDeployCommand(c *command, flags *DeployFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deploy",
		Short: "Install the chain on the target host if absent, then ensure it runs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			orc, done, err := c.buildOrchestrator(cfg, flags)
			if err != nil {
				return err
			}
			defer done()
			return orc.Deploy(cmd.Context())
		},
	}
	addDeployFlags(cmd, flags)
	cmd.Flags().IntVar(&flags.BasePort, "base-port", 0, "bottom of the tenant port window")
	return cmd
}

func createDownCommand(c *command, flags *DeployFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "down",
		Short: "Stop the whole chain on the target host",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := c.loadConfig()
			if err != nil {
				return err
			}
			orc, done, err := c.buildOrchestrator(cfg, flags)
			if err != nil {
				return err
			}
			defer done()
			return orc.Down(cmd.Context())
		},
	}
	addDeployFlags(cmd, flags)
	return cmd
}

func addDeployFlags(cmd *cobra.Command, flags *DeployFlags) {
	cmd.Flags().StringVar(&flags.Host, "host", "", `target host ("local" uses the local shell)`)
	cmd.Flags().StringVar(&flags.AgentURL, "agent-url", "", "agent endpoint, e.g. https://edge1:9443/api")
	cmd.Flags().StringVar(&flags.BinPath, "bin-path", "", "edgeup binary on the target host")
	cmd.Flags().BoolVar(&flags.Insecure, "insecure", false, "skip TLS verification of the agent")
	cmd.Flags().DurationVar(&flags.Timeout, "timeout", 0, "per-command timeout on the agent channel")
}
