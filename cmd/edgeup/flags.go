package main

import "time"

// Flag structs decouple cobra from the handlers for testing.

// GlobalFlags are the root command's persistent flags.
type GlobalFlags struct {
	ConfigPath  string
	InstallRoot string
	LogLevel    string
}

// LogsFlags configure the logs command.
type LogsFlags struct {
	Lines int
}

// SetupFlags carry the values the orchestrator computes for a deploy and
// an operator supplies for a manual on-host install.
type SetupFlags struct {
	Port       int
	Address    string
	Subject    string
	Regenerate bool
}

// DeployFlags name the target of the outward-facing flow.
type DeployFlags struct {
	Host     string
	AgentURL string
	BasePort int
	BinPath  string
	Insecure bool
	Timeout  time.Duration
}

// AgentFlags configure the serve mode.
type AgentFlags struct {
	Listen  string
	TLS     bool
	Daemon  bool
	LogFile string
	PIDFile string
}

// PortFlags configure the allocator support surface.
type PortFlags struct {
	BasePort int
}
