// Package config loads edgeup's configuration: a TOML file overridden by
// EDGEUP_-prefixed environment variables, with explicit defaults for every
// knob. The service table defaults to the stock edge chain under the
// install root.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/loykin/edgeup/internal/registry"
)

// ErrConfigurationInvalid wraps every validation failure so callers can
// classify with errors.Is.
var ErrConfigurationInvalid = errors.New("configuration invalid")

// Defaults.
const (
	DefaultBasePort = 50000
	envPrefix       = "EDGEUP"
)

// AgentConfig configures the on-host agent daemon.
type AgentConfig struct {
	Listen  string `mapstructure:"listen"`
	TLS     bool   `mapstructure:"tls"`
	LogFile string `mapstructure:"log_file"`
}

// Config is the top-level configuration.
type Config struct {
	InstallRoot string             `mapstructure:"install_root"`
	Host        string             `mapstructure:"host"`
	BasePort    int                `mapstructure:"base_port"`
	Credential  string             `mapstructure:"credential"`
	HistoryDSN  string             `mapstructure:"history_dsn"`
	AgentURL    string             `mapstructure:"agent_url"`
	LogLevel    string             `mapstructure:"log_level"`
	Agent       AgentConfig        `mapstructure:"agent"`
	Services    []registry.Service `mapstructure:"services"`
}

// DefaultInstallRoot is ~/.edgeup, matching the credential location.
func DefaultInstallRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".edgeup"
	}
	return filepath.Join(home, ".edgeup")
}

// Load reads the TOML file at path (optional: empty path means defaults
// plus environment only) and applies EDGEUP_ environment overrides.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetDefault("install_root", DefaultInstallRoot())
	v.SetDefault("base_port", DefaultBasePort)
	v.SetDefault("log_level", "info")
	v.SetDefault("agent.listen", "127.0.0.1:9443")
	// Empty defaults register the keys so environment overrides reach
	// Unmarshal even without a config file.
	v.SetDefault("host", "")
	v.SetDefault("credential", "")
	v.SetDefault("history_dsn", "")
	v.SetDefault("agent_url", "")
	v.SetDefault("agent.tls", false)
	v.SetDefault("agent.log_file", "")

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("toml")
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func (c *Config) validate() error {
	if c.InstallRoot == "" {
		return fmt.Errorf("%w: install_root required", ErrConfigurationInvalid)
	}
	if c.BasePort <= 0 || c.BasePort > 64000 {
		return fmt.Errorf("%w: base_port %d out of range", ErrConfigurationInvalid, c.BasePort)
	}
	return nil
}

// CredentialPath resolves the credential location, defaulting next to the
// install root.
func (c *Config) CredentialPath() string {
	if c.Credential != "" {
		return c.Credential
	}
	return filepath.Join(c.InstallRoot, "credential.json")
}

// Registry builds the service table: the configured descriptors, or the
// stock chain under the install root when none are configured.
func (c *Config) Registry() (*registry.Registry, error) {
	services := c.Services
	if len(services) == 0 {
		services = DefaultServices(c.InstallRoot)
	}
	reg, err := registry.New(services)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigurationInvalid, err)
	}
	return reg, nil
}
