package install

import (
	"fmt"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/loykin/edgeup/internal/registry"
)

// Per-service config documents. Each service of the stock chain has a
// fixed key set; the YAML output is one Key: value pair per line.

type gatewayConfig struct {
	ListenAddress  string `yaml:"ListenAddress"`
	Port           int    `yaml:"Port"`
	UpstreamSocket string `yaml:"UpstreamSocket"`
	CertFile       string `yaml:"CertFile"`
	KeyFile        string `yaml:"KeyFile"`
	AllowedSubject string `yaml:"AllowedSubject"`
	LogLevel       string `yaml:"LogLevel"`
}

type edgeAPIConfig struct {
	Socket      string `yaml:"Socket"`
	DataDir     string `yaml:"DataDir"`
	BatchSocket string `yaml:"BatchSocket"`
	LogLevel    string `yaml:"LogLevel"`
}

type batchRunnerConfig struct {
	Socket     string `yaml:"Socket"`
	SubmitTool string `yaml:"SubmitTool"`
	QueryTool  string `yaml:"QueryTool"`
	CancelTool string `yaml:"CancelTool"`
	LogLevel   string `yaml:"LogLevel"`
}

// Socket paths shared between chain members, under the data directory.
func apiSocket(l Layout) string   { return filepath.Join(l.DataDir, "edge-api.sock") }
func batchSocket(l Layout) string { return filepath.Join(l.DataDir, "batch-runner.sock") }

// configFor fills the fixed template for the named service. Services
// outside the stock chain get a generic document so custom registry
// entries still render something usable.
func configFor(svc registry.Service, l Layout, p Params) ([]byte, error) {
	level := p.LogLevel
	if level == "" {
		level = "info"
	}
	tools := p.ToolPaths
	if tools == (ToolPaths{}) {
		tools = DefaultToolPaths()
	}

	var doc any
	switch svc.Name {
	case "gateway":
		doc = gatewayConfig{
			ListenAddress:  p.Address,
			Port:           p.Port,
			UpstreamSocket: apiSocket(l),
			CertFile:       l.CertPath(),
			KeyFile:        l.KeyPath(),
			AllowedSubject: p.Subject,
			LogLevel:       level,
		}
	case "edge-api":
		doc = edgeAPIConfig{
			Socket:      apiSocket(l),
			DataDir:     l.DataDir,
			BatchSocket: batchSocket(l),
			LogLevel:    level,
		}
	case "batch-runner":
		doc = batchRunnerConfig{
			Socket:     batchSocket(l),
			SubmitTool: tools.Submit,
			QueryTool:  tools.Query,
			CancelTool: tools.Cancel,
			LogLevel:   level,
		}
	default:
		doc = map[string]any{
			"Address":  p.Address,
			"Port":     p.Port,
			"LogLevel": level,
		}
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("render config for %s: %w", svc.Name, err)
	}
	return b, nil
}
