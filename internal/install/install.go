package install

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/loykin/edgeup/internal/registry"
	"github.com/loykin/edgeup/internal/tlsutil"
)

// Params carries the values computed during a deploy that the rendered
// configs embed: the tenant port, the host's public address, and the
// tenant subject the gateway authorizes.
type Params struct {
	Port      int
	Address   string
	Subject   string
	LogLevel  string
	ToolPaths ToolPaths
}

// ToolPaths locates the batch-system binaries the runner shells out to.
type ToolPaths struct {
	Submit string `yaml:"submit"`
	Query  string `yaml:"query"`
	Cancel string `yaml:"cancel"`
}

// DefaultToolPaths matches a stock batch-system install.
func DefaultToolPaths() ToolPaths {
	return ToolPaths{
		Submit: "/usr/bin/sbatch",
		Query:  "/usr/bin/squeue",
		Cancel: "/usr/bin/scancel",
	}
}

// Manager creates the on-disk installation. Directory and certificate
// creation are gated on absence; config rendering always overwrites.
type Manager struct {
	layout Layout
	logger *slog.Logger
}

// NewManager builds a manager for the given layout. logger may be nil.
func NewManager(layout Layout, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Manager{layout: layout, logger: logger}
}

// Layout returns the tree the manager materializes.
func (m *Manager) Layout() Layout { return m.layout }

// EnsureLayout creates the four standard directories. Safe to call
// repeatedly.
func (m *Manager) EnsureLayout() error {
	for _, d := range m.layout.Dirs() {
		if err := os.MkdirAll(d, 0o750); err != nil {
			return fmt.Errorf("create %s: %w", d, err)
		}
	}
	m.logger.Debug("installation layout ensured", "root", m.layout.Root)
	return nil
}

// CertOptions govern regeneration of an existing certificate pair.
type CertOptions struct {
	Regenerate bool
}

// EnsureCertificate generates a self-signed pair bound to publicAddress
// unless one already exists. Regenerate forces a fresh pair.
func (m *Manager) EnsureCertificate(publicAddress string, opts CertOptions) error {
	certPath, keyPath := m.layout.CertPath(), m.layout.KeyPath()
	if !opts.Regenerate && tlsutil.PairExists(certPath, keyPath) {
		m.logger.Debug("certificate pair already present", "cert", certPath)
		return nil
	}
	err := tlsutil.GenerateSelfSigned(tlsutil.CertConfig{
		CommonName:   publicAddress,
		Organization: "edgeup",
		Hosts:        []string{publicAddress},
		NotAfter:     time.Now().AddDate(1, 0, 0),
		CertPath:     certPath,
		KeyPath:      keyPath,
	})
	if err != nil {
		return fmt.Errorf("generate certificate for %s: %w", publicAddress, err)
	}
	m.logger.Info("certificate generated", "address", publicAddress, "cert", certPath)
	return nil
}

// RenderConfig writes the service's config file from its fixed template
// filled with params. Rendering is unconditional: an existing file is
// overwritten every time.
func (m *Manager) RenderConfig(svc registry.Service, params Params) error {
	doc, err := configFor(svc, m.layout, params)
	if err != nil {
		return err
	}
	path := svc.ConfigPath
	if path == "" {
		path = filepath.Join(m.layout.ConfigDir, svc.Name+".yaml")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create config dir for %s: %w", svc.Name, err)
	}
	if err := os.WriteFile(path, doc, 0o640); err != nil {
		return fmt.Errorf("write config for %s: %w", svc.Name, err)
	}
	m.logger.Debug("config rendered", "service", svc.Name, "path", path)
	return nil
}

// Apply runs the full installation procedure for every service in the
// registry: layout, certificate, then configs. The first filesystem
// failure aborts the remaining steps.
func (m *Manager) Apply(reg *registry.Registry, params Params) error {
	if err := m.EnsureLayout(); err != nil {
		return err
	}
	if params.Address != "" {
		if err := m.EnsureCertificate(params.Address, CertOptions{}); err != nil {
			return err
		}
	}
	for _, svc := range reg.Services() {
		if err := m.RenderConfig(svc, params); err != nil {
			return err
		}
	}
	return nil
}
