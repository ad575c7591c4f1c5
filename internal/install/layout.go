// Package install materializes everything a service chain needs on disk
// before its first start: the directory layout, the TLS certificate bound
// to the host's public address, and the per-service config files.
package install

import (
	"os"
	"path/filepath"
)

// Layout is the standard installation tree under a single root.
type Layout struct {
	Root      string
	BinDir    string
	ConfigDir string
	LogsDir   string
	DataDir   string
}

// DefaultLayout places the four standard directories under root.
func DefaultLayout(root string) Layout {
	return Layout{
		Root:      root,
		BinDir:    filepath.Join(root, "bin"),
		ConfigDir: filepath.Join(root, "config"),
		LogsDir:   filepath.Join(root, "logs"),
		DataDir:   filepath.Join(root, "data"),
	}
}

// Dirs lists the directories that must exist before any service start.
func (l Layout) Dirs() []string {
	return []string{l.BinDir, l.ConfigDir, l.LogsDir, l.DataDir}
}

// Exists reports whether every directory of the layout is present.
func (l Layout) Exists() bool {
	for _, d := range l.Dirs() {
		info, err := os.Stat(d)
		if err != nil || !info.IsDir() {
			return false
		}
	}
	return true
}

// CertPath is the installation's TLS certificate location.
func (l Layout) CertPath() string { return filepath.Join(l.ConfigDir, "tls.crt") }

// KeyPath is the installation's TLS private key location.
func (l Layout) KeyPath() string { return filepath.Join(l.ConfigDir, "tls.key") }
