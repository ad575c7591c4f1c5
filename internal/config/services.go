package config

import (
	"path/filepath"

	"github.com/loykin/edgeup/internal/install"
	"github.com/loykin/edgeup/internal/registry"
)

// DefaultServices is the stock edge chain: the ingress gateway, the core
// API behind it, and the batch-system connector, in that start order.
func DefaultServices(root string) []registry.Service {
	l := install.DefaultLayout(root)
	mk := func(name string, order int) registry.Service {
		return registry.Service{
			Name:        name,
			BinaryPath:  filepath.Join(l.BinDir, name),
			ConfigPath:  filepath.Join(l.ConfigDir, name+".yaml"),
			LogPath:     filepath.Join(l.LogsDir, name+".log"),
			PIDFilePath: filepath.Join(l.DataDir, name+".pid"),
			LaunchArgs:  []string{"--config", filepath.Join(l.ConfigDir, name+".yaml")},
			StartOrder:  order,
		}
	}
	return []registry.Service{
		mk("gateway", 0),
		mk("edge-api", 1),
		mk("batch-runner", 2),
	}
}
