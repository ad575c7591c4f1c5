// Package registry holds the static table of services the orchestrator
// manages. Descriptors are immutable after construction; StartOrder is the
// single source of truth for sequencing (ascending to start, descending to
// stop).
package registry

import (
	"errors"
	"fmt"
	"sort"
)

// ErrUnknownService is returned when a caller names a service that is not
// in the table.
var ErrUnknownService = errors.New("unknown service")

// Service describes one member of the managed chain.
type Service struct {
	Name        string   `json:"name" mapstructure:"name"`
	BinaryPath  string   `json:"binary_path" mapstructure:"binary_path"`
	ConfigPath  string   `json:"config_path" mapstructure:"config_path"`
	LogPath     string   `json:"log_path" mapstructure:"log_path"`
	PIDFilePath string   `json:"pid_file" mapstructure:"pid_file"`
	LaunchArgs  []string `json:"launch_args" mapstructure:"launch_args"`
	Env         []string `json:"env" mapstructure:"env"`
	StartOrder  int      `json:"start_order" mapstructure:"start_order"`
}

// Registry is the ordered service table.
type Registry struct {
	services []Service
	byName   map[string]int
}

// New validates the descriptors and returns a registry ordered by
// StartOrder. Descriptors with equal rank keep their given relative order.
func New(services []Service) (*Registry, error) {
	if len(services) == 0 {
		return nil, errors.New("registry: no services configured")
	}
	ordered := make([]Service, len(services))
	copy(ordered, services)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].StartOrder < ordered[j].StartOrder
	})
	byName := make(map[string]int, len(ordered))
	for i, s := range ordered {
		if s.Name == "" {
			return nil, errors.New("registry: service with empty name")
		}
		if s.BinaryPath == "" {
			return nil, fmt.Errorf("registry: service %s has no binary path", s.Name)
		}
		if _, dup := byName[s.Name]; dup {
			return nil, fmt.Errorf("registry: duplicate service name %q", s.Name)
		}
		byName[s.Name] = i
	}
	return &Registry{services: ordered, byName: byName}, nil
}

// Services returns the descriptors in start order.
func (r *Registry) Services() []Service {
	out := make([]Service, len(r.services))
	copy(out, r.services)
	return out
}

// ReverseServices returns the descriptors in stop order.
func (r *Registry) ReverseServices() []Service {
	out := make([]Service, len(r.services))
	for i, s := range r.services {
		out[len(r.services)-1-i] = s
	}
	return out
}

// Lookup returns the descriptor for name.
func (r *Registry) Lookup(name string) (Service, error) {
	i, ok := r.byName[name]
	if !ok {
		return Service{}, fmt.Errorf("%w: %q", ErrUnknownService, name)
	}
	return r.services[i], nil
}

// Names returns the service names in start order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.services))
	for i, s := range r.services {
		out[i] = s.Name
	}
	return out
}

func (r *Registry) Len() int { return len(r.services) }
