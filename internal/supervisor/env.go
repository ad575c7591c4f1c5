package supervisor

import (
	"os"
	"strings"

	"github.com/loykin/edgeup/internal/registry"
)

// launchEnv composes the environment for a service launch: the supervisor's
// own environment as the base, then the descriptor's entries on top.
func launchEnv(svc registry.Service) []string {
	m := make(map[string]string)
	order := make([]string, 0, len(os.Environ())+len(svc.Env))
	add := func(kv string) {
		i := strings.IndexByte(kv, '=')
		if i <= 0 {
			return
		}
		k, v := kv[:i], kv[i+1:]
		if _, seen := m[k]; !seen {
			order = append(order, k)
		}
		m[k] = v
	}
	for _, kv := range os.Environ() {
		add(kv)
	}
	for _, kv := range svc.Env {
		add(kv)
	}
	out := make([]string, 0, len(order))
	for _, k := range order {
		out = append(out, k+"="+m[k])
	}
	return out
}

// expandArgs resolves ${VAR} references in launch arguments against the
// composed environment. Simple expansion, no recursion; unknown variables
// expand to the empty string.
func expandArgs(args []string, env []string) []string {
	if len(args) == 0 {
		return nil
	}
	m := make(map[string]string, len(env))
	for _, kv := range env {
		if i := strings.IndexByte(kv, '='); i > 0 {
			m[kv[:i]] = kv[i+1:]
		}
	}
	out := make([]string, len(args))
	for i, a := range args {
		out[i] = os.Expand(a, func(k string) string { return m[k] })
	}
	return out
}
