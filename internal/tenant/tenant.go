// Package tenant resolves the inbound Host header to an agency identifier.
package tenant

import (
	"net"
	"strings"

	"github.com/referrio/core/internal/config"
)

// Default is the reserved agency id for the root/marketing domain. It never
// names a real agency; only the super admin may act on it.
const Default = "default"

// HeaderKey is the propagated context header carrying the resolved agency id.
const HeaderKey = "x-agency-id"

// Environment holds the host-matching rules for the current deployment.
type Environment struct {
	RootDomain  string   // production root, e.g. "referrio.com"
	LocalSuffix string   // local-dev suffix, e.g. ".localhost"
	RootHosts   []string // exact hosts that resolve to Default
	Production  bool
}

// EnvironmentFromConfig derives the matching rules from app config.
func EnvironmentFromConfig(cfg *config.AppConfig) Environment {
	return Environment{
		RootDomain:  cfg.Domain.Root,
		LocalSuffix: cfg.Domain.LocalSuffix,
		RootHosts:   cfg.Domain.RootHosts,
		Production:  cfg.IsProd(),
	}
}

// Resolve maps a Host header to an agency id. It never fails: ambiguous hosts
// degrade to either Default or the raw lowercased hostname, and downstream
// lookup treats an unknown id as not found.
func Resolve(host string, env Environment) string {
	h := strings.ToLower(strings.TrimSpace(host))
	h = stripPort(h)

	if h == "" || h == "undefined" || h == "null" {
		return Default
	}

	for _, root := range env.RootHosts {
		if h == root {
			return Default
		}
	}

	var candidate string
	switch {
	case env.Production && strings.HasSuffix(h, "."+env.RootDomain):
		candidate = strings.TrimSuffix(h, "."+env.RootDomain)
	case !env.Production && strings.HasSuffix(h, env.LocalSuffix):
		candidate = strings.TrimSuffix(h, env.LocalSuffix)
	default:
		// Unmatched custom domain: pass the raw hostname through.
		return h
	}

	if candidate == "" {
		return Default
	}
	if i := strings.Index(candidate, "."); i >= 0 {
		candidate = candidate[:i]
	}
	return candidate
}

func stripPort(host string) string {
	if h, _, err := net.SplitHostPort(host); err == nil {
		return h
	}
	return host
}
