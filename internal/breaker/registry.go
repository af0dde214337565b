package breaker

import (
	"sync"
	"time"
)

// serviceDefaults returns the tuned default config for a named service.
// A locally-hosted agent recovers fast and can absorb several trial calls;
// hosted CLIs get a longer recovery window and a single trial.
func serviceDefaults(service string) Config {
	switch service {
	case "ollama":
		return Config{
			FailureThreshold: 3,
			RecoveryTimeout:  10 * time.Second,
			HalfOpenRequests: 3,
			CountTimeouts:    true,
		}
	case "claude", "gemini", "codex":
		return Config{
			FailureThreshold:   5,
			RecoveryTimeout:    60 * time.Second,
			HalfOpenRequests:   1,
			CountTimeouts:      true,
			FailureStatusCodes: []int{429, 500, 502, 503, 504},
		}
	default:
		return DefaultConfig()
	}
}

// Registry hands out one breaker per named service, created lazily on
// first use and living for the process lifetime. It is owned by the
// composition root; there are no hidden globals.
type Registry struct {
	mu        sync.Mutex
	breakers  map[string]*Breaker
	overrides map[string]Config
}

// NewRegistry creates an empty registry. Per-service config overrides
// replace the tuned defaults for that service.
func NewRegistry(overrides map[string]Config) *Registry {
	return &Registry{
		breakers:  make(map[string]*Breaker),
		overrides: overrides,
	}
}

// Get returns the breaker for a service, constructing it on first use.
func (r *Registry) Get(service string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[service]; ok {
		return b
	}

	cfg, ok := r.overrides[service]
	if !ok {
		cfg = serviceDefaults(service)
	}
	b := New(service, cfg)
	r.breakers[service] = b
	return b
}

// Snapshot returns the current stats of every constructed breaker,
// keyed by service name.
func (r *Registry) Snapshot() map[string]Stats {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make(map[string]Stats, len(r.breakers))
	for name, b := range r.breakers {
		out[name] = b.Snapshot()
	}
	return out
}
