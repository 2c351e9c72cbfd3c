package resiliency

import (
	"strings"
	"sync"
	"time"
)

// Registry owns the service-name → breaker map. One breaker per service
// name for the process lifetime; entries are never evicted. Construct one
// registry at startup and thread it through constructors.
type Registry struct {
	mu       sync.Mutex
	breakers map[string]*Breaker
	now      func() time.Time
}

func NewRegistry(now func() time.Time) *Registry {
	if now == nil {
		now = time.Now
	}
	return &Registry{
		breakers: make(map[string]*Breaker),
		now:      now,
	}
}

// Get lazily creates and memoizes the breaker for a service, tuned by
// matching the service name against known downstream categories.
func (r *Registry) Get(service string) *Breaker {
	r.mu.Lock()
	defer r.mu.Unlock()

	if b, ok := r.breakers[service]; ok {
		return b
	}
	b := NewBreaker(service, configForService(service), r.now)
	r.breakers[service] = b
	return b
}

// Services lists the registered service names, for diagnostics.
func (r *Registry) Services() []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	names := make([]string, 0, len(r.breakers))
	for name := range r.breakers {
		names = append(names, name)
	}
	return names
}

// configForService picks tuning by service category. The national
// timestamp authority fails fast with a long cool-off, blockchain anchors
// tolerate more consecutive failures, push channels recover quickly.
func configForService(service string) Config {
	name := strings.ToLower(service)
	switch {
	case strings.Contains(name, "icp") || strings.Contains(name, "timestamp"):
		return Config{FailureThreshold: 3, ResetTimeout: 60 * time.Second, HalfOpenMaxCalls: 2}
	case strings.Contains(name, "blockchain") || strings.Contains(name, "polygon") || strings.Contains(name, "arbitrum"):
		return Config{FailureThreshold: 5, ResetTimeout: 120 * time.Second, HalfOpenMaxCalls: 2}
	case strings.Contains(name, "websocket") || strings.Contains(name, "channel"):
		return Config{FailureThreshold: 4, ResetTimeout: 30 * time.Second, HalfOpenMaxCalls: 1}
	default:
		return Config{FailureThreshold: 5, ResetTimeout: 60 * time.Second, HalfOpenMaxCalls: 3}
	}
}
