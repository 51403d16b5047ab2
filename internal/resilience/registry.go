package resilience

import (
	"log/slog"
	"sort"
	"sync"
	"time"
)

// OpenAIService is the breaker name guarding the recommendation provider.
const OpenAIService = "openai"

// Health values reported by Registry.Health.
const (
	HealthHealthy  = "HEALTHY"
	HealthDegraded = "DEGRADED"
)

// Registry lazily creates one breaker per service name.
type Registry struct {
	settings Settings
	now      func() time.Time
	log      *slog.Logger

	breakers sync.Map // string -> *CircuitBreaker
}

// NewRegistry creates an empty registry. now may be nil.
func NewRegistry(settings Settings, now func() time.Time, log *slog.Logger) *Registry {
	if now == nil {
		now = time.Now
	}
	if log == nil {
		log = slog.Default()
	}
	return &Registry{settings: settings, now: now, log: log.With("component", "resilience")}
}

// Get returns the breaker for service, creating it on first access.
func (r *Registry) Get(service string) *CircuitBreaker {
	if b, ok := r.breakers.Load(service); ok {
		return b.(*CircuitBreaker)
	}
	b, _ := r.breakers.LoadOrStore(service, NewCircuitBreaker(service, r.settings, r.now, r.log))
	return b.(*CircuitBreaker)
}

// Statuses snapshots every known breaker keyed by service name.
func (r *Registry) Statuses() map[string]Status {
	out := make(map[string]Status)
	r.breakers.Range(func(key, value any) bool {
		out[key.(string)] = value.(*CircuitBreaker).Status()
		return true
	})
	return out
}

// HealthReport is the aggregate health of all breakers.
type HealthReport struct {
	Status    string            `json:"status"`
	Services  map[string]Status `json:"services"`
	Timestamp int64             `json:"timestamp"`
}

// Health is HEALTHY when every breaker is available.
func (r *Registry) Health() HealthReport {
	services := r.Statuses()
	status := HealthHealthy
	for _, s := range services {
		if !s.IsAvailable {
			status = HealthDegraded
			break
		}
	}
	return HealthReport{
		Status:    status,
		Services:  services,
		Timestamp: r.now().UnixMilli(),
	}
}

// Names returns the registered service names, sorted.
func (r *Registry) Names() []string {
	var names []string
	r.breakers.Range(func(key, _ any) bool {
		names = append(names, key.(string))
		return true
	})
	sort.Strings(names)
	return names
}
