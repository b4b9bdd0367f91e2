package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
)

type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusUnhealthy Status = "unhealthy"
)

type CheckFunc func(ctx context.Context) error

// Checker runs named dependency checks for the readiness endpoint.
type Checker struct {
	service string
	mu      sync.RWMutex
	checks  map[string]CheckFunc
}

func NewChecker(service string) *Checker {
	return &Checker{
		service: service,
		checks:  make(map[string]CheckFunc),
	}
}

func (c *Checker) Register(name string, check CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = check
}

type CheckResult struct {
	Status  Status            `json:"status"`
	Service string            `json:"service"`
	Details map[string]string `json:"details,omitempty"`
}

func (c *Checker) Check(ctx context.Context) CheckResult {
	c.mu.RLock()
	defer c.mu.RUnlock()

	result := CheckResult{
		Status:  StatusHealthy,
		Service: c.service,
		Details: make(map[string]string, len(c.checks)),
	}

	for name, check := range c.checks {
		if err := check(ctx); err != nil {
			result.Status = StatusUnhealthy
			result.Details[name] = err.Error()
		} else {
			result.Details[name] = "ok"
		}
	}

	return result
}

// LivenessHandler always reports healthy. It never calls the registered
// checks.
func (c *Checker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(map[string]string{
			"status":  string(StatusHealthy),
			"service": c.service,
		})
	}
}

func (c *Checker) ReadinessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		result := c.Check(r.Context())
		w.Header().Set("Content-Type", "application/json")
		if result.Status == StatusHealthy {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}
		json.NewEncoder(w).Encode(result)
	}
}
