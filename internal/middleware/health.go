package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"
)

// ErrDegraded marks a failed check that does not make the service unhealthy.
var ErrDegraded = errors.New("degraded")

// HealthChecker defines interface for health checking
type HealthChecker interface {
	Check(ctx context.Context) error
}

// CheckFunc adapts a function to HealthChecker.
type CheckFunc func(ctx context.Context) error

func (f CheckFunc) Check(ctx context.Context) error { return f(ctx) }

// ModelHealthChecker reports whether the default model backend is reachable.
// Without one, analysis still runs on the heuristic, so the check only
// degrades unless Required is set.
type ModelHealthChecker struct {
	Backend  interface{ Available(credential string) bool }
	Required bool
}

func (m *ModelHealthChecker) Check(context.Context) error {
	if m.Backend != nil && m.Backend.Available("") {
		return nil
	}
	if m.Required {
		return errors.New("no model backend configured")
	}
	return errors.Join(ErrDegraded, errors.New("no model backend configured, using heuristic analysis"))
}

// HealthStatus represents the health status
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
}

// CheckStatus represents individual check status
type CheckStatus struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// HealthHandler creates a health check handler
func HealthHandler(checkers map[string]HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		health := HealthStatus{
			Status:    "healthy",
			Timestamp: time.Now(),
			Checks:    make(map[string]CheckStatus),
		}

		for name, checker := range checkers {
			err := checker.Check(ctx)
			switch {
			case err == nil:
				health.Checks[name] = CheckStatus{Status: "healthy"}
			case errors.Is(err, ErrDegraded):
				health.Checks[name] = CheckStatus{Status: "degraded", Message: err.Error()}
				if health.Status == "healthy" {
					health.Status = "degraded"
				}
			default:
				health.Status = "unhealthy"
				health.Checks[name] = CheckStatus{Status: "unhealthy", Message: err.Error()}
			}
		}

		statusCode := http.StatusOK
		if health.Status == "unhealthy" {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		_ = json.NewEncoder(w).Encode(health)
	}
}

// ReadinessHandler creates a readiness check handler (simpler than health)
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status":    "ready",
		"timestamp": time.Now(),
	})
}

// LivenessHandler creates a liveness check handler (simplest check)
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
