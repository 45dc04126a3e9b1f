package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/cataloro/cataloro/internal/metrics"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusTimeout   = "timeout"
)

// Per-probe check budgets. Liveness is kept tight so a wedged upstream
// cannot stall the kubelet; the aggregate endpoint gets the full budget.
const (
	aggregateCheckTimeout = 5 * time.Second
	livenessCheckTimeout  = 2 * time.Second
	readinessCheckTimeout = 5 * time.Second
	startupCheckTimeout   = 3 * time.Second
)

// HealthResponse is the aggregate health report returned by /health.
type HealthResponse struct {
	Status    string            `json:"status"`
	Version   string            `json:"version"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ProbeResponse is the body returned by the individual probe endpoints.
type ProbeResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
}

// HealthChecker is implemented by components that can report their own
// health, such as the credential store or the upstream prober.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckerFunc adapts a plain function to the HealthChecker interface.
type CheckerFunc func(ctx context.Context) error

// CheckHealth implements HealthChecker.
func (f CheckerFunc) CheckHealth(ctx context.Context) error {
	return f(ctx)
}

// HealthManager runs registered checks and serves the probe endpoints.
type HealthManager struct {
	checkers map[string]HealthChecker
	version  string
}

// NewHealthManager returns a manager with no checks registered.
func NewHealthManager(version string) *HealthManager {
	return &HealthManager{
		checkers: make(map[string]HealthChecker),
		version:  version,
	}
}

// RegisterChecker adds a named check. Registration happens during server
// startup, before any probe traffic arrives.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.checkers[name] = checker
}

func (hm *HealthManager) runChecks(ctx context.Context) map[string]string {
	results := make(map[string]string, len(hm.checkers))

	for name, checker := range hm.checkers {
		if ctx.Err() != nil {
			results[name] = statusTimeout
			return results
		}

		start := time.Now()
		err := checker.CheckHealth(ctx)
		metrics.RecordHealthCheck(name, err == nil, time.Since(start))

		if err != nil {
			results[name] = statusUnhealthy
			continue
		}
		results[name] = statusHealthy
	}

	return results
}

// aggregateStatus folds per-check results into one status. Any unhealthy
// check wins; timeouts downgrade to degraded rather than failing the probe.
func (hm *HealthManager) aggregateStatus(checks map[string]string) string {
	status := statusHealthy
	for _, result := range checks {
		switch result {
		case statusUnhealthy:
			return statusUnhealthy
		case statusDegraded, statusTimeout:
			status = statusDegraded
		}
	}
	return status
}

// HealthHandler serves the aggregate report with per-check results and
// the running version.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), aggregateCheckTimeout)
	defer cancel()

	checks := hm.runChecks(ctx)
	status := hm.aggregateStatus(checks)
	if status == statusUnhealthy {
		respondWithError(w, r, healthFailure("aggregate health check failed", "", status, checks))
		return
	}

	writeHealthJSON(w, HealthResponse{
		Status:    status,
		Version:   hm.version,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	})
}

// LivenessHandler indicates whether the process is running.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, "live", livenessCheckTimeout)
}

// ReadinessHandler indicates whether the gateway can serve traffic.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, "ready", readinessCheckTimeout)
}

// StartupHandler indicates whether initialization has completed.
func (hm *HealthManager) StartupHandler(w http.ResponseWriter, r *http.Request) {
	hm.serveProbe(w, r, "startup", startupCheckTimeout)
}

func (hm *HealthManager) serveProbe(w http.ResponseWriter, r *http.Request, probe string, timeout time.Duration) {
	ctx, cancel := context.WithTimeout(r.Context(), timeout)
	defer cancel()

	checks := hm.runChecks(ctx)
	status := hm.aggregateStatus(checks)
	if status == statusUnhealthy {
		respondWithError(w, r, healthFailure(probe+" probe failed", probe, status, checks))
		return
	}

	writeHealthJSON(w, ProbeResponse{Status: status, Timestamp: time.Now().UTC()})
}

func writeHealthJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(payload)
}

// healthFailure builds the SERVICE_UNAVAILABLE envelope for a failed
// probe. Check results go into details for the caller; the names of the
// failing checks also land in context for log correlation.
func healthFailure(message, probe, status string, checks map[string]string) *errors.ErrorEnvelope {
	envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", message)

	details := map[string]interface{}{"status": status}
	contextData := map[string]interface{}{"status": status}
	if probe != "" {
		details["probe"] = probe
		contextData["probe"] = probe
	}
	if len(checks) > 0 {
		details["checks"] = checks
	}
	if failed := failedChecks(checks); len(failed) > 0 {
		contextData["unhealthy_checks"] = failed
	}

	envelope = envelope.WithDetails(details)
	envelope, _ = envelope.WithContext(contextData)
	return envelope
}

func failedChecks(checks map[string]string) []string {
	var failed []string
	for name, result := range checks {
		if result != statusHealthy {
			failed = append(failed, name)
		}
	}
	return failed
}

// Process-wide manager wired up by the serve command.
var globalHealthManager *HealthManager

// InitHealthManager replaces the global manager with a fresh one.
func InitHealthManager(version string) {
	globalHealthManager = NewHealthManager(version)
}

// GetHealthManager returns the global manager for check registration.
func GetHealthManager() *HealthManager {
	return globalHealthManager
}

// HealthHandler serves the aggregate check from the global manager.
func HealthHandler(w http.ResponseWriter, r *http.Request) {
	if globalHealthManager == nil {
		respondUninitialized(w, r, "aggregate")
		return
	}
	globalHealthManager.HealthHandler(w, r)
}

// LivenessHandler serves the liveness probe from the global manager.
func LivenessHandler(w http.ResponseWriter, r *http.Request) {
	if globalHealthManager == nil {
		respondUninitialized(w, r, "live")
		return
	}
	globalHealthManager.LivenessHandler(w, r)
}

// ReadinessHandler serves the readiness probe from the global manager.
func ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	if globalHealthManager == nil {
		respondUninitialized(w, r, "ready")
		return
	}
	globalHealthManager.ReadinessHandler(w, r)
}

// StartupHandler serves the startup probe from the global manager.
func StartupHandler(w http.ResponseWriter, r *http.Request) {
	if globalHealthManager == nil {
		respondUninitialized(w, r, "startup")
		return
	}
	globalHealthManager.StartupHandler(w, r)
}

func respondUninitialized(w http.ResponseWriter, r *http.Request, probe string) {
	respondWithError(w, r, healthFailure("health manager not initialized", probe, "unknown", nil))
}
