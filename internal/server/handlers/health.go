package handlers

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/fulmenhq/gofulmen/errors"

	"github.com/areaoforigin/narrator/internal/metrics"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
	statusTimeout   = "timeout"

	defaultCheckTimeout = 5 * time.Second
)

// HealthChecker is implemented by collaborators that can report readiness:
// the bucket, the model driver and the telemetry exporter.
type HealthChecker interface {
	CheckHealth(ctx context.Context) error
}

// CheckResult is the outcome of one dependency check.
type CheckResult struct {
	Status    string `json:"status"`
	Error     string `json:"error,omitempty"`
	LatencyMS int64  `json:"latency_ms"`
}

// HealthResponse is the body of GET /health and GET /health/ready.
type HealthResponse struct {
	Status     string                 `json:"status"`
	Version    string                 `json:"version,omitempty"`
	Uptime     string                 `json:"uptime"`
	Timestamp  string                 `json:"timestamp"`
	Deployment *Deployment            `json:"deployment,omitempty"`
	Checks     map[string]CheckResult `json:"checks,omitempty"`
}

// HealthManager runs the registered dependency checks concurrently, each
// bounded by one shared timeout.
type HealthManager struct {
	version    string
	deployment Deployment
	timeout    time.Duration
	started    time.Time

	mu       sync.RWMutex
	checkers map[string]HealthChecker
}

// NewHealthManager returns a manager with no checks registered.
func NewHealthManager(version string, deployment Deployment) *HealthManager {
	return &HealthManager{
		version:    version,
		deployment: deployment,
		timeout:    defaultCheckTimeout,
		started:    time.Now(),
		checkers:   make(map[string]HealthChecker),
	}
}

// RegisterChecker adds or replaces the check reported under name.
func (hm *HealthManager) RegisterChecker(name string, checker HealthChecker) {
	hm.mu.Lock()
	defer hm.mu.Unlock()
	hm.checkers[name] = checker
}

func (hm *HealthManager) runChecks(ctx context.Context) map[string]CheckResult {
	hm.mu.RLock()
	checkers := make(map[string]HealthChecker, len(hm.checkers))
	for name, c := range hm.checkers {
		checkers[name] = c
	}
	hm.mu.RUnlock()

	ctx, cancel := context.WithTimeout(ctx, hm.timeout)
	defer cancel()

	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]CheckResult, len(checkers))
	)
	for name, checker := range checkers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			start := time.Now()
			err := checker.CheckHealth(ctx)
			elapsed := time.Since(start)
			metrics.RecordHealthCheck(name, err == nil, elapsed)

			res := CheckResult{Status: statusHealthy, LatencyMS: elapsed.Milliseconds()}
			if err != nil {
				res.Status = statusUnhealthy
				if ctx.Err() != nil {
					res.Status = statusTimeout
				}
				res.Error = err.Error()
			}

			mu.Lock()
			results[name] = res
			mu.Unlock()
		}()
	}
	wg.Wait()
	return results
}

// overallStatus is unhealthy if any check failed outright, degraded if any
// ran out of time.
func overallStatus(results map[string]CheckResult) string {
	status := statusHealthy
	for _, res := range results {
		switch res.Status {
		case statusUnhealthy:
			return statusUnhealthy
		case statusTimeout:
			status = statusDegraded
		}
	}
	return status
}

// HealthHandler serves GET /health: every check plus what this instance is
// wired to.
func (hm *HealthManager) HealthHandler(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(hm.started)
	metrics.SetServerUptime(int64(uptime.Seconds()))

	results := hm.runChecks(r.Context())
	status := overallStatus(results)
	if status == statusUnhealthy {
		respondWithError(w, r, healthEnvelope("aggregate health check failed", "", status, results))
		return
	}

	deployment := hm.deployment
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:     status,
		Version:    hm.version,
		Uptime:     uptime.Round(time.Second).String(),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		Deployment: &deployment,
		Checks:     results,
	})
}

// LivenessHandler serves GET /health/live. It runs no checks: a slow bucket
// or model endpoint must not get the process restarted.
func (hm *HealthManager) LivenessHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    "alive",
		Uptime:    time.Since(hm.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

// ReadinessHandler serves GET /health/ready and fails while any collaborator
// is unreachable.
func (hm *HealthManager) ReadinessHandler(w http.ResponseWriter, r *http.Request) {
	results := hm.runChecks(r.Context())
	status := overallStatus(results)
	if status == statusUnhealthy {
		respondWithError(w, r, healthEnvelope("readiness probe failed", "ready", status, results))
		return
	}

	writeJSON(w, http.StatusOK, HealthResponse{
		Status:    status,
		Uptime:    time.Since(hm.started).Round(time.Second).String(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    results,
	})
}

func healthEnvelope(message, probe, status string, results map[string]CheckResult) *errors.ErrorEnvelope {
	checks := make(map[string]string, len(results))
	var failing []string
	for name, res := range results {
		checks[name] = res.Status
		if res.Status != statusHealthy {
			failing = append(failing, name)
		}
	}
	sort.Strings(failing)

	details := map[string]interface{}{
		"status": status,
		"checks": checks,
	}
	if probe != "" {
		details["probe"] = probe
	}

	envelope := errors.NewErrorEnvelope("SERVICE_UNAVAILABLE", message).WithDetails(details)
	envelope, _ = envelope.WithContext(map[string]interface{}{
		"status":           status,
		"unhealthy_checks": failing,
	})
	return envelope
}
