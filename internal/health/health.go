// SPDX-License-Identifier: MIT

// Package health provides liveness and readiness checks for the reference
// server and its backing stores.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	xglog "github.com/ManuGH/leadcam/internal/log"
)

// Status represents the health of a component or of the whole process.
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// CheckResult represents the result of a component check.
type CheckResult struct {
	Status  Status `json:"status"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// Response is the body of /healthz and /readyz.
type Response struct {
	Ready     bool                   `json:"ready"`
	Status    Status                 `json:"status"`
	Version   string                 `json:"version,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckResult `json:"checks,omitempty"`
}

// Checker is a single named check.
type Checker interface {
	Name() string
	Check(ctx context.Context) CheckResult
}

// Manager runs registered checkers.
type Manager struct {
	version string
	timeout time.Duration
	now     func() time.Time

	mu       sync.RWMutex
	checkers []Checker
}

// NewManager creates a manager. Each check run is bounded by two seconds.
func NewManager(version string) *Manager {
	return &Manager{version: version, timeout: 2 * time.Second, now: time.Now}
}

// Register adds checkers.
func (m *Manager) Register(checkers ...Checker) {
	m.mu.Lock()
	m.checkers = append(m.checkers, checkers...)
	m.mu.Unlock()
}

// Ready runs every checker. Any unhealthy component makes the process not
// ready; degraded components only lower the overall status.
func (m *Manager) Ready(ctx context.Context) Response {
	m.mu.RLock()
	checkers := append([]Checker(nil), m.checkers...)
	m.mu.RUnlock()

	resp := Response{Ready: true, Status: StatusHealthy, Version: m.version, Timestamp: m.now()}
	if len(checkers) == 0 {
		return resp
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	resp.Checks = make(map[string]CheckResult, len(checkers))
	for _, c := range checkers {
		result := c.Check(ctx)
		resp.Checks[c.Name()] = result
		switch result.Status {
		case StatusUnhealthy:
			resp.Ready = false
			resp.Status = StatusUnhealthy
		case StatusDegraded:
			if resp.Status == StatusHealthy {
				resp.Status = StatusDegraded
			}
		}
	}
	return resp
}

// ServeHealth answers liveness checks. It always returns 200.
func (m *Manager) ServeHealth(w http.ResponseWriter, r *http.Request) {
	resp := Response{Ready: true, Status: StatusHealthy, Version: m.version, Timestamp: m.now()}
	m.write(w, r, http.StatusOK, resp)
}

// ServeReady answers readiness checks with 503 when any check is unhealthy.
func (m *Manager) ServeReady(w http.ResponseWriter, r *http.Request) {
	resp := m.Ready(r.Context())
	status := http.StatusOK
	if !resp.Ready {
		status = http.StatusServiceUnavailable
	}
	m.write(w, r, status, resp)

	logger := xglog.WithComponentFromContext(r.Context(), "readiness")
	logger.Debug().
		Str(xglog.FieldEvent, "readiness.checked").
		Str("status", string(resp.Status)).
		Bool("ready", resp.Ready).
		Msg("readiness check performed")
}

func (m *Manager) write(w http.ResponseWriter, r *http.Request, status int, resp Response) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger := xglog.WithComponentFromContext(r.Context(), "health")
		logger.Error().Err(err).
			Str(xglog.FieldEvent, "health.encode_error").
			Msg("failed to encode health response")
	}
}
