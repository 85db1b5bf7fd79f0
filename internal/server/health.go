package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/teemow/inboxagent/internal/google"
)

// Health status constants for health check responses.
const (
	healthStatusOK           = "ok"
	healthStatusNotReady     = "not ready"
	healthStatusShuttingDown = "shutting down"
	healthStatusUnconfigured = "not configured"
	healthStatusMissing      = "missing"
	healthStatusExpired      = "expired"
	healthStatusInvalid      = "invalid"
)

// HealthChecker serves the liveness and readiness endpoints. Readiness
// only fails while the server is draining: a missing Gmail client or token
// cache is reported, but tools still answer with error envelopes then.
type HealthChecker struct {
	ready     atomic.Bool
	sc        *ServerContext
	tokenFile string
	startTime time.Time
	now       func() time.Time

	mu       sync.RWMutex
	sessions func() int
}

// HealthOption configures a HealthChecker.
type HealthOption func(*HealthChecker)

// WithTokenFile makes the checks report the state of the cached OAuth
// token at path.
func WithTokenFile(path string) HealthOption {
	return func(h *HealthChecker) { h.tokenFile = path }
}

// WithSessionCounter reports the number of live bridge sessions.
func WithSessionCounter(count func() int) HealthOption {
	return func(h *HealthChecker) { h.sessions = count }
}

// NewHealthChecker creates a HealthChecker that starts out ready. sc may be
// nil.
func NewHealthChecker(sc *ServerContext, opts ...HealthOption) *HealthChecker {
	h := &HealthChecker{
		sc:        sc,
		startTime: time.Now(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(h)
	}
	h.ready.Store(true)
	return h
}

// SetReady sets the readiness state of the server.
func (h *HealthChecker) SetReady(ready bool) {
	h.ready.Store(ready)
}

// IsReady returns whether the server is ready to receive traffic.
func (h *HealthChecker) IsReady() bool {
	return h.ready.Load()
}

// SetSessionCounter installs the live session counter once the bridge
// registry exists.
func (h *HealthChecker) SetSessionCounter(count func() int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.sessions = count
}

func (h *HealthChecker) sessionCount() (int, bool) {
	h.mu.RLock()
	count := h.sessions
	h.mu.RUnlock()
	if count == nil {
		return 0, false
	}
	return count(), true
}

// HealthResponse represents the JSON response for health endpoints.
type HealthResponse struct {
	Status   string            `json:"status"`
	Checks   map[string]string `json:"checks,omitempty"`
	Sessions *int              `json:"sessions,omitempty"`
}

// DetailedHealthResponse adds uptime to the readiness answer.
type DetailedHealthResponse struct {
	HealthResponse
	Uptime string `json:"uptime"`
}

// status evaluates every check. ok is false when traffic should be routed
// elsewhere.
func (h *HealthChecker) status() (HealthResponse, bool) {
	checks := map[string]string{
		"ready":    healthStatusOK,
		"shutdown": healthStatusOK,
		"gmail":    healthStatusOK,
	}
	ok := true

	if !h.ready.Load() {
		checks["ready"] = healthStatusNotReady
		ok = false
	}
	if h.sc != nil && h.sc.IsShutdown() {
		checks["shutdown"] = healthStatusShuttingDown
		ok = false
	}
	if h.sc == nil || h.sc.GmailClient() == nil {
		checks["gmail"] = healthStatusUnconfigured
	}
	if h.tokenFile != "" {
		checks["token"] = h.tokenStatus()
	}

	resp := HealthResponse{Status: healthStatusOK, Checks: checks}
	if n, counted := h.sessionCount(); counted {
		resp.Sessions = &n
	}
	return resp, ok
}

// tokenStatus inspects the token cache without refreshing it. An expired
// access token is fine as long as a refresh token can renew it.
func (h *HealthChecker) tokenStatus() string {
	tok, err := google.LoadToken(h.tokenFile)
	switch {
	case errors.Is(err, google.ErrTokenNotFound):
		return healthStatusMissing
	case err != nil:
		return healthStatusInvalid
	case tok.RefreshToken == "" && !tok.Expiry.IsZero() && !tok.Expiry.After(h.now()):
		return healthStatusExpired
	default:
		return healthStatusOK
	}
}

func writeHealth(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// LivenessHandler serves /healthz. It answers ok as long as the process
// can serve HTTP.
func (h *HealthChecker) LivenessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeHealth(w, http.StatusOK, HealthResponse{Status: healthStatusOK})
	})
}

// ReadinessHandler serves /readyz.
func (h *HealthChecker) ReadinessHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp, ok := h.status()
		if !ok {
			resp.Status = healthStatusNotReady
			writeHealth(w, http.StatusServiceUnavailable, resp)
			return
		}
		writeHealth(w, http.StatusOK, resp)
	})
}

// DetailedHealthHandler serves /healthz/detailed.
func (h *HealthChecker) DetailedHealthHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		resp, ok := h.status()
		detailed := DetailedHealthResponse{
			HealthResponse: resp,
			Uptime:         time.Since(h.startTime).Truncate(time.Second).String(),
		}
		if !ok {
			detailed.Status = healthStatusNotReady
			if resp.Checks["shutdown"] != healthStatusOK {
				detailed.Status = healthStatusShuttingDown
			}
			writeHealth(w, http.StatusServiceUnavailable, detailed)
			return
		}
		writeHealth(w, http.StatusOK, detailed)
	})
}

// RegisterHealthEndpoints registers health check endpoints on the given mux.
func (h *HealthChecker) RegisterHealthEndpoints(mux *http.ServeMux) {
	mux.Handle("/healthz", h.LivenessHandler())
	mux.Handle("/readyz", h.ReadinessHandler())
	mux.Handle("/healthz/detailed", h.DetailedHealthHandler())
}
