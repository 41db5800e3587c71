package http

import (
	"context"
	"database/sql"
	"net/http"
	"sync/atomic"
	"time"

	"pixienews/internal/handler/http/respond"
	"pixienews/internal/usecase/cache"
)

// HealthResponse is the body of /health and /ready.
type HealthResponse struct {
	Status    string                 `json:"status"` // healthy, degraded or unhealthy
	Timestamp string                 `json:"timestamp"`
	Checks    map[string]CheckStatus `json:"checks"`
	Version   string                 `json:"version"`
}

// CheckStatus is the result of one health check.
type CheckStatus struct {
	Status  string         `json:"status"`
	Message string         `json:"message,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// CacheStatus reports the state of every cached region.
type CacheStatus interface {
	Status() []cache.EntryStatus
}

// HealthHandler serves /health, /ready and /live.
//
// DB is optional: without DATABASE_URL preferences live in memory and the
// database check is skipped.
type HealthHandler struct {
	DB      *sql.DB
	Cache   CacheStatus
	Regions int
	Version string

	ready atomic.Bool
}

// SetReady flips the readiness probe.
func (h *HealthHandler) SetReady(ready bool) { h.ready.Store(ready) }

// ServeHTTP handles /health. A failing database makes the service
// unhealthy; stale or partial regions only degrade it.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]CheckStatus{}
	if h.DB != nil {
		checks["database"] = h.checkDatabase(ctx)
	}
	if h.Cache != nil {
		checks["cache"] = h.checkCache()
	}

	status := overall(checks)
	code := http.StatusOK
	if status == "unhealthy" {
		code = http.StatusServiceUnavailable
	}
	h.write(w, code, status, checks)
}

// Ready answers 503 until SetReady(true) and while the database is down.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	checks := map[string]CheckStatus{}
	if !h.ready.Load() {
		checks["startup"] = CheckStatus{Status: "unhealthy", Message: "starting"}
	}
	if h.DB != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := h.DB.PingContext(ctx); err != nil {
			checks["database"] = CheckStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
		}
	}
	if len(checks) > 0 {
		h.write(w, http.StatusServiceUnavailable, "unhealthy", checks)
		return
	}
	h.write(w, http.StatusOK, "healthy", nil)
}

// Live always answers 200 while the process can serve HTTP.
func (h *HealthHandler) Live(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, map[string]string{"status": "alive"})
}

func (h *HealthHandler) write(w http.ResponseWriter, code int, status string, checks map[string]CheckStatus) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	respond.JSON(w, code, HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
		Version:   h.Version,
	})
}

func (h *HealthHandler) checkDatabase(ctx context.Context) CheckStatus {
	if err := h.DB.PingContext(ctx); err != nil {
		return CheckStatus{Status: "unhealthy", Message: respond.SanitizeError(err)}
	}
	stats := h.DB.Stats()
	details := map[string]any{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
	}
	if stats.MaxOpenConnections > 0 && float64(stats.InUse)/float64(stats.MaxOpenConnections) >= 0.8 {
		return CheckStatus{Status: "degraded", Message: "connection pool utilization above 80%", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

func (h *HealthHandler) checkCache() CheckStatus {
	entries := h.Cache.Status()
	var fresh, partial, stale int
	for _, e := range entries {
		switch {
		case e.CeilingExceeded:
			stale++
		case e.Fresh:
			fresh++
		}
		if e.Partial {
			partial++
		}
	}
	details := map[string]any{
		"configured": h.Regions,
		"cached":     len(entries),
		"fresh":      fresh,
		"partial":    partial,
		"stale":      stale,
	}
	// 未取得のリージョンは初回アクセスで埋まるので正常扱い
	if stale > 0 {
		return CheckStatus{Status: "degraded", Message: "regions past staleness ceiling", Details: details}
	}
	if partial > 0 {
		return CheckStatus{Status: "degraded", Message: "some regions served partial results", Details: details}
	}
	return CheckStatus{Status: "healthy", Details: details}
}

func overall(checks map[string]CheckStatus) string {
	status := "healthy"
	for _, c := range checks {
		switch c.Status {
		case "unhealthy":
			return "unhealthy"
		case "degraded":
			status = "degraded"
		}
	}
	return status
}
