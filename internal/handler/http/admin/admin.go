// Package admin serves the JWT protected cache administration routes.
package admin

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"pixienews/internal/domain/entity"
	"pixienews/internal/handler/http/auth"
	"pixienews/internal/handler/http/respond"
	"pixienews/internal/observability/logging"
	"pixienews/internal/usecase/cache"
)

// Cache is the part of the cache store the admin routes drive.
type Cache interface {
	Refresh(ctx context.Context, region string) (cache.Entry, error)
	Invalidate(region string) bool
	Clear() int
	Status() []cache.EntryStatus
}

// Regions resolves configured region codes.
type Regions interface {
	Has(code string) bool
	Regions() []entity.Region
}

// RefreshResponse is returned by POST /admin/refresh/{region}.
type RefreshResponse struct {
	Region          string    `json:"region"`
	Items           int       `json:"items"`
	FetchedAt       time.Time `json:"fetched_at"`
	Partial         bool      `json:"partial"`
	CeilingExceeded bool      `json:"ceiling_exceeded"`
	Failures        []string  `json:"failures,omitempty"`
}

// SourceDTO describes one configured source.
type SourceDTO struct {
	Name string `json:"name"`
	URL  string `json:"url"`
	Type string `json:"type"`
}

// RegionDTO describes one configured region with its sources.
type RegionDTO struct {
	Code    string      `json:"code"`
	Name    string      `json:"name"`
	Sources []SourceDTO `json:"sources"`
}

// Handler groups the admin routes.
type Handler struct {
	Cache   Cache
	Regions Regions
}

// Register mounts the admin routes behind auth.Authz(secret).
func Register(mux *http.ServeMux, h Handler, secret []byte) {
	protect := auth.Authz(secret)
	mux.Handle("POST /admin/refresh/{region}", protect(http.HandlerFunc(h.Refresh)))
	mux.Handle("GET /admin/cache", protect(http.HandlerFunc(h.Status)))
	mux.Handle("DELETE /admin/cache", protect(http.HandlerFunc(h.Clear)))
	mux.Handle("DELETE /admin/cache/{region}", protect(http.HandlerFunc(h.Invalidate)))
	mux.Handle("GET /admin/regions", protect(http.HandlerFunc(h.ListRegions)))
}

func (h Handler) region(w http.ResponseWriter, r *http.Request) (string, bool) {
	code := entity.NormalizeRegionCode(r.PathValue("region"))
	if !h.Regions.Has(code) {
		respond.DomainError(w, fmt.Errorf("%w: %s", entity.ErrUnknownRegion, code))
		return "", false
	}
	return code, true
}

// Refresh forces an aggregation for one region and reports the outcome.
func (h Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	code, ok := h.region(w, r)
	if !ok {
		return
	}
	e, err := h.Cache.Refresh(r.Context(), code)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	logging.FromContext(r.Context()).InfoContext(r.Context(), "cache refreshed by admin",
		slog.String("region", code),
		slog.String("subject", subject(r)),
		slog.Int("items", len(e.Items)),
		slog.Bool("partial", e.Partial))
	respond.JSON(w, http.StatusOK, RefreshResponse{
		Region:          e.Region,
		Items:           len(e.Items),
		FetchedAt:       e.FetchedAt,
		Partial:         e.Partial,
		CeilingExceeded: e.CeilingExceeded,
		Failures:        e.Failures,
	})
}

// Status lists every cached region.
func (h Handler) Status(w http.ResponseWriter, _ *http.Request) {
	respond.JSON(w, http.StatusOK, h.Cache.Status())
}

// Clear drops every cached region.
func (h Handler) Clear(w http.ResponseWriter, r *http.Request) {
	n := h.Cache.Clear()
	logging.FromContext(r.Context()).InfoContext(r.Context(), "cache cleared by admin",
		slog.String("subject", subject(r)),
		slog.Int("removed", n))
	respond.JSON(w, http.StatusOK, map[string]int{"removed": n})
}

// Invalidate drops one region. 404 when nothing was cached for it.
func (h Handler) Invalidate(w http.ResponseWriter, r *http.Request) {
	code, ok := h.region(w, r)
	if !ok {
		return
	}
	if !h.Cache.Invalidate(code) {
		respond.SafeError(w, http.StatusNotFound, fmt.Errorf("%w: no cache entry for %s", entity.ErrNotFound, code))
		return
	}
	logging.FromContext(r.Context()).InfoContext(r.Context(), "cache entry invalidated by admin",
		slog.String("region", code),
		slog.String("subject", subject(r)))
	w.WriteHeader(http.StatusNoContent)
}

// ListRegions returns the configured region to source mapping.
func (h Handler) ListRegions(w http.ResponseWriter, _ *http.Request) {
	regions := h.Regions.Regions()
	out := make([]RegionDTO, 0, len(regions))
	for _, reg := range regions {
		d := RegionDTO{Code: reg.Code, Name: reg.Name, Sources: make([]SourceDTO, 0, len(reg.Sources))}
		for _, s := range reg.Sources {
			d.Sources = append(d.Sources, SourceDTO{Name: s.Name, URL: s.URL, Type: string(s.Type)})
		}
		out = append(out, d)
	}
	respond.JSON(w, http.StatusOK, out)
}

func subject(r *http.Request) string {
	if c, ok := auth.FromContext(r.Context()); ok {
		return c.Subject
	}
	return ""
}
