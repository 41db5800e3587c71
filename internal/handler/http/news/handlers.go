package news

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"pixienews/internal/domain/entity"
	"pixienews/internal/handler/http/respond"
	"pixienews/internal/usecase/cache"
	"pixienews/internal/usecase/query"
)

// DefaultLimit applies when the request has no limit parameter.
const DefaultLimit = 10

// Service is the part of the query engine the handlers use.
type Service interface {
	Latest(ctx context.Context, region string, limit int) ([]entity.NewsItem, error)
	Search(ctx context.Context, keyword string, limit int, regions ...string) ([]entity.NewsItem, error)
	Regions() []entity.Region
}

// EntryReader exposes cache metadata without triggering a refresh.
type EntryReader interface {
	Peek(region string) (cache.Entry, bool)
}

// RegionsHandler serves GET /regions.
type RegionsHandler struct{ Svc Service }

func (h RegionsHandler) ServeHTTP(w http.ResponseWriter, _ *http.Request) {
	regions := h.Svc.Regions()
	out := make([]RegionDTO, 0, len(regions))
	for _, r := range regions {
		out = append(out, RegionDTO{Code: r.Code, Name: r.Name, Flag: r.Flag, Sources: len(r.Sources)})
	}
	respond.JSON(w, http.StatusOK, out)
}

// LatestHandler serves GET /news/{region}?limit=N.
type LatestHandler struct {
	Svc   Service
	Cache EntryReader
}

func (h LatestHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	limit, err := parseLimit(r.URL.Query().Get("limit"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	code := entity.NormalizeRegionCode(r.PathValue("region"))

	items, err := h.Svc.Latest(r.Context(), code, limit)
	if err != nil {
		respond.DomainError(w, err)
		return
	}

	resp := LatestResponse{Region: code, Count: len(items), Items: toDTOs(items)}
	if h.Cache != nil {
		if e, ok := h.Cache.Peek(code); ok {
			fetched := e.FetchedAt
			resp.FetchedAt = &fetched
			resp.Partial = e.Partial
			resp.Stale = e.CeilingExceeded
		}
	}
	respond.JSON(w, http.StatusOK, resp)
}

// SearchHandler serves GET /search?q=...&limit=N&regions=US,UK.
type SearchHandler struct{ Svc Service }

func (h SearchHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	keyword := strings.TrimSpace(q.Get("q"))
	if keyword == "" {
		respond.SafeError(w, http.StatusBadRequest, errors.New("q query param required"))
		return
	}
	limit, err := parseLimit(q.Get("limit"))
	if err != nil {
		respond.SafeError(w, http.StatusBadRequest, err)
		return
	}
	regions := splitRegions(q.Get("regions"))

	items, err := h.Svc.Search(r.Context(), keyword, limit, regions...)
	if err != nil {
		respond.DomainError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, SearchResponse{
		Query:   keyword,
		Regions: regions,
		Count:   len(items),
		Items:   toDTOs(items),
	})
}

// parseLimit accepts 1..N; values above query.MaxLimit are clamped by the engine.
func parseLimit(s string) (int, error) {
	if s == "" {
		return DefaultLimit, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return 0, &entity.ValidationError{Field: "limit", Message: "must be a positive integer"}
	}
	return min(n, query.MaxLimit), nil
}

func splitRegions(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if code := entity.NormalizeRegionCode(part); code != "" {
			out = append(out, code)
		}
	}
	return out
}
