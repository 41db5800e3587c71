package http

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"pixienews/internal/usecase/cache"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCache []cache.EntryStatus

func (s stubCache) Status() []cache.EntryStatus { return s }

func decodeHealth(t *testing.T, rec *httptest.ResponseRecorder) HealthResponse {
	t.Helper()
	var resp HealthResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp
}

func TestHealthHandler_ServeHTTP(t *testing.T) {
	tests := []struct {
		name       string
		pingErr    error
		entries    stubCache
		wantCode   int
		wantStatus string
	}{
		{"all good", nil, stubCache{{Region: "US", Items: 5, Fresh: true}}, http.StatusOK, "healthy"},
		{"cold cache is fine", nil, stubCache{}, http.StatusOK, "healthy"},
		{"partial degrades", nil, stubCache{{Region: "US", Fresh: true, Partial: true}}, http.StatusOK, "degraded"},
		{"ceiling degrades", nil, stubCache{{Region: "UK", CeilingExceeded: true}}, http.StatusOK, "degraded"},
		{"database down", sql.ErrConnDone, stubCache{}, http.StatusServiceUnavailable, "unhealthy"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
			require.NoError(t, err)
			defer func() { _ = db.Close() }()
			mock.ExpectPing().WillReturnError(tt.pingErr)

			h := &HealthHandler{DB: db, Cache: tt.entries, Regions: 3, Version: "test"}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.wantCode, rec.Code)
			assert.Equal(t, "no-cache, no-store, must-revalidate", rec.Header().Get("Cache-Control"))
			resp := decodeHealth(t, rec)
			assert.Equal(t, tt.wantStatus, resp.Status)
			assert.Equal(t, "test", resp.Version)
			assert.Contains(t, resp.Checks, "database")
			assert.Contains(t, resp.Checks, "cache")
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestHealthHandler_NoDatabase(t *testing.T) {
	h := &HealthHandler{Cache: stubCache{}}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decodeHealth(t, rec)
	assert.NotContains(t, resp.Checks, "database")
}

func TestHealthHandler_Ready(t *testing.T) {
	h := &HealthHandler{}

	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "starting", decodeHealth(t, rec).Checks["startup"].Message)

	h.SetReady(true)
	rec = httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestHealthHandler_ReadyDatabaseDown(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer func() { _ = db.Close() }()
	mock.ExpectPing().WillReturnError(sql.ErrConnDone)

	h := &HealthHandler{DB: db}
	h.SetReady(true)
	rec := httptest.NewRecorder()
	h.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, decodeHealth(t, rec).Checks, "database")
}

func TestHealthHandler_Live(t *testing.T) {
	rec := httptest.NewRecorder()
	(&HealthHandler{}).Live(rec, httptest.NewRequest(http.MethodGet, "/live", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"alive"}`, rec.Body.String())
}
