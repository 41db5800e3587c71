package auth

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func protected(t *testing.T) http.Handler {
	t.Helper()
	return Authz(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims, ok := FromContext(r.Context())
		require.True(t, ok)
		w.Header().Set("X-Subject", claims.Subject)
		w.WriteHeader(http.StatusNoContent)
	}))
}

func token(t *testing.T, role string) string {
	t.Helper()
	raw, err := IssueToken(testSecret, "tester", role, time.Minute)
	require.NoError(t, err)
	return raw
}

func TestAuthz(t *testing.T) {
	h := protected(t)

	tests := []struct {
		name   string
		method string
		path   string
		header string
		want   int
	}{
		{"no header", http.MethodGet, "/admin/cache", "", http.StatusUnauthorized},
		{"basic scheme", http.MethodGet, "/admin/cache", "Basic dXNlcjpwYXNz", http.StatusUnauthorized},
		{"empty bearer", http.MethodGet, "/admin/cache", "Bearer ", http.StatusUnauthorized},
		{"bad token", http.MethodGet, "/admin/cache", "Bearer abc.def.ghi", http.StatusUnauthorized},
		{"admin refresh", http.MethodPost, "/admin/refresh/US", "Bearer " + token(t, RoleAdmin), http.StatusNoContent},
		{"admin clear", http.MethodDelete, "/admin/cache", "Bearer " + token(t, RoleAdmin), http.StatusNoContent},
		{"lower case scheme", http.MethodGet, "/admin/cache", "bearer " + token(t, RoleAdmin), http.StatusNoContent},
		{"viewer reads cache", http.MethodGet, "/admin/cache", "Bearer " + token(t, RoleViewer), http.StatusNoContent},
		{"viewer reads regions", http.MethodGet, "/admin/regions", "Bearer " + token(t, RoleViewer), http.StatusNoContent},
		{"viewer cannot refresh", http.MethodPost, "/admin/refresh/US", "Bearer " + token(t, RoleViewer), http.StatusForbidden},
		{"viewer cannot clear", http.MethodDelete, "/admin/cache/US", "Bearer " + token(t, RoleViewer), http.StatusForbidden},
		{"admin outside admin tree", http.MethodGet, "/news/US", "Bearer " + token(t, RoleAdmin), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			assert.Equal(t, tt.want, rec.Code)
			switch tt.want {
			case http.StatusNoContent:
				assert.Equal(t, "tester", rec.Header().Get("X-Subject"))
			case http.StatusUnauthorized:
				assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
				assert.JSONEq(t, `{"error":"unauthorized"}`, rec.Body.String())
			}
		})
	}
}

func TestMatchesPathPattern(t *testing.T) {
	patterns := []string{"/admin/*", "/status"}
	assert.True(t, matchesPathPattern("/admin", patterns))
	assert.True(t, matchesPathPattern("/admin/cache/US", patterns))
	assert.True(t, matchesPathPattern("/status", patterns))
	assert.False(t, matchesPathPattern("/administrator", patterns))
	assert.False(t, matchesPathPattern("/status/x", patterns))
}

func TestCheckRolePermission_UnknownRole(t *testing.T) {
	assert.False(t, checkRolePermission("", http.MethodGet, "/admin/cache"))
	assert.False(t, checkRolePermission("owner", http.MethodGet, "/admin/cache"))
}

func TestAuthz_CountsOutcomes(t *testing.T) {
	h := protected(t)
	forbidden := testutil.ToFloat64(adminAuthTotal.WithLabelValues(outcomeForbidden, RoleViewer))
	missing := testutil.ToFloat64(adminAuthTotal.WithLabelValues(outcomeMissing, "none"))

	req := httptest.NewRequest(http.MethodPost, "/admin/refresh/US", nil)
	req.Header.Set("Authorization", "Bearer "+token(t, RoleViewer))
	h.ServeHTTP(httptest.NewRecorder(), req)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/admin/cache", nil))

	assert.Equal(t, forbidden+1, testutil.ToFloat64(adminAuthTotal.WithLabelValues(outcomeForbidden, RoleViewer)))
	assert.Equal(t, missing+1, testutil.ToFloat64(adminAuthTotal.WithLabelValues(outcomeMissing, "none")))
}
