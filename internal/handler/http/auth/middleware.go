// Package auth protects the admin API with HS256 JWT bearer tokens.
package auth

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"pixienews/internal/handler/http/respond"
	"pixienews/internal/observability/logging"
)

type ctxKey struct{}

// FromContext returns the claims of the authenticated caller, if any.
func FromContext(ctx context.Context) (*Claims, bool) {
	c, ok := ctx.Value(ctxKey{}).(*Claims)
	return c, ok
}

// Authz requires a valid bearer token whose role permits the request.
// Missing or invalid tokens get 401, valid tokens without permission 403.
func Authz(secret []byte) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger := logging.FromContext(r.Context())

			raw, err := bearer(r.Header.Get("Authorization"))
			if err != nil {
				recordAuth(outcomeMissing, "")
				w.Header().Set("WWW-Authenticate", `Bearer realm="pixienews"`)
				respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{Error: "unauthorized"})
				return
			}
			claims, err := ParseToken(secret, raw)
			if err != nil {
				recordAuth(outcomeInvalid, "")
				logger.WarnContext(r.Context(), "rejected admin token", slog.String("reason", err.Error()))
				w.Header().Set("WWW-Authenticate", `Bearer realm="pixienews", error="invalid_token"`)
				respond.JSON(w, http.StatusUnauthorized, respond.ErrorBody{Error: "unauthorized"})
				return
			}
			if !checkRolePermission(claims.Role, r.Method, r.URL.Path) {
				recordAuth(outcomeForbidden, claims.Role)
				logger.WarnContext(r.Context(), "forbidden admin request",
					slog.String("subject", claims.Subject),
					slog.String("role", claims.Role),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path))
				respond.JSON(w, http.StatusForbidden, respond.ErrorBody{Error: "forbidden"})
				return
			}
			recordAuth(outcomeOK, claims.Role)
			next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), ctxKey{}, claims)))
		})
	}
}

func bearer(header string) (string, error) {
	scheme, token, ok := strings.Cut(header, " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
		return "", errors.New("missing bearer token")
	}
	return strings.TrimSpace(token), nil
}
