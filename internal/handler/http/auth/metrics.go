package auth

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes of an admin authentication attempt.
const (
	outcomeOK        = "ok"
	outcomeMissing   = "missing_token"
	outcomeInvalid   = "invalid_token"
	outcomeForbidden = "forbidden"
)

var adminAuthTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: "pixienews",
		Subsystem: "admin",
		Name:      "auth_total",
		Help:      "Admin API authentication attempts by outcome and role.",
	},
	[]string{"outcome", "role"},
)

func recordAuth(outcome, role string) {
	if role == "" {
		role = "none"
	}
	adminAuthTotal.WithLabelValues(outcome, role).Inc()
}
