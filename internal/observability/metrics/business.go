package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Source metrics track individual adapters
var (
	// SourceFetchDuration measures one adapter attempt
	SourceFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "source_fetch_duration_seconds",
			Help:    "Time taken by one source fetch attempt",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		},
		[]string{"source", "outcome"},
	)

	// SourceFetchErrors counts failed fetches by error kind
	SourceFetchErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_errors_total",
			Help: "Total number of source fetch failures after retry",
		},
		[]string{"source", "kind"},
	)

	// SourceFetchRetries counts second attempts
	SourceFetchRetries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_fetch_retries_total",
			Help: "Total number of source fetches retried after a transient failure",
		},
		[]string{"source"},
	)

	// SourceItemsFetched counts raw items returned by each source
	SourceItemsFetched = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "source_items_fetched_total",
			Help: "Total number of raw items returned by sources",
		},
		[]string{"source"},
	)

	// CircuitBreakerState exposes each breaker state (0 closed, 1 half-open, 2 open)
	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open)",
		},
		[]string{"name"},
	)
)

// Aggregation metrics track orchestrator runs and normalization
var (
	// AggregationRuns counts orchestrator runs by result (complete, partial, empty)
	AggregationRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "aggregation_runs_total",
			Help: "Total number of region aggregation runs",
		},
		[]string{"region", "result"},
	)

	// AggregationDuration measures a full region refresh
	AggregationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "aggregation_duration_seconds",
			Help:    "Time taken to aggregate all sources of a region",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
		},
		[]string{"region"},
	)

	// NormalizeDropped counts items discarded during normalization
	NormalizeDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "normalize_dropped_items_total",
			Help: "Items dropped during normalization",
		},
		[]string{"reason"},
	)

	// NormalizeMerged counts duplicate items merged into an existing item
	NormalizeMerged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "normalize_merged_items_total",
			Help: "Duplicate items merged by canonical URL",
		},
	)

	// ContentEnrichAttempts counts summary enrichment attempts by result
	ContentEnrichAttempts = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "content_enrich_attempts_total",
			Help: "Total number of summary enrichment attempts",
		},
		[]string{"result"}, // result: success, failure, skipped
	)

	// ContentFetchDuration measures time to fetch article content
	ContentFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "content_fetch_duration_seconds",
			Help:    "Time taken to fetch article content",
			Buckets: []float64{0.1, 0.2, 0.4, 0.8, 1.6, 3.2, 6.4, 12.8},
		},
	)
)

// Cache metrics track the read path
var (
	// CacheRequests counts cache lookups by result (hit, miss, stale)
	CacheRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_requests_total",
			Help: "Total number of cache lookups",
		},
		[]string{"region", "result"},
	)

	// CacheRefreshes counts completed refreshes by outcome
	// (replaced, kept_previous, ceiling_exceeded)
	CacheRefreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_refreshes_total",
			Help: "Total number of completed cache refreshes",
		},
		[]string{"region", "outcome"},
	)

	// CacheCoalesced counts callers that joined an in-flight refresh
	CacheCoalesced = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_coalesced_waits_total",
			Help: "Callers that shared an in-flight refresh instead of starting one",
		},
		[]string{"region"},
	)

	// CacheEntryItems tracks item count per region entry
	CacheEntryItems = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entry_items",
			Help: "Number of items in the cached entry of a region",
		},
		[]string{"region"},
	)

	// CacheEntryPartial is 1 when the region's entry was produced with failures
	CacheEntryPartial = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "cache_entry_partial",
			Help: "1 if the cached entry of a region is partial",
		},
		[]string{"region"},
	)
)

// Query and chat metrics
var (
	// QueryRequests counts query engine calls by operation and result
	QueryRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "query_requests_total",
			Help: "Total number of query engine calls",
		},
		[]string{"operation", "result"},
	)

	// ChatMessages counts inbound chat messages by channel and command
	ChatMessages = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_messages_total",
			Help: "Total number of inbound chat messages",
		},
		[]string{"channel", "command"},
	)

	// ChatSendErrors counts failed outbound chat messages
	ChatSendErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "chat_send_errors_total",
			Help: "Total number of outbound chat message failures",
		},
		[]string{"channel"},
	)

	// DigestDeliveries counts daily digest deliveries by channel and outcome
	DigestDeliveries = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "digest_deliveries_total",
			Help: "Total number of daily digest deliveries",
		},
		[]string{"channel", "outcome"},
	)

	// BridgeState exposes the bridge connection state as a numeric code
	BridgeState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "bridge_connection_state",
			Help: "Bridge state (0=disconnected, 1=qr_pending, 2=authenticated, 3=ready)",
		},
	)
)

// RecordSourceFetch records one adapter attempt.
func RecordSourceFetch(source string, duration time.Duration, items int, err error) {
	outcome := "success"
	if err != nil {
		outcome = "failure"
	}
	SourceFetchDuration.WithLabelValues(source, outcome).Observe(duration.Seconds())
	if err == nil && items > 0 {
		SourceItemsFetched.WithLabelValues(source).Add(float64(items))
	}
}

// RecordSourceRetry records a retried source fetch.
func RecordSourceRetry(source string) {
	SourceFetchRetries.WithLabelValues(source).Inc()
}

// RecordSourceFailure records a source that failed after its retry budget.
func RecordSourceFailure(source, kind string) {
	SourceFetchErrors.WithLabelValues(source, kind).Inc()
}

// RecordBreakerState records a circuit breaker transition.
func RecordBreakerState(name string, state int) {
	CircuitBreakerState.WithLabelValues(name).Set(float64(state))
}

// RecordAggregation records a completed orchestrator run.
func RecordAggregation(region string, duration time.Duration, items int, partial bool) {
	result := "complete"
	switch {
	case items == 0 && partial:
		result = "empty"
	case partial:
		result = "partial"
	}
	AggregationRuns.WithLabelValues(region, result).Inc()
	AggregationDuration.WithLabelValues(region).Observe(duration.Seconds())
}

// RecordNormalizeDropped records items discarded for reason.
func RecordNormalizeDropped(reason string, count int) {
	if count > 0 {
		NormalizeDropped.WithLabelValues(reason).Add(float64(count))
	}
}

// RecordNormalizeMerged records merged duplicates.
func RecordNormalizeMerged(count int) {
	if count > 0 {
		NormalizeMerged.Add(float64(count))
	}
}

// RecordContentEnrichSuccess records a successful summary enrichment.
func RecordContentEnrichSuccess(duration time.Duration) {
	ContentEnrichAttempts.WithLabelValues("success").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentEnrichFailed records a failed summary enrichment.
func RecordContentEnrichFailed(duration time.Duration) {
	ContentEnrichAttempts.WithLabelValues("failure").Inc()
	ContentFetchDuration.Observe(duration.Seconds())
}

// RecordContentEnrichSkipped records an item whose summary was already long enough.
func RecordContentEnrichSkipped() {
	ContentEnrichAttempts.WithLabelValues("skipped").Inc()
}

// RecordCacheLookup records a cache lookup result (hit, miss, stale).
func RecordCacheLookup(region, result string) {
	CacheRequests.WithLabelValues(region, result).Inc()
}

// RecordCacheRefresh records a refresh outcome and the resulting entry shape.
func RecordCacheRefresh(region, outcome string, items int, partial bool) {
	CacheRefreshes.WithLabelValues(region, outcome).Inc()
	CacheEntryItems.WithLabelValues(region).Set(float64(items))
	p := 0.0
	if partial {
		p = 1
	}
	CacheEntryPartial.WithLabelValues(region).Set(p)
}

// RecordCacheCoalesced records a caller that waited on an in-flight refresh.
func RecordCacheCoalesced(region string) {
	CacheCoalesced.WithLabelValues(region).Inc()
}

// RecordQuery records a query engine call.
func RecordQuery(operation string, err error) {
	result := "success"
	if err != nil {
		result = "error"
	}
	QueryRequests.WithLabelValues(operation, result).Inc()
}

// RecordChatMessage records an inbound chat message.
func RecordChatMessage(channel, command string) {
	ChatMessages.WithLabelValues(channel, command).Inc()
}

// RecordChatSendError records a failed outbound chat message.
func RecordChatSendError(channel string) {
	ChatSendErrors.WithLabelValues(channel).Inc()
}

// RecordBridgeState records the bridge connection state code.
func RecordBridgeState(code int) {
	BridgeState.Set(float64(code))
}

// RecordDigestDelivery records one digest outcome (sent, skipped, failed).
func RecordDigestDelivery(channel, outcome string) {
	DigestDeliveries.WithLabelValues(channel, outcome).Inc()
}
