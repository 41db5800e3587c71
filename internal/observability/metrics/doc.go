// Package metrics provides Prometheus metrics registry and recording utilities.
//
// Metrics cover HTTP traffic, per-source fetches, region aggregations,
// the cache read path, the query engine and the chat front ends. All metrics
// are registered with the default registry through promauto and exposed on /metrics.
//
// Example usage:
//
//	start := time.Now()
//	items, err := adapter.Fetch(ctx, limit)
//	metrics.RecordSourceFetch(adapter.Name(), time.Since(start), len(items), err)
package metrics
