package worker

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"pixienews/internal/pkg/config"
)

// Job names used as metric labels.
const (
	JobWarm   = "warm"
	JobDigest = "digest"
)

// WorkerMetrics embeds the configuration metrics and adds per-job
// execution metrics:
//   - worker_cron_job_runs_total{job,status}
//   - worker_cron_job_duration_seconds{job}
//   - worker_cron_job_last_success_timestamp{job}
//   - worker_regions_warmed_total{outcome}
//   - worker_digest_messages_total{outcome}
type WorkerMetrics struct {
	*config.ConfigMetrics

	JobRunsTotal        *prometheus.CounterVec
	JobDurationSeconds  *prometheus.HistogramVec
	JobLastSuccess      *prometheus.GaugeVec
	RegionsWarmedTotal  *prometheus.CounterVec
	DigestMessagesTotal *prometheus.CounterVec
}

// NewWorkerMetrics registers the metrics on the default registry.
func NewWorkerMetrics() *WorkerMetrics {
	return NewWorkerMetricsWith(prometheus.DefaultRegisterer)
}

// NewWorkerMetricsWith registers the metrics on reg. Tests pass a fresh
// prometheus.NewRegistry().
func NewWorkerMetricsWith(reg prometheus.Registerer) *WorkerMetrics {
	f := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetricsWith(reg, "worker"),

		JobRunsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_cron_job_runs_total",
			Help: "Total number of cron job runs by job and status",
		}, []string{"job", "status"}),

		JobDurationSeconds: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "worker_cron_job_duration_seconds",
			Help:    "Duration of cron job execution in seconds",
			Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
		}, []string{"job"}),

		JobLastSuccess: f.NewGaugeVec(prometheus.GaugeOpts{
			Name: "worker_cron_job_last_success_timestamp",
			Help: "Unix timestamp of the last successful run per job",
		}, []string{"job"}),

		RegionsWarmedTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_regions_warmed_total",
			Help: "Regions refreshed by the warmer by outcome (ok, partial, failed)",
		}, []string{"outcome"}),

		DigestMessagesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_digest_messages_total",
			Help: "Digest messages by outcome (sent, skipped, failed)",
		}, []string{"outcome"}),
	}
}

// RecordJob records one finished job run.
func (m *WorkerMetrics) RecordJob(job string, d time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "failure"
	}
	m.JobRunsTotal.WithLabelValues(job, status).Inc()
	m.JobDurationSeconds.WithLabelValues(job).Observe(d.Seconds())
	if err == nil {
		m.JobLastSuccess.WithLabelValues(job).SetToCurrentTime()
	}
}

// RecordWarm adds one warm run's per-region outcomes.
func (m *WorkerMetrics) RecordWarm(r WarmResult) {
	m.RegionsWarmedTotal.WithLabelValues("ok").Add(float64(r.Refreshed - r.Partial))
	m.RegionsWarmedTotal.WithLabelValues("partial").Add(float64(r.Partial))
	m.RegionsWarmedTotal.WithLabelValues("failed").Add(float64(r.Failed))
}

// RecordDigest adds one digest run's delivery counts.
func (m *WorkerMetrics) RecordDigest(sent, skipped, failed int) {
	m.DigestMessagesTotal.WithLabelValues("sent").Add(float64(sent))
	m.DigestMessagesTotal.WithLabelValues("skipped").Add(float64(skipped))
	m.DigestMessagesTotal.WithLabelValues("failed").Add(float64(failed))
}
