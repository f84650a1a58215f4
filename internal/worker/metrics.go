package worker

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the job worker
type Metrics struct {
	JobsClaimed  prometheus.Counter
	JobsDone     *prometheus.CounterVec
	JobsFailed   prometheus.Counter
	JobsRequeued prometheus.Counter
	JobDuration  prometheus.Histogram
	StaleSwept   prometheus.Counter
}

// NewMetrics creates and registers all Prometheus metrics
func NewMetrics() *Metrics {
	return &Metrics{
		JobsClaimed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "judgeflow_worker_jobs_claimed_total",
				Help: "Total number of jobs atomically claimed by this worker",
			},
		),

		JobsDone: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "judgeflow_worker_jobs_done_total",
				Help: "Total number of jobs finished successfully",
			},
			[]string{"outcome"}, // outcome: evaluated, noop
		),

		JobsFailed: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "judgeflow_worker_jobs_failed_total",
				Help: "Total number of jobs marked failed after exhausting attempts",
			},
		),

		JobsRequeued: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "judgeflow_worker_jobs_requeued_total",
				Help: "Total number of jobs returned to pending after a transient failure",
			},
		),

		JobDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "judgeflow_worker_job_duration_seconds",
				Help:    "Wall-clock duration of one job including local retries",
				Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
			},
		),

		StaleSwept: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "judgeflow_worker_stale_requeued_total",
				Help: "Total number of orphaned running jobs swept back to pending",
			},
		),
	}
}
