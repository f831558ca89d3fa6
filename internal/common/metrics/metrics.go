// internal/common/metrics/metrics.go
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	WorkerJobsActive = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "worker_jobs_active",
			Help: "Number of active jobs per worker",
		},
		[]string{"task_type"},
	)

	SolverDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "basket_solver_duration_seconds",
			Help:    "Wall time of a basket optimization",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10},
		},
		[]string{"mode", "outcome"},
	)

	SolverNodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_solver_nodes_total",
			Help: "Search nodes explored by the basket solver",
		},
		[]string{"mode"},
	)

	ItemsDropped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "basket_items_dropped_total",
			Help: "Catalog items left out of the solver pool",
		},
		[]string{"reason"},
	)
)

// JobTimer tracks one job from activation to completion.
type JobTimer struct {
	taskType string
	start    time.Time
}

// StartJob marks a job active and starts its timer.
func StartJob(taskType string) *JobTimer {
	WorkerJobsActive.WithLabelValues(taskType).Inc()
	return &JobTimer{taskType: taskType, start: time.Now()}
}

// Done records the outcome. An empty errorCode counts as completed.
func (t *JobTimer) Done(errorCode string) time.Duration {
	d := time.Since(t.start)
	WorkerJobsActive.WithLabelValues(t.taskType).Dec()
	WorkerJobDuration.WithLabelValues(t.taskType).Observe(d.Seconds())
	if errorCode == "" {
		WorkerJobsCompleted.WithLabelValues(t.taskType).Inc()
	} else {
		WorkerJobsFailed.WithLabelValues(t.taskType, errorCode).Inc()
	}
	return d
}

// ObserveSolve records one optimizer run.
func ObserveSolve(mode, outcome string, elapsed time.Duration, nodes int64) {
	SolverDuration.WithLabelValues(mode, outcome).Observe(elapsed.Seconds())
	if nodes > 0 {
		SolverNodes.WithLabelValues(mode).Add(float64(nodes))
	}
}

// CountDropped records dropped items by reason.
func CountDropped(reasons []string) {
	for _, r := range reasons {
		ItemsDropped.WithLabelValues(r).Inc()
	}
}
