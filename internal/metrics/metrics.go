// Package metrics defines the Prometheus instruments exposed on the optional
// metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	// JobsTotal counts finished job instances by terminal status.
	JobsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gridci_jobs_total", Help: "Finished job instances by status."},
		[]string{"status"},
	)
	// JobDuration observes wall-clock duration of job instances.
	JobDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{Name: "gridci_job_duration_seconds", Help: "Job instance duration in seconds.", Buckets: prometheus.ExponentialBuckets(1, 4, 8)},
	)
	// StepsTotal counts executed steps by kind and status.
	StepsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{Name: "gridci_steps_total", Help: "Executed steps by kind and status."},
		[]string{"kind", "status"},
	)
)

func init() {
	prometheus.MustRegister(JobsTotal, JobDuration, StepsTotal)
}
