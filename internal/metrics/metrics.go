package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	UsersAssessed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credflow_users_assessed_total",
		Help: "Total number of users run through the full assessment pipeline.",
	})

	Decisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credflow_decisions_total",
		Help: "Total decisions issued, labelled by outcome and gate.",
	}, []string{"decision", "gate"})

	ParseFailures = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credflow_parse_failures_total",
		Help: "Total ingestion batches aborted by a malformed record.",
	})

	JobsEnqueued = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credflow_jobs_enqueued_total",
		Help: "Total per-user assessment units placed on the work queue.",
	})

	JobsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "credflow_jobs_dropped_total",
		Help: "Total per-user assessment units rejected due to a full queue.",
	})

	ScoreDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "credflow_score_duration_seconds",
		Help:    "Risk scorer call latency in seconds.",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .05, .1, .5, 1},
	})

	AssessmentDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "credflow_assessment_duration_ms",
		Help:    "End-to-end batch assessment latency in milliseconds.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500, 1000, 2500, 10000},
	})

	QueueUtilization = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "credflow_queue_utilization_ratio",
		Help: "Current work queue utilization (0–1).",
	})

	ModelReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credflow_model_reloads_total",
		Help: "Scoring artifact reload attempts, labelled by status.",
	}, []string{"status"})
)
