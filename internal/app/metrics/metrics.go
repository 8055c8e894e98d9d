// Package metrics exposes the service's Prometheus collectors.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the application-specific Prometheus collectors.
	Registry = prometheus.NewRegistry()

	queuePolls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "application_service",
			Subsystem: "queue",
			Name:      "polls_total",
			Help:      "Total number of queue receive attempts.",
		},
		[]string{"queue", "outcome"},
	)

	messagesDispatched = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "application_service",
			Subsystem: "notifications",
			Name:      "dispatches_total",
			Help:      "Total number of dispatched notification messages.",
		},
		[]string{"queue", "outcome"},
	)

	dispatchDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "application_service",
			Subsystem: "notifications",
			Name:      "dispatch_duration_seconds",
			Help:      "Duration of notification handler invocations.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"queue"},
	)

	gradingResults = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "application_service",
			Subsystem: "grading",
			Name:      "results_total",
			Help:      "Total number of processed per-application grading results.",
		},
		[]string{"outcome"},
	)

	batchesSent = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "application_service",
			Subsystem: "grading",
			Name:      "batches_sent_total",
			Help:      "Total number of batches sent to the grading queue.",
		},
	)
)

func init() {
	Registry.MustRegister(
		queuePolls,
		messagesDispatched,
		dispatchDuration,
		gradingResults,
		batchesSent,
		prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}),
		prometheus.NewGoCollector(),
	)
}

// Handler returns an HTTP handler exposing the registered Prometheus metrics.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordPoll records the outcome of a single queue receive attempt.
func RecordPoll(queue string, received bool, err error) {
	outcome := "empty"
	switch {
	case err != nil:
		outcome = "error"
	case received:
		outcome = "received"
	}
	queuePolls.WithLabelValues(queue, outcome).Inc()
}

// RecordDispatch records a dispatched message and its handler duration.
func RecordDispatch(queue string, duration time.Duration, success bool) {
	if duration <= 0 {
		duration = time.Millisecond
	}
	outcome := "error"
	if success {
		outcome = "ok"
	}
	messagesDispatched.WithLabelValues(queue, outcome).Inc()
	dispatchDuration.WithLabelValues(queue).Observe(duration.Seconds())
}

// RecordGradingResult records one processed per-application grading entry.
func RecordGradingResult(outcome string, success bool) {
	if !success {
		outcome = "error"
	}
	gradingResults.WithLabelValues(outcome).Inc()
}

// RecordBatchSent counts an outbound batch handed to the grading queue.
func RecordBatchSent() {
	batchesSent.Inc()
}
