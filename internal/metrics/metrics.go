package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Registry holds the wallet collectors.
	Registry = prometheus.NewRegistry()

	polls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossapp_wallet",
			Subsystem: "poller",
			Name:      "polls_total",
			Help:      "Balance polls by status (ok, error, skipped, stale).",
		},
		[]string{"status"},
	)

	pollDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "crossapp_wallet",
			Subsystem: "poller",
			Name:      "poll_duration_seconds",
			Help:      "Duration of one native + token balance read.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 10), // 10ms to ~5s
		},
	)

	pollInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "crossapp_wallet",
			Subsystem: "poller",
			Name:      "inflight_reads",
			Help:      "Balance reads currently in flight.",
		},
	)

	calculations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossapp_wallet",
			Subsystem: "transfer",
			Name:      "max_sendable_total",
			Help:      "Max-sendable calculations by outcome.",
		},
		[]string{"outcome"},
	)

	submissions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "crossapp_wallet",
			Subsystem: "transfer",
			Name:      "submissions_total",
			Help:      "Transfer submissions by kind (native, token) and status.",
		},
		[]string{"kind", "status"},
	)
)

func init() {
	Registry.MustRegister(polls, pollDuration, pollInFlight, calculations, submissions)
}

// Handler serves the wallet registry.
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}

// RecordPoll counts one poll outcome. Zero seconds skips the histogram.
func RecordPoll(status string, seconds float64) {
	polls.WithLabelValues(status).Inc()
	if seconds > 0 {
		pollDuration.Observe(seconds)
	}
}

// PollStarted and PollFinished track reads in flight.
func PollStarted()  { pollInFlight.Inc() }
func PollFinished() { pollInFlight.Dec() }

// RecordCalculation counts one max-sendable outcome.
func RecordCalculation(outcome string) {
	calculations.WithLabelValues(outcome).Inc()
}

// RecordSubmission counts one submission.
func RecordSubmission(kind, status string) {
	submissions.WithLabelValues(kind, status).Inc()
}
