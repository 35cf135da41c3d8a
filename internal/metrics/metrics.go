// Package metrics exposes Prometheus collectors for receipt intake and
// Telegram handlers, plus the ops HTTP server that serves them.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Receipt outcomes used as the "outcome" label.
const (
	OutcomeIssued     = "issued"
	OutcomeZero       = "zero"
	OutcomeNotPDF     = "not_pdf"
	OutcomeUnreadable = "unreadable"
	OutcomeIncomplete = "incomplete"
	OutcomeDuplicate  = "duplicate"
	OutcomeTaken      = "taken"
	OutcomeRejected   = "rejected"
	OutcomeError      = "error"
)

var (
	receipts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "ticketbot",
			Name:      "receipts_total",
			Help:      "Receipt submissions by outcome.",
		},
		[]string{"outcome"},
	)

	ticketsIssued = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "ticketbot",
			Name:      "tickets_issued_total",
			Help:      "Raffle tickets issued.",
		},
	)

	// Handler names come from the command registry, so cardinality is bounded.
	handlerDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "ticketbot",
			Name:      "handler_duration_seconds",
			Help:      "Telegram handler latency.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"handler", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(receipts, ticketsIssued, handlerDuration)
}

// ObserveReceipt counts one submission; tickets is added to the issued total.
func ObserveReceipt(outcome string, tickets int) {
	receipts.WithLabelValues(outcome).Inc()
	if tickets > 0 {
		ticketsIssued.Add(float64(tickets))
	}
}

// ObserveHandler records one handler run. Its signature matches
// router.Observer.
func ObserveHandler(handler, outcome string, took time.Duration) {
	handlerDuration.WithLabelValues(handler, outcome).Observe(took.Seconds())
}
