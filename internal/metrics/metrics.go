package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// turnsTotal counts inbound events by resolved outcome.
	// Labels: outcome (IGNORED, SUPPRESSED, HANDOFF_PASSTHROUGH, NOT_FOUND, PRESENTED, SELECTION_RESULT, ERROR)
	turnsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "conversation",
		Name:      "turns_total",
		Help:      "Inbound events by resolved outcome",
	}, []string{"outcome"})

	// relevanceTotal counts relevance gate verdicts.
	// Labels: verdict (relevant, irrelevant, fail_open)
	relevanceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "relevance",
		Name:      "assessments_total",
		Help:      "Relevance gate verdicts",
	}, []string{"verdict"})

	// rankingSkippedTotal counts corpus comparisons excluded from ranking.
	// Labels: reason (dimension_mismatch, zero_vector)
	rankingSkippedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "similarity",
		Name:      "skipped_total",
		Help:      "Corpus comparisons skipped during ranking",
	}, []string{"reason"})

	// deliveriesTotal counts outbound delivery attempts.
	// Labels: path (reply, push), status (ok, failed)
	deliveriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "intake",
		Subsystem: "delivery",
		Name:      "attempts_total",
		Help:      "Outbound delivery attempts by path and status",
	}, []string{"path", "status"})
)

// RecordTurn records the outcome of one inbound event.
func RecordTurn(outcome string) {
	turnsTotal.WithLabelValues(outcome).Inc()
}

// RecordRelevance records a relevance gate verdict.
func RecordRelevance(verdict string) {
	relevanceTotal.WithLabelValues(verdict).Inc()
}

// RecordRankingSkip records one excluded corpus comparison.
func RecordRankingSkip(reason string) {
	rankingSkippedTotal.WithLabelValues(reason).Inc()
}

// RecordDelivery records one delivery attempt.
func RecordDelivery(path string, ok bool) {
	status := "ok"
	if !ok {
		status = "failed"
	}
	deliveriesTotal.WithLabelValues(path, status).Inc()
}
