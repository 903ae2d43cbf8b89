package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	votesCastTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "voting_votes_cast_total",
		Help: "Ballot casting attempts by category and outcome",
	}, []string{"category", "status"})

	recomputeTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "voting_summary_recompute_total",
		Help: "Summary rebuilds processed",
	})

	recomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "voting_summary_recompute_duration_seconds",
		Help:    "Time spent rebuilding an event's summaries",
		Buckets: prometheus.DefBuckets,
	})
)

func ObserveVoteCast(category, status string) {
	votesCastTotal.WithLabelValues(category, status).Inc()
}

func IncRecompute() {
	recomputeTotal.Inc()
}

func ObserveRecomputeDuration(seconds float64) {
	recomputeDuration.Observe(seconds)
}
