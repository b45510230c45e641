package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors the services report to. A nil *Metrics is
// valid and records nothing.
type Metrics struct {
	RoundsGenerated *prometheus.CounterVec
	MatchesDecided  *prometheus.CounterVec
	DomainErrors    *prometheus.CounterVec
	RatingDelta     prometheus.Histogram
	Snapshots       prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		RoundsGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuemaster",
			Name:      "rounds_generated_total",
			Help:      "Bracket rounds generated, by round.",
		}, []string{"round"}),
		MatchesDecided: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuemaster",
			Name:      "matches_decided_total",
			Help:      "Matches with a recorded winner, by round.",
		}, []string{"round"}),
		DomainErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "cuemaster",
			Name:      "domain_errors_total",
			Help:      "Domain errors returned to callers, by code.",
		}, []string{"code"}),
		RatingDelta: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "cuemaster",
			Name:      "rating_delta_points",
			Help:      "Absolute rating change applied per player per match.",
			Buckets:   []float64{1, 5, 10, 15, 20, 30, 45, 60, 80},
		}),
		Snapshots: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "cuemaster",
			Name:      "leaderboard_snapshots_total",
			Help:      "Leaderboard snapshots persisted.",
		}),
	}
	reg.MustRegister(m.RoundsGenerated, m.MatchesDecided, m.DomainErrors, m.RatingDelta, m.Snapshots)
	return m
}

func (m *Metrics) roundGenerated(round string) {
	if m == nil {
		return
	}
	m.RoundsGenerated.WithLabelValues(round).Inc()
}

func (m *Metrics) matchDecided(change RatingChange) {
	if m == nil {
		return
	}
	m.MatchesDecided.WithLabelValues(change.Round.String()).Inc()
	for _, d := range []int{change.Player1.Delta(), change.Player2.Delta()} {
		if d < 0 {
			d = -d
		}
		m.RatingDelta.Observe(float64(d))
	}
}

func (m *Metrics) snapshotTaken() {
	if m == nil {
		return
	}
	m.Snapshots.Inc()
}

// ObserveError counts a domain error by its code.
func (m *Metrics) ObserveError(err error) {
	if m == nil || err == nil {
		return
	}
	m.DomainErrors.WithLabelValues(CodeOf(err)).Inc()
}
