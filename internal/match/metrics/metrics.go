package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for the match module.
// Tracks match outcomes by grade letter and the end-to-end match duration.
type Metrics struct {
	Matches       *prometheus.CounterVec
	NoMatch       prometheus.Counter
	SearchErrors  prometheus.Counter
	MatchDuration prometheus.Histogram
}

// New creates a new Metrics instance with all match module metrics registered.
func New() *Metrics {
	return &Metrics{
		Matches: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "personmatch_matches_total",
			Help: "Total number of completed matches by grade letter",
		}, []string{"grade"}),
		NoMatch: promauto.NewCounter(prometheus.CounterOpts{
			Name: "personmatch_no_match_total",
			Help: "Total number of matches ending without any matched keys or hits",
		}),
		SearchErrors: promauto.NewCounter(prometheus.CounterOpts{
			Name: "personmatch_search_errors_total",
			Help: "Total number of search backend failures",
		}),
		MatchDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "personmatch_match_duration_seconds",
			Help:    "Duration of full match runs including the search round trip",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		}),
	}
}

// IncrementMatch records a completed match under its grade letter.
func (m *Metrics) IncrementMatch(grade string) {
	letter := "unknown"
	if grade != "" {
		letter = grade[:1]
	}
	m.Matches.WithLabelValues(letter).Inc()
}

// IncrementNoMatch records a match that found nobody.
func (m *Metrics) IncrementNoMatch() {
	m.NoMatch.Inc()
}

// IncrementSearchError records a search backend failure.
func (m *Metrics) IncrementSearchError() {
	m.SearchErrors.Inc()
}

// ObserveMatch records the duration of a match run.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveMatch(start time.Time) {
	m.MatchDuration.Observe(time.Since(start).Seconds())
}
