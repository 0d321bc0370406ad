package metrics

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/kirillkom/hybrid-search/internal/core/domain"
)

// SearchMetrics records query and index lifecycle observations. It
// implements ports.SearchObserver.
type SearchMetrics struct {
	service string

	requestsTotal      *prometheus.CounterVec
	noResultsTotal     *prometheus.CounterVec
	resultCount        *prometheus.HistogramVec
	duration           *prometheus.HistogramVec
	retrievalFailures  *prometheus.CounterVec
	indexBuildsTotal   *prometheus.CounterVec
	indexBuildDuration *prometheus.HistogramVec
}

func NewSearchMetrics(service string, registerer prometheus.Registerer) *SearchMetrics {
	requestsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "requests_total",
			Help:      "Total served searches by mode and query strategy.",
		},
		[]string{"service", "mode", "strategy"},
	)
	noResultsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "no_results_total",
			Help:      "Total searches that returned no results.",
		},
		[]string{"service", "mode"},
	)
	resultCount := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "results",
			Help:      "Distribution of results returned per search.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10, 20, 50},
		},
		[]string{"service", "mode"},
	)
	duration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "search",
			Name:      "duration_seconds",
			Help:      "Search execution duration in seconds.",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"service", "mode"},
	)
	retrievalFailures := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "retrieval",
			Name:      "failures_total",
			Help:      "Per-query retrieval failures recovered inside a retriever.",
		},
		[]string{"service", "retriever"},
	)
	indexBuildsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "builds_total",
			Help:      "Index preparations by retriever and outcome (loaded, built, failed).",
		},
		[]string{"service", "retriever", "outcome"},
	)
	indexBuildDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "index",
			Name:      "build_duration_seconds",
			Help:      "Index preparation duration in seconds.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 5, 15, 60, 180, 600},
		},
		[]string{"service", "retriever"},
	)

	registerer.MustRegister(
		requestsTotal,
		noResultsTotal,
		resultCount,
		duration,
		retrievalFailures,
		indexBuildsTotal,
		indexBuildDuration,
	)

	return &SearchMetrics{
		service:            service,
		requestsTotal:      requestsTotal,
		noResultsTotal:     noResultsTotal,
		resultCount:        resultCount,
		duration:           duration,
		retrievalFailures:  retrievalFailures,
		indexBuildsTotal:   indexBuildsTotal,
		indexBuildDuration: indexBuildDuration,
	}
}

func (m *SearchMetrics) ObserveSearch(mode domain.SearchMode, outcome *domain.SearchOutcome, durationSeconds float64) {
	modeLabel := string(mode)
	if modeLabel == "" {
		modeLabel = "unknown"
	}
	strategy := "unknown"
	results := 0
	noResults := true
	if outcome != nil {
		if outcome.Analysis.Strategy != "" {
			strategy = outcome.Analysis.Strategy
		}
		results = len(outcome.Results)
		noResults = outcome.NoResults
	}

	m.requestsTotal.WithLabelValues(m.service, modeLabel, strategy).Inc()
	m.resultCount.WithLabelValues(m.service, modeLabel).Observe(float64(results))
	m.duration.WithLabelValues(m.service, modeLabel).Observe(durationSeconds)
	if noResults {
		m.noResultsTotal.WithLabelValues(m.service, modeLabel).Inc()
	}
}

func (m *SearchMetrics) ObserveRetrievalFailure(strategy domain.CandidateSource) {
	m.retrievalFailures.WithLabelValues(m.service, string(strategy)).Inc()
}

func (m *SearchMetrics) ObserveIndexBuild(strategy domain.CandidateSource, outcome string, durationSeconds float64) {
	if outcome == "" {
		outcome = "unknown"
	}
	m.indexBuildsTotal.WithLabelValues(m.service, string(strategy), outcome).Inc()
	m.indexBuildDuration.WithLabelValues(m.service, string(strategy)).Observe(durationSeconds)
}
