package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics definitions
var (
	PolicyLoadsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nsguard_policy_loads_total",
		Help: "Total number of policy load attempts by result.",
	}, []string{"result"})

	PolicyState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nsguard_policy_state",
		Help: "Current policy state (0=no source, 1=config error, 2=disabled, 3=enabled).",
	})

	DocumentsAnalyzed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nsguard_documents_analyzed_total",
		Help: "Total number of source documents walked for type dependencies.",
	}, []string{"language"})

	EdgesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "nsguard_dependency_edges_total",
		Help: "Total number of type dependency edges enumerated.",
	}, []string{"language"})

	ViolationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsguard_violations_total",
		Help: "Total number of illegal dependencies reported.",
	})

	LastRunViolations = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "nsguard_last_run_violations",
		Help: "Illegal dependencies found by the most recent run.",
	})

	ValidatorCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsguard_validator_cache_hits_total",
		Help: "Dependency validation results served from cache.",
	})

	ValidatorCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsguard_validator_cache_misses_total",
		Help: "Dependency validations computed against the policy.",
	})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "nsguard_analysis_seconds",
		Help:    "Time spent on high-level analysis tasks.",
		Buckets: prometheus.DefBuckets,
	}, []string{"task"})

	WatcherEventsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "nsguard_watcher_events_total",
		Help: "Total number of file system events received by the watcher.",
	})
)
