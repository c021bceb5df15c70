// Package metrics exposes Prometheus collectors for the fetch, cache and
// analysis stages.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "stock_ranker"

// runBuckets cover a cache hit (well under a second) up to a full
// sequential download of the index.
var runBuckets = []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600}

// Metrics holds every collector. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	HistoryRequestsTotal *prometheus.CounterVec
	HistoryRetriesTotal  prometheus.Counter
	HistoryDuration      prometheus.Histogram

	CacheLookupsTotal       *prometheus.CounterVec
	CacheInvalidationsTotal prometheus.Counter

	RankedStocks prometheus.Gauge
	RunDuration  *prometheus.HistogramVec
	RunsTotal    *prometheus.CounterVec
}

// New creates and registers the collectors on reg, or on the default
// registerer when reg is nil.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)

	return &Metrics{
		HistoryRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "history_requests_total",
				Help:      "Per-ticker history fetches by outcome",
			},
			[]string{"status"},
		),
		HistoryRetriesTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "history_retries_total",
				Help:      "History requests repeated after a failure",
			},
		),
		HistoryDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "fetch",
				Name:      "history_duration_seconds",
				Help:      "Time to fetch one ticker, retries included",
				Buckets:   prometheus.DefBuckets,
			},
		),
		CacheLookupsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "lookups_total",
				Help:      "History cache lookups by result",
			},
			[]string{"result"},
		),
		CacheInvalidationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "cache",
				Name:      "invalidations_total",
				Help:      "History cache files removed on request",
			},
		),
		RankedStocks: factory.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "ranked_stocks",
				Help:      "Stocks in the most recent ranking",
			},
		),
		RunDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "run_duration_seconds",
				Help:      "Duration of a ranked analysis run",
				Buckets:   runBuckets,
			},
			[]string{"source"},
		),
		RunsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "analysis",
				Name:      "runs_total",
				Help:      "Ranked analysis runs by outcome",
			},
			[]string{"status"},
		),
	}
}

// RecordFetch records one ticker fetch.
func (m *Metrics) RecordFetch(d time.Duration, err error) {
	if m == nil {
		return
	}
	m.HistoryRequestsTotal.WithLabelValues(status(err)).Inc()
	m.HistoryDuration.Observe(d.Seconds())
}

// RecordRetry records one repeated history request.
func (m *Metrics) RecordRetry() {
	if m == nil {
		return
	}
	m.HistoryRetriesTotal.Inc()
}

// RecordCacheLookup records whether a run was served from the cache.
func (m *Metrics) RecordCacheLookup(hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookupsTotal.WithLabelValues(result).Inc()
}

// RecordInvalidation records a removed cache file.
func (m *Metrics) RecordInvalidation() {
	if m == nil {
		return
	}
	m.CacheInvalidationsTotal.Inc()
}

// RecordRun records a finished analysis run. ranked is ignored on failure.
func (m *Metrics) RecordRun(source string, ranked int, d time.Duration, err error) {
	if m == nil {
		return
	}
	m.RunsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	m.RunDuration.WithLabelValues(source).Observe(d.Seconds())
	m.RankedStocks.Set(float64(ranked))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
