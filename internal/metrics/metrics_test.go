package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecord(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.RecordFetch(time.Second, nil)
	m.RecordFetch(time.Second, errors.New("x"))
	m.RecordFetch(time.Second, nil)
	m.RecordRetry()
	m.RecordCacheLookup(true)
	m.RecordCacheLookup(false)
	m.RecordInvalidation()
	m.RecordRun("network", 97, 3*time.Second, nil)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.HistoryRequestsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryRequestsTotal.WithLabelValues("error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HistoryRetriesTotal))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheLookupsTotal.WithLabelValues("hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheInvalidationsTotal))
	assert.Equal(t, 97.0, testutil.ToFloat64(m.RankedStocks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("ok")))
}

func TestFailedRunKeepsGauge(t *testing.T) {
	m := New(prometheus.NewRegistry())
	m.RecordRun("cache", 10, time.Second, nil)
	m.RecordRun("network", 0, time.Second, errors.New("down"))

	assert.Equal(t, 10.0, testutil.ToFloat64(m.RankedStocks))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RunsTotal.WithLabelValues("error")))
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordFetch(time.Second, nil)
		m.RecordRetry()
		m.RecordCacheLookup(true)
		m.RecordInvalidation()
		m.RecordRun("cache", 1, time.Second, nil)
	})
}
