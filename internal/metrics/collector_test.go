package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecordCount(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg)

	c.RecordCount(6, 17, time.Millisecond, nil)
	c.RecordCount(6, 17, time.Millisecond, nil)
	c.RecordCount(0, 0, 0, errors.New("worker fault"))

	assert.Equal(t, 2.0, testutil.ToFloat64(c.countsTotal.WithLabelValues("ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.countsTotal.WithLabelValues("failed")))

	families, err := reg.Gather()
	require.NoError(t, err)
	var workerSamples uint64
	for _, mf := range families {
		if mf.GetName() == "test_occurrence_count_workers" {
			workerSamples = mf.GetMetric()[0].GetHistogram().GetSampleCount()
		}
	}
	assert.Equal(t, uint64(2), workerSamples, "failed counts are not observed")
}

func TestCollectorCacheAndJobs(t *testing.T) {
	c := NewCollector("test", prometheus.NewRegistry())

	c.RecordCacheLookup(true)
	c.RecordCacheLookup(false)
	c.RecordCacheLookup(false)
	c.RecordJob("enqueued")
	c.RecordWebhook("delivered")

	assert.Equal(t, 1.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("hit")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.cacheLookups.WithLabelValues("miss")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.jobsTotal.WithLabelValues("enqueued")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.webhooksTotal.WithLabelValues("delivered")))
}

func TestCollectorHTTP(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector("test", reg)

	c.RecordHTTPRequest("POST", "/api/v1/occurrences", 200, 10*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.httpRequests.WithLabelValues("POST", "/api/v1/occurrences", "200")))
	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordCount(1, 1, time.Second, nil)
		c.RecordCacheLookup(true)
		c.RecordJob("failed")
		c.RecordWebhook("dropped")
		c.RecordHTTPRequest("GET", "/", 200, time.Second)
	})
}
