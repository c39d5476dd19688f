package prom

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := make(map[string]float64)
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			name := mf.GetName()
			for _, lp := range m.GetLabel() {
				name += "," + lp.GetName() + "=" + lp.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[name] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[name] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[name] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := New(reg)

	c.RecordBuild(42, time.Second, nil)
	c.RecordBuild(0, time.Second, errors.New("boom"))
	c.RecordQuery("price", time.Microsecond, nil)
	c.RecordQuery("price", time.Microsecond, errors.New("bad bucket"))
	c.RecordSave(1024, time.Millisecond, nil)
	c.RecordLoad(time.Millisecond, nil)
	c.ObserveRequest("GET", "/v1/boundary", 200, time.Millisecond)

	m := gather(t, reg)
	assert.Equal(t, 1.0, m["qbucket_builds_total,status=ok"])
	assert.Equal(t, 1.0, m["qbucket_builds_total,status=error"])
	assert.Equal(t, 42.0, m["qbucket_index_entries"])
	assert.Equal(t, 1.0, m["qbucket_build_duration_seconds"])
	assert.Equal(t, 1.0, m["qbucket_queries_total,attribute=price,status=ok"])
	assert.Equal(t, 1.0, m["qbucket_queries_total,attribute=price,status=error"])
	assert.Equal(t, 2.0, m["qbucket_query_duration_seconds,attribute=price"])
	assert.Equal(t, 1024.0, m["qbucket_saved_bytes_total"])
	assert.Equal(t, 1.0, m["qbucket_loads_total,status=ok"])
	assert.Equal(t, 1.0, m["qbucket_http_requests_total,method=GET,route=/v1/boundary,status=200"])
}

func TestNew_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	New(reg)
	assert.Panics(t, func() { New(reg) })
}
