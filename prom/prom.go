// Package prom implements qbucket.MetricsCollector with Prometheus metrics.
//
//	reg := prometheus.NewRegistry()
//	metrics := prom.New(reg)
//	ix, _ := qbucket.TrainFromRecords(ctx, records, cat, num, qbucket.WithMetricsCollector(metrics))
//	http.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
package prom

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/hupe1980/qbucket"
)

// Namespace prefixes every metric name.
const Namespace = "qbucket"

// Collector records build, query and persistence metrics.
type Collector struct {
	buildsTotal     *prometheus.CounterVec
	buildDuration   prometheus.Histogram
	indexEntries    prometheus.Gauge
	queriesTotal    *prometheus.CounterVec
	queryDuration   *prometheus.HistogramVec
	savesTotal      *prometheus.CounterVec
	savedBytes      prometheus.Counter
	loadsTotal      *prometheus.CounterVec
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

var _ qbucket.MetricsCollector = (*Collector)(nil)

// New registers the metrics with reg. A nil reg uses prometheus.DefaultRegisterer.
func New(reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)

	return &Collector{
		buildsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "builds_total",
			Help:      "Total number of index builds",
		}, []string{"status"}),
		buildDuration: f.NewHistogram(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "build_duration_seconds",
			Help:      "Index build latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}),
		indexEntries: f.NewGauge(prometheus.GaugeOpts{
			Namespace: Namespace,
			Name:      "index_entries",
			Help:      "Number of stored quantile lists in the last built index",
		}),
		queriesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "queries_total",
			Help:      "Total number of boundary queries",
		}, []string{"attribute", "status"}),
		queryDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "query_duration_seconds",
			Help:      "Boundary query latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(1e-6, 4, 10),
		}, []string{"attribute"}),
		savesTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "saves_total",
			Help:      "Total number of catalog saves",
		}, []string{"status"}),
		savedBytes: f.NewCounter(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "saved_bytes_total",
			Help:      "Bytes of index blobs written",
		}),
		loadsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "loads_total",
			Help:      "Total number of catalog loads",
		}, []string{"status"}),
		requestsTotal: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		requestDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

// RecordBuild implements qbucket.MetricsCollector.
func (c *Collector) RecordBuild(entries int, duration time.Duration, err error) {
	c.buildsTotal.WithLabelValues(status(err)).Inc()
	if err != nil {
		return
	}
	c.buildDuration.Observe(duration.Seconds())
	c.indexEntries.Set(float64(entries))
}

// RecordQuery implements qbucket.MetricsCollector.
func (c *Collector) RecordQuery(attribute string, duration time.Duration, err error) {
	c.queriesTotal.WithLabelValues(attribute, status(err)).Inc()
	c.queryDuration.WithLabelValues(attribute).Observe(duration.Seconds())
}

// RecordSave implements qbucket.MetricsCollector.
func (c *Collector) RecordSave(size int64, _ time.Duration, err error) {
	c.savesTotal.WithLabelValues(status(err)).Inc()
	if err == nil {
		c.savedBytes.Add(float64(size))
	}
}

// RecordLoad implements qbucket.MetricsCollector.
func (c *Collector) RecordLoad(_ time.Duration, err error) {
	c.loadsTotal.WithLabelValues(status(err)).Inc()
}

// ObserveRequest records one served HTTP request. route is the matched route
// template, not the raw path.
func (c *Collector) ObserveRequest(method, route string, code int, duration time.Duration) {
	c.requestsTotal.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	c.requestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
