// Package metrics exposes Prometheus instrumentation for the headlines service.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "headlines"

// Ingest outcomes used as the "outcome" label on candidate counters.
const (
	OutcomeCreated  = "created"
	OutcomeExisting = "existing"
	OutcomeFailed   = "failed"
)

// Metrics holds all headlines collectors. Each instance owns its registry so
// tests can build as many as they like.
type Metrics struct {
	registry *prometheus.Registry

	// Ingestion
	IngestRuns      *prometheus.CounterVec
	IngestDuration  prometheus.Histogram
	CandidatesTotal *prometheus.CounterVec
	ArticlesStored  prometheus.Gauge
	FetchBytes      prometheus.Histogram
	NotesAttached   prometheus.Counter

	// HTTP
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{registry: reg}
	initIngestMetrics(m, promauto.With(reg))
	initHTTPMetrics(m, promauto.With(reg))
	return m
}

func initIngestMetrics(m *Metrics, f promauto.Factory) {
	m.IngestRuns = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_runs_total",
		Help:      "Ingestion runs by result (ok, fetch_failed, store_failed)",
	}, []string{"result"})

	m.IngestDuration = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "ingest_duration_seconds",
		Help:      "Wall time of a full ingestion run",
		Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20, 30},
	})

	m.CandidatesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ingest_candidates_total",
		Help:      "Extracted candidates by upsert outcome",
	}, []string{"outcome"})

	m.ArticlesStored = f.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "articles_stored",
		Help:      "Articles in the corpus after the last ingestion",
	})

	m.FetchBytes = f.NewHistogram(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "fetch_body_bytes",
		Help:      "Size of fetched source pages",
		Buckets:   prometheus.ExponentialBuckets(16*1024, 2, 10),
	})

	m.NotesAttached = f.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notes_attached_total",
		Help:      "Notes successfully attached to articles",
	})
}

func initHTTPMetrics(m *Metrics, f promauto.Factory) {
	m.RequestsTotal = f.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	m.RequestDuration = f.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency by method and route",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the exposition format for this registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordIngest records one finished run. A nil receiver is a no-op.
func (m *Metrics) RecordIngest(result string, duration time.Duration, created, existing, failed, stored int) {
	if m == nil {
		return
	}
	m.IngestRuns.WithLabelValues(result).Inc()
	m.IngestDuration.Observe(duration.Seconds())
	m.CandidatesTotal.WithLabelValues(OutcomeCreated).Add(float64(created))
	m.CandidatesTotal.WithLabelValues(OutcomeExisting).Add(float64(existing))
	m.CandidatesTotal.WithLabelValues(OutcomeFailed).Add(float64(failed))
	if result == ResultOK {
		m.ArticlesStored.Set(float64(stored))
	}
}

// RecordIngestFailure records a run that ended before any upsert happened.
func (m *Metrics) RecordIngestFailure(result string, duration time.Duration) {
	if m == nil {
		return
	}
	m.IngestRuns.WithLabelValues(result).Inc()
	m.IngestDuration.Observe(duration.Seconds())
}

// ObserveFetch records the size of a fetched page.
func (m *Metrics) ObserveFetch(n int) {
	if m == nil {
		return
	}
	m.FetchBytes.Observe(float64(n))
}

// NoteAttached counts a successful attach.
func (m *Metrics) NoteAttached() {
	if m == nil {
		return
	}
	m.NotesAttached.Inc()
}

// Run results.
const (
	ResultOK          = "ok"
	ResultFetchFailed = "fetch_failed"
	ResultStoreFailed = "store_failed"
)

// Middleware records request counts and latency keyed by the matched route
// template, so /articles/:id stays one series.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		method := c.Request.Method
		m.RequestsTotal.WithLabelValues(method, route, strconv.Itoa(c.Writer.Status())).Inc()
		m.RequestDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
	}
}
