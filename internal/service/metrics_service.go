package service

import (
	"net/http"
	"runtime"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Crawl outcomes reported by ObserveCrawl.
const (
	CrawlQueued    = "queued"
	CrawlSucceeded = "succeeded"
	CrawlFailed    = "failed"
)

// MetricsService encapsulates the Prometheus instrumentation of the dev server.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLookups    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	crawlJobs       *prometheus.CounterVec
	crawlDuration   prometheus.Observer
}

// NewMetricsService registers the collectors on a private registry.
func NewMetricsService() *MetricsService {
	registry := prometheus.NewRegistry()

	requestDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "Duration of HTTP requests in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	requestTotal := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "results_cache_lookups_total",
		Help: "Results cache lookups by outcome",
	}, []string{"outcome"})

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "results_cache_latency_seconds",
		Help:    "Latency for results cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "results_cache_write_seconds",
		Help:    "Latency for results cache writes",
		Buckets: prometheus.DefBuckets,
	})

	crawlJobs := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "crawl_jobs_total",
		Help: "Crawl jobs by outcome",
	}, []string{"outcome"})

	crawlDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "crawl_job_duration_seconds",
		Help:    "Time spent running a crawl job",
		Buckets: prometheus.DefBuckets,
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLookups, cacheLatency, cacheWrite, crawlJobs, crawlDuration, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLookups:    cacheLookups,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		crawlJobs:       crawlJobs,
		crawlDuration:   crawlDuration,
	}
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "metrics disabled", http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Registry returns the registry backing Handler.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordCacheLookup records a results cache hit or miss.
func (m *MetricsService) RecordCacheLookup(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheLookups.WithLabelValues(outcome).Inc()
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveCrawl counts a crawl job transition. duration is ignored for CrawlQueued.
func (m *MetricsService) ObserveCrawl(outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.crawlJobs.WithLabelValues(outcome).Inc()
	if outcome != CrawlQueued {
		m.crawlDuration.Observe(duration.Seconds())
	}
}
