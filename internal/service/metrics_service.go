package service

import (
	"net/http"
	"runtime"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/student-planner-api/internal/models"
)

// Widget refresh outcomes reported by RecordWidgetRefresh.
const (
	WidgetRefreshOK     = "ok"
	WidgetRefreshFailed = "failed"
)

// MetricsService wraps the Prometheus registry and keeps running totals for snapshots.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheLookups    *prometheus.CounterVec
	agendaBuild     prometheus.Observer
	skippedMeetings *prometheus.CounterVec
	widgetRefresh   *prometheus.CounterVec

	cacheHitCount        uint64
	cacheMissCount       uint64
	requestCount         uint64
	requestDurationTotal uint64
	agendaBuildCount     uint64
	agendaBuildTotal     uint64
	skippedCount         uint64
	widgetOKCount        uint64
	widgetFailedCount    uint64
}

// NewMetricsService registers the planner collectors on a private registry.
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

	cacheLatency := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_latency_seconds",
		Help:    "Latency for cache lookups",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache writes",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheLookups := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "cache_lookups_total",
		Help: "Cache lookups by result",
	}, []string{"result"})

	agendaBuild := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "agenda_build_seconds",
		Help:    "Time spent expanding subjects into a day agenda",
		Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
	})

	skippedMeetings := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "agenda_skipped_meetings_total",
		Help: "Meetings left out of an agenda because their times were unusable",
	}, []string{"kind"})

	widgetRefresh := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "widget_refresh_total",
		Help: "Widget snapshot refreshes by result",
	}, []string{"result"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheLookups,
		agendaBuild, skippedMeetings, widgetRefresh, goroutines)

	return &MetricsService{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		cacheLatency:    cacheLatency,
		cacheWrite:      cacheWrite,
		cacheHitRatio:   cacheHitRatio,
		cacheLookups:    cacheLookups,
		agendaBuild:     agendaBuild,
		skippedMeetings: skippedMeetings,
		widgetRefresh:   widgetRefresh,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *MetricsService) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler exposes the Prometheus HTTP handler.
func (m *MetricsService) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := strconv.Itoa(status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
	atomic.AddUint64(&m.requestCount, 1)
	atomic.AddUint64(&m.requestDurationTotal, uint64(duration.Nanoseconds()))
}

// RecordCacheOperation records a cache lookup and updates the hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheLatency.Observe(duration.Seconds())
	if hit {
		m.cacheLookups.WithLabelValues("hit").Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheLookups.WithLabelValues("miss").Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	total := hits + atomic.LoadUint64(&m.cacheMissCount)
	m.cacheHitRatio.Set(float64(hits) / float64(total))
}

// ObserveCacheWrite tracks the duration of cache writes.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveAgendaBuild records one agenda expansion.
func (m *MetricsService) ObserveAgendaBuild(duration time.Duration) {
	if m == nil {
		return
	}
	m.agendaBuild.Observe(duration.Seconds())
	atomic.AddUint64(&m.agendaBuildCount, 1)
	atomic.AddUint64(&m.agendaBuildTotal, uint64(duration.Nanoseconds()))
}

// RecordSkippedMeeting counts a meeting dropped from an agenda.
func (m *MetricsService) RecordSkippedMeeting(kind models.MeetingKind) {
	if m == nil {
		return
	}
	m.skippedMeetings.WithLabelValues(string(kind)).Inc()
	atomic.AddUint64(&m.skippedCount, 1)
}

// RecordWidgetRefresh counts one snapshot refresh outcome.
func (m *MetricsService) RecordWidgetRefresh(result string) {
	if m == nil {
		return
	}
	m.widgetRefresh.WithLabelValues(result).Inc()
	if result == WidgetRefreshOK {
		atomic.AddUint64(&m.widgetOKCount, 1)
	} else {
		atomic.AddUint64(&m.widgetFailedCount, 1)
	}
}

// Snapshot returns aggregated metrics for the JSON metrics endpoint.
func (m *MetricsService) Snapshot() models.SystemMetrics {
	if m == nil {
		return models.SystemMetrics{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	requests := atomic.LoadUint64(&m.requestCount)
	builds := atomic.LoadUint64(&m.agendaBuildCount)

	var cacheRatio float64
	if hits+misses > 0 {
		cacheRatio = float64(hits) / float64(hits+misses)
	}

	return models.SystemMetrics{
		CacheHitRatio:            cacheRatio,
		CacheHits:                hits,
		CacheMisses:              misses,
		RequestsTotal:            requests,
		AverageRequestDurationMs: averageMs(atomic.LoadUint64(&m.requestDurationTotal), requests),
		AgendaBuilds:             builds,
		AverageAgendaBuildMs:     averageMs(atomic.LoadUint64(&m.agendaBuildTotal), builds),
		SkippedMeetings:          atomic.LoadUint64(&m.skippedCount),
		WidgetRefreshes:          atomic.LoadUint64(&m.widgetOKCount),
		WidgetRefreshFailures:    atomic.LoadUint64(&m.widgetFailedCount),
		Goroutines:               runtime.NumGoroutine(),
		GeneratedAt:              time.Now().UTC(),
	}
}

func averageMs(totalNanos, count uint64) float64 {
	if count == 0 {
		return 0
	}
	return float64(totalNanos) / float64(count) / float64(time.Millisecond)
}
