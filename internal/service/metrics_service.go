package service

import (
	"fmt"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer, the cache and
// the planner engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	cacheLatency    prometheus.Observer
	cacheWrite      prometheus.Observer
	cacheHitRatio   prometheus.Gauge
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	dbQueryDuration *prometheus.HistogramVec

	generations      *prometheus.CounterVec
	generationEvents *prometheus.HistogramVec
	shifts           *prometheus.CounterVec
	lessonsMoved     *prometheus.CounterVec
	lessonsOverflow  prometheus.Counter
	saves            *prometheus.CounterVec
	plannerRequests  *prometheus.CounterVec

	cacheHitCount     uint64
	cacheMissCount    uint64
	slotConflictCount uint64
}

// PlannerStats is a point-in-time summary of planner activity.
type PlannerStats struct {
	CacheHits     uint64  `json:"cache_hits"`
	CacheMisses   uint64  `json:"cache_misses"`
	CacheHitRatio float64 `json:"cache_hit_ratio"`
	SlotConflicts uint64  `json:"slot_conflicts"`
	Goroutines    int     `json:"goroutines"`
}

// NewMetricsService registers core Prometheus collectors.
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
		Help:    "Latency for cache operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheWrite := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "cache_write_seconds",
		Help:    "Latency for cache set operations",
		Buckets: prometheus.DefBuckets,
	})

	cacheHitRatio := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cache_hit_ratio",
		Help: "Ratio of cache hits to total cache lookups",
	})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	dbQueryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "db_query_duration_seconds",
		Help:    "Duration of database queries",
		Buckets: prometheus.DefBuckets,
	}, []string{"query"})

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_generations_total",
		Help: "Schedule generation attempts by outcome",
	}, []string{"outcome"})

	generationEvents := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "planner_generated_events",
		Help:    "Events produced per successful generation by type",
		Buckets: prometheus.ExponentialBuckets(1, 4, 8),
	}, []string{"kind"})

	shifts := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_shifts_total",
		Help: "Lesson shifts applied per direction",
	}, []string{"direction"})

	lessonsMoved := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_lessons_moved_total",
		Help: "Lessons moved by shifts per direction",
	}, []string{"direction"})

	lessonsOverflow := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "planner_lessons_overflowed_total",
		Help: "Lessons pushed past the end of their schedule",
	})

	saves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_saves_total",
		Help: "Schedule persistence attempts by trigger and outcome",
	}, []string{"trigger", "outcome"})

	plannerRequests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "planner_requests_total",
		Help: "Planner requests by route and outcome",
	}, []string{"route", "outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, cacheLatency, cacheWrite, cacheHitRatio, cacheHits, cacheMisses, dbQueryDuration,
		generations, generationEvents, shifts, lessonsMoved, lessonsOverflow, saves, plannerRequests, goroutines)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:         registry,
		handler:          handler,
		requestDuration:  requestDuration,
		requestTotal:     requestTotal,
		cacheLatency:     cacheLatency,
		cacheWrite:       cacheWrite,
		cacheHitRatio:    cacheHitRatio,
		cacheHits:        cacheHits,
		cacheMisses:      cacheMisses,
		dbQueryDuration:  dbQueryDuration,
		generations:      generations,
		generationEvents: generationEvents,
		shifts:           shifts,
		lessonsMoved:     lessonsMoved,
		lessonsOverflow:  lessonsOverflow,
		saves:            saves,
		plannerRequests:  plannerRequests,
	}
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

// Registry returns the underlying registry, mainly for tests.
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
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// ObservePlannerRequest counts a schedule request by route and outcome.
func (m *MetricsService) ObservePlannerRequest(route string, status int) {
	if m == nil {
		return
	}
	outcome := PlannerOutcome(status)
	if outcome == "conflict" {
		atomic.AddUint64(&m.slotConflictCount, 1)
	}
	m.plannerRequests.WithLabelValues(route, outcome).Inc()
}

// PlannerOutcome maps a response status to the outcome label of planner_requests_total.
func PlannerOutcome(status int) string {
	switch {
	case status < http.StatusBadRequest:
		return "ok"
	case status == http.StatusConflict:
		return "conflict"
	case status == http.StatusNotFound:
		return "not_found"
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return "denied"
	case status == http.StatusUnprocessableEntity:
		return "unprocessable"
	case status < http.StatusInternalServerError:
		return "invalid"
	default:
		return "failed"
	}
}

// RecordCacheOperation records cache hit/miss metrics and updates hit ratio.
func (m *MetricsService) RecordCacheOperation(hit bool, duration time.Duration) {
	if m == nil {
		return
	}
	if m.cacheLatency != nil {
		m.cacheLatency.Observe(duration.Seconds())
	}
	if hit {
		m.cacheHits.Inc()
		atomic.AddUint64(&m.cacheHitCount, 1)
	} else {
		m.cacheMisses.Inc()
		atomic.AddUint64(&m.cacheMissCount, 1)
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	total := hits + misses
	if total > 0 {
		m.cacheHitRatio.Set(float64(hits) / float64(total))
	}
}

// ObserveCacheWrite tracks the duration for cache write operations.
func (m *MetricsService) ObserveCacheWrite(duration time.Duration) {
	if m == nil || m.cacheWrite == nil {
		return
	}
	m.cacheWrite.Observe(duration.Seconds())
}

// ObserveDBQuery records database query timing.
func (m *MetricsService) ObserveDBQuery(label string, duration time.Duration) {
	if m == nil {
		return
	}
	m.dbQueryDuration.WithLabelValues(label).Observe(duration.Seconds())
}

// RecordGeneration counts a generation attempt. Refused generations carry no events.
func (m *MetricsService) RecordGeneration(result GenerateResult) {
	if m == nil {
		return
	}
	if len(result.Issues) > 0 {
		m.generations.WithLabelValues("refused").Inc()
		return
	}
	m.generations.WithLabelValues("generated").Inc()
	m.generationEvents.WithLabelValues("lesson").Observe(float64(result.LessonsPlaced))
	m.generationEvents.WithLabelValues("error").Observe(float64(result.ErrorEvents))
}

// RecordShift counts one applied shift.
func (m *MetricsService) RecordShift(result ShiftResult) {
	if m == nil {
		return
	}
	direction := string(result.Direction)
	m.shifts.WithLabelValues(direction).Inc()
	m.lessonsMoved.WithLabelValues(direction).Add(float64(len(result.Moved)))
	if n := len(result.Overflowed); n > 0 {
		m.lessonsOverflow.Add(float64(n))
	}
}

// RecordSave counts a persistence attempt.
func (m *MetricsService) RecordSave(trigger string, err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "failed"
	}
	m.saves.WithLabelValues(trigger, outcome).Inc()
}

// Stats returns the cache counters tracked alongside Prometheus.
func (m *MetricsService) Stats() PlannerStats {
	if m == nil {
		return PlannerStats{}
	}
	hits := atomic.LoadUint64(&m.cacheHitCount)
	misses := atomic.LoadUint64(&m.cacheMissCount)
	stats := PlannerStats{
		CacheHits:     hits,
		CacheMisses:   misses,
		SlotConflicts: atomic.LoadUint64(&m.slotConflictCount),
		Goroutines:    runtime.NumGoroutine(),
	}
	if total := hits + misses; total > 0 {
		stats.CacheHitRatio = float64(hits) / float64(total)
	}
	return stats
}
