package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/noah-isme/hostel-gatepass-api/internal/models"
)

// MetricsService encapsulates Prometheus instrumentation for the HTTP layer
// and the pass engine.
type MetricsService struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	passDecisions   *prometheus.CounterVec
	promotions      prometheus.Counter
	scans           *prometheus.CounterVec
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
	capacity        prometheus.Gauge
	admittedToday   prometheus.Gauge
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

	passDecisions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_applications_total",
		Help: "Outing applications by admission outcome",
	}, []string{"outcome"})

	promotions := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "gatepass_promotions_total",
		Help: "Waitlist promotions applied",
	})

	scans := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gatepass_scans_total",
		Help: "Gate scans by direction and result",
	}, []string{"direction", "result"})

	cacheHits := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total cache hits",
	})

	cacheMisses := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total cache misses",
	})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	capacity := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gatepass_capacity",
		Help: "Configured daily outing capacity",
	})

	admittedToday := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "gatepass_admitted_today",
		Help: "Passes admitted for today (APPROVED or OUT)",
	})

	registry.MustRegister(requestDuration, requestTotal, passDecisions, promotions, scans, cacheHits, cacheMisses, goroutines, capacity, admittedToday)

	handler := promhttp.HandlerFor(registry, promhttp.HandlerOpts{})

	return &MetricsService{
		registry:        registry,
		handler:         handler,
		requestDuration: requestDuration,
		requestTotal:    requestTotal,
		passDecisions:   passDecisions,
		promotions:      promotions,
		scans:           scans,
		cacheHits:       cacheHits,
		cacheMisses:     cacheMisses,
		capacity:        capacity,
		admittedToday:   admittedToday,
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

// ObserveHTTPRequest records request metrics.
func (m *MetricsService) ObserveHTTPRequest(method, path string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	labelStatus := fmt.Sprintf("%d", status)
	m.requestDuration.WithLabelValues(method, path, labelStatus).Observe(duration.Seconds())
	m.requestTotal.WithLabelValues(method, path, labelStatus).Inc()
}

// RecordApplication counts one outing application by its admission outcome.
func (m *MetricsService) RecordApplication(outcome models.PassStatus) {
	if m == nil {
		return
	}
	m.passDecisions.WithLabelValues(string(outcome)).Inc()
}

// RecordPromotions counts waitlist promotions applied in one operation.
func (m *MetricsService) RecordPromotions(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.promotions.Add(float64(n))
}

// RecordScan counts one gate scan attempt.
func (m *MetricsService) RecordScan(direction models.ScanType, ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "rejected"
	}
	m.scans.WithLabelValues(string(direction), result).Inc()
}

// SetGateGauges updates the capacity and admitted-today gauges.
func (m *MetricsService) SetGateGauges(capacity, admittedToday int) {
	if m == nil {
		return
	}
	m.capacity.Set(float64(capacity))
	m.admittedToday.Set(float64(admittedToday))
}

// RecordCacheOperation counts cache hits and misses.
func (m *MetricsService) RecordCacheOperation(hit bool) {
	if m == nil {
		return
	}
	if hit {
		m.cacheHits.Inc()
		return
	}
	m.cacheMisses.Inc()
}
