package service

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsService encapsulates Prometheus instrumentation for the intake pipeline.
type MetricsService struct {
	registry           *prometheus.Registry
	handler            http.Handler
	requestDuration    *prometheus.HistogramVec
	requestTotal       *prometheus.CounterVec
	inquiriesCreated   *prometheus.CounterVec
	allocationRetries  prometheus.Counter
	allocationFailures prometheus.Counter
	syncDeliveries     *prometheus.CounterVec
	syncDuration       prometheus.Histogram
	syncDropped        prometheus.Counter
	sweepRuns          prometheus.Counter
	sweepAttempted     prometheus.Counter
	sweepSucceeded     prometheus.Counter
	ocrDuration        *prometheus.HistogramVec
}

// NewMetricsService registers the collectors.
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

	inquiriesCreated := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "inquiries_created_total",
		Help: "Inquiries durably recorded, by intake source",
	}, []string{"source"})

	allocationRetries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "case_id_allocation_conflicts_total",
		Help: "Case id collisions that triggered a fresh allocation",
	})

	allocationFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "case_id_allocation_exhausted_total",
		Help: "Creates rejected after exhausting allocation attempts",
	})

	syncDeliveries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "sheet_sync_deliveries_total",
		Help: "Mirror delivery attempts by outcome",
	}, []string{"outcome"})

	syncDuration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "sheet_sync_delivery_seconds",
		Help:    "Latency of mirror delivery attempts",
		Buckets: prometheus.DefBuckets,
	})

	syncDropped := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet_sync_dispatch_dropped_total",
		Help: "Delivery intents dropped because the dispatch queue was full",
	})

	sweepRuns := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet_sync_sweeps_total",
		Help: "Retry sweeps executed",
	})

	sweepAttempted := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet_sync_sweep_attempted_total",
		Help: "Records attempted by retry sweeps",
	})

	sweepSucceeded := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "sheet_sync_sweep_succeeded_total",
		Help: "Records confirmed by retry sweeps",
	})

	ocrDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "ocr_request_duration_seconds",
		Help:    "Latency of OCR recognition calls",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 30},
	}, []string{"outcome"})

	goroutines := prometheus.NewGaugeFunc(prometheus.GaugeOpts{
		Name: "goroutines_total",
		Help: "Total number of goroutines",
	}, func() float64 {
		return float64(runtime.NumGoroutine())
	})

	registry.MustRegister(requestDuration, requestTotal, inquiriesCreated, allocationRetries, allocationFailures,
		syncDeliveries, syncDuration, syncDropped, sweepRuns, sweepAttempted, sweepSucceeded, ocrDuration, goroutines)

	return &MetricsService{
		registry:           registry,
		handler:            promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestDuration:    requestDuration,
		requestTotal:       requestTotal,
		inquiriesCreated:   inquiriesCreated,
		allocationRetries:  allocationRetries,
		allocationFailures: allocationFailures,
		syncDeliveries:     syncDeliveries,
		syncDuration:       syncDuration,
		syncDropped:        syncDropped,
		sweepRuns:          sweepRuns,
		sweepAttempted:     sweepAttempted,
		sweepSucceeded:     sweepSucceeded,
		ocrDuration:        ocrDuration,
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

// Registry exposes the underlying registry for tests.
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

// InquiryCreated counts a durable intake write.
func (m *MetricsService) InquiryCreated(source string) {
	if m == nil {
		return
	}
	m.inquiriesCreated.WithLabelValues(source).Inc()
}

// AllocationConflict counts a case id collision.
func (m *MetricsService) AllocationConflict() {
	if m == nil {
		return
	}
	m.allocationRetries.Inc()
}

// AllocationExhausted counts a create that gave up.
func (m *MetricsService) AllocationExhausted() {
	if m == nil {
		return
	}
	m.allocationFailures.Inc()
}

// ObserveSyncDelivery records one mirror attempt.
func (m *MetricsService) ObserveSyncDelivery(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.syncDeliveries.WithLabelValues(outcome).Inc()
	m.syncDuration.Observe(duration.Seconds())
}

// SyncDispatchDropped counts intents the queue could not accept.
func (m *MetricsService) SyncDispatchDropped() {
	if m == nil {
		return
	}
	m.syncDropped.Inc()
}

// ObserveSweep records a completed sweep.
func (m *MetricsService) ObserveSweep(attempted, succeeded int) {
	if m == nil {
		return
	}
	m.sweepRuns.Inc()
	m.sweepAttempted.Add(float64(attempted))
	m.sweepSucceeded.Add(float64(succeeded))
}

// ObserveOCR records OCR latency.
func (m *MetricsService) ObserveOCR(success bool, duration time.Duration) {
	if m == nil {
		return
	}
	outcome := "failure"
	if success {
		outcome = "success"
	}
	m.ocrDuration.WithLabelValues(outcome).Observe(duration.Seconds())
}
