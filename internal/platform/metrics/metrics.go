// Package metrics registers and records the application's Prometheus
// metrics: HTTP traffic plus review-level scheduler outcomes.
package metrics

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	ReviewsTotal     *prometheus.CounterVec
	ReviewIntervals  prometheus.Histogram
	SessionsShuffled prometheus.Counter
}

var (
	metricsOnce   sync.Once
	sharedMetrics *Metrics
)

// NewMetrics creates and registers all metrics on the default registry.
// Safe to call more than once; registration happens exactly once.
func NewMetrics() *Metrics {
	metricsOnce.Do(func() {
		sharedMetrics = &Metrics{
			HTTPRequestsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_http_requests_total",
					Help: "Total number of HTTP requests",
				},
				[]string{"method", "path", "status"},
			),
			HTTPRequestDuration: promauto.NewHistogramVec(
				prometheus.HistogramOpts{
					Name:    "recall_http_request_duration_seconds",
					Help:    "HTTP request duration in seconds",
					Buckets: prometheus.DefBuckets,
				},
				[]string{"method", "path"},
			),
			ReviewsTotal: promauto.NewCounterVec(
				prometheus.CounterOpts{
					Name: "recall_reviews_total",
					Help: "Total number of graded reviews by quality",
				},
				[]string{"quality"},
			),
			ReviewIntervals: promauto.NewHistogram(
				prometheus.HistogramOpts{
					Name:    "recall_review_interval_days",
					Help:    "Scheduled review intervals in days",
					Buckets: prometheus.ExponentialBuckets(0.5, 2, 10), // 12h to 256d
				},
			),
			SessionsShuffled: promauto.NewCounter(
				prometheus.CounterOpts{
					Name: "recall_sessions_shuffled_total",
					Help: "Total number of session shuffles",
				},
			),
		}
	})

	return sharedMetrics
}

// RecordReview records a graded review and the interval it produced.
func (m *Metrics) RecordReview(quality int, intervalDays float64) {
	m.ReviewsTotal.WithLabelValues(strconv.Itoa(quality)).Inc()
	m.ReviewIntervals.Observe(intervalDays)
}

// Middleware instruments HTTP handlers, labeling by route pattern rather
// than raw path so parameterized URLs do not explode label cardinality.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		path := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				path = pattern
			}
		}

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, strconv.Itoa(rec.status)).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(time.Since(start).Seconds())
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
