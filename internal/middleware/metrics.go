package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bryanwahyu/coderefine/internal/domain/review"
)

const namespace = "coderefine"

var (
	metricRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by method and status code.",
	}, []string{"method", "code"})
	metricRequestsInProgress = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "http_requests_in_progress",
		Help:      "HTTP requests currently being served.",
	})
	metricRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method"})

	metricAnalysesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "analyses_total",
		Help:      "Completed analyses by producing path and mode.",
	}, []string{"source", "mode"})
	metricAnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "analysis_duration_seconds",
		Help:      "Analysis latency by producing path.",
		Buckets:   []float64{.005, .05, .25, 1, 2.5, 5, 10, 30, 60},
	}, []string{"source"})
	metricModelFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "model_failures_total",
		Help:      "Failed model invocations by backend and whether the backend rate limited us.",
	}, []string{"backend", "rate_limited"})
	metricRateLimited = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_rate_limited_total",
		Help:      "Requests rejected by the per-client rate limiter.",
	})
)

// AnalysisMetrics records orchestrator outcomes. It satisfies the
// orchestrator's Observer.
type AnalysisMetrics struct{}

func (AnalysisMetrics) ObserveAnalysis(source review.Source, mode review.Mode, d time.Duration) {
	metricAnalysesTotal.WithLabelValues(string(source), string(mode)).Inc()
	metricAnalysisDuration.WithLabelValues(string(source)).Observe(d.Seconds())
}

func (AnalysisMetrics) ObserveModelFailure(backend string, rateLimited bool) {
	metricModelFailures.WithLabelValues(backend, strconv.FormatBool(rateLimited)).Inc()
}

// MetricsMiddleware tracks request metrics
func MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		metricRequestsInProgress.Inc()
		defer metricRequestsInProgress.Dec()
		start := time.Now()

		wrapped := wrapWriter(w)
		next.ServeHTTP(wrapped, r)

		metricRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(wrapped.statusCode)).Inc()
		metricRequestDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

// MetricsHandler exposes the default registry in the Prometheus text format.
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
