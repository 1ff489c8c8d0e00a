/*
metrics.go - Prometheus instrumentation for the HTTP layer

PURPOSE:
  Operational metrics (request rates, latencies, purchase outcomes) for
  dashboards and alerting. Distinct from the metrics package, which holds
  domain aggregates (rankings, histograms) served through the API itself.

SEE ALSO:
  - server.go: Mounts the /metrics exposition endpoint and the middleware
*/
package api

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// PromRegistry holds the application's Prometheus collectors.
	PromRegistry = prometheus.NewRegistry()

	httpRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_engine",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests handled.",
		},
		[]string{"method", "status"},
	)

	httpDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "shop_engine",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 10), // 5ms to ~5s
		},
		[]string{"method"},
	)

	purchaseOutcomes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "shop_engine",
			Subsystem: "shop",
			Name:      "purchases_total",
			Help:      "Total number of purchase attempts by outcome.",
		},
		[]string{"result"},
	)
)

func init() {
	PromRegistry.MustRegister(httpRequests, httpDuration, purchaseOutcomes)
}

// PromHandler serves the Prometheus exposition format.
func PromHandler() http.Handler {
	return promhttp.HandlerFor(PromRegistry, promhttp.HandlerOpts{})
}

// Instrument records request counts and latencies.
func Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		httpRequests.WithLabelValues(r.Method, strconv.Itoa(sw.status)).Inc()
		httpDuration.WithLabelValues(r.Method).Observe(time.Since(start).Seconds())
	})
}

func recordPurchase(success bool) {
	result := "denied"
	if success {
		result = "ok"
	}
	purchaseOutcomes.WithLabelValues(result).Inc()
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
