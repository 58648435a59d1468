// Package telemetry exposes Prometheus metrics for clinic operations and
// HTTP requests.
package telemetry

import (
	"context"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "eprescribing"

// Recorder implements clinic.MetricsRecorder and middleware.RequestObserver.
type Recorder struct {
	operations        *prometheus.CounterVec
	operationDuration *prometheus.HistogramVec
	requests          *prometheus.CounterVec
	requestDuration   *prometheus.HistogramVec
}

// NewRecorder registers the collectors on reg. backend is attached as a
// constant label to the operation metrics.
func NewRecorder(reg prometheus.Registerer, backend string) (*Recorder, error) {
	constLabels := prometheus.Labels{"backend": backend}
	r := &Recorder{
		operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace:   namespace,
			Subsystem:   "clinic",
			Name:        "operations_total",
			Help:        "Clinic facade operations by outcome.",
			ConstLabels: constLabels,
		}, []string{"operation", "outcome"}),
		operationDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   namespace,
			Subsystem:   "clinic",
			Name:        "operation_duration_seconds",
			Help:        "Clinic facade operation latency including the transaction.",
			ConstLabels: constLabels,
			Buckets:     prometheus.DefBuckets,
		}, []string{"operation"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	for _, c := range []prometheus.Collector{r.operations, r.operationDuration, r.requests, r.requestDuration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) Observe(_ context.Context, operation string, success bool, duration time.Duration) {
	outcome := "success"
	if !success {
		outcome = "error"
	}
	r.operations.WithLabelValues(operation, outcome).Inc()
	r.operationDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (r *Recorder) ObserveRequest(method, route string, status int, latency time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(method, route).Observe(latency.Seconds())
}

// Handler serves the Prometheus text exposition for g.
func Handler(g prometheus.Gatherer) echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(g, promhttp.HandlerOpts{}))
}
