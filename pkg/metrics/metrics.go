// Package metrics provides the Prometheus collectors exposed by glpsim
// binaries: HTTP request instrumentation plus replica/experiment counters.
package metrics

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/aysen-hub/glpsim/pkg/logger"
)

// Metrics is the full collector set for one binary.
type Metrics struct {
	HTTPRequestsTotal   prometheus.Counter
	HTTPRequestDuration prometheus.Histogram

	ExperimentsStarted   prometheus.Counter
	ExperimentsCompleted prometheus.Counter
	ExperimentsFailed    prometheus.Counter
	ExperimentsActive    prometheus.Gauge

	RepliasCompletedTotal prometheus.Counter
	ReplicaFailedTotal    prometheus.Counter
	ReplicaDuration       prometheus.Histogram
}

// New builds the collector set, namespaced under "glpsim".
func New(serviceName string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests served",
		}),
		HTTPRequestDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		}),
		ExperimentsStarted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "experiments_started_total",
			Help:      "Total Monte Carlo experiments started",
		}),
		ExperimentsCompleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "experiments_completed_total",
			Help:      "Total Monte Carlo experiments that reached status completed",
		}),
		ExperimentsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "experiments_failed_total",
			Help:      "Total Monte Carlo experiments that reached status failed",
		}),
		ExperimentsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "experiments_active",
			Help:      "Number of experiments currently running",
		}),
		RepliasCompletedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "replicas_completed_total",
			Help:      "Total replicas that finished successfully",
		}),
		ReplicaFailedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "replicas_failed_total",
			Help:      "Total replicas that errored",
		}),
		ReplicaDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "glpsim",
			Subsystem: serviceName,
			Name:      "replica_duration_seconds",
			Help:      "Wall-clock duration of a single replica run",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// Register registers every collector with the default Prometheus registerer.
func (m *Metrics) Register() error {
	collectors := []prometheus.Collector{
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.ExperimentsStarted,
		m.ExperimentsCompleted,
		m.ExperimentsFailed,
		m.ExperimentsActive,
		m.RepliasCompletedTotal,
		m.ReplicaFailedTotal,
		m.ReplicaDuration,
	}

	for _, c := range collectors {
		if err := prometheus.DefaultRegisterer.Register(c); err != nil {
			logger.Error(context.Background(), "failed to register metric", "error", err)
			return err
		}
	}

	logger.Info(context.Background(), "metrics registered")
	return nil
}

// GinMiddleware records request count and latency for every request served
// by the HTTP control surface.
func (m *Metrics) GinMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		m.HTTPRequestsTotal.Inc()
		m.HTTPRequestDuration.Observe(time.Since(start).Seconds())
	}
}

// StartHTTPServer serves the Prometheus exposition endpoint in the background.
func StartHTTPServer(port int, path string) error {
	if path == "" {
		path = "/metrics"
	}

	mux := http.NewServeMux()
	mux.Handle(path, promhttp.Handler())

	addr := fmt.Sprintf(":%d", port)
	logger.Info(context.Background(), "starting prometheus http server", "addr", addr, "path", path)

	go func() {
		if err := http.ListenAndServe(addr, mux); err != nil {
			logger.Error(context.Background(), "prometheus http server stopped", "error", err)
		}
	}()

	return nil
}
