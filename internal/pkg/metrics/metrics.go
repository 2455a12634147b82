// Package metrics owns the Prometheus registry and the collectors used by the
// clustering engine and the HTTP layer.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "hris_performance"

type Metrics struct {
	Registry *prometheus.Registry

	fits            *prometheus.CounterVec
	fitDuration     prometheus.Histogram
	silhouette      *prometheus.GaugeVec
	trainingSize    *prometheus.GaugeVec
	predictions     *prometheus.CounterVec
	skipped         prometheus.Counter
	cacheLookups    *prometheus.CounterVec
	snapshotStorage *prometheus.CounterVec

	httpRequests *prometheus.CounterVec
	httpDuration *prometheus.HistogramVec
}

// New creates a registry. With collectProcessMetrics the Go and process
// collectors are registered as well.
func New(collectProcessMetrics bool) *Metrics {
	registry := prometheus.NewRegistry()
	if collectProcessMetrics {
		registry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		Registry: registry,
		fits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "fits_total",
			Help:      "Clustering fits by outcome.",
		}, []string{"signature", "outcome"}),
		fitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Wall time of a full fit including feature extraction.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
		}),
		silhouette: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "silhouette",
			Help:      "Silhouette coefficient of the current snapshot.",
		}, []string{"signature"}),
		trainingSize: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "training_size",
			Help:      "Employees in the current snapshot's training set.",
		}, []string{"signature"}),
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "predictions_total",
			Help:      "Single-employee predictions by outcome.",
		}, []string{"outcome"}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "skipped_employees_total",
			Help:      "Employees excluded from datasets for lack of data.",
		}),
		cacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_lookups_total",
			Help:      "Model cache lookups by result.",
		}, []string{"result"}),
		snapshotStorage: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "snapshot_operations_total",
			Help:      "Snapshot store operations by kind and outcome.",
		}, []string{"op", "outcome"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	registry.MustRegister(
		m.fits, m.fitDuration, m.silhouette, m.trainingSize,
		m.predictions, m.skipped, m.cacheLookups, m.snapshotStorage,
		m.httpRequests, m.httpDuration,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{
		ErrorHandling: promhttp.ContinueOnError,
	})
}

// The recorders below accept a nil receiver so callers can run without metrics.

func (m *Metrics) ObserveFit(signature string, took time.Duration, silhouette float64, size int, err error) {
	if m == nil {
		return
	}
	m.fits.WithLabelValues(signature, outcome(err)).Inc()
	if err != nil {
		return
	}
	m.fitDuration.Observe(took.Seconds())
	m.silhouette.WithLabelValues(signature).Set(silhouette)
	m.trainingSize.WithLabelValues(signature).Set(float64(size))
}

func (m *Metrics) ObservePrediction(err error) {
	if m == nil {
		return
	}
	m.predictions.WithLabelValues(outcome(err)).Inc()
}

func (m *Metrics) AddSkipped(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.skipped.Add(float64(n))
}

func (m *Metrics) CacheHit() {
	if m != nil {
		m.cacheLookups.WithLabelValues("hit").Inc()
	}
}

func (m *Metrics) CacheMiss() {
	if m != nil {
		m.cacheLookups.WithLabelValues("miss").Inc()
	}
}

func (m *Metrics) ObserveSnapshot(op string, err error) {
	if m == nil {
		return
	}
	m.snapshotStorage.WithLabelValues(op, outcome(err)).Inc()
}

func outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
