// Package telemetry holds the Prometheus collectors and the OpenTelemetry
// tracer shared by atoms, stores and storage backends.
package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Namespace is the metrics namespace used by Default.
const Namespace = "vstate"

// TracerName is the instrumentation name reported on spans.
const TracerName = "github.com/vango-dev/vstate"

// Storage operation labels.
const (
	OpHydrate = "hydrate"
	OpPersist = "persist"
	OpClear   = "clear"
)

// Storage result labels.
const (
	ResultOK    = "ok"
	ResultError = "error"
)

// Metrics holds the collectors for the reactive kernel.
type Metrics struct {
	AtomUpdates        prometheus.Counter
	AtomSkipped        prometheus.Counter
	Notifications      prometheus.Counter
	SubscriberPanics   prometheus.Counter
	StorageOps         *prometheus.CounterVec
	StorageDuration    *prometheus.HistogramVec
	LiveStores         prometheus.Gauge
	StoreConstructions prometheus.Counter
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// Default returns the process-wide metrics registered on
// prometheus.DefaultRegisterer. Created on first call.
func Default() *Metrics {
	defaultMetricsOnce.Do(func() {
		defaultMetrics = New(prometheus.DefaultRegisterer, Namespace)
	})
	return defaultMetrics
}

// New creates and registers a fresh set of collectors on reg.
func New(reg prometheus.Registerer, namespace string) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		AtomUpdates: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "atom_updates_total",
			Help:      "Total number of atom assignments that changed the value",
		}),

		AtomSkipped: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "atom_updates_skipped_total",
			Help:      "Total number of atom assignments skipped by the comparator",
		}),

		Notifications: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "atom_notifications_total",
			Help:      "Total number of subscriber callbacks invoked",
		}),

		SubscriberPanics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "atom_subscriber_panics_total",
			Help:      "Total number of subscriber callbacks that panicked",
		}),

		StorageOps: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_operations_total",
			Help:      "Total persistence operations by kind and result",
		}, []string{"op", "result"}),

		StorageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "storage_operation_duration_seconds",
			Help:      "Persistence operation latency in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op"}),

		LiveStores: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "live_stores",
			Help:      "Number of store instances currently held by the container",
		}),

		StoreConstructions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_constructions_total",
			Help:      "Total number of store instances constructed",
		}),
	}
}

// Tracer returns the tracer used for storage spans. It resolves through the
// global provider on every call so a provider installed later is honored.
func Tracer() trace.Tracer {
	return otel.Tracer(TracerName)
}
