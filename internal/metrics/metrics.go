// Package metrics records shipkey operation counters and durations on a
// private Prometheus registry. A nil *Metrics is valid and records nothing.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Result label values.
const (
	ResultSuccess = "success"
	ResultFailure = "failure"
)

// Metrics holds every collector shipkey exposes.
type Metrics struct {
	registry *prometheus.Registry

	backendOps      *prometheus.CounterVec
	backendDuration *prometheus.HistogramVec
	targetSecrets   *prometheus.CounterVec
	scanFiles       prometheus.Gauge
	scanVars        prometheus.Gauge
}

// New registers all collectors on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		backendOps: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipkey_backend_operations_total",
				Help: "Total number of secret store operations",
			},
			[]string{"backend", "operation", "result"},
		),
		backendDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "shipkey_backend_operation_duration_seconds",
				Help:    "Duration of secret store operations in seconds",
				Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"backend", "operation"},
		),
		targetSecrets: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "shipkey_target_secrets_total",
				Help: "Total number of secrets pushed to sync targets",
			},
			[]string{"target", "result"},
		),
		scanFiles: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shipkey_scan_files",
			Help: "Environment files found by the last scan",
		}),
		scanVars: factory.NewGauge(prometheus.GaugeOpts{
			Name: "shipkey_scan_variables",
			Help: "Variables found by the last scan",
		}),
	}
}

// Registry exposes the underlying registry for gathering.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveBackend records one store operation.
func (m *Metrics) ObserveBackend(backend, operation string, err error, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.backendOps.WithLabelValues(backend, operation, result(err)).Inc()
	m.backendDuration.WithLabelValues(backend, operation).Observe(elapsed.Seconds())
}

// RecordTargetSecrets adds the outcome of one Sync call.
func (m *Metrics) RecordTargetSecrets(target string, succeeded, failed int) {
	if m == nil {
		return
	}
	m.targetSecrets.WithLabelValues(target, ResultSuccess).Add(float64(succeeded))
	m.targetSecrets.WithLabelValues(target, ResultFailure).Add(float64(failed))
}

// RecordScan sets the scan gauges.
func (m *Metrics) RecordScan(files, vars int) {
	if m == nil {
		return
	}
	m.scanFiles.Set(float64(files))
	m.scanVars.Set(float64(vars))
}

// WriteTextfile writes the registry in the node_exporter textfile format.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}

func result(err error) string {
	if err != nil {
		return ResultFailure
	}
	return ResultSuccess
}
