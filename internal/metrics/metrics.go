// Package metrics records per-run connector metrics and writes them in the
// node-exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ensilo_events"

// Metrics holds the gauges for one connector run. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	reg         *prometheus.Registry
	up          prometheus.Gauge
	records     *prometheus.GaugeVec
	duration    prometheus.Gauge
	lastSuccess prometheus.Gauge
}

// New creates a Metrics backed by its own registry.
func New() *Metrics {
	m := &Metrics{
		reg: prometheus.NewRegistry(),
		up: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "up",
			Help:      "Whether the last poll cycle succeeded (1) or failed (0).",
		}),
		records: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_forwarded",
			Help:      "Records forwarded by the last poll cycle.",
		}, []string{"category"}),
		duration: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "cycle_duration_seconds",
			Help:      "Duration of the last poll cycle.",
		}),
		lastSuccess: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last successful poll cycle.",
		}),
	}
	m.reg.MustRegister(m.up, m.records, m.duration, m.lastSuccess)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }

// Forwarded records n records written for category.
func (m *Metrics) Forwarded(category string, n int) {
	if m == nil {
		return
	}
	m.records.WithLabelValues(category).Add(float64(n))
}

// Finish records the outcome of a cycle that started at start and ended at end.
func (m *Metrics) Finish(start, end time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.Set(end.Sub(start).Seconds())
	if err != nil {
		m.up.Set(0)
		return
	}
	m.up.Set(1)
	m.lastSuccess.Set(float64(end.Unix()))
}

// WriteFile writes all metrics to path atomically.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
