package hook

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts reconciliation actions. Each run can be dumped to a
// node_exporter textfile.
type Metrics struct {
	registry *prometheus.Registry
	actions  *prometheus.CounterVec
	lastRun  prometheus.Gauge
}

// NewMetrics returns a metrics set on a private registry.
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		actions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "morph",
			Subsystem: "hook",
			Name:      "actions_total",
			Help:      "Hook reconciliation actions by action and outcome.",
		}, []string{"action", "outcome"}),
		lastRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "morph",
			Subsystem: "hook",
			Name:      "last_run_timestamp_seconds",
			Help:      "Unix time of the last reconciliation.",
		}),
	}
	m.registry.MustRegister(m.actions, m.lastRun)
	return m
}

func (m *Metrics) observe(action Action, outcome Outcome) {
	m.actions.WithLabelValues(string(action), string(outcome)).Inc()
}

func (m *Metrics) finished(at time.Time) {
	m.lastRun.Set(float64(at.Unix()))
}

// Gatherer exposes the registry.
func (m *Metrics) Gatherer() prometheus.Gatherer {
	return m.registry
}

// WriteTextfile writes the metrics in the text exposition format.
func (m *Metrics) WriteTextfile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create metrics dir: %w", err)
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("write metrics: %w", err)
	}
	return nil
}
