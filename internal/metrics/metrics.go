// Package metrics exposes Prometheus counters for trigger installs and job
// executions, and an optional HTTP listener serving them.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusMetrics implements the recorder interfaces of the trigger and
// cron packages.
type PrometheusMetrics struct {
	registry      prometheus.Registerer
	runsTotal     *prometheus.CounterVec
	runDuration   *prometheus.HistogramVec
	runsInFlight  prometheus.Gauge
	installsTotal *prometheus.CounterVec
	lastSuccess   prometheus.Gauge
}

// InitPrometheusMetrics creates and registers the collectors. A nil reg
// registers with the default registry.
func InitPrometheusMetrics(namespace string, reg prometheus.Registerer) *PrometheusMetrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &PrometheusMetrics{
		registry: reg,
		runsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "runs_total",
				Help:      "Total number of job executions by outcome",
			},
			[]string{"status"},
		),
		runDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "run_duration_seconds",
				Help:      "Duration of job executions",
				Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600, 1800},
			},
			[]string{"status"},
		),
		runsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "runs_in_flight",
				Help:      "Number of executions currently running",
			},
		),
		installsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trigger_installs_total",
				Help:      "Total number of trigger table installs",
			},
			[]string{"changed"},
		),
		lastSuccess: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "last_success_timestamp_seconds",
				Help:      "Unix time of the last successful execution",
			},
		),
	}

	reg.MustRegister(
		m.runsTotal,
		m.runDuration,
		m.runsInFlight,
		m.installsTotal,
		m.lastSuccess,
	)

	return m
}

// RecordInstall counts a trigger table install.
func (m *PrometheusMetrics) RecordInstall(changed bool) {
	m.installsTotal.WithLabelValues(strconv.FormatBool(changed)).Inc()
}

// RunStarted marks an execution as in flight.
func (m *PrometheusMetrics) RunStarted() {
	m.runsInFlight.Inc()
}

// RunDone clears an in-flight execution.
func (m *PrometheusMetrics) RunDone() {
	m.runsInFlight.Dec()
}

// ObserveRun records the outcome of an execution. Skipped ticks are counted
// but not timed.
func (m *PrometheusMetrics) ObserveRun(status string, duration time.Duration) {
	m.runsTotal.WithLabelValues(status).Inc()
	if status == "skipped" {
		return
	}
	m.runDuration.WithLabelValues(status).Observe(duration.Seconds())
	if status == "success" {
		m.lastSuccess.SetToCurrentTime()
	}
}
