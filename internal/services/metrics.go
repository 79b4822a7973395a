package services

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recompute triggers, used as the "trigger" metric label.
const (
	TriggerBudgetCreate      = "budget_create"
	TriggerBudgetUpdate      = "budget_update"
	TriggerBudgetRead        = "budget_read"
	TriggerTransactionCreate = "transaction_create"
	TriggerTransactionUpdate = "transaction_update"
	TriggerTransactionDelete = "transaction_delete"
)

// MetricsRecorder receives engine-level measurements.
type MetricsRecorder interface {
	RecordRecompute(trigger string, duration time.Duration, err error)
	RecordMutation(resource, operation string, err error)
}

// PrometheusMetrics records engine metrics in a Prometheus registry.
type PrometheusMetrics struct {
	recomputeTotal    *prometheus.CounterVec
	recomputeDuration *prometheus.HistogramVec
	mutationsTotal    *prometheus.CounterVec
}

// NewPrometheusMetrics registers the engine collectors with reg.
func NewPrometheusMetrics(reg prometheus.Registerer) *PrometheusMetrics {
	factory := promauto.With(reg)
	return &PrometheusMetrics{
		recomputeTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_budget_recompute_total",
				Help: "Total number of budget spent-amount recomputations",
			},
			[]string{"trigger", "status"},
		),
		recomputeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "wallet_budget_recompute_duration_milliseconds",
				Help:    "Budget recompute duration in milliseconds",
				Buckets: prometheus.ExponentialBuckets(0.25, 2, 12),
			},
			[]string{"trigger"},
		),
		mutationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "wallet_mutations_total",
				Help: "Total number of create/update/delete operations by resource",
			},
			[]string{"resource", "operation", "status"},
		),
	}
}

func (m *PrometheusMetrics) RecordRecompute(trigger string, duration time.Duration, err error) {
	m.recomputeTotal.WithLabelValues(trigger, status(err)).Inc()
	m.recomputeDuration.WithLabelValues(trigger).Observe(float64(duration.Microseconds()) / 1000)
}

func (m *PrometheusMetrics) RecordMutation(resource, operation string, err error) {
	m.mutationsTotal.WithLabelValues(resource, operation, status(err)).Inc()
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

type noopMetrics struct{}

func (noopMetrics) RecordRecompute(string, time.Duration, error) {}
func (noopMetrics) RecordMutation(string, string, error)         {}
