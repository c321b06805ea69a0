package service

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	CascadeRuns     *prometheus.CounterVec
	CascadeStep     *prometheus.HistogramVec
	Actions         *prometheus.CounterVec
	ActionLatency   *prometheus.HistogramVec
	Exports         *prometheus.CounterVec
	AuditPublishErr prometheus.Counter
}

func NewMetrics(registry *prometheus.Registry) *Metrics {
	m := &Metrics{
		CascadeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_cascade_runs_total",
				Help: "Total refresh cascades by outcome.",
			},
			[]string{"outcome"},
		),
		CascadeStep: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_cascade_step_seconds",
				Help:    "Cascade step latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"step", "status"},
		),
		Actions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_actions_total",
				Help: "Total mutating actions by status.",
			},
			[]string{"action", "status"},
		),
		ActionLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "console_action_latency_seconds",
				Help:    "Mutating action latency in seconds.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"action"},
		),
		Exports: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "console_exports_total",
				Help: "Total CSV exports by domain and status.",
			},
			[]string{"domain", "status"},
		),
		AuditPublishErr: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "console_audit_failures_total",
				Help: "Audit events that could not be published.",
			},
		),
	}

	registry.MustRegister(
		m.CascadeRuns,
		m.CascadeStep,
		m.Actions,
		m.ActionLatency,
		m.Exports,
		m.AuditPublishErr,
	)
	return m
}
