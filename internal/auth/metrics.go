// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 AutoLinker Contributors

package auth

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Operation names used as the "operation" metric label.
const (
	OpRegister = "register"
	OpLogin    = "login"
	OpLogout   = "logout"
	OpRestore  = "restore"
)

// Metrics are the Prometheus collectors for auth operations.
type Metrics struct {
	Operations *prometheus.CounterVec
	Duration   *prometheus.HistogramVec
	Users      prometheus.Gauge
}

// NewMetrics creates the auth metrics and registers them with reg.
// Panics if registration fails (following prometheus convention).
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Operations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "autolinker_auth_operations_total",
				Help: "Total number of auth operations by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		Duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "autolinker_auth_operation_duration_seconds",
				Help:    "Auth operation duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Users: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "autolinker_registered_users",
			Help: "Number of registered users",
		}),
	}
	reg.MustRegister(m.Operations, m.Duration, m.Users)
	return m
}

// observe records one finished operation. Safe on a nil receiver.
func (m *Metrics) observe(operation string, err error, took time.Duration) {
	if m == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = KindOf(err).String()
	}
	m.Operations.WithLabelValues(operation, outcome).Inc()
	m.Duration.WithLabelValues(operation).Observe(took.Seconds())
}

func (m *Metrics) setUsers(n int) {
	if m == nil {
		return
	}
	m.Users.Set(float64(n))
}
