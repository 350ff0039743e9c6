package solver

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/gitrdm/gomcdp/pkg/dp"
)

const metricsNamespace = "mcdp"

// Outcome labels of the solve counter.
const (
	OutcomeFeasible       = "feasible"
	OutcomeInfeasible     = "infeasible"
	OutcomeModelError     = "model_error"
	OutcomeNotImplemented = "not_implemented"
	OutcomeInternalError  = "internal_error"
)

// Metrics holds the solver's Prometheus collectors. Each Metrics owns a
// private registry so several solvers in one process never collide.
// A nil *Metrics records nothing.
type Metrics struct {
	registry *prometheus.Registry

	// solves counts queries. Labels: direction (solve, solve_r, implementations), outcome
	solves *prometheus.CounterVec

	// duration measures query latency. Labels: direction
	duration *prometheus.HistogramVec

	// rules counts simplification rewrites. Labels: rule
	rules *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		solves: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "solver",
			Name:      "queries_total",
			Help:      "Solver queries by direction and outcome",
		}, []string{"direction", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Subsystem: "solver",
			Name:      "query_duration_seconds",
			Help:      "Solver query latency in seconds",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"direction"}),
		rules: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "simplify",
			Name:      "rule_applications_total",
			Help:      "Series-simplification rewrites by rule",
		}, []string{"rule"}),
	}
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// RuleApplied counts one rewrite. It has the signature of a
// simplify.WithObserver callback.
func (m *Metrics) RuleApplied(rule string) {
	if m == nil {
		return
	}
	m.rules.WithLabelValues(rule).Inc()
}

func (m *Metrics) observe(direction string, start time.Time, feasible bool, err error) {
	if m == nil {
		return
	}
	m.solves.WithLabelValues(direction, Outcome(feasible, err)).Inc()
	m.duration.WithLabelValues(direction).Observe(time.Since(start).Seconds())
}

// Outcome classifies the result of a query for the outcome label.
func Outcome(feasible bool, err error) string {
	switch {
	case err == nil && feasible:
		return OutcomeFeasible
	case err == nil:
		return OutcomeInfeasible
	case dp.IsInternalError(err):
		return OutcomeInternalError
	case errors.Is(err, dp.ErrNotImplemented):
		return OutcomeNotImplemented
	}
	return OutcomeModelError
}
