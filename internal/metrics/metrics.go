package metrics

import (
	"math"

	"github.com/prometheus/client_golang/prometheus"
)

// Fit outcomes
const (
	StatusOK              = "ok"
	StatusUnderdetermined = "underdetermined"
	StatusIllConditioned  = "ill-conditioned"
	StatusFailed          = "failed"
)

var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.Collectors()...)
}

type Metrics struct {
	prometheus Prometheus
}

// IncrementFits tracks a regression fit for the given family and outcome.
func (m *Metrics) IncrementFits(family, status string) {
	m.prometheus.Fits.WithLabelValues(family, status).Inc()
}

// IncrementEvaluations tracks an expansion evaluation for the given family.
func (m *Metrics) IncrementEvaluations(family string) {
	m.prometheus.Evaluations.WithLabelValues(family).Inc()
}

// ObserveCondition records the condition number of a design matrix.
func (m *Metrics) ObserveCondition(family string, condition float64) {
	if condition <= 0 || math.IsNaN(condition) {
		return
	}
	v := math.Log10(condition)
	if math.IsInf(v, 1) {
		v = math.MaxFloat64
	}
	m.prometheus.Condition.WithLabelValues(family).Observe(v)
}
