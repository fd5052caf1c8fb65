package metrics

import "github.com/prometheus/client_golang/prometheus"

type Prometheus struct {
	Fits        *prometheus.CounterVec
	Evaluations *prometheus.CounterVec
	Condition   *prometheus.HistogramVec
}

func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Fits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pce",
				Name:      "fits_total",
				Help:      "regression fits by family and outcome",
			}, []string{"family", "status"}),
		Evaluations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "pce",
				Name:      "evaluations_total",
				Help:      "expansion evaluations by family",
			}, []string{"family"}),
		Condition: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "pce",
				Name:      "design_condition_log10",
				Help:      "log10 of the design matrix condition number",
				Buckets:   prometheus.LinearBuckets(0, 2, 10),
			}, []string{"family"}),
	}
}

func (p Prometheus) Collectors() []prometheus.Collector {
	return []prometheus.Collector{p.Fits, p.Evaluations, p.Condition}
}
