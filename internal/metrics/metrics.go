package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/MikeSquared-Agency/Impact/internal/scoring"
)

const namespace = "impact"

// Metrics exposes Prometheus collectors for the current simulation state.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	overallImpact   prometheus.Gauge
	totalCost       prometheus.Gauge
	roi             prometheus.Gauge
	enabledServices prometheus.Gauge
	warnings        prometheus.Gauge
	recompute       *prometheus.HistogramVec
	mutations       *prometheus.CounterVec
}

// MustNewMetrics registers every collector with reg and panics on conflicts.
// Tests should pass a fresh prometheus.NewRegistry().
func MustNewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	gauge := func(name, help string) prometheus.Gauge {
		return prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "simulation",
			Name:      name,
			Help:      help,
		})
	}
	m := &Metrics{
		overallImpact:   gauge("overall_impact", "Portfolio-wide weighted experience score of the current state."),
		totalCost:       gauge("total_cost", "Summed cost of enabled services."),
		roi:             gauge("roi", "Return index of the current state."),
		enabledServices: gauge("enabled_services", "Number of enabled services."),
		warnings:        gauge("warnings", "Dangling touchpoint references in the current state."),
		recompute: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "simulation",
				Name:      "recompute_duration_seconds",
				Help:      "Time spent computing a simulation state.",
				Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
			},
			[]string{"trigger"},
		),
		mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "mutations_total",
				Help:      "Persona and service changes applied.",
			},
			[]string{"entity", "action"},
		),
	}
	reg.MustRegister(m.overallImpact, m.totalCost, m.roi, m.enabledServices, m.warnings, m.recompute, m.mutations)
	return m
}

// ObserveState publishes the headline figures of state and the time it took.
func (m *Metrics) ObserveState(trigger string, state scoring.SimulationState, took time.Duration) {
	if m == nil {
		return
	}
	m.overallImpact.Set(float64(state.OverallImpact))
	m.totalCost.Set(state.TotalCost)
	m.roi.Set(float64(state.ROI))
	m.enabledServices.Set(float64(state.EnabledServices))
	m.warnings.Set(float64(len(state.Warnings)))
	m.recompute.WithLabelValues(trigger).Observe(took.Seconds())
}

func (m *Metrics) IncMutation(entity, action string) {
	if m == nil {
		return
	}
	m.mutations.WithLabelValues(entity, action).Inc()
}
