package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PromSink records solve outcomes in Prometheus metrics. It implements the
// solver Recorder interface.
type PromSink struct {
	solves    *prometheus.CounterVec
	duration  prometheus.Histogram
	objective prometheus.Gauge
}

// NewPromSink registers solve metrics on the default Prometheus registerer.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	solves := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "rail_solves_total",
		Help: "Total number of solve invocations by final status",
	}, []string{"status"})
	duration := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "rail_solve_duration_seconds",
		Help:    "Solver wall time per invocation",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})
	objective := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "rail_objective_km",
		Help: "Objective value of the most recent solved schedule",
	})

	if err := reg.Register(solves); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			solves = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(duration); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			duration = are.ExistingCollector.(prometheus.Histogram)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(objective); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			objective = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{solves: solves, duration: duration, objective: objective}, nil
}

// RecordSolve counts the solve, observes its wall time and, for solved
// statuses, publishes the objective value.
func (s *PromSink) RecordSolve(status string, wallSeconds float64, objective int64) {
	s.solves.WithLabelValues(status).Inc()
	s.duration.Observe(wallSeconds)
	if status == "OPTIMAL" || status == "FEASIBLE" {
		s.objective.Set(float64(objective))
	}
}
