package engine

import (
	stderrors "errors"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/go-drift/ripple/pkg/core"
	"github.com/go-drift/ripple/pkg/host"
)

// Metrics exports pass statistics to Prometheus. It implements
// core.Observer; one Metrics can observe any number of containers.
type Metrics struct {
	passes         *prometheus.CounterVec
	units          prometheus.Counter
	ticks          prometheus.Counter
	restarts       prometheus.Counter
	mutations      *prometheus.CounterVec
	effects        *prometheus.CounterVec
	passDuration   prometheus.Histogram
	commitDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// registers with prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripple_passes_total",
			Help: "Render passes by outcome (committed, superseded, failed).",
		}, []string{"outcome"}),
		units: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripple_units_total",
			Help: "Work units processed by committed passes.",
		}),
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripple_ticks_total",
			Help: "Scheduler ticks that processed work units for committed passes.",
		}),
		restarts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "ripple_restarts_total",
			Help: "Passes restarted by updates requested during rendering.",
		}),
		mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripple_mutations_total",
			Help: "Host tree mutations applied by commits.",
		}, []string{"kind"}),
		effects: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "ripple_effects_total",
			Help: "Effect setups and cleanups run by commits.",
		}, []string{"phase"}),
		passDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripple_pass_duration_seconds",
			Help:    "Time from pass start to the end of its commit.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
		}),
		commitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "ripple_commit_duration_seconds",
			Help:    "Time spent applying mutations and running effects.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 12),
		}),
	}
	reg.MustRegister(m.passes, m.units, m.ticks, m.restarts, m.mutations, m.effects, m.passDuration, m.commitDuration)
	return m
}

func (m *Metrics) PassStarted(host.Element) {}

func (m *Metrics) PassCommitted(_ host.Element, stats core.PassStats) {
	m.passes.WithLabelValues("committed").Inc()
	m.units.Add(float64(stats.Units))
	m.ticks.Add(float64(stats.Ticks))
	m.restarts.Add(float64(stats.Restarts))
	m.mutations.WithLabelValues("insert").Add(float64(stats.Inserts))
	m.mutations.WithLabelValues("update").Add(float64(stats.Updates))
	m.mutations.WithLabelValues("remove").Add(float64(stats.Removes))
	m.mutations.WithLabelValues("move").Add(float64(stats.Moves))
	m.effects.WithLabelValues("setup").Add(float64(stats.Effects))
	m.effects.WithLabelValues("cleanup").Add(float64(stats.Cleanups))
	m.passDuration.Observe(stats.Duration.Seconds())
	m.commitDuration.Observe(stats.CommitDuration.Seconds())
}

func (m *Metrics) PassAborted(_ host.Element, err error) {
	m.passes.WithLabelValues(abortOutcome(err)).Inc()
}

func abortOutcome(err error) string {
	if stderrors.Is(err, core.ErrSuperseded) {
		return "superseded"
	}
	return "failed"
}
