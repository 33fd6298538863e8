// Package metrics exposes Prometheus instruments for the tracking core.
// All methods are safe on a nil *Metrics so components can run without it.
package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"regard/internal/tracking"
)

// Metrics holds the registry and instruments.
type Metrics struct {
	registry        *prometheus.Registry
	positionUpdates prometheus.Counter
	interpretations *prometheus.CounterVec
	inFlight        prometheus.Gauge
	duration        prometheus.Histogram
	alertsActive    prometheus.Gauge

	mu     sync.Mutex
	alerts map[string]bool
}

// New registers all instruments on a fresh registry together with the Go
// runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		positionUpdates: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "regard_position_updates_total",
			Help: "Position updates applied to the entity store.",
		}),
		interpretations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "regard_interpretations_total",
			Help: "Settled interpretation requests by outcome.",
		}, []string{"outcome"}),
		inFlight: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "regard_interpretations_in_flight",
			Help: "Entities currently awaiting an interpretation.",
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "regard_interpretation_duration_seconds",
			Help:    "Time from dispatch to settlement of an interpretation request.",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30},
		}),
		alertsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "regard_alerts_active",
			Help: "Entities whose latest interpretation raised an alert.",
		}),
		alerts: make(map[string]bool),
	}
	reg.MustRegister(
		m.positionUpdates,
		m.interpretations,
		m.inFlight,
		m.duration,
		m.alertsActive,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Track seeds the alert gauge from a snapshot.
func (m *Metrics) Track(entities []tracking.Entity) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, e := range entities {
		m.alerts[e.ID] = e.Alert
	}
	m.alertsActive.Set(float64(countTrue(m.alerts)))
}

// ObserveEvent updates instruments from a store event. It matches the
// tracking.Store subscriber signature.
func (m *Metrics) ObserveEvent(ev tracking.Event) {
	if m == nil {
		return
	}
	switch ev.Kind {
	case tracking.EventPositionUpdated:
		m.positionUpdates.Inc()
	case tracking.EventInterpretationStarted:
		m.inFlight.Inc()
	case tracking.EventInterpretationCompleted, tracking.EventInterpretationFailed:
		m.inFlight.Dec()
		m.mu.Lock()
		m.alerts[ev.EntityID] = ev.Entity.Alert
		m.alertsActive.Set(float64(countTrue(m.alerts)))
		m.mu.Unlock()
	}
}

// ObserveInterpretation records a settled request.
func (m *Metrics) ObserveInterpretation(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.interpretations.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

func countTrue(m map[string]bool) int {
	n := 0
	for _, v := range m {
		if v {
			n++
		}
	}
	return n
}
