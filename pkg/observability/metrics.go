package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes, used as the "outcome" label value.
const (
	OutcomeMatched      = "matched"       // a declared rule's pattern hit
	OutcomeFallbackRule = "fallback_rule" // the stage's fallback rule fired
	OutcomeReprompt     = "reprompt"      // no match, no fallback rule; stage unchanged
	OutcomeTerminal     = "terminal"      // turn landed on (or re-delivered) a terminal stage
)

// Metrics holds the engine's Prometheus collectors. All methods are safe on
// a nil receiver.
type Metrics struct {
	turns       *prometheus.CounterVec
	extractions prometheus.Counter
	activeCalls prometheus.Gauge
}

// New registers the callflow collectors with the given registerer.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		turns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "callflow",
			Name:      "turns_total",
			Help:      "Caller turns processed, by outcome.",
		}, []string{"outcome"}),
		extractions: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "callflow",
			Name:      "extractions_total",
			Help:      "Facts successfully extracted from caller speech.",
		}),
		activeCalls: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "callflow",
			Name:      "active_calls",
			Help:      "Calls currently in progress.",
		}),
	}
}

// ObserveTurn records one processed caller turn.
func (m *Metrics) ObserveTurn(outcome string) {
	if m == nil {
		return
	}
	m.turns.WithLabelValues(outcome).Inc()
}

// ObserveExtraction records one successfully extracted fact.
func (m *Metrics) ObserveExtraction() {
	if m == nil {
		return
	}
	m.extractions.Inc()
}

// CallStarted increments the active-call gauge.
func (m *Metrics) CallStarted() {
	if m == nil {
		return
	}
	m.activeCalls.Inc()
}

// CallEnded decrements the active-call gauge.
func (m *Metrics) CallEnded() {
	if m == nil {
		return
	}
	m.activeCalls.Dec()
}
