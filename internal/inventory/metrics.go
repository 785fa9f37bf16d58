package inventory

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the Prometheus instruments for the data-access core.
// A nil *Metrics is valid and turns every record call into a no-op, so
// tests and embedded uses don't need a registry.
type Metrics struct {
	dbState         *prometheus.GaugeVec
	connectAttempts prometheus.Counter
	connectFailures prometheus.Counter
	ordersPlaced    prometheus.Counter
	opErrors        *prometheus.CounterVec
}

// NewMetrics registers the core's instruments on the given registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		dbState: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "inventory_db_state",
			Help: "Current connection supervisor state (1 for the active state, 0 otherwise).",
		}, []string{"state"}),
		connectAttempts: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_db_connect_attempts_total",
			Help: "Total connection attempts made by the supervisor.",
		}),
		connectFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_db_connect_failures_total",
			Help: "Total failed connection attempts.",
		}),
		ordersPlaced: factory.NewCounter(prometheus.CounterOpts{
			Name: "inventory_orders_placed_total",
			Help: "Total orders successfully placed.",
		}),
		opErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inventory_operation_errors_total",
			Help: "Repository operation errors by kind tag.",
		}, []string{"kind"}),
	}
}

func (m *Metrics) recordState(state State) {
	if m == nil {
		return
	}
	for _, s := range allStates {
		v := 0.0
		if s == state {
			v = 1.0
		}
		m.dbState.WithLabelValues(s.String()).Set(v)
	}
}

func (m *Metrics) recordConnectAttempt() {
	if m == nil {
		return
	}
	m.connectAttempts.Inc()
}

func (m *Metrics) recordConnectFailure() {
	if m == nil {
		return
	}
	m.connectFailures.Inc()
}

func (m *Metrics) recordOrderPlaced() {
	if m == nil {
		return
	}
	m.ordersPlaced.Inc()
}

func (m *Metrics) recordOpError(kind Kind) {
	if m == nil {
		return
	}
	m.opErrors.WithLabelValues(kind.String()).Inc()
}
