package telemetry

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/dshills/revstack/internal/history"
)

const (
	namespace = "revstack"
	subsystem = "history"
)

// Metrics counts history events.
type Metrics struct {
	completed    prometheus.Counter
	operations   prometheus.Counter
	rollbacks    prometheus.Counter
	rollforwards prometheus.Counter
	discarded    *prometheus.CounterVec
	clears       prometheus.Counter
}

// NewMetrics creates the collectors and registers them with reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		completed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transactions_completed_total",
			Help:      "Total number of transactions that entered the history",
		}),
		operations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "operations_completed_total",
			Help:      "Total number of operations in completed transactions, after merging",
		}),
		rollbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rollbacks_total",
			Help:      "Total number of transactions rolled back",
		}),
		rollforwards: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "rollforwards_total",
			Help:      "Total number of transactions rolled forward",
		}),
		discarded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "transactions_discarded_total",
			Help:      "Total number of transactions discarded by reason",
		}, []string{"reason"}),
		clears: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "clears_total",
			Help:      "Total number of history clears",
		}),
	}

	for _, c := range []prometheus.Collector{m.completed, m.operations, m.rollbacks, m.rollforwards, m.discarded, m.clears} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register history metrics: %w", err)
		}
	}
	return m, nil
}

// TransactionCompleted counts the transaction and its operations.
func (m *Metrics) TransactionCompleted(t *history.Transaction) {
	m.completed.Inc()
	m.operations.Add(float64(t.Len()))
}

// TransactionRollbacked counts a rollback.
func (m *Metrics) TransactionRollbacked(*history.Transaction) {
	m.rollbacks.Inc()
}

// TransactionRollforwarded counts a rollforward.
func (m *Metrics) TransactionRollforwarded(*history.Transaction) {
	m.rollforwards.Inc()
}

// TransactionDiscarded counts discarded transactions by reason.
func (m *Metrics) TransactionDiscarded(ts []*history.Transaction, reason history.DiscardReason) {
	m.discarded.WithLabelValues(reason.String()).Add(float64(len(ts)))
}

// Cleared counts a cleared history.
func (m *Metrics) Cleared() {
	m.clears.Inc()
}
