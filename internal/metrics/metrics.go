// Package metrics exposes Prometheus counters for ledger activity.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mmynk/debtledger/internal/models"
)

const namespace = "debtledger"

// Metrics holds the ledger counters. A nil *Metrics is valid and records nothing.
type Metrics struct {
	TransactionsRecorded *prometheus.CounterVec
	StatusTransitions    *prometheus.CounterVec
	StoreConflicts       prometheus.Counter
	SplitAssignments     *prometheus.CounterVec
}

// New creates the counters and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		TransactionsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transactions_recorded_total",
			Help:      "Transactions written to the ledger, by type and initial status.",
		}, []string{"type", "status"}),
		StatusTransitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "status_transitions_total",
			Help:      "Transaction status changes, by previous and new status.",
		}, []string{"from", "to"}),
		StoreConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_conflicts_total",
			Help:      "Ledger units retried after losing a race with another writer.",
		}),
		SplitAssignments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "split_assignments_total",
			Help:      "Per-friend bill split writes, by result.",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.TransactionsRecorded,
		m.StatusTransitions,
		m.StoreConflicts,
		m.SplitAssignments,
	)
	return m
}

// TransactionRecorded counts a newly written transaction.
func (m *Metrics) TransactionRecorded(t models.TransactionType, s models.TransactionStatus) {
	if m == nil {
		return
	}
	m.TransactionsRecorded.WithLabelValues(string(t), string(s)).Inc()
}

// StatusChanged counts a status transition.
func (m *Metrics) StatusChanged(from, to models.TransactionStatus) {
	if m == nil {
		return
	}
	m.StatusTransitions.WithLabelValues(string(from), string(to)).Inc()
}

// StoreConflict counts one retried ledger unit.
func (m *Metrics) StoreConflict() {
	if m == nil {
		return
	}
	m.StoreConflicts.Inc()
}

// SplitAssignment counts one friend's split write outcome.
func (m *Metrics) SplitAssignment(ok bool) {
	if m == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "failed"
	}
	m.SplitAssignments.WithLabelValues(result).Inc()
}

// Handler serves the metrics gathered by g in the Prometheus text format.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}
