package metrics

import (
	"io"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/mmynk/debtledger/internal/models"
)

func TestCounters(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)

	m.TransactionRecorded(models.TransactionTypeExpense, models.StatusApproved)
	m.TransactionRecorded(models.TransactionTypeExpense, models.StatusApproved)
	m.TransactionRecorded(models.TransactionTypePayment, models.StatusPending)
	m.StatusChanged(models.StatusPending, models.StatusApproved)
	m.StoreConflict()
	m.SplitAssignment(true)
	m.SplitAssignment(false)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"approved expenses", testutil.ToFloat64(m.TransactionsRecorded.WithLabelValues("EXPENSE", "APPROVED")), 2},
		{"pending payments", testutil.ToFloat64(m.TransactionsRecorded.WithLabelValues("PAYMENT", "PENDING")), 1},
		{"pending to approved", testutil.ToFloat64(m.StatusTransitions.WithLabelValues("PENDING", "APPROVED")), 1},
		{"conflicts", testutil.ToFloat64(m.StoreConflicts), 1},
		{"split ok", testutil.ToFloat64(m.SplitAssignments.WithLabelValues("ok")), 1},
		{"split failed", testutil.ToFloat64(m.SplitAssignments.WithLabelValues("failed")), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Errorf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	m.TransactionRecorded(models.TransactionTypeExpense, models.StatusApproved)
	m.StatusChanged(models.StatusPending, models.StatusRejected)
	m.StoreConflict()
	m.SplitAssignment(true)
}

func TestHandler(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg)
	m.StoreConflict()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "debtledger_store_conflicts_total 1") {
		t.Errorf("metrics output missing conflict counter:\n%s", body)
	}
}
