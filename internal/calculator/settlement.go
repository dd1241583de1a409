package calculator

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/money"
)

// OpenExpense is an expense that approved payments have not yet fully covered.
type OpenExpense struct {
	ID        string
	Date      time.Time
	Amount    decimal.Decimal
	Remaining decimal.Decimal
}

// UnsettledExpenses replays a friend's history and returns the expenses still
// outstanding, oldest first.
//
// Algorithm (FIFO):
// - Sort by date ascending; entries on the same date keep their input order
// - EXPENSE not REJECTED: enqueue with remaining = amount
// - APPROVED PAYMENT: consume from the queue head, popping heads that become negligible
// - Payment left over once the queue is empty is dropped, not carried as credit
func UnsettledExpenses(history []*models.Transaction) []OpenExpense {
	sorted := make([]*models.Transaction, len(history))
	copy(sorted, history)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Date.Before(sorted[j].Date)
	})

	var queue []*OpenExpense
	for _, tx := range sorted {
		switch {
		case tx.Type == models.TransactionTypeExpense && tx.Status != models.StatusRejected:
			queue = append(queue, &OpenExpense{
				ID:        tx.ID,
				Date:      tx.Date,
				Amount:    tx.Amount,
				Remaining: tx.Amount,
			})

		case tx.Type == models.TransactionTypePayment && tx.Status == models.StatusApproved:
			payLeft := tx.Amount
			for payLeft.IsPositive() && len(queue) > 0 {
				head := queue[0]
				applied := decimal.Min(head.Remaining, payLeft)
				head.Remaining = head.Remaining.Sub(applied)
				payLeft = payLeft.Sub(applied)
				if money.IsNegligible(head.Remaining) {
					queue = queue[1:]
				}
			}
		}
	}

	open := make([]OpenExpense, 0, len(queue))
	for _, e := range queue {
		if money.IsNegligible(e.Remaining) {
			continue
		}
		open = append(open, *e)
	}
	return open
}

// UnsettledExpenseIDs returns the set of IDs UnsettledExpenses reports.
func UnsettledExpenseIDs(history []*models.Transaction) map[string]struct{} {
	ids := make(map[string]struct{})
	for _, e := range UnsettledExpenses(history) {
		ids[e.ID] = struct{}{}
	}
	return ids
}

// OutstandingTotal sums Remaining over open expenses.
func OutstandingTotal(open []OpenExpense) decimal.Decimal {
	total := decimal.Zero
	for _, e := range open {
		total = total.Add(e.Remaining)
	}
	return total
}
