package calculator

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/money"
)

// Reconciliation compares a friend's stored balance with what its history implies.
type Reconciliation struct {
	FriendID        string
	StoredBalance   decimal.Decimal
	ExpectedBalance decimal.Decimal
	Outstanding     decimal.Decimal // Σ remaining over unsettled expenses
	Consistent      bool            // stored == expected within one minor unit
}

// ExpectedBalance recomputes a balance from history alone:
// Σ APPROVED EXPENSE − Σ APPROVED PAYMENT. PENDING and REJECTED entries
// contribute nothing.
func ExpectedBalance(history []*models.Transaction) decimal.Decimal {
	balance := decimal.Zero
	for _, tx := range history {
		if tx.Status != models.StatusApproved {
			continue
		}
		switch tx.Type {
		case models.TransactionTypeExpense:
			balance = balance.Add(tx.Amount)
		case models.TransactionTypePayment:
			balance = balance.Sub(tx.Amount)
		}
	}
	return money.Snap(balance)
}

// Reconcile checks the stored balance of friend against its history. It never
// corrects anything; the stored balance stays authoritative.
func Reconcile(friend *models.Friend, history []*models.Transaction) Reconciliation {
	expected := ExpectedBalance(history)
	return Reconciliation{
		FriendID:        friend.ID,
		StoredBalance:   friend.Balance,
		ExpectedBalance: expected,
		Outstanding:     OutstandingTotal(UnsettledExpenses(history)),
		Consistent:      money.IsNegligible(friend.Balance.Sub(expected)),
	}
}
