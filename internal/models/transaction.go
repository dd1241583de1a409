package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// TransactionType is the direction of a ledger entry.
type TransactionType string

const (
	// TransactionTypeExpense increases what the friend owes.
	TransactionTypeExpense TransactionType = "EXPENSE"
	// TransactionTypePayment decreases what the friend owes.
	TransactionTypePayment TransactionType = "PAYMENT"
)

// TransactionStatus is the approval state of a ledger entry.
// Only APPROVED entries count toward the friend's balance.
type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"
)

// Transaction is one ledger entry.
type Transaction struct {
	// ID is the unique identifier for the transaction (UUID format).
	ID string

	// FriendID is the owning friend.
	FriendID string

	// Amount is always positive; Type carries the direction.
	Amount decimal.Decimal

	Type   TransactionType
	Status TransactionStatus

	// Date is the economic date of the entry and drives chronological ordering.
	Date time.Time

	Description string

	// ProofImage is an opaque reference to evidence of payment. Required for
	// friend-submitted payments, empty otherwise.
	ProofImage string

	// CreatedAt is the write timestamp.
	CreatedAt time.Time
}
