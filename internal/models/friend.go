package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Friend is a counterparty of the ledger owner.
type Friend struct {
	// ID is the unique identifier for the friend (UUID format). Immutable.
	ID string

	// Name is the display label.
	Name string

	// AccessCode is the 6-digit code the friend uses for self-service lookup.
	// Unique across all friends.
	AccessCode string

	// Balance is what the friend owes the owner. Positive = friend owes owner,
	// negative = owner owes friend. Always equals the net of the friend's
	// APPROVED transactions.
	Balance decimal.Decimal

	// Version is bumped on every balance write and guards it with compare-and-swap.
	Version int64

	// CreatedAt is when the friend was added.
	CreatedAt time.Time
}
