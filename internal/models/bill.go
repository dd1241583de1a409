package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// AdminPayerID is the payer recorded on every archived bill.
const AdminPayerID = "admin"

// Bill is an archived itemized receipt. It does not take part in the balance
// invariant; the EXPENSE transactions derived from it do.
type Bill struct {
	// ID is the unique identifier for the bill (UUID format).
	ID string

	// Date is when the bill was split.
	Date time.Time

	// Title is the human-readable name for the bill.
	// Auto-generated from the date when empty.
	Title string

	// Items are the individual line items on the bill.
	Items []BillItem

	// Subtotal is the effective pre-surcharge amount used for the split.
	Subtotal decimal.Decimal

	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal

	// Total is the effective bill total including surcharges.
	Total decimal.Decimal

	// PayerID is who paid the bill up front, usually AdminPayerID.
	PayerID string
}

// BillItem is a single line on a bill.
// If several friends are assigned, the item is split equally among them.
type BillItem struct {
	// ID is the unique identifier for the item (UUID format).
	ID string

	// Name is the item description (e.g., "Pizza", "Beer").
	Name string

	// Price is the unit price before surcharges.
	Price decimal.Decimal

	Quantity decimal.Decimal

	// AssignedTo lists the friend IDs who consumed the item.
	AssignedTo []string
}

// Cost returns Price × Quantity.
func (i BillItem) Cost() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}
