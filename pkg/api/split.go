package api

import (
	"github.com/shopspring/decimal"
)

// BillItem is one line of an itemized bill.
type BillItem struct {
	ID         string          `json:"id,omitempty"`
	Name       string          `json:"name" validate:"required,max=200"`
	Price      decimal.Decimal `json:"price" validate:"gte=0"`
	Quantity   decimal.Decimal `json:"quantity" validate:"gte=0"` // zero means 1
	AssignedTo []string        `json:"assignedTo" validate:"dive,required"`
}

// Bill is an archived split.
type Bill struct {
	ID            string          `json:"id"`
	Date          Timestamp       `json:"date"`
	Title         string          `json:"title"`
	Items         []*BillItem     `json:"items,omitempty"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Total         decimal.Decimal `json:"total"`
	PayerID       string          `json:"payerId"`
}

// Share is what one friend owes for a bill.
type Share struct {
	FriendID string          `json:"friendId"`
	Amount   decimal.Decimal `json:"amount"`
}

// CalculateSplitRequest previews a split without writing anything.
// Zero Subtotal or Total means "derive it".
type CalculateSplitRequest struct {
	Items         []*BillItem     `json:"items" validate:"required,min=1,dive,required"`
	Subtotal      decimal.Decimal `json:"subtotal" validate:"gte=0"`
	Tax           decimal.Decimal `json:"tax" validate:"gte=0"`
	ServiceCharge decimal.Decimal `json:"serviceCharge" validate:"gte=0"`
	Total         decimal.Decimal `json:"total" validate:"gte=0"`
}

type CalculateSplitResponse struct {
	Shares     []*Share        `json:"shares"`
	Subtotal   decimal.Decimal `json:"subtotal"`
	Total      decimal.Decimal `json:"total"`
	Multiplier decimal.Decimal `json:"multiplier"`
	// Unassigned names the items nobody was assigned to.
	Unassigned []string `json:"unassigned,omitempty"`
}

// FinalizeSplitRequest charges every assignee. Setting OnlyFriendIDs
// retries just those friends and skips archiving the bill again.
type FinalizeSplitRequest struct {
	Title         string          `json:"title" validate:"max=200"`
	Items         []*BillItem     `json:"items" validate:"required,min=1,dive,required"`
	Subtotal      decimal.Decimal `json:"subtotal" validate:"gte=0"`
	Tax           decimal.Decimal `json:"tax" validate:"gte=0"`
	ServiceCharge decimal.Decimal `json:"serviceCharge" validate:"gte=0"`
	Total         decimal.Decimal `json:"total" validate:"gte=0"`
	Date          *Timestamp      `json:"date,omitempty"`
	OnlyFriendIDs []string        `json:"onlyFriendIds,omitempty" validate:"dive,required"`
}

// SplitAssignment is the outcome of charging one friend.
type SplitAssignment struct {
	FriendID      string          `json:"friendId"`
	Amount        decimal.Decimal `json:"amount"`
	TransactionID string          `json:"transactionId,omitempty"`
	Error         string          `json:"error,omitempty"`
}

type FinalizeSplitResponse struct {
	Assignments     []*SplitAssignment `json:"assignments"`
	FailedFriendIDs []string           `json:"failedFriendIds,omitempty"`
	Unassigned      []string           `json:"unassigned,omitempty"`
	Bill            *Bill              `json:"bill,omitempty"`
	BillError       string             `json:"billError,omitempty"`
}

// ExtractReceiptRequest carries a receipt image, either base64 or a data URL.
type ExtractReceiptRequest struct {
	Image    string `json:"image" validate:"required"`
	MimeType string `json:"mimeType"`
}

type ReceiptItem struct {
	Name     string          `json:"name"`
	Price    decimal.Decimal `json:"price"`
	Quantity decimal.Decimal `json:"quantity"`
}

type ExtractReceiptResponse struct {
	Items         []*ReceiptItem  `json:"items"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	Tax           decimal.Decimal `json:"tax"`
	ServiceCharge decimal.Decimal `json:"serviceCharge"`
	Total         decimal.Decimal `json:"total"`
}

type GetBillRequest struct {
	BillID string `json:"billId" validate:"required"`
}

type GetBillResponse struct {
	Bill *Bill `json:"bill"`
}

type ListBillsRequest struct{}

type ListBillsResponse struct {
	Bills []*Bill `json:"bills"`
}
