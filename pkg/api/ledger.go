package api

import (
	"github.com/shopspring/decimal"
)

// Friend is a counterparty and what they currently owe.
type Friend struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// AccessCode is only returned to the admin.
	AccessCode string          `json:"accessCode,omitempty"`
	Balance    decimal.Decimal `json:"balance"`
	CreatedAt  Timestamp       `json:"createdAt"`
}

// Transaction is one ledger entry.
type Transaction struct {
	ID          string          `json:"id"`
	FriendID    string          `json:"friendId"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type"`
	Status      string          `json:"status"`
	Date        Timestamp       `json:"date"`
	Description string          `json:"description"`
	ProofImage  string          `json:"proofImage,omitempty"`
	CreatedAt   Timestamp       `json:"createdAt"`
}

// OpenExpense is an expense not yet covered by approved payments.
type OpenExpense struct {
	TransactionID string          `json:"transactionId"`
	Date          Timestamp       `json:"date"`
	Amount        decimal.Decimal `json:"amount"`
	Remaining     decimal.Decimal `json:"remaining"`
}

type AddFriendRequest struct {
	Name string `json:"name" validate:"required,max=100"`
}

type AddFriendResponse struct {
	Friend *Friend `json:"friend"`
}

type ListFriendsRequest struct{}

type ListFriendsResponse struct {
	Friends []*Friend `json:"friends"`
}

// GetFriendRequest looks up a friend. Friends may omit FriendID to get themselves.
type GetFriendRequest struct {
	FriendID string `json:"friendId"`
}

type GetFriendResponse struct {
	Friend *Friend `json:"friend"`
}

type DeleteFriendRequest struct {
	FriendID string `json:"friendId" validate:"required"`
}

type DeleteFriendResponse struct{}

// RecordTransactionRequest adds an entry. Status defaults to APPROVED and
// Date to the server's clock.
type RecordTransactionRequest struct {
	FriendID    string          `json:"friendId" validate:"required"`
	Amount      decimal.Decimal `json:"amount"`
	Type        string          `json:"type" validate:"required,transaction_type"`
	Status      string          `json:"status" validate:"omitempty,transaction_status"`
	Description string          `json:"description" validate:"max=200"`
	ProofImage  string          `json:"proofImage"`
	Date        *Timestamp      `json:"date,omitempty"`
}

type RecordTransactionResponse struct {
	Transaction *Transaction `json:"transaction"`
}

// SubmitPaymentRequest is a friend reporting a payment for approval.
// FriendID is taken from the session for friends and required for the admin.
type SubmitPaymentRequest struct {
	FriendID    string          `json:"friendId"`
	Amount      decimal.Decimal `json:"amount"`
	Description string          `json:"description" validate:"max=200"`
	ProofImage  string          `json:"proofImage" validate:"required"`
}

type SubmitPaymentResponse struct {
	Transaction *Transaction `json:"transaction"`
}

type SetTransactionStatusRequest struct {
	TransactionID string `json:"transactionId" validate:"required"`
	Status        string `json:"status" validate:"required,transaction_status"`
}

type SetTransactionStatusResponse struct{}

type SettleDebtRequest struct {
	FriendID string `json:"friendId" validate:"required"`
}

// SettleDebtResponse carries the settling payment, or nothing when the
// friend owed nothing.
type SettleDebtResponse struct {
	Settled     bool         `json:"settled"`
	Transaction *Transaction `json:"transaction,omitempty"`
}

// ListTransactionsRequest filters the ledger. Empty fields do not filter.
type ListTransactionsRequest struct {
	FriendID string     `json:"friendId"`
	Type     string     `json:"type" validate:"omitempty,transaction_type"`
	Status   string     `json:"status" validate:"omitempty,transaction_status"`
	From     *Timestamp `json:"from,omitempty"`
	To       *Timestamp `json:"to,omitempty"`
}

type ListTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}

type GetUnsettledExpensesRequest struct {
	FriendID string `json:"friendId"`
}

type GetUnsettledExpensesResponse struct {
	Expenses    []*OpenExpense  `json:"expenses"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

type ReconcileFriendRequest struct {
	FriendID string `json:"friendId" validate:"required"`
}

type ReconcileFriendResponse struct {
	FriendID        string          `json:"friendId"`
	StoredBalance   decimal.Decimal `json:"storedBalance"`
	ExpectedBalance decimal.Decimal `json:"expectedBalance"`
	Outstanding     decimal.Decimal `json:"outstanding"`
	Consistent      bool            `json:"consistent"`
}

type WatchFriendsRequest struct{}

type WatchFriendsResponse struct {
	Friends []*Friend `json:"friends"`
}

type WatchTransactionsRequest struct {
	FriendID string `json:"friendId"`
}

type WatchTransactionsResponse struct {
	Transactions []*Transaction `json:"transactions"`
}
