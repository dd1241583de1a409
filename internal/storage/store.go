// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/models"
)

// ErrConflict is returned by LedgerTx.UpdateFriendBalance when the friend's
// version moved since it was read. Store.RunInTx retries the whole unit on it.
var ErrConflict = errors.New("concurrent update conflict")

// TransactionFilter narrows ListTransactions. Zero values mean "no filter".
type TransactionFilter struct {
	FriendID string
	Type     models.TransactionType
	Status   models.TransactionStatus
	From     *time.Time
	To       *time.Time
}

// LedgerTx is the view of the store inside one atomic unit. Reads see the
// unit's own writes; nothing is visible to others until the unit commits.
type LedgerTx interface {
	GetFriend(ctx context.Context, friendID string) (*models.Friend, error)
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)
	InsertTransaction(ctx context.Context, tx *models.Transaction) error
	UpdateTransactionStatus(ctx context.Context, txID string, status models.TransactionStatus) error

	// UpdateFriendBalance writes a new balance only if friend.Version still
	// matches the stored version, and bumps the version.
	UpdateFriendBalance(ctx context.Context, friend *models.Friend, balance decimal.Decimal) error
}

// Store defines the interface for ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the ledger layer.
type Store interface {
	// RunInTx runs fn as a single all-or-nothing unit. On a conflicting
	// concurrent write the unit is rolled back and fn is run again, up to
	// the store's retry budget; after that ErrStoreUnavailable is returned.
	RunInTx(ctx context.Context, fn func(tx LedgerTx) error) error

	// CreateFriend persists a new friend with zero balance.
	// The friend's ID, AccessCode and CreatedAt are populated by the store.
	CreateFriend(ctx context.Context, friend *models.Friend) error

	// GetFriend retrieves a friend by ID.
	GetFriend(ctx context.Context, friendID string) (*models.Friend, error)

	// GetFriendByAccessCode retrieves the friend holding code.
	GetFriendByAccessCode(ctx context.Context, code string) (*models.Friend, error)

	// ListFriends returns all friends ordered by name.
	ListFriends(ctx context.Context) ([]*models.Friend, error)

	// DeleteFriend removes a friend and all of its transactions together.
	DeleteFriend(ctx context.Context, friendID string) error

	// GetTransaction retrieves a transaction by ID.
	GetTransaction(ctx context.Context, txID string) (*models.Transaction, error)

	// ListTransactions returns matching transactions, newest date first.
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]*models.Transaction, error)

	// CreateBill archives a bill. The bill.ID field will be populated by the store.
	CreateBill(ctx context.Context, bill *models.Bill) error

	// GetBill retrieves a bill by ID, including items and assignments.
	GetBill(ctx context.Context, billID string) (*models.Bill, error)

	// ListBills returns bill headers (no items), newest first.
	ListBills(ctx context.Context) ([]*models.Bill, error)

	// Close releases any resources held by the store.
	Close() error
}
