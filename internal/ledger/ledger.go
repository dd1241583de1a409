// Package ledger owns every write that moves a friend's balance.
//
// Each operation runs as a single store unit: the transaction row and the
// balance it implies are committed together or not at all. After a commit the
// ledger records metrics and tells the notifier which friend changed.
package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/metrics"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/money"
	"github.com/mmynk/debtledger/internal/storage"
)

const (
	// SettleDescription labels the payment written by SettleDebt.
	SettleDescription = "Manual Settle Up (Admin)"
	// DefaultPaymentDescription labels friend-submitted payments with no description.
	DefaultPaymentDescription = "Manual Payment"
	// DefaultSplitConcurrency bounds concurrent writes in FinalizeSplit.
	DefaultSplitConcurrency = 4
)

// Notifier is told which friend changed after each committed write.
type Notifier interface {
	Publish(ctx context.Context, friendID string)
}

// Service is the balance ledger.
type Service struct {
	store            storage.Store
	notifier         Notifier
	metrics          *metrics.Metrics
	logger           *slog.Logger
	now              func() time.Time
	splitConcurrency int
}

// Option configures a Service.
type Option func(*Service)

// WithNotifier sets where change notifications go.
func WithNotifier(n Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics sets the counters the ledger records into.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock overrides the time source used for default dates.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithSplitConcurrency bounds how many split writes run at once.
func WithSplitConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.splitConcurrency = n
		}
	}
}

// New creates a ledger over store.
func New(store storage.Store, logger *slog.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Service{
		store:            store,
		logger:           logger,
		now:              func() time.Time { return time.Now().UTC() },
		splitConcurrency: DefaultSplitConcurrency,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RecordRequest describes a new transaction.
type RecordRequest struct {
	FriendID    string
	Amount      decimal.Decimal
	Type        models.TransactionType
	Status      models.TransactionStatus // empty means APPROVED
	Description string
	ProofImage  string
	Date        time.Time // zero means now
}

// RecordTransaction writes a transaction and, when it is APPROVED, applies its
// effect to the friend's balance in the same unit.
func (s *Service) RecordTransaction(ctx context.Context, req RecordRequest) (*models.Transaction, error) {
	if err := money.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if !ValidType(req.Type) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown transaction type %q", req.Type))
	}
	if req.Status == "" {
		req.Status = models.StatusApproved
	}
	if !ValidStatus(req.Status) {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown status %q", req.Status))
	}

	id, err := uuid.NewV7()
	if err != nil {
		return nil, fmt.Errorf("failed to generate transaction id: %w", err)
	}
	now := s.now()
	t := &models.Transaction{
		ID:          id.String(),
		FriendID:    req.FriendID,
		Amount:      req.Amount,
		Type:        req.Type,
		Status:      req.Status,
		Date:        req.Date,
		Description: req.Description,
		ProofImage:  req.ProofImage,
		CreatedAt:   now,
	}
	if t.Date.IsZero() {
		t.Date = now
	}

	err = s.store.RunInTx(ctx, func(tx storage.LedgerTx) error {
		friend, err := tx.GetFriend(ctx, t.FriendID)
		if err != nil {
			return err
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		if t.Status != models.StatusApproved {
			return nil
		}
		next := money.Snap(friend.Balance.Add(Effect(t.Type, t.Amount)))
		return tx.UpdateFriendBalance(ctx, friend, next)
	})
	if err != nil {
		return nil, err
	}

	s.metrics.TransactionRecorded(t.Type, t.Status)
	s.logger.Info("Transaction recorded",
		"transaction_id", t.ID,
		"friend_id", t.FriendID,
		"type", t.Type,
		"status", t.Status,
		"amount", t.Amount.String(),
	)
	s.publish(ctx, t.FriendID)
	return t, nil
}

// SubmitPayment records a friend's own PENDING payment awaiting approval.
// A proof reference is required.
func (s *Service) SubmitPayment(ctx context.Context, friendID string, amount decimal.Decimal, description, proofImage string) (*models.Transaction, error) {
	if strings.TrimSpace(proofImage) == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "proof of payment is required")
	}
	if strings.TrimSpace(description) == "" {
		description = DefaultPaymentDescription
	}
	return s.RecordTransaction(ctx, RecordRequest{
		FriendID:    friendID,
		Amount:      amount,
		Type:        models.TransactionTypePayment,
		Status:      models.StatusPending,
		Description: description,
		ProofImage:  proofImage,
	})
}

// SettleDebt writes an APPROVED payment for the friend's whole positive
// balance and zeroes it. A balance of zero or less is left alone and nil is
// returned with no error.
func (s *Service) SettleDebt(ctx context.Context, friendID string) (*models.Transaction, error) {
	var settled *models.Transaction
	err := s.store.RunInTx(ctx, func(tx storage.LedgerTx) error {
		settled = nil

		friend, err := tx.GetFriend(ctx, friendID)
		if err != nil {
			return err
		}
		if !friend.Balance.IsPositive() {
			return nil
		}

		id, err := uuid.NewV7()
		if err != nil {
			return fmt.Errorf("failed to generate transaction id: %w", err)
		}
		now := s.now()
		t := &models.Transaction{
			ID:          id.String(),
			FriendID:    friendID,
			Amount:      friend.Balance,
			Type:        models.TransactionTypePayment,
			Status:      models.StatusApproved,
			Date:        now,
			Description: SettleDescription,
			CreatedAt:   now,
		}
		if err := tx.InsertTransaction(ctx, t); err != nil {
			return err
		}
		if err := tx.UpdateFriendBalance(ctx, friend, decimal.Zero); err != nil {
			return err
		}
		settled = t
		return nil
	})
	if err != nil {
		return nil, err
	}
	if settled == nil {
		s.logger.Debug("Nothing to settle", "friend_id", friendID)
		return nil, nil
	}

	s.metrics.TransactionRecorded(settled.Type, settled.Status)
	s.logger.Info("Debt settled", "friend_id", friendID, "amount", settled.Amount.String())
	s.publish(ctx, friendID)
	return settled, nil
}

// AddFriend creates a friend with a zero balance and a fresh access code.
func (s *Service) AddFriend(ctx context.Context, name string) (*models.Friend, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "friend name is required")
	}

	friend := &models.Friend{Name: name, CreatedAt: s.now()}
	if err := s.store.CreateFriend(ctx, friend); err != nil {
		return nil, err
	}

	s.logger.Info("Friend added", "friend_id", friend.ID, "name", friend.Name)
	s.publish(ctx, friend.ID)
	return friend, nil
}

// GetFriend returns one friend.
func (s *Service) GetFriend(ctx context.Context, friendID string) (*models.Friend, error) {
	return s.store.GetFriend(ctx, friendID)
}

// GetFriendByAccessCode returns the friend holding code.
func (s *Service) GetFriendByAccessCode(ctx context.Context, code string) (*models.Friend, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "access code is required")
	}
	return s.store.GetFriendByAccessCode(ctx, code)
}

// ListFriends returns every friend ordered by name.
func (s *Service) ListFriends(ctx context.Context) ([]*models.Friend, error) {
	return s.store.ListFriends(ctx)
}

// DeleteFriend removes a friend together with all of their transactions.
func (s *Service) DeleteFriend(ctx context.Context, friendID string) error {
	if err := s.store.DeleteFriend(ctx, friendID); err != nil {
		return err
	}
	s.logger.Info("Friend deleted", "friend_id", friendID)
	s.publish(ctx, friendID)
	return nil
}

// ListTransactions returns matching transactions, newest date first.
func (s *Service) ListTransactions(ctx context.Context, filter storage.TransactionFilter) ([]*models.Transaction, error) {
	return s.store.ListTransactions(ctx, filter)
}

// history returns a friend's transactions in insertion-stable chronological order.
func (s *Service) history(ctx context.Context, friendID string) ([]*models.Transaction, error) {
	txs, err := s.store.ListTransactions(ctx, storage.TransactionFilter{FriendID: friendID})
	if err != nil {
		return nil, err
	}
	slices.Reverse(txs)
	return txs, nil
}

// Unsettled returns the friend's expenses not yet covered by approved payments.
func (s *Service) Unsettled(ctx context.Context, friendID string) ([]calculator.OpenExpense, error) {
	if _, err := s.store.GetFriend(ctx, friendID); err != nil {
		return nil, err
	}
	txs, err := s.history(ctx, friendID)
	if err != nil {
		return nil, err
	}
	return calculator.UnsettledExpenses(txs), nil
}

// Reconcile compares the stored balance against the one implied by history.
// It never writes.
func (s *Service) Reconcile(ctx context.Context, friendID string) (calculator.Reconciliation, error) {
	friend, err := s.store.GetFriend(ctx, friendID)
	if err != nil {
		return calculator.Reconciliation{}, err
	}
	txs, err := s.history(ctx, friendID)
	if err != nil {
		return calculator.Reconciliation{}, err
	}

	rec := calculator.Reconcile(friend, txs)
	if !rec.Consistent {
		s.logger.Warn("Balance drift detected",
			"friend_id", friendID,
			"stored", rec.StoredBalance.String(),
			"expected", rec.ExpectedBalance.String(),
		)
	}
	return rec, nil
}

func (s *Service) publish(ctx context.Context, friendID string) {
	if s.notifier == nil {
		return
	}
	s.notifier.Publish(ctx, friendID)
}
