package ledger

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/money"
	"github.com/mmynk/debtledger/internal/storage"
)

// ValidStatus reports whether s is a known transaction status.
func ValidStatus(s models.TransactionStatus) bool {
	switch s {
	case models.StatusPending, models.StatusApproved, models.StatusRejected:
		return true
	}
	return false
}

// ValidType reports whether t is a known transaction type.
func ValidType(t models.TransactionType) bool {
	switch t {
	case models.TransactionTypeExpense, models.TransactionTypePayment:
		return true
	}
	return false
}

// Effect is the signed change an approved transaction makes to the balance.
func Effect(t models.TransactionType, amount decimal.Decimal) decimal.Decimal {
	if t == models.TransactionTypePayment {
		return amount.Neg()
	}
	return amount
}

// TransitionDelta is the balance change caused by moving a transaction from
// one status to another. Only crossing the APPROVED boundary moves the balance.
func TransitionDelta(t models.TransactionType, amount decimal.Decimal, from, to models.TransactionStatus) decimal.Decimal {
	switch {
	case from == to:
		return decimal.Zero
	case to == models.StatusApproved:
		return Effect(t, amount)
	case from == models.StatusApproved:
		return Effect(t, amount).Neg()
	default:
		return decimal.Zero
	}
}

// SetStatus moves a transaction to status, adjusting the friend's balance in
// the same unit. Setting the current status again is a no-op.
func (s *Service) SetStatus(ctx context.Context, txID string, status models.TransactionStatus) error {
	if !ValidStatus(status) {
		return apperrors.WithMessage(apperrors.ErrInvalidInput, fmt.Sprintf("unknown status %q", status))
	}

	var (
		from     models.TransactionStatus
		friendID string
		changed  bool
	)
	err := s.store.RunInTx(ctx, func(tx storage.LedgerTx) error {
		changed = false

		t, err := tx.GetTransaction(ctx, txID)
		if err != nil {
			return err
		}
		from, friendID = t.Status, t.FriendID
		if t.Status == status {
			return nil
		}

		friend, err := tx.GetFriend(ctx, t.FriendID)
		if err != nil {
			return err
		}

		if err := tx.UpdateTransactionStatus(ctx, txID, status); err != nil {
			return err
		}

		delta := TransitionDelta(t.Type, t.Amount, t.Status, status)
		if !delta.IsZero() {
			if err := tx.UpdateFriendBalance(ctx, friend, money.Snap(friend.Balance.Add(delta))); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	s.metrics.StatusChanged(from, status)
	s.logger.Info("Transaction status changed",
		"transaction_id", txID,
		"friend_id", friendID,
		"from", from,
		"to", status,
	)
	s.publish(ctx, friendID)
	return nil
}
