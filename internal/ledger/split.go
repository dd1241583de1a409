package ledger

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/models"
)

// DefaultBillTitle is used when a split is finalized without a title.
const DefaultBillTitle = "Hangout Bill"

// SplitRequest is an itemized bill to charge to its assignees.
type SplitRequest struct {
	Title         string
	Items         []models.BillItem
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	ServiceCharge decimal.Decimal
	Total         decimal.Decimal
	Date          time.Time

	// OnlyFriendIDs restricts the writes to these friends. Used to retry the
	// failures of an earlier attempt without charging the others twice.
	OnlyFriendIDs []string
}

// Assignment is the outcome of charging one friend.
type Assignment struct {
	FriendID      string
	Amount        decimal.Decimal
	TransactionID string
	Err           error
}

// SplitResult reports every friend's outcome and the archived bill.
type SplitResult struct {
	Allocation  *calculator.Allocation
	Assignments []Assignment // ordered by friend ID

	// Bill is the archived record, nil on retries or when archiving failed.
	Bill    *models.Bill
	BillErr error
}

// FailedFriendIDs lists the friends whose charge did not commit.
func (r *SplitResult) FailedFriendIDs() []string {
	var ids []string
	for _, a := range r.Assignments {
		if a.Err != nil {
			ids = append(ids, a.FriendID)
		}
	}
	return ids
}

// FinalizeSplit allocates the bill and writes one APPROVED EXPENSE per
// assignee. Writes are independent: a failure for one friend leaves the
// others committed and is reported in its Assignment. The bill is archived
// afterwards on first attempts only.
func (s *Service) FinalizeSplit(ctx context.Context, req SplitRequest) (*SplitResult, error) {
	alloc, err := calculator.Allocate(calculator.SplitInput{
		Items:         req.Items,
		Subtotal:      req.Subtotal,
		Tax:           req.Tax,
		ServiceCharge: req.ServiceCharge,
		Total:         req.Total,
	})
	if err != nil {
		return nil, err
	}
	if len(alloc.Shares) == 0 {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "no friend has anything to pay on this bill")
	}
	if len(alloc.Unassigned) > 0 {
		s.logger.Warn("Bill has unassigned items", "items", alloc.Unassigned)
	}

	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = DefaultBillTitle
	}
	date := req.Date
	if date.IsZero() {
		date = s.now()
	}

	targets, err := s.splitTargets(alloc, req.OnlyFriendIDs)
	if err != nil {
		return nil, err
	}

	result := &SplitResult{
		Allocation:  alloc,
		Assignments: make([]Assignment, len(targets)),
	}

	var g errgroup.Group
	g.SetLimit(s.splitConcurrency)
	for i, friendID := range targets {
		amount := alloc.Shares[friendID]
		g.Go(func() error {
			a := Assignment{FriendID: friendID, Amount: amount}
			tx, err := s.RecordTransaction(ctx, RecordRequest{
				FriendID:    friendID,
				Amount:      amount,
				Type:        models.TransactionTypeExpense,
				Status:      models.StatusApproved,
				Description: "Split Bill: " + title,
				Date:        date,
			})
			if err != nil {
				a.Err = err
				s.logger.Error("Split charge failed", "friend_id", friendID, "amount", amount.String(), "error", err)
			} else {
				a.TransactionID = tx.ID
			}
			s.metrics.SplitAssignment(err == nil)
			result.Assignments[i] = a
			// failures are reported per friend, never returned
			return nil
		})
	}
	_ = g.Wait()

	failed := result.FailedFriendIDs()
	s.logger.Info("Split finalized",
		"title", title,
		"charged", len(targets)-len(failed),
		"failed", failed,
	)

	if len(req.OnlyFriendIDs) > 0 {
		return result, nil
	}

	bill := &models.Bill{
		Date:          date,
		Title:         title,
		Items:         req.Items,
		Subtotal:      alloc.EffectiveSubtotal,
		Tax:           req.Tax,
		ServiceCharge: req.ServiceCharge,
		Total:         alloc.EffectiveTotal,
		PayerID:       models.AdminPayerID,
	}
	if err := s.store.CreateBill(context.WithoutCancel(ctx), bill); err != nil {
		s.logger.Error("Failed to archive bill", "title", title, "error", err)
		result.BillErr = err
	} else {
		result.Bill = bill
	}
	return result, nil
}

// splitTargets returns the friends to charge, sorted. With a non-empty only
// list, every listed friend must hold a share.
func (s *Service) splitTargets(alloc *calculator.Allocation, only []string) ([]string, error) {
	all := alloc.FriendIDs()
	if len(only) == 0 {
		return all, nil
	}

	var targets []string
	for _, id := range only {
		if _, ok := alloc.Shares[id]; !ok {
			return nil, apperrors.WithMessage(apperrors.ErrInvalidInput,
				fmt.Sprintf("friend %s has no share on this bill", id))
		}
		if !slices.Contains(targets, id) {
			targets = append(targets, id)
		}
	}
	slices.Sort(targets)
	return targets, nil
}

// GetBill returns an archived bill with its items.
func (s *Service) GetBill(ctx context.Context, billID string) (*models.Bill, error) {
	return s.store.GetBill(ctx, billID)
}

// ListBills returns archived bill headers, newest first.
func (s *Service) ListBills(ctx context.Context) ([]*models.Bill, error) {
	return s.store.ListBills(ctx)
}
