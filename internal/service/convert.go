package service

import (
	"log/slog"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/pkg/api"
)

// toConnectError logs a failed operation and converts err for the wire.
// Caller mistakes are warnings; everything else is an error.
func toConnectError(logger *slog.Logger, op string, err error, args ...any) error {
	connectErr := apperrors.ToConnect(err)
	args = append(args, "error", err, "code", connectErr.Code())
	switch connectErr.Code() {
	case connect.CodeInvalidArgument, connect.CodeNotFound, connect.CodePermissionDenied,
		connect.CodeUnauthenticated, connect.CodeFailedPrecondition, connect.CodeUnimplemented:
		logger.Warn(op+" failed", args...)
	default:
		logger.Error(op+" failed", args...)
	}
	return connectErr
}

func toAPIFriend(f *models.Friend, withCode bool) *api.Friend {
	out := &api.Friend{
		ID:        f.ID,
		Name:      f.Name,
		Balance:   f.Balance,
		CreatedAt: api.NewTimestamp(f.CreatedAt),
	}
	if withCode {
		out.AccessCode = f.AccessCode
	}
	return out
}

func toAPIFriends(friends []*models.Friend, withCode bool) []*api.Friend {
	out := make([]*api.Friend, len(friends))
	for i, f := range friends {
		out[i] = toAPIFriend(f, withCode)
	}
	return out
}

func toAPITransaction(tx *models.Transaction) *api.Transaction {
	return &api.Transaction{
		ID:          tx.ID,
		FriendID:    tx.FriendID,
		Amount:      tx.Amount,
		Type:        string(tx.Type),
		Status:      string(tx.Status),
		Date:        api.NewTimestamp(tx.Date),
		Description: tx.Description,
		ProofImage:  tx.ProofImage,
		CreatedAt:   api.NewTimestamp(tx.CreatedAt),
	}
}

func toAPITransactions(txs []*models.Transaction) []*api.Transaction {
	out := make([]*api.Transaction, len(txs))
	for i, tx := range txs {
		out[i] = toAPITransaction(tx)
	}
	return out
}

func toAPIOpenExpenses(open []calculator.OpenExpense) []*api.OpenExpense {
	out := make([]*api.OpenExpense, len(open))
	for i, e := range open {
		out[i] = &api.OpenExpense{
			TransactionID: e.ID,
			Date:          api.NewTimestamp(e.Date),
			Amount:        e.Amount,
			Remaining:     e.Remaining,
		}
	}
	return out
}

func toAPIBill(b *models.Bill) *api.Bill {
	out := &api.Bill{
		ID:            b.ID,
		Date:          api.NewTimestamp(b.Date),
		Title:         b.Title,
		Subtotal:      b.Subtotal,
		Tax:           b.Tax,
		ServiceCharge: b.ServiceCharge,
		Total:         b.Total,
		PayerID:       b.PayerID,
	}
	for _, item := range b.Items {
		out.Items = append(out.Items, &api.BillItem{
			ID:         item.ID,
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   item.Quantity,
			AssignedTo: item.AssignedTo,
		})
	}
	return out
}

// toModelItems converts wire items. A zero quantity means one.
func toModelItems(items []*api.BillItem) []models.BillItem {
	out := make([]models.BillItem, len(items))
	for i, item := range items {
		qty := item.Quantity
		if qty.IsZero() {
			qty = decimal.NewFromInt(1)
		}
		out[i] = models.BillItem{
			Name:       item.Name,
			Price:      item.Price,
			Quantity:   qty,
			AssignedTo: item.AssignedTo,
		}
	}
	return out
}

func toAPIShares(alloc *calculator.Allocation) []*api.Share {
	ids := alloc.FriendIDs()
	out := make([]*api.Share, len(ids))
	for i, id := range ids {
		out[i] = &api.Share{FriendID: id, Amount: alloc.Shares[id]}
	}
	return out
}
