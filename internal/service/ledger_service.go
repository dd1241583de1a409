package service

import (
	"context"
	"errors"
	"log/slog"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/middleware"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/notify"
	"github.com/mmynk/debtledger/internal/storage"
	"github.com/mmynk/debtledger/pkg/api"
	"github.com/mmynk/debtledger/pkg/api/apiconnect"
)

// LedgerService implements the Connect LedgerService.
type LedgerService struct {
	ledger   *ledger.Service
	hub      *notify.Hub
	validate *validator.Validate
	logger   *slog.Logger
}

var _ apiconnect.LedgerServiceHandler = (*LedgerService)(nil)

// NewLedgerService creates a LedgerService. Watch RPCs stream from hub.
func NewLedgerService(l *ledger.Service, hub *notify.Hub, logger *slog.Logger) *LedgerService {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerService{
		ledger:   l,
		hub:      hub,
		validate: newValidator(),
		logger:   logger,
	}
}

// AddFriend creates a friend with a fresh access code.
func (s *LedgerService) AddFriend(ctx context.Context, req *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "AddFriend", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "AddFriend", err)
	}

	friend, err := s.ledger.AddFriend(ctx, req.Msg.Name)
	if err != nil {
		return nil, toConnectError(s.logger, "AddFriend", err)
	}

	return connect.NewResponse(&api.AddFriendResponse{Friend: toAPIFriend(friend, true)}), nil
}

// ListFriends returns every friend ordered by name.
func (s *LedgerService) ListFriends(ctx context.Context, req *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "ListFriends", err)
	}

	friends, err := s.ledger.ListFriends(ctx)
	if err != nil {
		return nil, toConnectError(s.logger, "ListFriends", err)
	}

	return connect.NewResponse(&api.ListFriendsResponse{Friends: toAPIFriends(friends, true)}), nil
}

// GetFriend returns one friend. Friends may only read themselves.
func (s *LedgerService) GetFriend(ctx context.Context, req *connect.Request[api.GetFriendRequest]) (*connect.Response[api.GetFriendResponse], error) {
	friendID, err := s.requireFriendScope(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetFriend", err)
	}

	friend, err := s.ledger.GetFriend(ctx, friendID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetFriend", err, "friend_id", friendID)
	}

	isAdmin := middleware.GetIdentity(ctx).IsAdmin()
	return connect.NewResponse(&api.GetFriendResponse{Friend: toAPIFriend(friend, isAdmin)}), nil
}

// DeleteFriend removes a friend together with their transactions.
func (s *LedgerService) DeleteFriend(ctx context.Context, req *connect.Request[api.DeleteFriendRequest]) (*connect.Response[api.DeleteFriendResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "DeleteFriend", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "DeleteFriend", err)
	}

	if err := s.ledger.DeleteFriend(ctx, req.Msg.FriendID); err != nil {
		return nil, toConnectError(s.logger, "DeleteFriend", err, "friend_id", req.Msg.FriendID)
	}

	return connect.NewResponse(&api.DeleteFriendResponse{}), nil
}

// RecordTransaction adds an entry on the admin's behalf.
func (s *LedgerService) RecordTransaction(ctx context.Context, req *connect.Request[api.RecordTransactionRequest]) (*connect.Response[api.RecordTransactionResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "RecordTransaction", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "RecordTransaction", err)
	}

	record := ledger.RecordRequest{
		FriendID:    req.Msg.FriendID,
		Amount:      req.Msg.Amount,
		Type:        models.TransactionType(req.Msg.Type),
		Status:      models.TransactionStatus(req.Msg.Status),
		Description: req.Msg.Description,
		ProofImage:  req.Msg.ProofImage,
	}
	if req.Msg.Date != nil {
		record.Date = req.Msg.Date.Time
	}

	tx, err := s.ledger.RecordTransaction(ctx, record)
	if err != nil {
		return nil, toConnectError(s.logger, "RecordTransaction", err, "friend_id", req.Msg.FriendID)
	}

	return connect.NewResponse(&api.RecordTransactionResponse{Transaction: toAPITransaction(tx)}), nil
}

// SubmitPayment records a PENDING payment with proof for the admin to review.
func (s *LedgerService) SubmitPayment(ctx context.Context, req *connect.Request[api.SubmitPaymentRequest]) (*connect.Response[api.SubmitPaymentResponse], error) {
	friendID, err := s.requireFriendScope(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, toConnectError(s.logger, "SubmitPayment", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "SubmitPayment", err)
	}

	tx, err := s.ledger.SubmitPayment(ctx, friendID, req.Msg.Amount, req.Msg.Description, req.Msg.ProofImage)
	if err != nil {
		return nil, toConnectError(s.logger, "SubmitPayment", err, "friend_id", friendID)
	}

	return connect.NewResponse(&api.SubmitPaymentResponse{Transaction: toAPITransaction(tx)}), nil
}

// SetTransactionStatus approves, rejects or reopens a transaction.
func (s *LedgerService) SetTransactionStatus(ctx context.Context, req *connect.Request[api.SetTransactionStatusRequest]) (*connect.Response[api.SetTransactionStatusResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "SetTransactionStatus", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "SetTransactionStatus", err)
	}

	if err := s.ledger.SetStatus(ctx, req.Msg.TransactionID, models.TransactionStatus(req.Msg.Status)); err != nil {
		return nil, toConnectError(s.logger, "SetTransactionStatus", err, "transaction_id", req.Msg.TransactionID)
	}

	return connect.NewResponse(&api.SetTransactionStatusResponse{}), nil
}

// SettleDebt zeroes a friend's balance with one approved payment.
func (s *LedgerService) SettleDebt(ctx context.Context, req *connect.Request[api.SettleDebtRequest]) (*connect.Response[api.SettleDebtResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "SettleDebt", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "SettleDebt", err)
	}

	tx, err := s.ledger.SettleDebt(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, toConnectError(s.logger, "SettleDebt", err, "friend_id", req.Msg.FriendID)
	}

	resp := &api.SettleDebtResponse{}
	if tx != nil {
		resp.Settled = true
		resp.Transaction = toAPITransaction(tx)
	}
	return connect.NewResponse(resp), nil
}

// ListTransactions returns matching entries, newest first. Friends only see their own.
func (s *LedgerService) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	friendID, err := middleware.ScopeFriend(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, toConnectError(s.logger, "ListTransactions", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "ListTransactions", err)
	}

	txs, err := s.ledger.ListTransactions(ctx, storage.TransactionFilter{
		FriendID: friendID,
		Type:     models.TransactionType(req.Msg.Type),
		Status:   models.TransactionStatus(req.Msg.Status),
		From:     req.Msg.From.TimePtr(),
		To:       req.Msg.To.TimePtr(),
	})
	if err != nil {
		return nil, toConnectError(s.logger, "ListTransactions", err, "friend_id", friendID)
	}

	return connect.NewResponse(&api.ListTransactionsResponse{Transactions: toAPITransactions(txs)}), nil
}

// GetUnsettledExpenses returns the expenses approved payments have not yet covered.
func (s *LedgerService) GetUnsettledExpenses(ctx context.Context, req *connect.Request[api.GetUnsettledExpensesRequest]) (*connect.Response[api.GetUnsettledExpensesResponse], error) {
	friendID, err := s.requireFriendScope(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetUnsettledExpenses", err)
	}

	open, err := s.ledger.Unsettled(ctx, friendID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetUnsettledExpenses", err, "friend_id", friendID)
	}

	return connect.NewResponse(&api.GetUnsettledExpensesResponse{
		Expenses:    toAPIOpenExpenses(open),
		Outstanding: calculator.OutstandingTotal(open),
	}), nil
}

// ReconcileFriend compares a stored balance with the one its history implies.
func (s *LedgerService) ReconcileFriend(ctx context.Context, req *connect.Request[api.ReconcileFriendRequest]) (*connect.Response[api.ReconcileFriendResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "ReconcileFriend", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "ReconcileFriend", err)
	}

	rec, err := s.ledger.Reconcile(ctx, req.Msg.FriendID)
	if err != nil {
		return nil, toConnectError(s.logger, "ReconcileFriend", err, "friend_id", req.Msg.FriendID)
	}

	return connect.NewResponse(&api.ReconcileFriendResponse{
		FriendID:        rec.FriendID,
		StoredBalance:   rec.StoredBalance,
		ExpectedBalance: rec.ExpectedBalance,
		Outstanding:     rec.Outstanding,
		Consistent:      rec.Consistent,
	}), nil
}

// WatchFriends streams the friend list, once on subscribe and after every change.
func (s *LedgerService) WatchFriends(ctx context.Context, req *connect.Request[api.WatchFriendsRequest], stream *connect.ServerStream[api.WatchFriendsResponse]) error {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return toConnectError(s.logger, "WatchFriends", err)
	}

	sub, err := s.hub.SubscribeFriends(ctx)
	if err != nil {
		return toConnectError(s.logger, "WatchFriends", watchError(err))
	}
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case friends, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := stream.Send(&api.WatchFriendsResponse{Friends: toAPIFriends(friends, true)}); err != nil {
				return err
			}
		}
	}
}

// WatchTransactions streams a friend's transactions, or all of them for the
// admin when no friend is given.
func (s *LedgerService) WatchTransactions(ctx context.Context, req *connect.Request[api.WatchTransactionsRequest], stream *connect.ServerStream[api.WatchTransactionsResponse]) error {
	friendID, err := middleware.ScopeFriend(ctx, req.Msg.FriendID)
	if err != nil {
		return toConnectError(s.logger, "WatchTransactions", err)
	}

	sub, err := s.hub.SubscribeTransactions(ctx, friendID)
	if err != nil {
		return toConnectError(s.logger, "WatchTransactions", watchError(err), "friend_id", friendID)
	}
	defer sub.Cancel()

	for {
		select {
		case <-ctx.Done():
			return nil
		case txs, ok := <-sub.C():
			if !ok {
				return nil
			}
			if err := stream.Send(&api.WatchTransactionsResponse{Transactions: toAPITransactions(txs)}); err != nil {
				return err
			}
		}
	}
}

// requireFriendScope is ScopeFriend for operations that need a concrete friend.
func (s *LedgerService) requireFriendScope(ctx context.Context, friendID string) (string, error) {
	scoped, err := middleware.ScopeFriend(ctx, friendID)
	if err != nil {
		return "", err
	}
	if scoped == "" {
		return "", apperrors.WithMessage(apperrors.ErrInvalidInput, "friendId is required")
	}
	return scoped, nil
}

// watchError reports a closed hub as unavailable rather than internal.
func watchError(err error) error {
	if errors.Is(err, notify.ErrClosed) {
		return apperrors.Wrap(apperrors.ErrStoreUnavailable, err)
	}
	return err
}
