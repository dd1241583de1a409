package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/pkg/api"
)

// LedgerServiceName is the fully-qualified name of the LedgerService service.
const LedgerServiceName = "debtledger.v1.LedgerService"

// These constants are the fully-qualified names of the RPCs defined in LedgerService. They're
// exposed at runtime as Spec.Procedure and as the final two segments of the HTTP route.
const (
	LedgerServiceAddFriendProcedure            = "/debtledger.v1.LedgerService/AddFriend"
	LedgerServiceListFriendsProcedure          = "/debtledger.v1.LedgerService/ListFriends"
	LedgerServiceGetFriendProcedure            = "/debtledger.v1.LedgerService/GetFriend"
	LedgerServiceDeleteFriendProcedure         = "/debtledger.v1.LedgerService/DeleteFriend"
	LedgerServiceRecordTransactionProcedure    = "/debtledger.v1.LedgerService/RecordTransaction"
	LedgerServiceSubmitPaymentProcedure        = "/debtledger.v1.LedgerService/SubmitPayment"
	LedgerServiceSetTransactionStatusProcedure = "/debtledger.v1.LedgerService/SetTransactionStatus"
	LedgerServiceSettleDebtProcedure           = "/debtledger.v1.LedgerService/SettleDebt"
	LedgerServiceListTransactionsProcedure     = "/debtledger.v1.LedgerService/ListTransactions"
	LedgerServiceGetUnsettledExpensesProcedure = "/debtledger.v1.LedgerService/GetUnsettledExpenses"
	LedgerServiceReconcileFriendProcedure      = "/debtledger.v1.LedgerService/ReconcileFriend"
	LedgerServiceWatchFriendsProcedure         = "/debtledger.v1.LedgerService/WatchFriends"
	LedgerServiceWatchTransactionsProcedure    = "/debtledger.v1.LedgerService/WatchTransactions"
)

// LedgerServiceClient is a client for the debtledger.v1.LedgerService service.
type LedgerServiceClient interface {
	AddFriend(context.Context, *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error)
	ListFriends(context.Context, *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error)
	GetFriend(context.Context, *connect.Request[api.GetFriendRequest]) (*connect.Response[api.GetFriendResponse], error)
	DeleteFriend(context.Context, *connect.Request[api.DeleteFriendRequest]) (*connect.Response[api.DeleteFriendResponse], error)
	RecordTransaction(context.Context, *connect.Request[api.RecordTransactionRequest]) (*connect.Response[api.RecordTransactionResponse], error)
	SubmitPayment(context.Context, *connect.Request[api.SubmitPaymentRequest]) (*connect.Response[api.SubmitPaymentResponse], error)
	SetTransactionStatus(context.Context, *connect.Request[api.SetTransactionStatusRequest]) (*connect.Response[api.SetTransactionStatusResponse], error)
	SettleDebt(context.Context, *connect.Request[api.SettleDebtRequest]) (*connect.Response[api.SettleDebtResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	GetUnsettledExpenses(context.Context, *connect.Request[api.GetUnsettledExpensesRequest]) (*connect.Response[api.GetUnsettledExpensesResponse], error)
	ReconcileFriend(context.Context, *connect.Request[api.ReconcileFriendRequest]) (*connect.Response[api.ReconcileFriendResponse], error)
	WatchFriends(context.Context, *connect.Request[api.WatchFriendsRequest]) (*connect.ServerStreamForClient[api.WatchFriendsResponse], error)
	WatchTransactions(context.Context, *connect.Request[api.WatchTransactionsRequest]) (*connect.ServerStreamForClient[api.WatchTransactionsResponse], error)
}

// NewLedgerServiceClient constructs a client for the debtledger.v1.LedgerService service.
//
// The URL supplied here should be the base URL for the Connect server (for example,
// http://api.acme.com or https://acme.com/grpc).
func NewLedgerServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) LedgerServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &ledgerServiceClient{
		addFriend:            connect.NewClient[api.AddFriendRequest, api.AddFriendResponse](httpClient, baseURL+LedgerServiceAddFriendProcedure, opts...),
		listFriends:          connect.NewClient[api.ListFriendsRequest, api.ListFriendsResponse](httpClient, baseURL+LedgerServiceListFriendsProcedure, opts...),
		getFriend:            connect.NewClient[api.GetFriendRequest, api.GetFriendResponse](httpClient, baseURL+LedgerServiceGetFriendProcedure, opts...),
		deleteFriend:         connect.NewClient[api.DeleteFriendRequest, api.DeleteFriendResponse](httpClient, baseURL+LedgerServiceDeleteFriendProcedure, opts...),
		recordTransaction:    connect.NewClient[api.RecordTransactionRequest, api.RecordTransactionResponse](httpClient, baseURL+LedgerServiceRecordTransactionProcedure, opts...),
		submitPayment:        connect.NewClient[api.SubmitPaymentRequest, api.SubmitPaymentResponse](httpClient, baseURL+LedgerServiceSubmitPaymentProcedure, opts...),
		setTransactionStatus: connect.NewClient[api.SetTransactionStatusRequest, api.SetTransactionStatusResponse](httpClient, baseURL+LedgerServiceSetTransactionStatusProcedure, opts...),
		settleDebt:           connect.NewClient[api.SettleDebtRequest, api.SettleDebtResponse](httpClient, baseURL+LedgerServiceSettleDebtProcedure, opts...),
		listTransactions:     connect.NewClient[api.ListTransactionsRequest, api.ListTransactionsResponse](httpClient, baseURL+LedgerServiceListTransactionsProcedure, opts...),
		getUnsettledExpenses: connect.NewClient[api.GetUnsettledExpensesRequest, api.GetUnsettledExpensesResponse](httpClient, baseURL+LedgerServiceGetUnsettledExpensesProcedure, opts...),
		reconcileFriend:      connect.NewClient[api.ReconcileFriendRequest, api.ReconcileFriendResponse](httpClient, baseURL+LedgerServiceReconcileFriendProcedure, opts...),
		watchFriends:         connect.NewClient[api.WatchFriendsRequest, api.WatchFriendsResponse](httpClient, baseURL+LedgerServiceWatchFriendsProcedure, opts...),
		watchTransactions:    connect.NewClient[api.WatchTransactionsRequest, api.WatchTransactionsResponse](httpClient, baseURL+LedgerServiceWatchTransactionsProcedure, opts...),
	}
}

// ledgerServiceClient implements LedgerServiceClient.
type ledgerServiceClient struct {
	addFriend            *connect.Client[api.AddFriendRequest, api.AddFriendResponse]
	listFriends          *connect.Client[api.ListFriendsRequest, api.ListFriendsResponse]
	getFriend            *connect.Client[api.GetFriendRequest, api.GetFriendResponse]
	deleteFriend         *connect.Client[api.DeleteFriendRequest, api.DeleteFriendResponse]
	recordTransaction    *connect.Client[api.RecordTransactionRequest, api.RecordTransactionResponse]
	submitPayment        *connect.Client[api.SubmitPaymentRequest, api.SubmitPaymentResponse]
	setTransactionStatus *connect.Client[api.SetTransactionStatusRequest, api.SetTransactionStatusResponse]
	settleDebt           *connect.Client[api.SettleDebtRequest, api.SettleDebtResponse]
	listTransactions     *connect.Client[api.ListTransactionsRequest, api.ListTransactionsResponse]
	getUnsettledExpenses *connect.Client[api.GetUnsettledExpensesRequest, api.GetUnsettledExpensesResponse]
	reconcileFriend      *connect.Client[api.ReconcileFriendRequest, api.ReconcileFriendResponse]
	watchFriends         *connect.Client[api.WatchFriendsRequest, api.WatchFriendsResponse]
	watchTransactions    *connect.Client[api.WatchTransactionsRequest, api.WatchTransactionsResponse]
}

func (c *ledgerServiceClient) AddFriend(ctx context.Context, req *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error) {
	return c.addFriend.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListFriends(ctx context.Context, req *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error) {
	return c.listFriends.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetFriend(ctx context.Context, req *connect.Request[api.GetFriendRequest]) (*connect.Response[api.GetFriendResponse], error) {
	return c.getFriend.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) DeleteFriend(ctx context.Context, req *connect.Request[api.DeleteFriendRequest]) (*connect.Response[api.DeleteFriendResponse], error) {
	return c.deleteFriend.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) RecordTransaction(ctx context.Context, req *connect.Request[api.RecordTransactionRequest]) (*connect.Response[api.RecordTransactionResponse], error) {
	return c.recordTransaction.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SubmitPayment(ctx context.Context, req *connect.Request[api.SubmitPaymentRequest]) (*connect.Response[api.SubmitPaymentResponse], error) {
	return c.submitPayment.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SetTransactionStatus(ctx context.Context, req *connect.Request[api.SetTransactionStatusRequest]) (*connect.Response[api.SetTransactionStatusResponse], error) {
	return c.setTransactionStatus.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) SettleDebt(ctx context.Context, req *connect.Request[api.SettleDebtRequest]) (*connect.Response[api.SettleDebtResponse], error) {
	return c.settleDebt.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ListTransactions(ctx context.Context, req *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error) {
	return c.listTransactions.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) GetUnsettledExpenses(ctx context.Context, req *connect.Request[api.GetUnsettledExpensesRequest]) (*connect.Response[api.GetUnsettledExpensesResponse], error) {
	return c.getUnsettledExpenses.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) ReconcileFriend(ctx context.Context, req *connect.Request[api.ReconcileFriendRequest]) (*connect.Response[api.ReconcileFriendResponse], error) {
	return c.reconcileFriend.CallUnary(ctx, req)
}

func (c *ledgerServiceClient) WatchFriends(ctx context.Context, req *connect.Request[api.WatchFriendsRequest]) (*connect.ServerStreamForClient[api.WatchFriendsResponse], error) {
	return c.watchFriends.CallServerStream(ctx, req)
}

func (c *ledgerServiceClient) WatchTransactions(ctx context.Context, req *connect.Request[api.WatchTransactionsRequest]) (*connect.ServerStreamForClient[api.WatchTransactionsResponse], error) {
	return c.watchTransactions.CallServerStream(ctx, req)
}

// LedgerServiceHandler is an implementation of the debtledger.v1.LedgerService service.
type LedgerServiceHandler interface {
	AddFriend(context.Context, *connect.Request[api.AddFriendRequest]) (*connect.Response[api.AddFriendResponse], error)
	ListFriends(context.Context, *connect.Request[api.ListFriendsRequest]) (*connect.Response[api.ListFriendsResponse], error)
	GetFriend(context.Context, *connect.Request[api.GetFriendRequest]) (*connect.Response[api.GetFriendResponse], error)
	DeleteFriend(context.Context, *connect.Request[api.DeleteFriendRequest]) (*connect.Response[api.DeleteFriendResponse], error)
	RecordTransaction(context.Context, *connect.Request[api.RecordTransactionRequest]) (*connect.Response[api.RecordTransactionResponse], error)
	SubmitPayment(context.Context, *connect.Request[api.SubmitPaymentRequest]) (*connect.Response[api.SubmitPaymentResponse], error)
	SetTransactionStatus(context.Context, *connect.Request[api.SetTransactionStatusRequest]) (*connect.Response[api.SetTransactionStatusResponse], error)
	SettleDebt(context.Context, *connect.Request[api.SettleDebtRequest]) (*connect.Response[api.SettleDebtResponse], error)
	ListTransactions(context.Context, *connect.Request[api.ListTransactionsRequest]) (*connect.Response[api.ListTransactionsResponse], error)
	GetUnsettledExpenses(context.Context, *connect.Request[api.GetUnsettledExpensesRequest]) (*connect.Response[api.GetUnsettledExpensesResponse], error)
	ReconcileFriend(context.Context, *connect.Request[api.ReconcileFriendRequest]) (*connect.Response[api.ReconcileFriendResponse], error)
	WatchFriends(context.Context, *connect.Request[api.WatchFriendsRequest], *connect.ServerStream[api.WatchFriendsResponse]) error
	WatchTransactions(context.Context, *connect.Request[api.WatchTransactionsRequest], *connect.ServerStream[api.WatchTransactionsResponse]) error
}

// NewLedgerServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewLedgerServiceHandler(svc LedgerServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	addFriendHandler := connect.NewUnaryHandler(LedgerServiceAddFriendProcedure, svc.AddFriend, opts...)
	listFriendsHandler := connect.NewUnaryHandler(LedgerServiceListFriendsProcedure, svc.ListFriends, opts...)
	getFriendHandler := connect.NewUnaryHandler(LedgerServiceGetFriendProcedure, svc.GetFriend, opts...)
	deleteFriendHandler := connect.NewUnaryHandler(LedgerServiceDeleteFriendProcedure, svc.DeleteFriend, opts...)
	recordTransactionHandler := connect.NewUnaryHandler(LedgerServiceRecordTransactionProcedure, svc.RecordTransaction, opts...)
	submitPaymentHandler := connect.NewUnaryHandler(LedgerServiceSubmitPaymentProcedure, svc.SubmitPayment, opts...)
	setTransactionStatusHandler := connect.NewUnaryHandler(LedgerServiceSetTransactionStatusProcedure, svc.SetTransactionStatus, opts...)
	settleDebtHandler := connect.NewUnaryHandler(LedgerServiceSettleDebtProcedure, svc.SettleDebt, opts...)
	listTransactionsHandler := connect.NewUnaryHandler(LedgerServiceListTransactionsProcedure, svc.ListTransactions, opts...)
	getUnsettledExpensesHandler := connect.NewUnaryHandler(LedgerServiceGetUnsettledExpensesProcedure, svc.GetUnsettledExpenses, opts...)
	reconcileFriendHandler := connect.NewUnaryHandler(LedgerServiceReconcileFriendProcedure, svc.ReconcileFriend, opts...)
	watchFriendsHandler := connect.NewServerStreamHandler(LedgerServiceWatchFriendsProcedure, svc.WatchFriends, opts...)
	watchTransactionsHandler := connect.NewServerStreamHandler(LedgerServiceWatchTransactionsProcedure, svc.WatchTransactions, opts...)
	return "/debtledger.v1.LedgerService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case LedgerServiceAddFriendProcedure:
			addFriendHandler.ServeHTTP(w, r)
		case LedgerServiceListFriendsProcedure:
			listFriendsHandler.ServeHTTP(w, r)
		case LedgerServiceGetFriendProcedure:
			getFriendHandler.ServeHTTP(w, r)
		case LedgerServiceDeleteFriendProcedure:
			deleteFriendHandler.ServeHTTP(w, r)
		case LedgerServiceRecordTransactionProcedure:
			recordTransactionHandler.ServeHTTP(w, r)
		case LedgerServiceSubmitPaymentProcedure:
			submitPaymentHandler.ServeHTTP(w, r)
		case LedgerServiceSetTransactionStatusProcedure:
			setTransactionStatusHandler.ServeHTTP(w, r)
		case LedgerServiceSettleDebtProcedure:
			settleDebtHandler.ServeHTTP(w, r)
		case LedgerServiceListTransactionsProcedure:
			listTransactionsHandler.ServeHTTP(w, r)
		case LedgerServiceGetUnsettledExpensesProcedure:
			getUnsettledExpensesHandler.ServeHTTP(w, r)
		case LedgerServiceReconcileFriendProcedure:
			reconcileFriendHandler.ServeHTTP(w, r)
		case LedgerServiceWatchFriendsProcedure:
			watchFriendsHandler.ServeHTTP(w, r)
		case LedgerServiceWatchTransactionsProcedure:
			watchTransactionsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
