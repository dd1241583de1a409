package apiconnect

import (
	"context"
	"net/http"
	"strings"

	"connectrpc.com/connect"

	"github.com/mmynk/debtledger/pkg/api"
)

// SplitServiceName is the fully-qualified name of the SplitService service.
const SplitServiceName = "debtledger.v1.SplitService"

// These constants are the fully-qualified names of the RPCs defined in SplitService.
const (
	SplitServiceCalculateSplitProcedure = "/debtledger.v1.SplitService/CalculateSplit"
	SplitServiceFinalizeSplitProcedure  = "/debtledger.v1.SplitService/FinalizeSplit"
	SplitServiceExtractReceiptProcedure = "/debtledger.v1.SplitService/ExtractReceipt"
	SplitServiceGetBillProcedure        = "/debtledger.v1.SplitService/GetBill"
	SplitServiceListBillsProcedure      = "/debtledger.v1.SplitService/ListBills"
)

// SplitServiceClient is a client for the debtledger.v1.SplitService service.
type SplitServiceClient interface {
	CalculateSplit(context.Context, *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error)
	FinalizeSplit(context.Context, *connect.Request[api.FinalizeSplitRequest]) (*connect.Response[api.FinalizeSplitResponse], error)
	ExtractReceipt(context.Context, *connect.Request[api.ExtractReceiptRequest]) (*connect.Response[api.ExtractReceiptResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
}

// NewSplitServiceClient constructs a client for the debtledger.v1.SplitService service.
func NewSplitServiceClient(httpClient connect.HTTPClient, baseURL string, opts ...connect.ClientOption) SplitServiceClient {
	baseURL = strings.TrimRight(baseURL, "/")
	opts = clientOptions(opts)
	return &splitServiceClient{
		calculateSplit: connect.NewClient[api.CalculateSplitRequest, api.CalculateSplitResponse](httpClient, baseURL+SplitServiceCalculateSplitProcedure, opts...),
		finalizeSplit:  connect.NewClient[api.FinalizeSplitRequest, api.FinalizeSplitResponse](httpClient, baseURL+SplitServiceFinalizeSplitProcedure, opts...),
		extractReceipt: connect.NewClient[api.ExtractReceiptRequest, api.ExtractReceiptResponse](httpClient, baseURL+SplitServiceExtractReceiptProcedure, opts...),
		getBill:        connect.NewClient[api.GetBillRequest, api.GetBillResponse](httpClient, baseURL+SplitServiceGetBillProcedure, opts...),
		listBills:      connect.NewClient[api.ListBillsRequest, api.ListBillsResponse](httpClient, baseURL+SplitServiceListBillsProcedure, opts...),
	}
}

// splitServiceClient implements SplitServiceClient.
type splitServiceClient struct {
	calculateSplit *connect.Client[api.CalculateSplitRequest, api.CalculateSplitResponse]
	finalizeSplit  *connect.Client[api.FinalizeSplitRequest, api.FinalizeSplitResponse]
	extractReceipt *connect.Client[api.ExtractReceiptRequest, api.ExtractReceiptResponse]
	getBill        *connect.Client[api.GetBillRequest, api.GetBillResponse]
	listBills      *connect.Client[api.ListBillsRequest, api.ListBillsResponse]
}

func (c *splitServiceClient) CalculateSplit(ctx context.Context, req *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error) {
	return c.calculateSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) FinalizeSplit(ctx context.Context, req *connect.Request[api.FinalizeSplitRequest]) (*connect.Response[api.FinalizeSplitResponse], error) {
	return c.finalizeSplit.CallUnary(ctx, req)
}

func (c *splitServiceClient) ExtractReceipt(ctx context.Context, req *connect.Request[api.ExtractReceiptRequest]) (*connect.Response[api.ExtractReceiptResponse], error) {
	return c.extractReceipt.CallUnary(ctx, req)
}

func (c *splitServiceClient) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	return c.getBill.CallUnary(ctx, req)
}

func (c *splitServiceClient) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	return c.listBills.CallUnary(ctx, req)
}

// SplitServiceHandler is an implementation of the debtledger.v1.SplitService service.
type SplitServiceHandler interface {
	CalculateSplit(context.Context, *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error)
	FinalizeSplit(context.Context, *connect.Request[api.FinalizeSplitRequest]) (*connect.Response[api.FinalizeSplitResponse], error)
	ExtractReceipt(context.Context, *connect.Request[api.ExtractReceiptRequest]) (*connect.Response[api.ExtractReceiptResponse], error)
	GetBill(context.Context, *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error)
	ListBills(context.Context, *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error)
}

// NewSplitServiceHandler builds an HTTP handler from the service implementation. It returns the
// path on which to mount the handler and the handler itself.
func NewSplitServiceHandler(svc SplitServiceHandler, opts ...connect.HandlerOption) (string, http.Handler) {
	opts = handlerOptions(opts)
	calculateSplitHandler := connect.NewUnaryHandler(SplitServiceCalculateSplitProcedure, svc.CalculateSplit, opts...)
	finalizeSplitHandler := connect.NewUnaryHandler(SplitServiceFinalizeSplitProcedure, svc.FinalizeSplit, opts...)
	extractReceiptHandler := connect.NewUnaryHandler(SplitServiceExtractReceiptProcedure, svc.ExtractReceipt, opts...)
	getBillHandler := connect.NewUnaryHandler(SplitServiceGetBillProcedure, svc.GetBill, opts...)
	listBillsHandler := connect.NewUnaryHandler(SplitServiceListBillsProcedure, svc.ListBills, opts...)
	return "/debtledger.v1.SplitService/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case SplitServiceCalculateSplitProcedure:
			calculateSplitHandler.ServeHTTP(w, r)
		case SplitServiceFinalizeSplitProcedure:
			finalizeSplitHandler.ServeHTTP(w, r)
		case SplitServiceExtractReceiptProcedure:
			extractReceiptHandler.ServeHTTP(w, r)
		case SplitServiceGetBillProcedure:
			getBillHandler.ServeHTTP(w, r)
		case SplitServiceListBillsProcedure:
			listBillsHandler.ServeHTTP(w, r)
		default:
			http.NotFound(w, r)
		}
	})
}
