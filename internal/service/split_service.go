package service

import (
	"context"
	"encoding/base64"
	"errors"
	"log/slog"
	"strings"

	"connectrpc.com/connect"
	"github.com/go-playground/validator/v10"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/calculator"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/middleware"
	"github.com/mmynk/debtledger/internal/receipt"
	"github.com/mmynk/debtledger/pkg/api"
	"github.com/mmynk/debtledger/pkg/api/apiconnect"
)

// ErrExtractionDisabled is returned by ExtractReceipt when no extractor is configured.
var ErrExtractionDisabled = errors.New("receipt extraction is not configured, enter items manually")

// SplitService implements the Connect SplitService
type SplitService struct {
	ledger    *ledger.Service
	extractor receipt.Extractor
	validate  *validator.Validate
	logger    *slog.Logger
}

var _ apiconnect.SplitServiceHandler = (*SplitService)(nil)

// NewSplitService creates a new SplitService. extractor may be nil, in which
// case ExtractReceipt reports Unimplemented.
func NewSplitService(l *ledger.Service, extractor receipt.Extractor, logger *slog.Logger) *SplitService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SplitService{
		ledger:    l,
		extractor: extractor,
		validate:  newValidator(),
		logger:    logger,
	}
}

// CalculateSplit previews what each assignee would owe without writing anything.
func (s *SplitService) CalculateSplit(ctx context.Context, req *connect.Request[api.CalculateSplitRequest]) (*connect.Response[api.CalculateSplitResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "CalculateSplit", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "CalculateSplit", err)
	}

	alloc, err := calculator.Allocate(calculator.SplitInput{
		Items:         toModelItems(req.Msg.Items),
		Subtotal:      req.Msg.Subtotal,
		Tax:           req.Msg.Tax,
		ServiceCharge: req.Msg.ServiceCharge,
		Total:         req.Msg.Total,
	})
	if err != nil {
		return nil, toConnectError(s.logger, "CalculateSplit", err)
	}

	s.logger.Debug("Split calculated",
		"items", len(req.Msg.Items),
		"friends", len(alloc.Shares),
		"total", alloc.EffectiveTotal,
		"multiplier", alloc.Multiplier,
	)

	return connect.NewResponse(&api.CalculateSplitResponse{
		Shares:     toAPIShares(alloc),
		Subtotal:   alloc.EffectiveSubtotal,
		Total:      alloc.EffectiveTotal,
		Multiplier: alloc.Multiplier,
		Unassigned: alloc.Unassigned,
	}), nil
}

// FinalizeSplit charges every assignee and archives the bill. Per-friend
// failures are reported in the response, not as an RPC error.
func (s *SplitService) FinalizeSplit(ctx context.Context, req *connect.Request[api.FinalizeSplitRequest]) (*connect.Response[api.FinalizeSplitResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "FinalizeSplit", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "FinalizeSplit", err)
	}

	split := ledger.SplitRequest{
		Title:         req.Msg.Title,
		Items:         toModelItems(req.Msg.Items),
		Subtotal:      req.Msg.Subtotal,
		Tax:           req.Msg.Tax,
		ServiceCharge: req.Msg.ServiceCharge,
		Total:         req.Msg.Total,
		OnlyFriendIDs: req.Msg.OnlyFriendIDs,
	}
	if req.Msg.Date != nil {
		split.Date = req.Msg.Date.Time
	}

	result, err := s.ledger.FinalizeSplit(ctx, split)
	if err != nil {
		return nil, toConnectError(s.logger, "FinalizeSplit", err)
	}

	resp := &api.FinalizeSplitResponse{
		FailedFriendIDs: result.FailedFriendIDs(),
		Unassigned:      result.Allocation.Unassigned,
	}
	for _, a := range result.Assignments {
		out := &api.SplitAssignment{
			FriendID:      a.FriendID,
			Amount:        a.Amount,
			TransactionID: a.TransactionID,
		}
		if a.Err != nil {
			out.Error = apperrors.ToConnect(a.Err).Message()
		}
		resp.Assignments = append(resp.Assignments, out)
	}
	if result.Bill != nil {
		resp.Bill = toAPIBill(result.Bill)
	}
	if result.BillErr != nil {
		resp.BillError = apperrors.ToConnect(result.BillErr).Message()
	}

	return connect.NewResponse(resp), nil
}

// ExtractReceipt reads items and totals off a receipt image.
func (s *SplitService) ExtractReceipt(ctx context.Context, req *connect.Request[api.ExtractReceiptRequest]) (*connect.Response[api.ExtractReceiptResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "ExtractReceipt", err)
	}
	if s.extractor == nil {
		return nil, toConnectError(s.logger, "ExtractReceipt", connect.NewError(connect.CodeUnimplemented, ErrExtractionDisabled))
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "ExtractReceipt", err)
	}

	image, err := decodeImage(req.Msg.Image)
	if err != nil {
		return nil, toConnectError(s.logger, "ExtractReceipt", err)
	}

	data, err := s.extractor.Extract(ctx, image, req.Msg.MimeType)
	if err != nil {
		return nil, toConnectError(s.logger, "ExtractReceipt", err)
	}

	resp := &api.ExtractReceiptResponse{
		Subtotal:      data.Subtotal,
		Tax:           data.Tax,
		ServiceCharge: data.ServiceCharge,
		Total:         data.Total,
	}
	for _, item := range data.Items {
		resp.Items = append(resp.Items, &api.ReceiptItem{
			Name:     item.Name,
			Price:    item.Price,
			Quantity: item.Quantity,
		})
	}

	s.logger.Info("Receipt extracted", "items", len(resp.Items), "total", resp.Total)
	return connect.NewResponse(resp), nil
}

// GetBill retrieves an archived bill with its items.
func (s *SplitService) GetBill(ctx context.Context, req *connect.Request[api.GetBillRequest]) (*connect.Response[api.GetBillResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "GetBill", err)
	}
	if err := validateRequest(s.validate, req.Msg); err != nil {
		return nil, toConnectError(s.logger, "GetBill", err)
	}

	bill, err := s.ledger.GetBill(ctx, req.Msg.BillID)
	if err != nil {
		return nil, toConnectError(s.logger, "GetBill", err, "bill_id", req.Msg.BillID)
	}

	return connect.NewResponse(&api.GetBillResponse{Bill: toAPIBill(bill)}), nil
}

// ListBills returns archived bill headers, newest first.
func (s *SplitService) ListBills(ctx context.Context, req *connect.Request[api.ListBillsRequest]) (*connect.Response[api.ListBillsResponse], error) {
	if err := middleware.RequireAdmin(ctx); err != nil {
		return nil, toConnectError(s.logger, "ListBills", err)
	}

	bills, err := s.ledger.ListBills(ctx)
	if err != nil {
		return nil, toConnectError(s.logger, "ListBills", err)
	}

	out := make([]*api.Bill, len(bills))
	for i, b := range bills {
		out[i] = toAPIBill(b)
	}
	return connect.NewResponse(&api.ListBillsResponse{Bills: out}), nil
}

// decodeImage accepts a data URL as-is and base64-decodes anything else.
func decodeImage(image string) ([]byte, error) {
	if strings.HasPrefix(image, "data:") {
		return []byte(image), nil
	}
	raw, err := base64.StdEncoding.DecodeString(image)
	if err != nil {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "image must be base64 or a data URL")
	}
	return raw, nil
}
