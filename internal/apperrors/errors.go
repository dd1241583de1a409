// Package apperrors provides the error taxonomy shared by the ledger, the store and the RPC layer.
// Service code converts an AppError into a Connect error with its ConnectCode so that callers
// see a stable code and message without internal details.
package apperrors

import (
	"errors"

	"connectrpc.com/connect"
)

// AppError represents a structured application error with an error code,
// human-readable message, Connect status code, and optional internal error.
type AppError struct {
	Code        string
	Message     string
	ConnectCode connect.Code
	Internal    error
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Unwrap returns the internal error for use with errors.Is/As.
func (e *AppError) Unwrap() error { return e.Internal }

// Is reports whether target is an AppError with the same code, so wrapped
// copies of a sentinel still match it.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// Wrap creates a new AppError with the same code/message/status but wraps an internal error.
func Wrap(sentinel *AppError, internal error) *AppError {
	return &AppError{
		Code:        sentinel.Code,
		Message:     sentinel.Message,
		ConnectCode: sentinel.ConnectCode,
		Internal:    internal,
	}
}

// WithMessage creates a new AppError with a custom message.
func WithMessage(sentinel *AppError, message string) *AppError {
	return &AppError{
		Code:        sentinel.Code,
		Message:     message,
		ConnectCode: sentinel.ConnectCode,
		Internal:    sentinel.Internal,
	}
}

// Ledger errors.
var (
	ErrInvalidAmount       = &AppError{Code: "INVALID_AMOUNT", Message: "amount must be a positive number", ConnectCode: connect.CodeInvalidArgument}
	ErrFriendNotFound      = &AppError{Code: "FRIEND_NOT_FOUND", Message: "friend not found", ConnectCode: connect.CodeNotFound}
	ErrTransactionNotFound = &AppError{Code: "TRANSACTION_NOT_FOUND", Message: "transaction not found", ConnectCode: connect.CodeNotFound}
	ErrStoreUnavailable    = &AppError{Code: "STORE_UNAVAILABLE", Message: "store could not commit the write", ConnectCode: connect.CodeUnavailable}
)

// Bill and receipt errors.
var (
	ErrBillNotFound            = &AppError{Code: "BILL_NOT_FOUND", Message: "bill not found", ConnectCode: connect.CodeNotFound}
	ErrReceiptExtractionFailed = &AppError{Code: "RECEIPT_EXTRACTION_FAILED", Message: "receipt could not be read, enter items manually", ConnectCode: connect.CodeFailedPrecondition}
)

// General errors.
var (
	ErrInvalidInput     = &AppError{Code: "INVALID_INPUT", Message: "invalid input", ConnectCode: connect.CodeInvalidArgument}
	ErrUnauthenticated  = &AppError{Code: "UNAUTHENTICATED", Message: "authentication required", ConnectCode: connect.CodeUnauthenticated}
	ErrPermissionDenied = &AppError{Code: "PERMISSION_DENIED", Message: "access denied", ConnectCode: connect.CodePermissionDenied}
	ErrInternal         = &AppError{Code: "INTERNAL_ERROR", Message: "an internal error occurred", ConnectCode: connect.CodeInternal}
)

// ToConnect converts err into a *connect.Error. AppErrors keep their code and
// message; anything else is reported as internal.
func ToConnect(err error) *connect.Error {
	if err == nil {
		return nil
	}
	var connectErr *connect.Error
	if errors.As(err, &connectErr) {
		return connectErr
	}
	var appErr *AppError
	if errors.As(err, &appErr) {
		return connect.NewError(appErr.ConnectCode, errors.New(appErr.Message))
	}
	return connect.NewError(connect.CodeInternal, errors.New(ErrInternal.Message))
}
