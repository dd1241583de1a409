package service

import (
	"errors"
	"fmt"
	"math"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/mmynk/debtledger/internal/apperrors"
	"github.com/mmynk/debtledger/internal/ledger"
	"github.com/mmynk/debtledger/internal/models"
	"github.com/mmynk/debtledger/internal/money"
)

// newValidator returns a validator that understands decimals and the ledger enums.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Compare decimals numerically in gte/gt tags. Converting an out-of-range
	// decimal would expand every digit, so those report NaN and fail any
	// numeric tag.
	v.RegisterCustomTypeFunc(func(field reflect.Value) interface{} {
		if d, ok := field.Interface().(decimal.Decimal); ok {
			if money.CheckRange(d) != nil {
				return math.NaN()
			}
			return d.InexactFloat64()
		}
		return nil
	}, decimal.Decimal{})

	// Report JSON field names in errors.
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name, _, _ := strings.Cut(field.Tag.Get("json"), ",")
		if name == "" || name == "-" {
			return field.Name
		}
		return name
	})

	_ = v.RegisterValidation("transaction_type", validateTransactionType)
	_ = v.RegisterValidation("transaction_status", validateTransactionStatus)
	return v
}

func validateTransactionType(fl validator.FieldLevel) bool {
	return ledger.ValidType(models.TransactionType(fl.Field().String()))
}

func validateTransactionStatus(fl validator.FieldLevel) bool {
	return ledger.ValidStatus(models.TransactionStatus(fl.Field().String()))
}

// validateRequest checks msg against its validate tags and reports the first
// failing field as InvalidInput.
func validateRequest(v *validator.Validate, msg any) error {
	err := v.Struct(msg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return apperrors.Wrap(apperrors.ErrInvalidInput, err)
	}
	fe := verrs[0]
	msgText := fmt.Sprintf("%s failed on %q", fe.Namespace(), fe.Tag())
	if fe.Param() != "" {
		msgText = fmt.Sprintf("%s failed on %q (%s)", fe.Namespace(), fe.Tag(), fe.Param())
	}
	return apperrors.WithMessage(apperrors.ErrInvalidInput, msgText)
}
