package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

var (
	ErrExpired             = errors.New("product has expired")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidQuantity     = errors.New("quantity must be a positive integer")
	ErrInvalidProduct      = errors.New("invalid product")
	ErrProductNotFound     = errors.New("product not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrLedgerUnavailable   = errors.New("shipment ledger is unavailable")
)

// A ProductError reports why a product cannot be bought in the
// requested quantity. Reason is [ErrExpired] or [ErrInsufficientStock].
type ProductError struct {
	Reason      error
	ProductID   string
	ProductName string
	Available   int
}

func (e *ProductError) Error() string {
	if errors.Is(e.Reason, ErrExpired) {
		return fmt.Sprintf("%s has expired", e.ProductName)
	}
	if errors.Is(e.Reason, ErrInsufficientStock) {
		return fmt.Sprintf(
			"insufficient stock for %s: available %d",
			e.ProductName, e.Available,
		)
	}
	return fmt.Sprintf("%s: %v", e.ProductName, e.Reason)
}

func (e *ProductError) Unwrap() error {
	return e.Reason
}

// A BalanceError reports a checkout total above the customer balance.
type BalanceError struct {
	Required  decimal.Decimal
	Available decimal.Decimal
}

func (e *BalanceError) Error() string {
	return fmt.Sprintf(
		"insufficient balance: required $%s, available $%s",
		e.Required.StringFixed(2), e.Available.StringFixed(2),
	)
}

func (e *BalanceError) Unwrap() error {
	return ErrInsufficientBalance
}

// IsBusinessError reports whether err is an expected checkout or cart
// outcome that must be shown to the customer as is.
func IsBusinessError(err error) bool {
	for _, target := range []error{
		ErrExpired,
		ErrInsufficientStock,
		ErrEmptyCart,
		ErrInsufficientBalance,
		ErrInvalidQuantity,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
