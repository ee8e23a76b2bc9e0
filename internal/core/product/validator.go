// Package product decides whether a catalog product can be bought.
package product

import (
	"time"

	"github.com/niksmo/checkout/internal/core/domain"
)

// Validate checks the product at the current time.
//
// See [ValidateAt].
func Validate(p domain.Product, quantity int) error {
	return ValidateAt(p, quantity, time.Now())
}

// ValidateAt returns a [*domain.ProductError] when the product is expired
// at now or its stock is below quantity. Expiry is checked first.
func ValidateAt(p domain.Product, quantity int, now time.Time) error {
	if p.ExpiredAt(now) {
		return &domain.ProductError{
			Reason:      domain.ErrExpired,
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Quantity,
		}
	}

	if quantity > p.Quantity {
		return &domain.ProductError{
			Reason:      domain.ErrInsufficientStock,
			ProductID:   p.ID,
			ProductName: p.Name,
			Available:   p.Quantity,
		}
	}

	return nil
}
