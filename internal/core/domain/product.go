package domain

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

type Category string

const (
	CategoryPerishableShippable       Category = "perishable-shippable"
	CategoryNonPerishableShippable    Category = "non-perishable-shippable"
	CategoryNonPerishableNonShippable Category = "non-perishable-non-shippable"
)

// CategoryOf returns the category matching the product flags.
//
// Expirable products must be shippable, so the combination
// expirable && !shippable has no category and ok is false.
func CategoryOf(isExpirable, isShippable bool) (c Category, ok bool) {
	switch {
	case isExpirable && isShippable:
		return CategoryPerishableShippable, true
	case !isExpirable && isShippable:
		return CategoryNonPerishableShippable, true
	case !isExpirable && !isShippable:
		return CategoryNonPerishableNonShippable, true
	}
	return "", false
}

type Product struct {
	ID             string
	Name           string
	Price          decimal.Decimal
	Quantity       int
	IsExpirable    bool
	ExpirationDate *time.Time
	IsShippable    bool
	Weight         *decimal.Decimal
	Category       Category
	Image          string
}

// WeightKG returns the unit weight or zero for non shippable products.
func (p Product) WeightKG() decimal.Decimal {
	if !p.IsShippable || p.Weight == nil {
		return decimal.Zero
	}
	return *p.Weight
}

// ExpiredAt reports whether the product is expired at the given moment.
func (p Product) ExpiredAt(now time.Time) bool {
	if !p.IsExpirable || p.ExpirationDate == nil {
		return false
	}
	return p.ExpirationDate.Before(now)
}

// Check verifies the catalog invariants of the product.
func (p Product) Check() error {
	if p.ID == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidProduct)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: %s: negative price", ErrInvalidProduct, p.ID)
	}
	if p.Quantity < 0 {
		return fmt.Errorf("%w: %s: negative quantity", ErrInvalidProduct, p.ID)
	}
	if p.IsExpirable != (p.ExpirationDate != nil) {
		return fmt.Errorf(
			"%w: %s: expiration date must be set iff product is expirable",
			ErrInvalidProduct, p.ID,
		)
	}
	if p.IsShippable != (p.Weight != nil) {
		return fmt.Errorf(
			"%w: %s: weight must be set iff product is shippable",
			ErrInvalidProduct, p.ID,
		)
	}
	if p.Weight != nil && p.Weight.IsNegative() {
		return fmt.Errorf("%w: %s: negative weight", ErrInvalidProduct, p.ID)
	}
	c, ok := CategoryOf(p.IsExpirable, p.IsShippable)
	if !ok || c != p.Category {
		return fmt.Errorf(
			"%w: %s: category %q does not match product flags",
			ErrInvalidProduct, p.ID, p.Category,
		)
	}
	return nil
}
