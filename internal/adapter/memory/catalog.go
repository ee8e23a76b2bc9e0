// Package memory holds the in-process stores used when no database is
// configured.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/shopspring/decimal"
)

var _ port.Catalog = (*Catalog)(nil)

type Catalog struct {
	mu       sync.RWMutex
	order    []string
	products map[string]domain.Product
}

// NewCatalog returns a catalog holding ps in the given order.
// Every product must pass [domain.Product.Check] and ids must be unique.
func NewCatalog(ps []domain.Product) (*Catalog, error) {
	const op = "memory.NewCatalog"

	c := &Catalog{
		order:    make([]string, 0, len(ps)),
		products: make(map[string]domain.Product, len(ps)),
	}
	for _, p := range ps {
		if err := p.Check(); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		if _, ok := c.products[p.ID]; ok {
			return nil, fmt.Errorf(
				"%s: %w: duplicate id %q", op, domain.ErrInvalidProduct, p.ID,
			)
		}
		c.order = append(c.order, p.ID)
		c.products[p.ID] = p
	}
	return c, nil
}

func (c *Catalog) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "Catalog.ListProducts"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	ps := make([]domain.Product, 0, len(c.order))
	for _, id := range c.order {
		ps = append(ps, c.products[id])
	}
	return ps, nil
}

func (c *Catalog) ProductByID(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Catalog.ProductByID"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	p, ok := c.products[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrProductNotFound, productID,
		)
	}
	return p, nil
}

// SampleProducts returns the demo catalog with expiration dates
// relative to now.
func SampleProducts(now time.Time) []domain.Product {
	day := 24 * time.Hour
	at := func(d time.Duration) *time.Time {
		t := now.Add(d)
		return &t
	}
	kg := func(s string) *decimal.Decimal {
		d := decimal.RequireFromString(s)
		return &d
	}

	return []domain.Product{
		{
			ID: "1", Name: "Cheese", Price: decimal.NewFromInt(100),
			Quantity: 10, IsExpirable: true, ExpirationDate: at(7 * day),
			IsShippable: true, Weight: kg("0.2"),
			Category: domain.CategoryPerishableShippable,
			Image:    "/images/cheese.jpg",
		},
		{
			ID: "2", Name: "Biscuits", Price: decimal.NewFromInt(150),
			Quantity: 15, IsExpirable: true, ExpirationDate: at(14 * day),
			IsShippable: true, Weight: kg("0.7"),
			Category: domain.CategoryPerishableShippable,
			Image:    "/images/biscuits.jpg",
		},
		{
			ID: "3", Name: "Smart TV", Price: decimal.NewFromInt(500),
			Quantity: 5, IsShippable: true, Weight: kg("15.5"),
			Category: domain.CategoryNonPerishableShippable,
			Image:    "/images/tv.jpg",
		},
		{
			ID: "4", Name: "Mobile Scratch Card", Price: decimal.NewFromInt(25),
			Quantity: 100,
			Category: domain.CategoryNonPerishableNonShippable,
			Image:    "/images/scratch-card.jpg",
		},
		{
			ID: "5", Name: "Laptop", Price: decimal.NewFromInt(800),
			Quantity: 3, IsShippable: true, Weight: kg("2.5"),
			Category: domain.CategoryNonPerishableShippable,
			Image:    "/images/laptop.jpg",
		},
		{
			ID: "6", Name: "Expired Milk", Price: decimal.NewFromInt(40),
			Quantity: 8, IsExpirable: true, ExpirationDate: at(-2 * day),
			IsShippable: true, Weight: kg("1.0"),
			Category: domain.CategoryPerishableShippable,
			Image:    "/images/milk.jpg",
		},
	}
}
