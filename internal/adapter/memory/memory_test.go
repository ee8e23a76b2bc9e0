package memory

import (
	"context"
	"testing"
	"time"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func TestSampleProductsPassCheck(t *testing.T) {
	ps := SampleProducts(now)
	require.Len(t, ps, 6)
	for _, p := range ps {
		assert.NoError(t, p.Check(), p.ID)
	}
	assert.True(t, ps[5].ExpiredAt(now))
	assert.False(t, ps[0].ExpiredAt(now))
}

func TestCatalog(t *testing.T) {
	c, err := NewCatalog(SampleProducts(now))
	require.NoError(t, err)

	ps, err := c.ListProducts(t.Context())
	require.NoError(t, err)
	require.Len(t, ps, 6)
	assert.Equal(t, "Cheese", ps[0].Name)

	p, err := c.ProductByID(t.Context(), "3")
	require.NoError(t, err)
	assert.Equal(t, "Smart TV", p.Name)
	assert.True(t, decimal.NewFromInt(500).Equal(p.Price), p.Price.String())

	_, err = c.ProductByID(t.Context(), "404")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestNewCatalogRejectsInvalidProducts(t *testing.T) {
	t.Run("FailedCheck", func(t *testing.T) {
		_, err := NewCatalog([]domain.Product{{
			ID: "x", Name: "Soup", Price: decimal.NewFromInt(1),
			IsExpirable: true, ExpirationDate: &now,
			Category: domain.CategoryNonPerishableNonShippable,
		}})
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	})

	t.Run("DuplicateID", func(t *testing.T) {
		ps := SampleProducts(now)
		_, err := NewCatalog(append(ps, ps[0]))
		assert.ErrorIs(t, err, domain.ErrInvalidProduct)
	})
}

func TestCatalogCanceledContext(t *testing.T) {
	c, err := NewCatalog(nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	cancel()
	_, err = c.ListProducts(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCustomerStore(t *testing.T) {
	s := NewCustomerStore(domain.Customer{
		ID: "CUST-001", Name: "John Doe", Balance: decimal.NewFromInt(1000),
	})

	c, err := s.LoadCustomer(t.Context(), "CUST-001")
	require.NoError(t, err)
	assert.Equal(t, "John Doe", c.Name)

	c.Balance = decimal.NewFromInt(223)
	require.NoError(t, s.SaveCustomer(t.Context(), c))

	c, err = s.LoadCustomer(t.Context(), "CUST-001")
	require.NoError(t, err)
	assert.True(t, c.Balance.Equal(decimal.NewFromInt(223)))

	_, err = s.LoadCustomer(t.Context(), "nobody")
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)

	err = s.SaveCustomer(t.Context(), domain.Customer{ID: "nobody"})
	assert.ErrorIs(t, err, domain.ErrCustomerNotFound)
}

func TestCartStoreCopiesCarts(t *testing.T) {
	s := NewCartStore()
	p := SampleProducts(now)[2]

	empty, err := s.LoadCart(t.Context(), "c1")
	require.NoError(t, err)
	assert.True(t, empty.IsEmpty())

	c := domain.Cart{Items: []domain.CartItem{{Product: p, Quantity: 1}}}
	require.NoError(t, s.SaveCart(t.Context(), "c1", c))

	c.Items[0].Quantity = 5

	loaded, err := s.LoadCart(t.Context(), "c1")
	require.NoError(t, err)
	require.Len(t, loaded.Items, 1)
	assert.Equal(t, 1, loaded.Items[0].Quantity)

	loaded.Items[0].Quantity = 3
	again, err := s.LoadCart(t.Context(), "c1")
	require.NoError(t, err)
	assert.Equal(t, 1, again.Items[0].Quantity)

	require.NoError(t, s.SaveCart(t.Context(), "c1", domain.Cart{}))
	cleared, err := s.LoadCart(t.Context(), "c1")
	require.NoError(t, err)
	assert.True(t, cleared.IsEmpty())
}
