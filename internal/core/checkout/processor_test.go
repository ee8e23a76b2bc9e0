package checkout_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/niksmo/checkout/internal/core/checkout"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) NotifyShipment(
	ctx context.Context, evt domain.ShipmentEvent,
) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func timePtr(t time.Time) *time.Time { return &t }

func cheese(expiresAt time.Time) domain.Product {
	return domain.Product{
		ID: "1", Name: "Cheese", Price: dec("100"), Quantity: 10,
		IsExpirable: true, ExpirationDate: timePtr(expiresAt),
		IsShippable: true, Weight: decPtr("0.2"),
		Category: domain.CategoryPerishableShippable,
	}
}

func smartTV() domain.Product {
	return domain.Product{
		ID: "3", Name: "Smart TV", Price: dec("500"), Quantity: 5,
		IsShippable: true, Weight: decPtr("15.5"),
		Category: domain.CategoryNonPerishableShippable,
	}
}

func appliance() domain.Product {
	return domain.Product{
		ID: "9", Name: "Gift Card", Price: dec("900"), Quantity: 5,
		Category: domain.CategoryNonPerishableNonShippable,
	}
}

func newProcessor(opts ...checkout.Opt) *checkout.Processor {
	base := []checkout.Opt{
		checkout.ClockOpt(func() time.Time { return now }),
		checkout.IDOpt(func() string { return "receipt-1" }),
	}
	return checkout.New(append(base, opts...)...)
}

func TestCheckoutEmptyCart(t *testing.T) {
	for _, balance := range []string{"0", "1000", "1000000"} {
		customer := &domain.Customer{ID: "c1", Balance: dec(balance)}

		res, err := newProcessor().Checkout(t.Context(), customer, domain.Cart{})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
		assert.False(t, res.Success)
		assert.Equal(t, "cart is empty", res.Message)
		assert.Nil(t, res.Receipt)
		assert.True(t, customer.Balance.Equal(dec(balance)))
	}
}

func TestCheckoutSuccessWithShipment(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("NotifyShipment", mock.Anything, mock.MatchedBy(
		func(evt domain.ShipmentEvent) bool {
			return evt.ReceiptID == "receipt-1" &&
				evt.CustomerID == "CUST-001" &&
				evt.Notice.TotalWeight.Equal(dec("15.9")) &&
				evt.ShippedAt.Equal(now)
		},
	)).Return(nil).Once()

	customer := &domain.Customer{ID: "CUST-001", Name: "John Doe", Balance: dec("2000")}
	c := domain.Cart{Items: []domain.CartItem{
		{Product: cheese(now.Add(7 * 24 * time.Hour)), Quantity: 2},
		{Product: smartTV(), Quantity: 1},
	}}

	res, err := newProcessor(checkout.NotifierOpt(notifier)).
		Checkout(t.Context(), customer, c)
	require.NoError(t, err)
	require.True(t, res.Success)
	require.NotNil(t, res.Receipt)

	r := res.Receipt
	assert.Equal(t, "receipt-1", r.ID)
	assert.Equal(t, "CUST-001", r.CustomerID)
	assert.True(t, r.Subtotal.Equal(dec("700")), "subtotal %s", r.Subtotal)
	assert.True(t, r.Shipping.Equal(dec("477")), "shipping %s", r.Shipping)
	assert.True(t, r.Total.Equal(dec("1177")), "total %s", r.Total)
	assert.Len(t, r.Items, 2)
	assert.Equal(t, now, r.IssuedAt)

	require.NotNil(t, res.ShipmentNotice)
	assert.Len(t, res.ShipmentNotice.Items, 2)
	assert.True(t, res.ShipmentNotice.TotalWeight.Equal(dec("15.9")))

	assert.True(t, r.CustomerBalance.Equal(dec("823")))
	assert.True(t, customer.Balance.Equal(dec("823")))

	notifier.AssertExpectations(t)
}

func TestCheckoutSettlesBalance(t *testing.T) {
	tv := smartTV()
	tv.Price = dec("100")
	customer := &domain.Customer{ID: "CUST-001", Balance: dec("1000")}
	c := domain.Cart{Items: []domain.CartItem{
		{Product: cheese(now.Add(24 * time.Hour)), Quantity: 2},
		{Product: tv, Quantity: 1},
	}}

	res, err := newProcessor().Checkout(t.Context(), customer, c)
	require.NoError(t, err)
	assert.True(t, res.Receipt.Subtotal.Equal(dec("300")))
	assert.True(t, res.Receipt.Shipping.Equal(dec("477")))
	assert.True(t, res.Receipt.Total.Equal(dec("777")))
	assert.Equal(t, "223.00", res.Receipt.CustomerBalance.StringFixed(2))
	assert.Equal(t, "223.00", customer.Balance.StringFixed(2))
}

func TestCheckoutInsufficientBalance(t *testing.T) {
	notifier := new(MockNotifier)
	customer := &domain.Customer{ID: "c1", Balance: dec("800")}
	c := domain.Cart{Items: []domain.CartItem{{Product: appliance(), Quantity: 1}}}

	res, err := newProcessor(checkout.NotifierOpt(notifier)).
		Checkout(t.Context(), customer, c)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrInsufficientBalance)
	assert.False(t, res.Success)
	assert.Contains(t, res.Message, "$900.00")
	assert.Contains(t, res.Message, "$800.00")
	assert.True(t, customer.Balance.Equal(dec("800")))
	notifier.AssertNotCalled(t, "NotifyShipment", mock.Anything, mock.Anything)
}

func TestCheckoutRevalidatesProducts(t *testing.T) {
	t.Run("ExpiredSinceAdded", func(t *testing.T) {
		customer := &domain.Customer{ID: "c1", Balance: dec("1000")}
		c := domain.Cart{Items: []domain.CartItem{
			{Product: smartTV(), Quantity: 1},
			{Product: cheese(now.Add(-time.Minute)), Quantity: 1},
		}}

		res, err := newProcessor().Checkout(t.Context(), customer, c)
		assert.ErrorIs(t, err, domain.ErrExpired)
		assert.Equal(t, "Cheese has expired", res.Message)
		assert.True(t, customer.Balance.Equal(dec("1000")))
	})

	t.Run("QuantityUpdatedAboveStock", func(t *testing.T) {
		customer := &domain.Customer{ID: "c1", Balance: dec("100000")}
		c := domain.Cart{Items: []domain.CartItem{{Product: smartTV(), Quantity: 6}}}

		_, err := newProcessor().Checkout(t.Context(), customer, c)
		assert.ErrorIs(t, err, domain.ErrInsufficientStock)
		assert.True(t, customer.Balance.Equal(dec("100000")))
	})
}

func TestCheckoutWithoutShippableItems(t *testing.T) {
	notifier := new(MockNotifier)
	customer := &domain.Customer{ID: "c1", Balance: dec("1000")}
	c := domain.Cart{Items: []domain.CartItem{{Product: appliance(), Quantity: 1}}}

	res, err := newProcessor(checkout.NotifierOpt(notifier)).
		Checkout(t.Context(), customer, c)
	require.NoError(t, err)
	assert.Nil(t, res.ShipmentNotice)
	assert.True(t, res.Receipt.Shipping.IsZero())
	assert.True(t, customer.Balance.Equal(dec("100")))
	notifier.AssertNotCalled(t, "NotifyShipment", mock.Anything, mock.Anything)
}

func TestCheckoutNotifierFailureKeepsSettlement(t *testing.T) {
	notifier := new(MockNotifier)
	notifier.On("NotifyShipment", mock.Anything, mock.Anything).
		Return(errors.New("broker down"))

	customer := &domain.Customer{ID: "c1", Balance: dec("1000")}
	c := domain.Cart{Items: []domain.CartItem{{Product: smartTV(), Quantity: 1}}}

	res, err := newProcessor(checkout.NotifierOpt(notifier)).
		Checkout(t.Context(), customer, c)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, customer.Balance.Equal(dec("35")), "balance %s", customer.Balance)
}

func TestCheckoutCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(t.Context())
	cancel()

	customer := &domain.Customer{ID: "c1", Balance: dec("1000")}
	c := domain.Cart{Items: []domain.CartItem{{Product: smartTV(), Quantity: 1}}}

	_, err := newProcessor().Checkout(ctx, customer, c)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, customer.Balance.Equal(dec("1000")))
}

func TestCheckoutSerializesSameCustomer(t *testing.T) {
	p := checkout.New()
	customer := &domain.Customer{ID: "c1", Balance: dec("1000")}
	c := domain.Cart{Items: []domain.CartItem{{Product: smartTV(), Quantity: 1}}}

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)
	for range 10 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, _ := p.Checkout(context.Background(), customer, c)
			if res.Success {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	// 500 + 465 shipping per checkout, so only one fits into 1000.
	assert.Equal(t, 1, succeeded)
	assert.True(t, customer.Balance.Equal(dec("35")))
}
