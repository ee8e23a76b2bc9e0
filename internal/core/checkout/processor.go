// Package checkout settles a cart against the customer balance.
package checkout

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/checkout/internal/core/cart"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/internal/core/product"
	"github.com/niksmo/checkout/internal/core/shipping"
	"github.com/niksmo/checkout/pkg/keylock"
)

type Opt func(*Processor)

// NotifierOpt sets the receiver of shipment notices. Callers that persist
// the settled balance should notify themselves after saving instead.
func NotifierOpt(n port.ShipmentNotifier) Opt {
	return func(p *Processor) {
		p.notifier = n
	}
}

// ClockOpt replaces [time.Now] for expiry checks and receipt timestamps.
func ClockOpt(now func() time.Time) Opt {
	return func(p *Processor) {
		p.now = now
	}
}

// IDOpt replaces the receipt id generator.
func IDOpt(newID func() string) Opt {
	return func(p *Processor) {
		p.newID = newID
	}
}

type Processor struct {
	notifier port.ShipmentNotifier
	now      func() time.Time
	newID    func() string
	locks    keylock.KeyLock
}

func New(opts ...Opt) *Processor {
	p := &Processor{
		now:   time.Now,
		newID: uuid.NewString,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Checkout validates the cart, settles the total against the customer
// balance and returns the receipt.
//
// Business failures are returned both as the error and as a failed
// [domain.CheckoutResult]; the customer is left untouched in that case.
// On success customer.Balance holds the new balance. Checkouts for the
// same customer id are serialized.
func (p *Processor) Checkout(
	ctx context.Context, customer *domain.Customer, c domain.Cart,
) (domain.CheckoutResult, error) {
	const op = "Processor.Checkout"
	log := slog.With("op", op, "customerID", customer.ID)

	if err := ctx.Err(); err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	unlock := p.locks.Lock(customer.ID)
	defer unlock()

	if c.IsEmpty() {
		return failed(domain.ErrEmptyCart)
	}

	now := p.now()
	for _, item := range c.Items {
		err := product.ValidateAt(item.Product, item.Quantity, now)
		if err != nil {
			return failed(err)
		}
	}

	subtotal := cart.Subtotal(c)
	shippable := cart.ShippableItems(c)
	fee := shipping.CalculateFee(shippable)
	total := subtotal.Add(fee)

	if customer.Balance.LessThan(total) {
		return failed(&domain.BalanceError{
			Required:  total,
			Available: customer.Balance,
		})
	}

	balance := customer.Balance.Sub(total)
	receipt := domain.Receipt{
		ID:              p.newID(),
		CustomerID:      customer.ID,
		Items:           c.Clone().Items,
		Subtotal:        subtotal,
		Shipping:        fee,
		Total:           total,
		CustomerBalance: balance,
		IssuedAt:        now,
	}

	var notice *domain.ShipmentNotice
	if len(shippable) != 0 {
		n := shipping.NewNotice(shippable)
		notice = &n
	}

	customer.Balance = balance

	log.Info("checkout accepted",
		"receiptID", receipt.ID,
		"total", total.StringFixed(2),
		"balance", balance.StringFixed(2),
	)

	if notice != nil {
		p.notify(ctx, domain.ShipmentEvent{
			ReceiptID:  receipt.ID,
			CustomerID: customer.ID,
			Notice:     *notice,
			ShippedAt:  now,
		})
	}

	return domain.CheckoutSucceeded(receipt, notice), nil
}

func (p *Processor) notify(ctx context.Context, evt domain.ShipmentEvent) {
	const op = "Processor.notify"
	log := slog.With("op", op)

	if p.notifier == nil {
		return
	}

	err := p.notifier.NotifyShipment(ctx, evt)
	if err != nil {
		log.Error("failed to notify shipment",
			"receiptID", evt.ReceiptID, "err", err,
		)
	}
}

func failed(err error) (domain.CheckoutResult, error) {
	return domain.CheckoutFailed(err), err
}
