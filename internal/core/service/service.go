package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/niksmo/checkout/internal/core/cart"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/pkg/keylock"
	"github.com/shopspring/decimal"
)

var _ port.CatalogReader = (*Service)(nil)
var _ port.CustomerReader = (*Service)(nil)
var _ port.CartManager = (*Service)(nil)
var _ port.CheckoutRunner = (*Service)(nil)
var _ port.ShipmentsReader = (*Service)(nil)

const (
	OpAddToCart      = "add"
	OpUpdateQuantity = "update"
	OpRemoveFromCart = "remove"
	OpClearCart      = "clear"
)

type checkoutProcessor interface {
	Checkout(
		context.Context, *domain.Customer, domain.Cart,
	) (domain.CheckoutResult, error)
}

type Opt func(*Service)

func ObserverOpt(o port.CheckoutObserver) Opt {
	return func(s *Service) {
		if o != nil {
			s.observer = o
		}
	}
}

// NotifierOpt sets the receiver of shipment notices. Notices are sent
// only after the checkout is saved.
func NotifierOpt(n port.ShipmentNotifier) Opt {
	return func(s *Service) {
		s.notifier = n
	}
}

func LedgerOpt(l port.ShipmentLedgerReader) Opt {
	return func(s *Service) {
		s.ledger = l
	}
}

func ClockOpt(now func() time.Time) Opt {
	return func(s *Service) {
		s.now = now
	}
}

// A Service runs the shopping session of every customer:
// it keeps carts in the cart store, applies cart operations and
// hands carts over to the checkout processor.
type Service struct {
	catalog   port.Catalog
	customers port.CustomerStore
	carts     port.CartStore
	processor checkoutProcessor
	observer  port.CheckoutObserver
	notifier  port.ShipmentNotifier
	ledger    port.ShipmentLedgerReader
	now       func() time.Time
	locks     keylock.KeyLock
}

func New(
	catalog port.Catalog,
	customers port.CustomerStore,
	carts port.CartStore,
	processor checkoutProcessor,
	opts ...Opt,
) *Service {
	s := &Service{
		catalog:   catalog,
		customers: customers,
		carts:     carts,
		processor: processor,
		observer:  nopObserver{},
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "Service.Products"

	ps, err := s.catalog.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ps, nil
}

func (s *Service) Product(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Service.Product"

	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}
	return p, nil
}

func (s *Service) Customer(
	ctx context.Context, customerID string,
) (domain.Customer, error) {
	const op = "Service.Customer"

	c, err := s.customers.LoadCustomer(ctx, customerID)
	if err != nil {
		return domain.Customer{}, fmt.Errorf("%s: %w", op, err)
	}
	return c, nil
}

func (s *Service) Cart(
	ctx context.Context, customerID string,
) (domain.CartSummary, error) {
	const op = "Service.Cart"

	c, err := s.loadCart(ctx, customerID)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return cart.Summarize(c), nil
}

func (s *Service) AddToCart(
	ctx context.Context, customerID, productID string, quantity int,
) (domain.CartSummary, error) {
	const op = "Service.AddToCart"

	p, err := s.catalog.ProductByID(ctx, productID)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	summary, err := s.mutateCart(ctx, customerID, OpAddToCart,
		func(c domain.Cart) (domain.Cart, error) {
			return cart.AddAt(c, p, quantity, s.now())
		},
	)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

func (s *Service) UpdateQuantity(
	ctx context.Context, customerID, productID string, quantity int,
) (domain.CartSummary, error) {
	const op = "Service.UpdateQuantity"

	summary, err := s.mutateCart(ctx, customerID, OpUpdateQuantity,
		func(c domain.Cart) (domain.Cart, error) {
			return cart.UpdateQuantity(c, productID, quantity), nil
		},
	)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

func (s *Service) RemoveFromCart(
	ctx context.Context, customerID, productID string,
) (domain.CartSummary, error) {
	const op = "Service.RemoveFromCart"

	summary, err := s.mutateCart(ctx, customerID, OpRemoveFromCart,
		func(c domain.Cart) (domain.Cart, error) {
			return cart.Remove(c, productID), nil
		},
	)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

func (s *Service) ClearCart(
	ctx context.Context, customerID string,
) (domain.CartSummary, error) {
	const op = "Service.ClearCart"

	summary, err := s.mutateCart(ctx, customerID, OpClearCart,
		func(domain.Cart) (domain.Cart, error) {
			return cart.Clear(), nil
		},
	)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return summary, nil
}

// Checkout settles the customer's cart. The new balance and the empty
// cart are saved together before the shipment notice is sent; when either
// save fails the customer and the cart are left as they were.
func (s *Service) Checkout(
	ctx context.Context, customerID string,
) (domain.CheckoutResult, error) {
	const op = "Service.Checkout"
	log := slog.With("op", op, "customerID", customerID)

	unlock := s.locks.Lock(customerID)
	defer unlock()

	customer, err := s.customers.LoadCustomer(ctx, customerID)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}
	before := customer

	c, err := s.carts.LoadCart(ctx, customerID)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	refreshed, err := s.refreshProducts(ctx, c)
	if err != nil {
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}

	res, err := s.processor.Checkout(ctx, &customer, refreshed)
	if err != nil {
		s.observer.ObserveCheckout(decimal.Zero, err)
		if domain.IsBusinessError(err) {
			log.Info("checkout declined", "reason", err)
		}
		return res, fmt.Errorf("%s: %w", op, err)
	}

	// The processor has accepted the payment, a disconnected client
	// must not leave it half saved.
	settleCtx := context.WithoutCancel(ctx)

	if err := s.settle(settleCtx, before, customer, c); err != nil {
		s.observer.ObserveCheckout(decimal.Zero, err)
		log.Error("failed to save checkout",
			"receiptID", res.Receipt.ID, "err", err,
		)
		return domain.CheckoutResult{}, fmt.Errorf("%s: %w", op, err)
	}
	s.observer.ObserveCheckout(res.Receipt.Total, nil)

	log.Info("checkout settled",
		"receiptID", res.Receipt.ID,
		"total", res.Receipt.Total.StringFixed(2),
		"balance", customer.Balance.StringFixed(2),
	)

	if res.ShipmentNotice != nil {
		s.notify(settleCtx, domain.ShipmentEvent{
			ReceiptID:  res.Receipt.ID,
			CustomerID: customerID,
			Notice:     *res.ShipmentNotice,
			ShippedAt:  res.Receipt.IssuedAt,
		})
	}

	return res, nil
}

// settle saves the debited customer and the empty cart. If the cart
// cannot be saved the customer is restored to before.
func (s *Service) settle(
	ctx context.Context, before, after domain.Customer, c domain.Cart,
) error {
	const op = "Service.settle"
	log := slog.With("op", op, "customerID", after.ID)

	if err := s.customers.SaveCustomer(ctx, after); err != nil {
		return err
	}

	if err := s.carts.SaveCart(ctx, after.ID, cart.Clear()); err != nil {
		if rbErr := s.customers.SaveCustomer(ctx, before); rbErr != nil {
			log.Error("failed to restore customer balance",
				"balance", before.Balance.StringFixed(2), "err", rbErr,
			)
			return errors.Join(err, rbErr)
		}
		return err
	}
	return nil
}

func (s *Service) notify(ctx context.Context, evt domain.ShipmentEvent) {
	const op = "Service.notify"
	log := slog.With("op", op)

	if s.notifier == nil {
		return
	}

	if err := s.notifier.NotifyShipment(ctx, evt); err != nil {
		log.Error("failed to notify shipment",
			"receiptID", evt.ReceiptID, "err", err,
		)
	}
}

func (s *Service) Shipments(
	ctx context.Context, customerID string,
) (domain.ShipmentLedger, error) {
	const op = "Service.Shipments"

	if s.ledger == nil {
		return domain.ShipmentLedger{}, fmt.Errorf(
			"%s: %w", op, domain.ErrLedgerUnavailable,
		)
	}

	if _, err := s.customers.LoadCustomer(ctx, customerID); err != nil {
		return domain.ShipmentLedger{}, fmt.Errorf("%s: %w", op, err)
	}

	l, err := s.ledger.Ledger(ctx, customerID)
	if err != nil {
		return domain.ShipmentLedger{}, fmt.Errorf("%s: %w", op, err)
	}
	return l, nil
}

func (s *Service) loadCart(
	ctx context.Context, customerID string,
) (domain.Cart, error) {
	if _, err := s.customers.LoadCustomer(ctx, customerID); err != nil {
		return domain.Cart{}, err
	}
	return s.carts.LoadCart(ctx, customerID)
}

// mutateCart applies fn to the stored cart under the customer lock
// and saves the result when fn succeeds.
func (s *Service) mutateCart(
	ctx context.Context,
	customerID string,
	operation string,
	fn func(domain.Cart) (domain.Cart, error),
) (domain.CartSummary, error) {
	if err := ctx.Err(); err != nil {
		return domain.CartSummary{}, err
	}

	unlock := s.locks.Lock(customerID)
	defer unlock()

	c, err := s.loadCart(ctx, customerID)
	if err != nil {
		return domain.CartSummary{}, err
	}

	next, err := fn(c)
	s.observer.ObserveCartOperation(operation, err)
	if err != nil {
		return domain.CartSummary{}, err
	}

	if err := s.carts.SaveCart(ctx, customerID, next); err != nil {
		return domain.CartSummary{}, err
	}
	return cart.Summarize(next), nil
}

// refreshProducts replaces cart line products with the current catalog
// state so checkout validates against actual stock.
func (s *Service) refreshProducts(
	ctx context.Context, c domain.Cart,
) (domain.Cart, error) {
	next := c.Clone()
	for i, item := range next.Items {
		p, err := s.catalog.ProductByID(ctx, item.Product.ID)
		if err != nil {
			return domain.Cart{}, err
		}
		next.Items[i].Product = p
	}
	return next, nil
}

type nopObserver struct{}

func (nopObserver) ObserveCartOperation(string, error)     {}
func (nopObserver) ObserveCheckout(decimal.Decimal, error) {}
