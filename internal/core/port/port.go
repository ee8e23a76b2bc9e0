package port

import (
	"context"
	"sync"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/shopspring/decimal"
)

type (
	runnerContextWg interface {
		Run(context.Context, context.CancelFunc, *sync.WaitGroup)
	}

	closer interface {
		Close()
	}
)

// Inbound ports, used by the HTTP adapter.

type CatalogReader interface {
	Products(context.Context) ([]domain.Product, error)
	Product(ctx context.Context, productID string) (domain.Product, error)
}

type CustomerReader interface {
	Customer(ctx context.Context, customerID string) (domain.Customer, error)
}

type CartManager interface {
	Cart(ctx context.Context, customerID string) (domain.CartSummary, error)
	AddToCart(
		ctx context.Context, customerID, productID string, quantity int,
	) (domain.CartSummary, error)
	UpdateQuantity(
		ctx context.Context, customerID, productID string, quantity int,
	) (domain.CartSummary, error)
	RemoveFromCart(
		ctx context.Context, customerID, productID string,
	) (domain.CartSummary, error)
	ClearCart(ctx context.Context, customerID string) (domain.CartSummary, error)
}

type CheckoutRunner interface {
	Checkout(ctx context.Context, customerID string) (domain.CheckoutResult, error)
}

type ShipmentsReader interface {
	Shipments(ctx context.Context, customerID string) (domain.ShipmentLedger, error)
}

// Outbound ports.

type Catalog interface {
	ListProducts(context.Context) ([]domain.Product, error)
	ProductByID(ctx context.Context, productID string) (domain.Product, error)
}

type CustomerStore interface {
	LoadCustomer(ctx context.Context, customerID string) (domain.Customer, error)
	SaveCustomer(context.Context, domain.Customer) error
}

type CartStore interface {
	LoadCart(ctx context.Context, customerID string) (domain.Cart, error)
	SaveCart(ctx context.Context, customerID string, c domain.Cart) error
}

type ShipmentNotifier interface {
	NotifyShipment(context.Context, domain.ShipmentEvent) error
}

type CheckoutObserver interface {
	ObserveCartOperation(operation string, err error)
	ObserveCheckout(total decimal.Decimal, err error)
}

type ShipmentLedgerReader interface {
	Ledger(ctx context.Context, customerID string) (domain.ShipmentLedger, error)
}

type ShipmentLedgerProcessor interface {
	runnerContextWg
	closer
}
