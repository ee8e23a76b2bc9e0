package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
)

var _ port.CustomerStore = (*CustomerStore)(nil)
var _ port.CartStore = (*CartStore)(nil)

type CustomerStore struct {
	mu        sync.RWMutex
	customers map[string]domain.Customer
}

func NewCustomerStore(cs ...domain.Customer) *CustomerStore {
	s := &CustomerStore{customers: make(map[string]domain.Customer, len(cs))}
	for _, c := range cs {
		s.customers[c.ID] = c
	}
	return s
}

func (s *CustomerStore) LoadCustomer(
	ctx context.Context, customerID string,
) (domain.Customer, error) {
	const op = "CustomerStore.LoadCustomer"

	if err := ctx.Err(); err != nil {
		return domain.Customer{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.customers[customerID]
	if !ok {
		return domain.Customer{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrCustomerNotFound, customerID,
		)
	}
	return c, nil
}

// SaveCustomer replaces a known customer.
func (s *CustomerStore) SaveCustomer(
	ctx context.Context, c domain.Customer,
) error {
	const op = "CustomerStore.SaveCustomer"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.customers[c.ID]; !ok {
		return fmt.Errorf("%s: %w: %q", op, domain.ErrCustomerNotFound, c.ID)
	}
	s.customers[c.ID] = c
	return nil
}

// CartStore keeps one cart per customer id. Carts are copied on the way
// in and out.
type CartStore struct {
	mu    sync.RWMutex
	carts map[string]domain.Cart
}

func NewCartStore() *CartStore {
	return &CartStore{carts: make(map[string]domain.Cart)}
}

// LoadCart returns the stored cart or an empty one.
func (s *CartStore) LoadCart(
	ctx context.Context, customerID string,
) (domain.Cart, error) {
	const op = "CartStore.LoadCart"

	if err := ctx.Err(); err != nil {
		return domain.Cart{}, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.carts[customerID].Clone(), nil
}

func (s *CartStore) SaveCart(
	ctx context.Context, customerID string, c domain.Cart,
) error {
	const op = "CartStore.SaveCart"

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if c.IsEmpty() {
		delete(s.carts, customerID)
		return nil
	}
	s.carts[customerID] = c.Clone()
	return nil
}
