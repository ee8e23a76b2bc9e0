// Package cart implements the cart operations as pure functions.
//
// No function mutates the cart it receives; every change returns a new
// [domain.Cart] whose backing array is not shared with the input.
package cart

import (
	"time"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/product"
	"github.com/niksmo/checkout/internal/core/shipping"
	"github.com/shopspring/decimal"
)

// Add adds quantity units of p validated at the current time.
//
// See [AddAt].
func Add(c domain.Cart, p domain.Product, quantity int) (domain.Cart, error) {
	return AddAt(c, p, quantity, time.Now())
}

// AddAt validates p at quantity and then, when the product is already in
// the cart, at the combined quantity. On failure the input cart is
// returned unchanged together with the validation error.
func AddAt(
	c domain.Cart, p domain.Product, quantity int, now time.Time,
) (domain.Cart, error) {
	if quantity < 1 {
		return c, domain.ErrInvalidQuantity
	}

	if err := product.ValidateAt(p, quantity, now); err != nil {
		return c, err
	}

	idx := c.IndexOf(p.ID)
	if idx == -1 {
		next := c.Clone()
		next.Items = append(next.Items, domain.CartItem{
			Product: p, Quantity: quantity,
		})
		return next, nil
	}

	total := c.Items[idx].Quantity + quantity
	if err := product.ValidateAt(p, total, now); err != nil {
		return c, err
	}

	next := c.Clone()
	next.Items[idx].Quantity = total
	return next, nil
}

// UpdateQuantity sets the quantity of the productID line without stock
// validation. A quantity <= 0 removes the line.
func UpdateQuantity(c domain.Cart, productID string, quantity int) domain.Cart {
	if quantity <= 0 {
		return Remove(c, productID)
	}

	next := c.Clone()
	if idx := next.IndexOf(productID); idx != -1 {
		next.Items[idx].Quantity = quantity
	}
	return next
}

// Remove drops the productID line, missing lines are ignored.
func Remove(c domain.Cart, productID string) domain.Cart {
	items := make([]domain.CartItem, 0, len(c.Items))
	for _, item := range c.Items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}
	return domain.Cart{Items: items}
}

func Clear() domain.Cart {
	return domain.Cart{}
}

// Subtotal returns the sum of price*quantity over all lines.
func Subtotal(c domain.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		line := item.Product.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// TotalWeight returns the sum of weight*quantity over shippable lines.
func TotalWeight(c domain.Cart) decimal.Decimal {
	total := decimal.Zero
	for _, item := range c.Items {
		if !item.Product.IsShippable {
			continue
		}
		line := item.Product.WeightKG().Mul(decimal.NewFromInt(int64(item.Quantity)))
		total = total.Add(line)
	}
	return total
}

// ShippableItems returns the shippable lines in cart order.
func ShippableItems(c domain.Cart) []domain.ShippableItem {
	var items []domain.ShippableItem
	for _, item := range c.Items {
		if !item.Product.IsShippable {
			continue
		}
		items = append(items, domain.ShippableItem{
			Name:     item.Product.Name,
			Weight:   item.Product.WeightKG(),
			Quantity: item.Quantity,
		})
	}
	return items
}

// EstimateShipping returns the fee checkout would charge for the cart.
func EstimateShipping(c domain.Cart) decimal.Decimal {
	return shipping.CalculateFee(ShippableItems(c))
}

// Summarize returns the figures displayed next to the cart.
func Summarize(c domain.Cart) domain.CartSummary {
	subtotal := Subtotal(c)
	estimated := EstimateShipping(c)
	items := c.Clone().Items
	if items == nil {
		items = []domain.CartItem{}
	}
	shippable := ShippableItems(c)
	if shippable == nil {
		shippable = []domain.ShippableItem{}
	}
	return domain.CartSummary{
		Items:             items,
		ItemCount:         c.ItemCount(),
		Subtotal:          subtotal,
		TotalWeight:       TotalWeight(c),
		ShippableItems:    shippable,
		EstimatedShipping: estimated,
		EstimatedTotal:    subtotal.Add(estimated),
	}
}
