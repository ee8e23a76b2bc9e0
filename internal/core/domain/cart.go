package domain

import "github.com/shopspring/decimal"

type CartItem struct {
	Product  Product
	Quantity int
}

// A Cart is an ordered sequence of line items with
// at most one line per product id.
//
// Cart values are treated as immutable, every change produces a new slice.
type Cart struct {
	Items []CartItem
}

func (c Cart) Len() int {
	return len(c.Items)
}

func (c Cart) IsEmpty() bool {
	return len(c.Items) == 0
}

// IndexOf returns the index of the line for productID or -1.
func (c Cart) IndexOf(productID string) int {
	for i := range c.Items {
		if c.Items[i].Product.ID == productID {
			return i
		}
	}
	return -1
}

// Clone returns a cart that shares no backing array with c.
func (c Cart) Clone() Cart {
	if c.Items == nil {
		return Cart{}
	}
	items := make([]CartItem, len(c.Items))
	copy(items, c.Items)
	return Cart{Items: items}
}

// ItemCount returns the total number of units in the cart.
func (c Cart) ItemCount() int {
	var n int
	for _, item := range c.Items {
		n += item.Quantity
	}
	return n
}

// ShippableItem is the shipping view of a cart line.
type ShippableItem struct {
	Name     string
	Weight   decimal.Decimal
	Quantity int
}

// LineWeight returns the unit weight multiplied by the quantity.
func (s ShippableItem) LineWeight() decimal.Decimal {
	return s.Weight.Mul(decimal.NewFromInt(int64(s.Quantity)))
}

type CartSummary struct {
	Items             []CartItem
	ItemCount         int
	Subtotal          decimal.Decimal
	TotalWeight       decimal.Decimal
	ShippableItems    []ShippableItem
	EstimatedShipping decimal.Decimal
	EstimatedTotal    decimal.Decimal
}
