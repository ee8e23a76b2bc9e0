package httphandler

import (
	"time"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/shipping"
	"github.com/shopspring/decimal"
)

type (
	AddItemRequest struct {
		ProductID string `json:"productId" validate:"required"`
		Quantity  int    `json:"quantity" validate:"min=1"`
	}

	UpdateItemRequest struct {
		Quantity *int `json:"quantity" validate:"required,min=0"`
	}
)

type (
	ErrorResponse struct {
		Message string `json:"message"`
	}

	Product struct {
		ID             string           `json:"id"`
		Name           string           `json:"name"`
		Price          decimal.Decimal  `json:"price"`
		Quantity       int              `json:"quantity"`
		IsExpirable    bool             `json:"isExpirable"`
		ExpirationDate *time.Time       `json:"expirationDate,omitempty"`
		IsShippable    bool             `json:"isShippable"`
		Weight         *decimal.Decimal `json:"weight,omitempty"`
		Category       string           `json:"category"`
		Image          string           `json:"image,omitempty"`
	}

	Customer struct {
		ID      string          `json:"id"`
		Name    string          `json:"name"`
		Balance decimal.Decimal `json:"balance"`
	}

	CartItem struct {
		Product  Product `json:"product"`
		Quantity int     `json:"quantity"`
	}

	ShippableItem struct {
		Name     string          `json:"name"`
		Weight   decimal.Decimal `json:"weight"`
		Quantity int             `json:"quantity"`
	}

	CartSummary struct {
		Items             []CartItem      `json:"items"`
		ItemCount         int             `json:"itemCount"`
		Subtotal          decimal.Decimal `json:"subtotal"`
		TotalWeight       decimal.Decimal `json:"totalWeight"`
		ShippableItems    []ShippableItem `json:"shippableItems"`
		EstimatedShipping decimal.Decimal `json:"estimatedShipping"`
		EstimatedTotal    decimal.Decimal `json:"estimatedTotal"`
	}

	Receipt struct {
		ID              string          `json:"id"`
		CustomerID      string          `json:"customerId"`
		Items           []CartItem      `json:"items"`
		Subtotal        decimal.Decimal `json:"subtotal"`
		Shipping        decimal.Decimal `json:"shipping"`
		Total           decimal.Decimal `json:"total"`
		CustomerBalance decimal.Decimal `json:"customerBalance"`
		IssuedAt        time.Time       `json:"issuedAt"`
	}

	ShipmentLine struct {
		Quantity int             `json:"quantity"`
		Name     string          `json:"name"`
		Weight   decimal.Decimal `json:"weight"`
	}

	ShipmentNotice struct {
		Items       []ShipmentLine  `json:"items"`
		TotalWeight decimal.Decimal `json:"totalWeight"`
		Lines       []string        `json:"lines"`
	}

	CheckoutResult struct {
		Success        bool            `json:"success"`
		Message        string          `json:"message,omitempty"`
		Receipt        *Receipt        `json:"receipt,omitempty"`
		ShipmentNotice *ShipmentNotice `json:"shipmentNotice,omitempty"`
	}

	ShipmentLedger struct {
		CustomerID    string          `json:"customerId"`
		Shipments     int             `json:"shipments"`
		TotalWeight   decimal.Decimal `json:"totalWeight"`
		LastReceiptID string          `json:"lastReceiptId,omitempty"`
	}
)

func productFromDomain(p domain.Product) Product {
	return Product{
		ID:             p.ID,
		Name:           p.Name,
		Price:          p.Price,
		Quantity:       p.Quantity,
		IsExpirable:    p.IsExpirable,
		ExpirationDate: p.ExpirationDate,
		IsShippable:    p.IsShippable,
		Weight:         p.Weight,
		Category:       string(p.Category),
		Image:          p.Image,
	}
}

func productsFromDomain(ps []domain.Product) []Product {
	out := make([]Product, len(ps))
	for i, p := range ps {
		out[i] = productFromDomain(p)
	}
	return out
}

func customerFromDomain(c domain.Customer) Customer {
	return Customer{ID: c.ID, Name: c.Name, Balance: c.Balance}
}

func cartItemsFromDomain(items []domain.CartItem) []CartItem {
	out := make([]CartItem, len(items))
	for i, item := range items {
		out[i] = CartItem{
			Product:  productFromDomain(item.Product),
			Quantity: item.Quantity,
		}
	}
	return out
}

func cartSummaryFromDomain(s domain.CartSummary) CartSummary {
	shippable := make([]ShippableItem, len(s.ShippableItems))
	for i, item := range s.ShippableItems {
		shippable[i] = ShippableItem{
			Name:     item.Name,
			Weight:   item.Weight,
			Quantity: item.Quantity,
		}
	}
	return CartSummary{
		Items:             cartItemsFromDomain(s.Items),
		ItemCount:         s.ItemCount,
		Subtotal:          s.Subtotal,
		TotalWeight:       s.TotalWeight,
		ShippableItems:    shippable,
		EstimatedShipping: s.EstimatedShipping,
		EstimatedTotal:    s.EstimatedTotal,
	}
}

func checkoutResultFromDomain(res domain.CheckoutResult) CheckoutResult {
	out := CheckoutResult{Success: res.Success, Message: res.Message}

	if r := res.Receipt; r != nil {
		out.Receipt = &Receipt{
			ID:              r.ID,
			CustomerID:      r.CustomerID,
			Items:           cartItemsFromDomain(r.Items),
			Subtotal:        r.Subtotal,
			Shipping:        r.Shipping,
			Total:           r.Total,
			CustomerBalance: r.CustomerBalance,
			IssuedAt:        r.IssuedAt,
		}
	}

	if n := res.ShipmentNotice; n != nil {
		lines := make([]ShipmentLine, len(n.Items))
		for i, item := range n.Items {
			lines[i] = ShipmentLine{
				Quantity: item.Quantity,
				Name:     item.Name,
				Weight:   item.Weight,
			}
		}
		out.ShipmentNotice = &ShipmentNotice{
			Items:       lines,
			TotalWeight: n.TotalWeight,
			Lines:       shipping.NoticeLines(*n),
		}
	}
	return out
}

func shipmentLedgerFromDomain(l domain.ShipmentLedger) ShipmentLedger {
	return ShipmentLedger{
		CustomerID:    l.CustomerID,
		Shipments:     l.Shipments,
		TotalWeight:   l.TotalWeight,
		LastReceiptID: l.LastReceiptID,
	}
}
