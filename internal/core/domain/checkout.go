package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Customer struct {
	ID      string
	Name    string
	Balance decimal.Decimal
}

type Receipt struct {
	ID              string
	CustomerID      string
	Items           []CartItem
	Subtotal        decimal.Decimal
	Shipping        decimal.Decimal
	Total           decimal.Decimal
	CustomerBalance decimal.Decimal
	IssuedAt        time.Time
}

type ShipmentLine struct {
	Quantity int
	Name     string
	Weight   decimal.Decimal
}

type ShipmentNotice struct {
	Items       []ShipmentLine
	TotalWeight decimal.Decimal
}

// A CheckoutResult is the tagged outcome of a checkout attempt.
//
// Success results carry a Receipt and, when the cart had shippable lines,
// a ShipmentNotice. Failure results carry only the Message.
type CheckoutResult struct {
	Success        bool
	Message        string
	Receipt        *Receipt
	ShipmentNotice *ShipmentNotice
}

func CheckoutSucceeded(r Receipt, n *ShipmentNotice) CheckoutResult {
	return CheckoutResult{Success: true, Receipt: &r, ShipmentNotice: n}
}

func CheckoutFailed(err error) CheckoutResult {
	return CheckoutResult{Message: err.Error()}
}

// A ShipmentEvent is a settled shipment notice bound to its receipt.
type ShipmentEvent struct {
	ReceiptID  string
	CustomerID string
	Notice     ShipmentNotice
	ShippedAt  time.Time
}

// A ShipmentLedger accumulates shipments of a customer.
type ShipmentLedger struct {
	CustomerID    string
	Shipments     int
	TotalWeight   decimal.Decimal
	LastReceiptID string
}

// Record returns the ledger with the event applied.
func (l ShipmentLedger) Record(evt ShipmentEvent) ShipmentLedger {
	l.CustomerID = evt.CustomerID
	l.Shipments++
	l.TotalWeight = l.TotalWeight.Add(evt.Notice.TotalWeight)
	l.LastReceiptID = evt.ReceiptID
	return l
}
