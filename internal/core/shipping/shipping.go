// Package shipping computes shipping fees and shipment notices.
package shipping

import (
	"fmt"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/shopspring/decimal"
)

var (
	RatePerKG = decimal.NewFromInt(30)
	MinFee    = decimal.NewFromInt(10)
)

var gramsPerKG = decimal.NewFromInt(1000)

// TotalWeight returns the sum of weight*quantity over items.
func TotalWeight(items []domain.ShippableItem) decimal.Decimal {
	total := decimal.Zero
	for _, item := range items {
		total = total.Add(item.LineWeight())
	}
	return total
}

// CalculateFee returns zero for no items,
// otherwise max(total weight * [RatePerKG], [MinFee]).
//
// The weight of every line is scaled by its quantity
// so the fee agrees with the shipment notice total.
func CalculateFee(items []domain.ShippableItem) decimal.Decimal {
	if len(items) == 0 {
		return decimal.Zero
	}
	fee := TotalWeight(items).Mul(RatePerKG)
	return decimal.Max(fee, MinFee)
}

// NewNotice builds a shipment notice from shippable items.
func NewNotice(items []domain.ShippableItem) domain.ShipmentNotice {
	lines := make([]domain.ShipmentLine, len(items))
	for i, item := range items {
		lines[i] = domain.ShipmentLine{
			Quantity: item.Quantity,
			Name:     item.Name,
			Weight:   item.Weight,
		}
	}
	return domain.ShipmentNotice{
		Items:       lines,
		TotalWeight: TotalWeight(items),
	}
}

// NoticeLines renders the printable shipment notice: a header, one
// "<quantity>x <name> <grams>g" line per item and the total in kg.
// The grams figure is the weight of the whole line, unit weight times
// quantity, so the lines add up to the total.
func NoticeLines(n domain.ShipmentNotice) []string {
	lines := make([]string, 0, len(n.Items)+2)
	lines = append(lines, "** Shipment notice **")
	for _, item := range n.Items {
		grams := item.Weight.
			Mul(decimal.NewFromInt(int64(item.Quantity))).
			Mul(gramsPerKG)
		lines = append(lines,
			fmt.Sprintf("%dx %s %sg", item.Quantity, item.Name, grams),
		)
	}
	lines = append(lines,
		fmt.Sprintf("Total package weight %skg", n.TotalWeight),
	)
	return lines
}
