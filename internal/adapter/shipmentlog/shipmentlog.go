// Package shipmentlog prints shipment notices to the service log.
package shipmentlog

import (
	"context"
	"log/slog"
	"strings"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/internal/core/shipping"
)

var _ port.ShipmentNotifier = (*Notifier)(nil)

type Notifier struct {
	log *slog.Logger
}

// New returns a notifier writing to log, or to [slog.Default] when log
// is nil.
func New(log *slog.Logger) Notifier {
	if log == nil {
		log = slog.Default()
	}
	return Notifier{log: log}
}

func (n Notifier) NotifyShipment(
	ctx context.Context, evt domain.ShipmentEvent,
) error {
	const op = "Notifier.NotifyShipment"

	n.log.InfoContext(ctx, strings.Join(shipping.NoticeLines(evt.Notice), "\n"),
		"op", op,
		"receiptID", evt.ReceiptID,
		"customerID", evt.CustomerID,
	)
	return nil
}
