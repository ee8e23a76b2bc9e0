package kafka

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/pkg/schema"
)

var _ port.ShipmentLedgerReader = (*ShipmentLedgerView)(nil)

type viewTable interface {
	Get(key string) (any, error)
	Recovered() bool
}

// A ShipmentLedgerView serves ledgers from the group table
// of [ShipmentLedgerProcessor].
type ShipmentLedgerView struct {
	opPrefix string
	gv       *goka.View
	table    viewTable
}

func NewShipmentLedgerView(
	seedBrokers []string, groupTable string,
) (*ShipmentLedgerView, error) {
	const op = "NewShipmentLedgerView"

	gv, err := goka.NewView(
		seedBrokers,
		goka.GroupTable(goka.Group(groupTable)),
		newLedgerCodec(),
	)
	if err != nil {
		return nil, opErr(err, op)
	}

	return &ShipmentLedgerView{
		opPrefix: "ShipmentLedgerView",
		gv:       gv,
		table:    gv,
	}, nil
}

func (v *ShipmentLedgerView) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "Run"
	log := slog.With("op", makeOp(v.opPrefix, op))

	defer wg.Done()

	go func() {
		defer stopFn()
		if err := v.gv.Run(ctx); err != nil {
			log.Error("unexpected fail on run", "err", err)
			return
		}
		log.Info("stopped")
	}()
	log.Info("running")
}

// Ledger returns an empty ledger for customers without shipments.
func (v *ShipmentLedgerView) Ledger(
	ctx context.Context, customerID string,
) (domain.ShipmentLedger, error) {
	const op = "Ledger"

	if err := ctx.Err(); err != nil {
		return domain.ShipmentLedger{}, opErr(err, v.opPrefix, op)
	}

	if !v.table.Recovered() {
		return domain.ShipmentLedger{}, opErr(
			domain.ErrLedgerUnavailable, v.opPrefix, op,
		)
	}

	value, err := v.table.Get(customerID)
	if err != nil {
		return domain.ShipmentLedger{}, opErr(
			fmt.Errorf("%w: %w", domain.ErrLedgerUnavailable, err),
			v.opPrefix, op,
		)
	}

	if value == nil {
		return domain.ShipmentLedger{CustomerID: customerID}, nil
	}

	s, ok := value.(schema.ShipmentLedgerV1)
	if !ok {
		return domain.ShipmentLedger{}, opErr(
			fmt.Errorf("%w: %T", ErrInvalidValueType, value),
			v.opPrefix, op,
		)
	}

	l, err := ledgerFromSchemaV1(s)
	if err != nil {
		return domain.ShipmentLedger{}, opErr(err, v.opPrefix, op)
	}
	return l, nil
}
