package kafka

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/lovoo/goka"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/pkg/schema"
)

var _ port.ShipmentLedgerProcessor = (*ShipmentLedgerProcessor)(nil)

// A processor is used for composition.
//
// Running and closing the underlying [goka.Processor]
type processor struct {
	opPrefix string
	gp       *goka.Processor
}

func (p *processor) run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer wg.Done()

	go p.runProc(ctx, stopFn)

	log.Info("preparing...")
	p.waitForReady(ctx)
	log.Info("running")
}

func (p *processor) runProc(ctx context.Context, stopFn context.CancelFunc) {
	const op = "run"
	log := slog.With("op", makeOp(p.opPrefix, op))

	defer stopFn()

	err := p.gp.Run(ctx)
	if err != nil {
		log.Error("stopped", "err", err)
		return
	}
	log.Info("stopped")
}

func (p *processor) waitForReady(ctx context.Context) {
	const op = "waitForReady"
	log := slog.With("op", makeOp(p.opPrefix, op))

	err := p.gp.WaitForReadyContext(ctx)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return
		}
		log.Error("fall down while preparing", "err", err)
		return
	}
}

func (p *processor) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))

	log.Info("closing processor...")
	p.gp.Stop()
	log.Info("processor is closed")
}

// A shipmentNoticeCodec used for serde [schema.ShipmentNoticeV1]
// framed by the schema registry.
type shipmentNoticeCodec struct {
	serde Serde
}

func newShipmentNoticeCodec(s Serde) shipmentNoticeCodec {
	return shipmentNoticeCodec{s}
}

func (c shipmentNoticeCodec) Encode(v any) ([]byte, error) {
	const op = "shipmentNoticeCodec.Encode"
	if _, ok := v.(schema.ShipmentNoticeV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.serde.Encode(v)
}

func (c shipmentNoticeCodec) Decode(data []byte) (any, error) {
	const op = "shipmentNoticeCodec.Decode"
	var s schema.ShipmentNoticeV1
	err := c.serde.Decode(data, &s)
	if err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A ledgerCodec used for serde [schema.ShipmentLedgerV1] group table
// values. Table values are plain Avro without registry framing.
type ledgerCodec struct {
	encode func(any) ([]byte, error)
	decode func([]byte, any) error
}

func newLedgerCodec() ledgerCodec {
	s := schema.ShipmentLedgerV1Avro()
	return ledgerCodec{
		encode: schema.AvroEncodeFn(s),
		decode: schema.AvroDecodeFn(s),
	}
}

func (c ledgerCodec) Encode(v any) ([]byte, error) {
	const op = "ledgerCodec.Encode"
	if _, ok := v.(schema.ShipmentLedgerV1); !ok {
		return nil, opErr(ErrInvalidValueType, op)
	}
	return c.encode(v)
}

func (c ledgerCodec) Decode(data []byte) (any, error) {
	const op = "ledgerCodec.Decode"
	var s schema.ShipmentLedgerV1
	if err := c.decode(data, &s); err != nil {
		return nil, opErr(err, op)
	}
	return s, nil
}

// A ShipmentLedgerProcessor folds shipment notices from the input
// stream into a per customer ledger kept in the group table.
type ShipmentLedgerProcessor struct {
	opPrefix string
	proc     processor
}

func NewShipmentLedgerProc(
	seedBrokers []string,
	inputStream string,
	groupTable string,
	shipmentNoticeSerde Serde,
) (*ShipmentLedgerProcessor, error) {
	const op = "NewShipmentLedgerProc"

	p := &ShipmentLedgerProcessor{opPrefix: "ShipmentLedgerProcessor"}

	gg := goka.DefineGroup(goka.Group(groupTable),
		goka.Input(
			goka.Stream(inputStream),
			newShipmentNoticeCodec(shipmentNoticeSerde),
			p.processFn,
		),
		goka.Persist(newLedgerCodec()),
	)

	gp, err := goka.NewProcessor(seedBrokers, gg, withNonlogProcOpt())
	if err != nil {
		return nil, opErr(err, op)
	}

	p.proc = processor{
		opPrefix: p.opPrefix,
		gp:       gp,
	}
	return p, nil
}

func (p *ShipmentLedgerProcessor) Run(
	ctx context.Context, stopFn context.CancelFunc, wg *sync.WaitGroup,
) {
	p.proc.run(ctx, stopFn, wg)
}

func (p *ShipmentLedgerProcessor) Close() {
	p.proc.close()
}

func (p *ShipmentLedgerProcessor) processFn(ctx goka.Context, msg any) {
	const op = "processFn"
	log := slog.With("op", makeOp(p.opPrefix, op), "customerID", ctx.Key())

	notice, _ := msg.(schema.ShipmentNoticeV1)
	current, _ := ctx.Value().(schema.ShipmentLedgerV1)

	next, err := foldShipmentNotice(current, notice)
	if err != nil {
		log.Error("skip malformed shipment notice",
			"receiptID", notice.ReceiptID, "err", err,
		)
		return
	}

	ctx.SetValue(next)
	log.Info("shipment recorded",
		"receiptID", notice.ReceiptID,
		"shipments", next.Shipments,
		"totalWeight", next.TotalWeight,
	)
}

// foldShipmentNotice returns the ledger with the notice applied.
// A zero current value is an empty ledger.
func foldShipmentNotice(
	current schema.ShipmentLedgerV1, notice schema.ShipmentNoticeV1,
) (schema.ShipmentLedgerV1, error) {
	var l domain.ShipmentLedger
	if current.TotalWeight != "" {
		var err error
		if l, err = ledgerFromSchemaV1(current); err != nil {
			return schema.ShipmentLedgerV1{}, err
		}
	}

	evt, err := noticeFromSchemaV1(notice)
	if err != nil {
		return schema.ShipmentLedgerV1{}, err
	}

	return ledgerToSchemaV1(l.Record(evt)), nil
}
