package kafka

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/lovoo/goka"
	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/pkg/schema"
	"github.com/shopspring/decimal"
	"github.com/twmb/franz-go/pkg/kgo"
)

var (
	ErrTooFewOpts       = errors.New("too few options")
	ErrInvalidValueType = errors.New("invalid value type")
)

type ProducerOpt func(*producerOpts) error

type producerOpts struct {
	cl      ProducerClient
	encoder Encoder
}

// ProducerClientOpt connects a [kgo.Client] producing to topic.
// A nil tlsConfig means plaintext.
func ProducerClientOpt(
	ctx context.Context,
	seedBrokers []string,
	topic string,
	tlsConfig *tls.Config,
) ProducerOpt {
	return func(opts *producerOpts) error {
		kopts := []kgo.Opt{
			kgo.SeedBrokers(seedBrokers...),
			kgo.DefaultProduceTopicAlways(),
			kgo.DefaultProduceTopic(topic),
			kgo.RequiredAcks(kgo.AllISRAcks()),
		}
		if tlsConfig != nil {
			kopts = append(kopts, kgo.DialTLSConfig(tlsConfig))
		}

		cl, err := kgo.NewClient(kopts...)
		if err != nil {
			return err
		}

		if err := cl.Ping(ctx); err != nil {
			cl.Close()
			return err
		}
		opts.cl = cl
		return nil
	}
}

// ProducerRawClientOpt sets an already built client.
func ProducerRawClientOpt(cl ProducerClient) ProducerOpt {
	return func(opts *producerOpts) error {
		if cl == nil {
			return errors.New("client is nil")
		}
		opts.cl = cl
		return nil
	}
}

func ProducerEncoderOpt(encoder Encoder) ProducerOpt {
	return func(opts *producerOpts) error {
		if encoder == nil {
			return errors.New("encoder is nil")
		}
		opts.encoder = encoder
		return nil
	}
}

type ProducerClient interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

type Encoder interface {
	Encode(v any) ([]byte, error)
}

type Decoder interface {
	Decode(b []byte, v any) error
}

type Serde interface {
	Encoder
	Decoder
}

// UseTLS makes goka processors and views dial brokers with tlsConfig.
// It must be called before they are created.
func UseTLS(tlsConfig *tls.Config) {
	cfg := goka.DefaultConfig()
	cfg.Net.TLS.Enable = true
	cfg.Net.TLS.Config = tlsConfig
	goka.ReplaceGlobalConfig(cfg)
}

func withNonlogProcOpt() goka.ProcessorOption {
	return goka.WithLogger(log.New(io.Discard, "", 0))
}

func makeOp(s ...string) string {
	return strings.Join(s, ".")
}

func opErr(err error, op ...string) error {
	return fmt.Errorf("%s: %w", makeOp(op...), err)
}

func noticeToSchemaV1(evt domain.ShipmentEvent) (s schema.ShipmentNoticeV1) {
	s.ReceiptID = evt.ReceiptID
	s.CustomerID = evt.CustomerID
	s.TotalWeight = evt.Notice.TotalWeight.String()
	s.ShippedAt = evt.ShippedAt.UTC()

	s.Items = make([]schema.ShipmentLineV1, len(evt.Notice.Items))
	for i, item := range evt.Notice.Items {
		s.Items[i].Quantity = item.Quantity
		s.Items[i].Name = item.Name
		s.Items[i].Weight = item.Weight.String()
	}
	return
}

func noticeFromSchemaV1(
	s schema.ShipmentNoticeV1,
) (evt domain.ShipmentEvent, err error) {
	evt.ReceiptID = s.ReceiptID
	evt.CustomerID = s.CustomerID
	evt.ShippedAt = s.ShippedAt

	evt.Notice.TotalWeight, err = decimal.NewFromString(s.TotalWeight)
	if err != nil {
		return domain.ShipmentEvent{}, err
	}

	evt.Notice.Items = make([]domain.ShipmentLine, len(s.Items))
	for i, item := range s.Items {
		w, err := decimal.NewFromString(item.Weight)
		if err != nil {
			return domain.ShipmentEvent{}, err
		}
		evt.Notice.Items[i] = domain.ShipmentLine{
			Quantity: item.Quantity,
			Name:     item.Name,
			Weight:   w,
		}
	}
	return evt, nil
}

func ledgerToSchemaV1(l domain.ShipmentLedger) schema.ShipmentLedgerV1 {
	return schema.ShipmentLedgerV1{
		CustomerID:    l.CustomerID,
		Shipments:     l.Shipments,
		TotalWeight:   l.TotalWeight.String(),
		LastReceiptID: l.LastReceiptID,
	}
}

func ledgerFromSchemaV1(
	s schema.ShipmentLedgerV1,
) (domain.ShipmentLedger, error) {
	w, err := decimal.NewFromString(s.TotalWeight)
	if err != nil {
		return domain.ShipmentLedger{}, err
	}
	return domain.ShipmentLedger{
		CustomerID:    s.CustomerID,
		Shipments:     s.Shipments,
		TotalWeight:   w,
		LastReceiptID: s.LastReceiptID,
	}, nil
}
