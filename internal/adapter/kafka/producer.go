package kafka

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/niksmo/checkout/internal/core/domain"
	"github.com/niksmo/checkout/internal/core/port"
	"github.com/niksmo/checkout/pkg/retry"
	"github.com/niksmo/checkout/pkg/schema"
	"github.com/sony/gobreaker/v2"
	"github.com/twmb/franz-go/pkg/kgo"
)

var _ port.ShipmentNotifier = (*ShipmentNoticeProducer)(nil)

// A producer is used for composition.
//
// Producing records to kafka broker and closing underlying [kgo.Client].
type producer struct {
	opPrefix string
	cl       ProducerClient
}

func (p producer) close() {
	const op = "close"
	log := slog.With("op", makeOp(p.opPrefix, op))
	log.Info("closing producer...")
	p.cl.Close()
	log.Info("producer is closed")
}

func (p producer) produce(
	ctx context.Context, rs ...*kgo.Record,
) error {
	const op = "produce"
	res := p.cl.ProduceSync(ctx, rs...)
	if err := res.FirstErr(); err != nil {
		return opErr(err, p.opPrefix, op)
	}
	return nil
}

var produceRetry = retry.RetryConfig{
	MaxAttempts: 3,
	Backoff:     retry.ExponentialBackoff(50 * time.Millisecond),
	ShouldRetry: func(err error) bool {
		return !errors.Is(err, context.Canceled) &&
			!errors.Is(err, context.DeadlineExceeded) &&
			!errors.Is(err, gobreaker.ErrOpenState) &&
			!errors.Is(err, gobreaker.ErrTooManyRequests)
	},
}

// A ShipmentNoticeProducer publishes shipment notices keyed by customer id.
//
// Sends are retried and guarded by a circuit breaker.
type ShipmentNoticeProducer struct {
	producer producer
	encoder  Encoder
	breaker  *gobreaker.CircuitBreaker[struct{}]
	retry    retry.RetryConfig
	opPrefix string
}

func NewShipmentNoticeProducer(
	opts ...ProducerOpt,
) (*ShipmentNoticeProducer, error) {
	const op = "NewShipmentNoticeProducer"

	if len(opts) != 2 {
		panic(opErr(ErrTooFewOpts, op)) // develop mistake
	}

	var options producerOpts
	for _, opt := range opts {
		if err := opt(&options); err != nil {
			return nil, opErr(err, op)
		}
	}

	opPrefix := "ShipmentNoticeProducer"
	return &ShipmentNoticeProducer{
		producer: producer{opPrefix: opPrefix, cl: options.cl},
		encoder:  options.encoder,
		breaker:  newBreaker(opPrefix),
		retry:    produceRetry,
		opPrefix: opPrefix,
	}, nil
}

func newBreaker(name string) *gobreaker.CircuitBreaker[struct{}] {
	return gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        name,
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state change",
				"breaker", name,
				"from", from.String(),
				"to", to.String(),
			)
		},
	})
}

func (p *ShipmentNoticeProducer) Close() {
	p.producer.close()
}

func (p *ShipmentNoticeProducer) NotifyShipment(
	ctx context.Context, evt domain.ShipmentEvent,
) error {
	const op = "NotifyShipment"
	log := slog.With("op", makeOp(p.opPrefix, op))

	if err := ctx.Err(); err != nil {
		return opErr(err, p.opPrefix, op)
	}

	r, err := p.createRecord(evt)
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	err = retry.Do(ctx, p.retry, func() error {
		_, err := p.breaker.Execute(func() (struct{}, error) {
			return struct{}{}, p.producer.produce(ctx, r)
		})
		return err
	})
	if err != nil {
		return opErr(err, p.opPrefix, op)
	}

	log.Debug("shipment notice produced",
		"receiptID", evt.ReceiptID, "customerID", evt.CustomerID,
	)
	return nil
}

func (p *ShipmentNoticeProducer) createRecord(
	evt domain.ShipmentEvent,
) (*kgo.Record, error) {
	const op = "createRecord"

	s := p.toSchema(evt)
	b, err := p.encoder.Encode(s)
	if err != nil {
		return nil, opErr(err, p.opPrefix, op)
	}
	return &kgo.Record{Key: []byte(s.CustomerID), Value: b}, nil
}

func (*ShipmentNoticeProducer) toSchema(
	evt domain.ShipmentEvent,
) schema.ShipmentNoticeV1 {
	return noticeToSchemaV1(evt)
}
