package schema

import (
	"context"
	"errors"
	"fmt"

	"github.com/hamba/avro/v2"
	"github.com/twmb/franz-go/pkg/sr"
)

var ErrTooFewOpts = errors.New("too few options")

// A Serde frames Avro values with the schema registry wire header:
// magic byte 0 and the big endian schema id.
type Serde interface {
	Encode(v any) ([]byte, error)
	Decode(data []byte, v any) error
}

type registrySerde struct {
	subject string
	wire    *sr.Serde
}

func (s registrySerde) Encode(v any) ([]byte, error) {
	b, err := s.wire.Encode(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", s.subject, err)
	}
	return b, nil
}

func (s registrySerde) Decode(data []byte, v any) error {
	if err := s.wire.Decode(data, v); err != nil {
		return fmt.Errorf("decode %s: %w", s.subject, err)
	}
	return nil
}

type Opt func(*serdeOpts) error

type serdeOpts struct {
	subject string
	si      SchemaIdentifier
}

// SubjectOpt names the registry subject, usually "<topic>-value".
func SubjectOpt(subject string) Opt {
	return func(so *serdeOpts) error {
		if subject == "" {
			return errors.New("subject is empty string")
		}
		so.subject = subject
		return nil
	}
}

func SchemaIdentifierOpt(sc SchemaIdentifier) Opt {
	return func(so *serdeOpts) error {
		if sc == nil {
			return errors.New("schema identifier is nil")
		}
		so.si = sc
		return nil
	}
}

// NewSerdeShipmentNoticeV1 registers [ShipmentNoticeSchemaTextV1] under the
// subject and returns a serde for [ShipmentNoticeV1] values.
// Both [SubjectOpt] and [SchemaIdentifierOpt] are required.
func NewSerdeShipmentNoticeV1(ctx context.Context, opts ...Opt) (Serde, error) {
	const op = "NewSerdeShipmentNoticeV1"

	s, err := newRegistrySerde(
		ctx, ShipmentNoticeV1Avro(), ShipmentNoticeV1{}, opts...,
	)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func newRegistrySerde(
	ctx context.Context, avroSchema avro.Schema, example any, opts ...Opt,
) (registrySerde, error) {
	var so serdeOpts
	for _, opt := range opts {
		if err := opt(&so); err != nil {
			return registrySerde{}, err
		}
	}

	switch {
	case so.subject == "":
		return registrySerde{}, fmt.Errorf("%w: subject is required", ErrTooFewOpts)
	case so.si == nil:
		return registrySerde{}, fmt.Errorf(
			"%w: schema identifier is required", ErrTooFewOpts,
		)
	}

	id, err := so.si.DetermineID(ctx, so.subject, avroSchema.String())
	if err != nil {
		return registrySerde{}, err
	}

	wire := new(sr.Serde)
	wire.Register(id, example,
		sr.EncodeFn(AvroEncodeFn(avroSchema)),
		sr.DecodeFn(AvroDecodeFn(avroSchema)),
	)
	return registrySerde{subject: so.subject, wire: wire}, nil
}
