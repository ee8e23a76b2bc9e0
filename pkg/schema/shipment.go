package schema

import (
	"time"

	"github.com/hamba/avro/v2"
)

// Decimal values travel as strings to keep them exact.

const ShipmentNoticeSchemaTextV1 = `{
	"type": "record",
	"namespace": "shipments",
	"name": "shipment_notice",
	"fields": [
		{"name": "receipt_id", "type": "string"},
		{"name": "customer_id", "type": "string"},
		{"name": "items", "type": {
			"type": "array",
			"items": {
				"type": "record",
				"name": "shipment_line",
				"fields": [
					{"name": "quantity", "type": "long"},
					{"name": "name", "type": "string"},
					{"name": "weight", "type": "string"}
				]
			}
		}},
		{"name": "total_weight", "type": "string"},
		{"name": "shipped_at", "type": {
			"type": "long", "logicalType": "timestamp-millis"
		}}
	]
}`

const ShipmentLedgerSchemaTextV1 = `{
	"type": "record",
	"namespace": "shipments",
	"name": "shipment_ledger",
	"fields": [
		{"name": "customer_id", "type": "string"},
		{"name": "shipments", "type": "long"},
		{"name": "total_weight", "type": "string"},
		{"name": "last_receipt_id", "type": "string"}
	]
}`

type (
	ShipmentNoticeV1 struct {
		ReceiptID   string           `avro:"receipt_id"`
		CustomerID  string           `avro:"customer_id"`
		Items       []ShipmentLineV1 `avro:"items"`
		TotalWeight string           `avro:"total_weight"`
		ShippedAt   time.Time        `avro:"shipped_at"`
	}

	ShipmentLineV1 struct {
		Quantity int    `avro:"quantity"`
		Name     string `avro:"name"`
		Weight   string `avro:"weight"`
	}

	ShipmentLedgerV1 struct {
		CustomerID    string `avro:"customer_id"`
		Shipments     int    `avro:"shipments"`
		TotalWeight   string `avro:"total_weight"`
		LastReceiptID string `avro:"last_receipt_id"`
	}
)

func ShipmentNoticeV1Avro() avro.Schema {
	return avro.MustParse(ShipmentNoticeSchemaTextV1)
}

func ShipmentLedgerV1Avro() avro.Schema {
	return avro.MustParse(ShipmentLedgerSchemaTextV1)
}
