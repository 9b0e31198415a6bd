package schema

import "time"

const CartEventSchemaTextV1 = `{
	"type": "record",
	"namespace": "shop",
	"name": "cart_event",
	"fields" : [
		{"name": "cart_key", "type": "string"},
		{"name": "kind", "type": "string"},
		{"name": "variant_id", "type": "string"},
		{"name": "quantity", "type": "int"},
		{"name": "at", "type": {"type": "long", "logicalType": "timestamp-millis"}}
	]
}`

type CartEventV1 struct {
	CartKey   string    `avro:"cart_key"`
	Kind      string    `avro:"kind"`
	VariantID string    `avro:"variant_id"`
	Quantity  int       `avro:"quantity"`
	At        time.Time `avro:"at"`
}
