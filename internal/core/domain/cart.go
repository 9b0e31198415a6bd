package domain

import (
	"maps"
	"time"
)

// DefaultCartKey is the storage key of a cart without a client id.
const DefaultCartKey = "cart"

// A Cart maps a variant id to the reserved quantity.
type Cart map[string]int

// Quantity returns the reserved quantity of the variant, 0 if absent.
func (c Cart) Quantity(variantID string) int {
	return c[variantID]
}

// Clone returns an independent copy. A nil cart clones to an empty one.
func (c Cart) Clone() Cart {
	if c == nil {
		return Cart{}
	}
	return maps.Clone(c)
}

// Units sums all reserved quantities.
func (c Cart) Units() (n int) {
	for _, q := range c {
		n += q
	}
	return n
}

// CartKey returns the storage key for the client cart.
func CartKey(clientID string) string {
	if clientID == "" {
		return DefaultCartKey
	}
	return DefaultCartKey + ":" + clientID
}

// CartEventKind names the mutation a [CartEvent] reports.
type CartEventKind string

const (
	CartAdd    CartEventKind = "add"
	CartUpdate CartEventKind = "update"
	CartRemove CartEventKind = "remove"
	CartClear  CartEventKind = "clear"
)

// A CartEvent reports one applied cart mutation. Quantity is the
// reserved quantity after the mutation, 0 for remove and clear.
type CartEvent struct {
	CartKey   string
	Kind      CartEventKind
	VariantID string
	Quantity  int
	At        time.Time
}

// A CartLine is one cart entry resolved against the catalog.
type CartLine struct {
	Product   Product
	Variant   Variant
	Quantity  int
	Subtotal  int
	Remaining int
}

// CartSummary lists the cart lines with the totals of the whole cart.
type CartSummary struct {
	Lines []CartLine
	Units int
	Total int
}
