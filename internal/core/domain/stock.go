package domain

// VariantLookup resolves a variant id against the catalog.
type VariantLookup func(variantID string) (Variant, bool)

// RemainingStock returns how many units of v can still be reserved.
func RemainingStock(v Variant, c Cart) int {
	return max(v.Stock-c.Quantity(v.ID), 0)
}

// CanAdd reports whether qty more units of v fit into the stock.
// qty is compared with the remaining stock and never summed.
func CanAdd(v Variant, c Cart, qty int) bool {
	return qty > 0 && qty <= RemainingStock(v, c)
}

// CanSet reports whether the reserved quantity of v can become qty.
func CanSet(v Variant, qty int) bool {
	return qty > 0 && qty <= v.Stock
}

// Reconcile drops entries of unknown variants or non-positive quantities
// and clamps the rest to the variant stock.
func Reconcile(c Cart, lookup VariantLookup) (Cart, bool) {
	out := make(Cart, len(c))
	changed := false
	for id, qty := range c {
		v, ok := lookup(id)
		if !ok || qty <= 0 || v.Stock <= 0 {
			changed = true
			continue
		}
		if qty > v.Stock {
			qty = v.Stock
			changed = true
		}
		out[id] = qty
	}
	return out, changed
}

// StockConflicts returns the variant ids whose reservation is unknown
// to the catalog, not positive or exceeds the stock.
func StockConflicts(c Cart, lookup VariantLookup) (ids []string) {
	for id, qty := range c {
		v, ok := lookup(id)
		if !ok || qty <= 0 || qty > v.Stock {
			ids = append(ids, id)
		}
	}
	return ids
}
