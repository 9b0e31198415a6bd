package domain_test

import (
	"math"
	"testing"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/stretchr/testify/assert"
)

func lookupOf(vs ...domain.Variant) domain.VariantLookup {
	return func(id string) (domain.Variant, bool) {
		for _, v := range vs {
			if v.ID == id {
				return v, true
			}
		}
		return domain.Variant{}, false
	}
}

func TestRemainingStock(t *testing.T) {
	v := domain.Variant{ID: "v1", Stock: 4}

	assert.Equal(t, 4, domain.RemainingStock(v, nil))
	assert.Equal(t, 1, domain.RemainingStock(v, domain.Cart{"v1": 3}))
	assert.Equal(t, 0, domain.RemainingStock(v, domain.Cart{"v1": 4}))
	assert.Equal(t, 0, domain.RemainingStock(v, domain.Cart{"v1": 9}))
	assert.Equal(t, 4, domain.RemainingStock(v, domain.Cart{"other": 2}))
}

func TestCanAdd(t *testing.T) {
	v := domain.Variant{ID: "v1", Stock: 4}

	assert.True(t, domain.CanAdd(v, domain.Cart{}, 4))
	assert.False(t, domain.CanAdd(v, domain.Cart{}, 5))
	assert.False(t, domain.CanAdd(v, domain.Cart{"v1": 4}, 1))
	assert.False(t, domain.CanAdd(v, domain.Cart{}, 0))
	assert.False(t, domain.CanAdd(v, domain.Cart{}, -1))

	assert.False(t, domain.CanAdd(v, domain.Cart{"v1": 1}, math.MaxInt))
	assert.False(t, domain.CanAdd(v, domain.Cart{}, math.MaxInt))
	assert.False(t, domain.CanAdd(v, domain.Cart{"v1": 4}, math.MinInt))
}

func TestCanSet(t *testing.T) {
	v := domain.Variant{ID: "v1", Stock: 4}

	assert.True(t, domain.CanSet(v, 4))
	assert.False(t, domain.CanSet(v, 5))
	assert.False(t, domain.CanSet(v, math.MaxInt))
	assert.False(t, domain.CanSet(v, 0))
}

func TestReconcile(t *testing.T) {
	lookup := lookupOf(
		domain.Variant{ID: "a", Stock: 2},
		domain.Variant{ID: "b", Stock: 5},
		domain.Variant{ID: "sold-out", Stock: 0},
	)

	t.Run("Unchanged", func(t *testing.T) {
		c, changed := domain.Reconcile(domain.Cart{"a": 2, "b": 1}, lookup)
		assert.False(t, changed)
		assert.Equal(t, domain.Cart{"a": 2, "b": 1}, c)
	})

	t.Run("ClampAndDrop", func(t *testing.T) {
		c, changed := domain.Reconcile(domain.Cart{
			"a":        7,
			"b":        0,
			"missing":  1,
			"sold-out": 1,
		}, lookup)
		assert.True(t, changed)
		assert.Equal(t, domain.Cart{"a": 2}, c)
	})
}

func TestStockConflicts(t *testing.T) {
	lookup := lookupOf(domain.Variant{ID: "a", Stock: 2})

	assert.Empty(t, domain.StockConflicts(domain.Cart{"a": 2}, lookup))
	assert.ElementsMatch(t,
		[]string{"a", "missing"},
		domain.StockConflicts(domain.Cart{"a": 3, "missing": 1}, lookup),
	)
	assert.Equal(t,
		[]string{"a"},
		domain.StockConflicts(domain.Cart{"a": math.MinInt}, lookup),
	)
}

func TestCartKey(t *testing.T) {
	assert.Equal(t, "cart", domain.CartKey(""))
	assert.Equal(t, "cart:abc", domain.CartKey("abc"))
}

func TestAverageRating(t *testing.T) {
	assert.Zero(t, domain.AverageRating(nil))
	assert.InDelta(t, 4.5, domain.AverageRating([]domain.Review{
		{Rating: 5}, {Rating: 4},
	}), 1e-9)
}
