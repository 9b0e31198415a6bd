package catalog_test

import (
	"testing"

	"github.com/niksmo/wheels-shop/internal/adapter/catalog"
	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	s, err := catalog.Default()
	require.NoError(t, err)

	ps, err := s.Products(t.Context())
	require.NoError(t, err)
	require.Len(t, ps, 3)

	t.Run("Product", func(t *testing.T) {
		p, err := s.Product(t.Context(), "ssr-gt-f01")
		require.NoError(t, err)
		assert.Equal(t, "SSR", p.Brand)
		assert.Len(t, p.Variants, 4)
		assert.Equal(t, []string{"17", "18"}, p.Specs.Diameters)
	})

	t.Run("ProductNotFound", func(t *testing.T) {
		_, err := s.Product(t.Context(), "missing")
		assert.ErrorIs(t, err, domain.ErrProductNotFound)
	})

	t.Run("VariantProduct", func(t *testing.T) {
		p, v, err := s.VariantProduct(t.Context(), "ssr-gt-f01-17-44")
		require.NoError(t, err)
		assert.Equal(t, "ssr-gt-f01", p.ID)
		assert.Equal(t, 4, v.Stock)
		assert.Equal(t, 25000, v.Price)
		assert.Equal(t, "7.5", v.Width)
	})

	t.Run("VariantNotFound", func(t *testing.T) {
		_, _, err := s.VariantProduct(t.Context(), "missing")
		assert.ErrorIs(t, err, domain.ErrVariantNotFound)
	})

	t.Run("FindOrder", func(t *testing.T) {
		o, err := s.FindOrder(t.Context(), "12345")
		require.NoError(t, err)
		assert.Equal(t, "ssr-gt-f01", o.ProductID)

		_, err = s.FindOrder(t.Context(), "00000")
		assert.ErrorIs(t, err, domain.ErrOrderNotFound)
	})
}

func TestStoreReview(t *testing.T) {
	s, err := catalog.Default()
	require.NoError(t, err)

	before, err := s.Reviews(t.Context())
	require.NoError(t, err)

	r, err := s.StoreReview(t.Context(), domain.Review{
		ProductID: "rays-te37",
		Rating:    4,
		Text:      "ok",
	})
	require.NoError(t, err)
	assert.Equal(t, len(before)+1, r.ID)
	assert.False(t, r.Date.IsZero())

	after, err := s.Reviews(t.Context())
	require.NoError(t, err)
	require.Len(t, after, len(before)+1)
	assert.Equal(t, r, after[0])

	_, err = s.StoreReview(t.Context(), domain.Review{ProductID: "missing"})
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestParse(t *testing.T) {
	t.Run("DuplicateVariant", func(t *testing.T) {
		doc := `
products:
  - id: a
    variants:
      - {id: v, stock: 1}
  - id: b
    variants:
      - {id: v, stock: 1}
`
		_, err := catalog.Parse([]byte(doc))
		assert.ErrorIs(t, err, catalog.ErrDuplicateID)
	})

	t.Run("UnknownField", func(t *testing.T) {
		_, err := catalog.Parse([]byte("products:\n  - id: a\n    colour: red\n"))
		assert.Error(t, err)
	})

	t.Run("VariantWidthFallsBackToSpecs", func(t *testing.T) {
		doc := `
products:
  - id: a
    specs: {width: "9.0"}
    variants:
      - {id: v, stock: 1}
`
		s, err := catalog.Parse([]byte(doc))
		require.NoError(t, err)
		_, v, err := s.VariantProduct(t.Context(), "v")
		require.NoError(t, err)
		assert.Equal(t, "9.0", v.Width)
	})
}
