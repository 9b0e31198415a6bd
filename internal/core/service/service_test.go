package service_test

import (
	"fmt"
	"testing"
	"time"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

const key = "cart:test"

var testNow = time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC)

func newTestService(t *testing.T) (service.Service, *memStorage) {
	t.Helper()
	cat := newTestCatalog(t)
	storage := newMemStorage()
	s := service.New(
		cat, cat, cat, storage, nil,
		service.NotificationDurationOpt(time.Hour),
		service.ClockOpt(func() time.Time { return testNow }),
	)
	t.Cleanup(s.Close)
	return s, storage
}

func titles(ns []domain.Notification) []string {
	out := make([]string, len(ns))
	for i, n := range ns {
		out[i] = n.Title
	}
	return out
}

func TestServiceCart(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := t.Context()

	t.Run("AddNotifies", func(t *testing.T) {
		s, storage := newTestService(t)

		n, err := s.AddToCart(ctx, key, "te37-17-35", 2)
		require.NoError(t, err)
		assert.Equal(t, 2, n)
		assert.Equal(t, domain.Cart{"te37-17-35": 2}, storage.stored(key))

		ns := s.Notifications(key)
		require.Len(t, ns, 1)
		assert.Equal(t, domain.SeveritySuccess, ns[0].Severity)
		assert.Empty(t, s.Notifications(domain.DefaultCartKey))
	})

	t.Run("StockExceededNotifies", func(t *testing.T) {
		s, _ := newTestService(t)

		_, err := s.AddToCart(ctx, key, "gt-f01-17-44", 2)
		require.NoError(t, err)
		n, err := s.AddToCart(ctx, key, "gt-f01-17-44", 1)
		assert.ErrorIs(t, err, domain.ErrStockExceeded)
		assert.Equal(t, 2, n)

		ns := s.Notifications(key)
		require.Len(t, ns, 2)
		assert.Equal(t, domain.SeverityError, ns[1].Severity)
		assert.Contains(t, ns[1].Message, "0")
	})

	t.Run("UnknownVariantWarns", func(t *testing.T) {
		s, _ := newTestService(t)

		_, err := s.AddToCart(ctx, key, "missing", 1)
		assert.ErrorIs(t, err, domain.ErrVariantNotFound)

		ns := s.Notifications(key)
		require.Len(t, ns, 1)
		assert.Equal(t, domain.SeverityWarning, ns[0].Severity)
	})

	t.Run("KeysAreIndependent", func(t *testing.T) {
		s, _ := newTestService(t)

		_, err := s.AddToCart(ctx, "cart:a", "te37-17-35", 1)
		require.NoError(t, err)

		n, err := s.GetCartQuantity(ctx, "cart:b", "te37-17-35")
		require.NoError(t, err)
		assert.Zero(t, n)
	})

	t.Run("UpdateRemoveClear", func(t *testing.T) {
		s, _ := newTestService(t)

		_, err := s.AddToCart(ctx, key, "te37-17-35", 1)
		require.NoError(t, err)
		_, err = s.AddToCart(ctx, key, "gt-f01-18-44", 1)
		require.NoError(t, err)

		n, err := s.UpdateQuantity(ctx, key, "te37-17-35", 4)
		require.NoError(t, err)
		assert.Equal(t, 4, n)

		require.NoError(t, s.RemoveFromCart(ctx, key, "gt-f01-18-44"))
		n, err = s.GetCartQuantity(ctx, key, "gt-f01-18-44")
		require.NoError(t, err)
		assert.Zero(t, n)

		require.NoError(t, s.ClearCart(ctx, key))
		sum, err := s.CartSummary(ctx, key)
		require.NoError(t, err)
		assert.Empty(t, sum.Lines)
		assert.Contains(t, titles(s.Notifications(key)), "Cart cleared")
	})
}

func TestServiceRegistriesStayBounded(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := t.Context()

	cat := newTestCatalog(t)
	storage := newMemStorage()
	s := service.New(
		cat, cat, cat, storage, nil,
		service.NotificationDurationOpt(time.Hour),
		service.MaxOpenCartsOpt(2),
	)
	defer s.Close()

	for i := range 200 {
		key := fmt.Sprintf("visitor:%d", i)
		_, err := s.CartSummary(ctx, key)
		require.NoError(t, err)
		_, err = s.GetCartQuantity(ctx, key, "te37-17-35")
		require.NoError(t, err)
		assert.Empty(t, s.Notifications(key))
	}
	assert.Equal(t, service.Stats{}, s.Stats())

	for _, k := range []string{"cart:a", "cart:b", "cart:c", "cart:a", "cart:b"} {
		_, err := s.AddToCart(ctx, k, "te37-17-35", 1)
		require.NoError(t, err)
	}
	assert.Equal(t, 2, s.Stats().OpenCarts)
	assert.Equal(t, 3, s.Stats().NotificationQueues)

	for k, want := range map[string]int{"cart:a": 2, "cart:b": 2, "cart:c": 1} {
		n, err := s.GetCartQuantity(ctx, k, "te37-17-35")
		require.NoError(t, err)
		assert.Equal(t, want, n, k)
		assert.Equal(t, domain.Cart{"te37-17-35": want}, storage.stored(k))
	}

	for _, n := range s.Notifications("cart:c") {
		require.NoError(t, s.CloseNotification("cart:c", n.ID))
	}
	assert.Equal(t, 2, s.Stats().NotificationQueues)
}

func TestServiceCheckout(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := t.Context()

	t.Run("Empty", func(t *testing.T) {
		s, _ := newTestService(t)
		_, err := s.Checkout(ctx, key)
		assert.ErrorIs(t, err, domain.ErrEmptyCart)
	})

	t.Run("Summary", func(t *testing.T) {
		s, _ := newTestService(t)

		_, err := s.AddToCart(ctx, key, "te37-17-35", 2)
		require.NoError(t, err)
		_, err = s.AddToCart(ctx, key, "gt-f01-17-44", 1)
		require.NoError(t, err)
		_, err = s.AddToCart(ctx, key, "gt-f01-18-44", 1)
		require.NoError(t, err)

		sum, err := s.Checkout(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, 4, sum.Units)
		assert.Equal(t, 2*45000+25000+27000, sum.Total)

		require.Len(t, sum.Lines, 3)
		assert.Equal(t, "te37-17-35", sum.Lines[0].Variant.ID)
		assert.Equal(t, 90000, sum.Lines[0].Subtotal)
		assert.Equal(t, 2, sum.Lines[0].Remaining)
		assert.Equal(t, "gt-f01-17-44", sum.Lines[1].Variant.ID)
		assert.Equal(t, "gt-f01-18-44", sum.Lines[2].Variant.ID)
	})
}

func TestServiceProducts(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := t.Context()
	s, _ := newTestService(t)

	ids := func(vs []domain.ProductView) []string {
		out := make([]string, len(vs))
		for i, v := range vs {
			out[i] = v.Product.ID
		}
		return out
	}

	tests := []struct {
		name   string
		filter domain.ProductFilter
		want   []string
	}{
		{"All", domain.ProductFilter{}, []string{"te37", "gt-f01", "sold-out"}},
		{"Brand", domain.ProductFilter{Brands: []string{"ssr", "RAYS"}}, []string{"te37", "gt-f01"}},
		{"Diameter", domain.ProductFilter{Diameters: []string{"18"}}, []string{"gt-f01", "sold-out"}},
		{"AcrossFacets", domain.ProductFilter{Diameters: []string{"18"}, PCDs: []string{"5x114.3"}}, []string{"gt-f01"}},
		{"Width", domain.ProductFilter{Widths: []string{"8.0", "8.5"}}, []string{"te37", "sold-out"}},
		{"ET", domain.ProductFilter{ETs: []string{"44"}}, []string{"gt-f01"}},
		{"PriceRange", domain.ProductFilter{PriceMin: 30000, PriceMax: 40000}, []string{"sold-out"}},
		{"InStock", domain.ProductFilter{InStock: true}, []string{"te37", "gt-f01"}},
		{"Query", domain.ProductFilter{Query: "  rays "}, []string{"te37"}},
		{"PriceAsc", domain.ProductFilter{Sort: domain.SortPriceAsc}, []string{"gt-f01", "sold-out", "te37"}},
		{"PriceDesc", domain.ProductFilter{Sort: domain.SortPriceDesc}, []string{"te37", "sold-out", "gt-f01"}},
		{"Name", domain.ProductFilter{Sort: domain.SortName}, []string{"te37", "gt-f01", "sold-out"}},
		{"NoMatch", domain.ProductFilter{Brands: []string{"BBS"}}, []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.Products(ctx, key, tt.filter)
			require.NoError(t, err)
			assert.Equal(t, tt.want, ids(got))
		})
	}

	t.Run("RemainingFollowsCart", func(t *testing.T) {
		_, err := s.AddToCart(ctx, key, "gt-f01-18-44", 1)
		require.NoError(t, err)

		got, err := s.Products(ctx, key, domain.ProductFilter{Highlight: "gt-f01"})
		require.NoError(t, err)
		require.Len(t, got, 3)

		gt := got[1]
		assert.True(t, gt.Highlighted)
		assert.False(t, got[0].Highlighted)
		assert.Equal(t, 2, gt.Remaining)
		assert.Equal(t, 1, gt.Variants[1].Reserved)
		assert.Zero(t, gt.Variants[1].Remaining)

		other, err := s.Products(ctx, "cart:other", domain.ProductFilter{})
		require.NoError(t, err)
		assert.Equal(t, 3, other[1].Remaining)
	})
}

func TestServiceProduct(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := t.Context()
	s, _ := newTestService(t)

	p, err := s.Product(ctx, key, "te37")
	require.NoError(t, err)
	assert.Equal(t, "RAYS TE37", p.Product.Name)
	require.Len(t, p.Product.Reviews, 2)
	assert.Equal(t, 1, p.Product.Reviews[0].ID)
	assert.InDelta(t, 4.0, p.Product.Rating, 1e-9)
	assert.Equal(t, 4, p.Remaining)

	_, err = s.Product(ctx, key, "missing")
	assert.ErrorIs(t, err, domain.ErrProductNotFound)
}

func TestServiceFacets(t *testing.T) {
	s, _ := newTestService(t)

	f, err := s.Facets(t.Context())
	require.NoError(t, err)
	assert.Equal(t, []string{"RAYS", "SSR", "WORK"}, f.Brands)
	assert.Equal(t, []string{"17", "18"}, f.Diameters)
	assert.Equal(t, []string{"7.5", "8.0", "8.5"}, f.Widths)
	assert.Equal(t, []string{"5x100", "5x114.3"}, f.PCDs)
	assert.Equal(t, []string{"35", "38", "44"}, f.ETs)
	assert.Equal(t, 25000, f.PriceMin)
	assert.Equal(t, 45000, f.PriceMax)
}

func TestServiceReviews(t *testing.T) {
	defer goleak.VerifyNone(t)
	ctx := t.Context()

	reviewIDs := func(rs []domain.Review) []int {
		out := make([]int, len(rs))
		for i, r := range rs {
			out[i] = r.ID
		}
		return out
	}

	t.Run("Query", func(t *testing.T) {
		s, _ := newTestService(t)

		tests := []struct {
			name  string
			query domain.ReviewQuery
			want  []int
		}{
			{"Newest", domain.ReviewQuery{}, []int{3, 1, 2}},
			{"Positive", domain.ReviewQuery{Sort: domain.ReviewsPositive}, []int{1, 3, 2}},
			{"Negative", domain.ReviewQuery{Sort: domain.ReviewsNegative}, []int{2, 3, 1}},
			{"Product", domain.ReviewQuery{ProductID: "te37"}, []int{1, 2}},
			{"Model", domain.ReviewQuery{Model: "gt f01"}, []int{3}},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				rs, err := s.Reviews(ctx, tt.query)
				require.NoError(t, err)
				assert.Equal(t, tt.want, reviewIDs(rs))
			})
		}
	})

	t.Run("Add", func(t *testing.T) {
		s, _ := newTestService(t)

		r, err := s.AddReview(ctx, domain.ReviewRequest{
			OrderNumber: " 12345 ",
			Rating:      5,
			Text:        "  fits perfectly ",
		})
		require.NoError(t, err)
		assert.Equal(t, 4, r.ID)
		assert.Equal(t, "gt-f01", r.ProductID)
		assert.Equal(t, "GT F01", r.Model)
		assert.Equal(t, "fits perfectly", r.Text)
		assert.Equal(t, testNow, r.Date)
		assert.NotEmpty(t, r.Author)

		rs, err := s.Reviews(ctx, domain.ReviewQuery{ProductID: "gt-f01"})
		require.NoError(t, err)
		assert.Equal(t, []int{4, 3}, reviewIDs(rs))

		p, err := s.Product(ctx, key, "gt-f01")
		require.NoError(t, err)
		assert.InDelta(t, 4.5, p.Product.Rating, 1e-9)
	})

	t.Run("Invalid", func(t *testing.T) {
		s, _ := newTestService(t)

		tests := []struct {
			name string
			req  domain.ReviewRequest
			want error
		}{
			{"RatingLow", domain.ReviewRequest{OrderNumber: "12345", Rating: 0, Text: "x"}, domain.ErrInvalidRating},
			{"RatingHigh", domain.ReviewRequest{OrderNumber: "12345", Rating: 6, Text: "x"}, domain.ErrInvalidRating},
			{"EmptyText", domain.ReviewRequest{OrderNumber: "12345", Rating: 3, Text: "  "}, domain.ErrEmptyReview},
			{"UnknownOrder", domain.ReviewRequest{OrderNumber: "0", Rating: 3, Text: "x"}, domain.ErrOrderNotFound},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := s.AddReview(ctx, tt.req)
				assert.ErrorIs(t, err, tt.want)
			})
		}
	})
}
