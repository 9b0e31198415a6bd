package service

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/niksmo/wheels-shop/internal/core/domain"
)

// Products lists the catalog with the remaining stock of every variant
// computed against the cart of the key.
func (s Service) Products(
	ctx context.Context, key string, f domain.ProductFilter,
) ([]domain.ProductView, error) {
	const op = "Service.Products"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ps, err := s.catalog.Products(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.cart(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.reviews.Reviews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	views := make([]domain.ProductView, 0, len(ps))
	for _, p := range ps {
		if !matchProduct(p, f) {
			continue
		}
		p = withReviews(p, reviews)
		view := productView(p, cart)
		if f.InStock && view.Remaining == 0 {
			continue
		}
		view.Highlighted = f.Highlight != "" && p.ID == f.Highlight
		views = append(views, view)
	}

	sortViews(views, f.Sort)
	return views, nil
}

func (s Service) Product(
	ctx context.Context, key, productID string,
) (domain.ProductView, error) {
	const op = "Service.Product"

	p, err := s.catalog.Product(ctx, productID)
	if err != nil {
		return domain.ProductView{}, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := s.cart(ctx, key)
	if err != nil {
		return domain.ProductView{}, fmt.Errorf("%s: %w", op, err)
	}

	reviews, err := s.reviews.Reviews(ctx)
	if err != nil {
		return domain.ProductView{}, fmt.Errorf("%s: %w", op, err)
	}

	return productView(withReviews(p, reviews), cart), nil
}

// Facets returns the option lists of the catalog filter sections.
func (s Service) Facets(ctx context.Context) (domain.Facets, error) {
	const op = "Service.Facets"

	ps, err := s.catalog.Products(ctx)
	if err != nil {
		return domain.Facets{}, fmt.Errorf("%s: %w", op, err)
	}

	var f domain.Facets
	for i, p := range ps {
		f.Brands = append(f.Brands, p.Brand)
		f.Diameters = append(f.Diameters, p.Specs.Diameters...)
		f.Widths = append(f.Widths, p.Specs.Width)
		f.PCDs = append(f.PCDs, p.Specs.PCD)
		f.ETs = append(f.ETs, p.Specs.ETs...)

		lo, hi := priceRange(p)
		if i == 0 {
			f.PriceMin, f.PriceMax = lo, hi
			continue
		}
		f.PriceMin = min(f.PriceMin, lo)
		f.PriceMax = max(f.PriceMax, hi)
	}

	f.Brands = uniqueSorted(f.Brands)
	f.Diameters = uniqueSorted(f.Diameters)
	f.Widths = uniqueSorted(f.Widths)
	f.PCDs = uniqueSorted(f.PCDs)
	f.ETs = uniqueSorted(f.ETs)
	return f, nil
}

func productView(p domain.Product, cart domain.Cart) domain.ProductView {
	view := domain.ProductView{
		Product:  p,
		Variants: make([]domain.VariantStock, len(p.Variants)),
	}
	for i, v := range p.Variants {
		remaining := domain.RemainingStock(v, cart)
		view.Variants[i] = domain.VariantStock{
			Variant:   v,
			Reserved:  cart.Quantity(v.ID),
			Remaining: remaining,
		}
		view.Remaining += remaining
	}
	return view
}

func withReviews(p domain.Product, reviews []domain.Review) domain.Product {
	p.Reviews = nil
	for _, r := range reviews {
		if r.ProductID == p.ID {
			p.Reviews = append(p.Reviews, r)
		}
	}
	sortReviews(p.Reviews, domain.ReviewsNewest)
	p.Rating = domain.AverageRating(p.Reviews)
	return p
}

func matchProduct(p domain.Product, f domain.ProductFilter) bool {
	if len(f.Brands) != 0 && !containsFold(f.Brands, p.Brand) {
		return false
	}
	if len(f.Diameters) != 0 && !intersects(f.Diameters, p.Specs.Diameters) {
		return false
	}
	if len(f.Widths) != 0 && !slices.Contains(f.Widths, p.Specs.Width) {
		return false
	}
	if len(f.PCDs) != 0 && !containsFold(f.PCDs, p.Specs.PCD) {
		return false
	}
	if len(f.ETs) != 0 && !intersects(f.ETs, p.Specs.ETs) {
		return false
	}

	price := p.MinPrice()
	if f.PriceMin > 0 && price < f.PriceMin {
		return false
	}
	if f.PriceMax > 0 && price > f.PriceMax {
		return false
	}

	q := strings.TrimSpace(f.Query)
	if q != "" && !strings.Contains(strings.ToLower(p.Name), strings.ToLower(q)) {
		return false
	}
	return true
}

func sortViews(views []domain.ProductView, by domain.ProductSort) {
	switch by {
	case domain.SortPriceAsc:
		slices.SortStableFunc(views, func(a, b domain.ProductView) int {
			return cmp.Compare(a.Product.MinPrice(), b.Product.MinPrice())
		})
	case domain.SortPriceDesc:
		slices.SortStableFunc(views, func(a, b domain.ProductView) int {
			return cmp.Compare(b.Product.MinPrice(), a.Product.MinPrice())
		})
	case domain.SortName:
		slices.SortStableFunc(views, func(a, b domain.ProductView) int {
			return cmp.Compare(a.Product.Name, b.Product.Name)
		})
	}
}

func priceRange(p domain.Product) (lo, hi int) {
	lo, hi = p.MinPrice(), p.MinPrice()
	for _, v := range p.Variants {
		hi = max(hi, v.Price)
	}
	return lo, hi
}

func containsFold(set []string, v string) bool {
	return slices.ContainsFunc(set, func(s string) bool {
		return strings.EqualFold(s, v)
	})
}

func intersects(a, b []string) bool {
	return slices.ContainsFunc(a, func(s string) bool {
		return slices.Contains(b, s)
	})
}

func uniqueSorted(vs []string) []string {
	vs = slices.DeleteFunc(vs, func(s string) bool { return s == "" })
	slices.Sort(vs)
	return slices.Compact(vs)
}
