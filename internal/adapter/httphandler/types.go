package httphandler

import (
	"strings"
	"time"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/pkg/price"
)

type (
	Variant struct {
		ID        string `json:"id"`
		Diameter  string `json:"diameter"`
		Width     string `json:"width"`
		ET        string `json:"et"`
		Price     int    `json:"price"`
		PriceText string `json:"price_text"`
		Stock     int    `json:"stock"`
		Reserved  int    `json:"reserved"`
		Remaining int    `json:"remaining"`
	}

	Specs struct {
		Diameters []string `json:"diameter"`
		Width     string   `json:"width"`
		PCD       string   `json:"pcd"`
		ETs       []string `json:"et"`
		DIA       string   `json:"dia"`
	}

	Product struct {
		ID           string    `json:"id"`
		Name         string    `json:"name"`
		Brand        string    `json:"brand"`
		Model        string    `json:"model"`
		Description  string    `json:"description"`
		Price        int       `json:"price"`
		PriceText    string    `json:"price_text"`
		Images       []string  `json:"images"`
		Specs        Specs     `json:"specs"`
		Variants     []Variant `json:"variants"`
		Remaining    int       `json:"remaining"`
		Rating       float64   `json:"rating"`
		ReviewsCount int       `json:"reviews_count"`
		Highlighted  bool      `json:"highlighted,omitempty"`
		Reviews      []Review  `json:"reviews,omitempty"`
	}

	Facets struct {
		Brands    []string `json:"brands"`
		Diameters []string `json:"diameters"`
		Widths    []string `json:"widths"`
		PCDs      []string `json:"pcds"`
		ETs       []string `json:"ets"`
		PriceMin  int      `json:"price_min"`
		PriceMax  int      `json:"price_max"`
	}

	Review struct {
		ID        int       `json:"id"`
		ProductID string    `json:"product_id"`
		Model     string    `json:"model"`
		Author    string    `json:"author"`
		Rating    int       `json:"rating"`
		Date      time.Time `json:"date"`
		Text      string    `json:"text"`
		Likes     int       `json:"likes"`
		Dislikes  int       `json:"dislikes"`
		Images    []string  `json:"images,omitempty"`
		Avatar    string    `json:"avatar,omitempty"`
	}

	ReviewRequest struct {
		OrderNumber string   `json:"order_number"`
		Author      string   `json:"author"`
		Rating      int      `json:"rating"`
		Text        string   `json:"text"`
		Images      []string `json:"images"`
	}

	CartItemRequest struct {
		VariantID string `json:"variant_id"`
		Quantity  int    `json:"quantity"`
	}

	QuantityRequest struct {
		Quantity int `json:"quantity"`
	}

	CartItem struct {
		VariantID string `json:"variant_id"`
		Quantity  int    `json:"quantity"`
	}

	CartLine struct {
		ProductID    string  `json:"product_id"`
		Name         string  `json:"name"`
		Image        string  `json:"image,omitempty"`
		Variant      Variant `json:"variant"`
		Quantity     int     `json:"quantity"`
		Subtotal     int     `json:"subtotal"`
		SubtotalText string  `json:"subtotal_text"`
	}

	Cart struct {
		Lines     []CartLine `json:"lines"`
		Units     int        `json:"units"`
		Total     int        `json:"total"`
		TotalText string     `json:"total_text"`
	}

	Notification struct {
		ID         string    `json:"id"`
		Title      string    `json:"title"`
		Message    string    `json:"message,omitempty"`
		Severity   string    `json:"severity"`
		CreatedAt  time.Time `json:"created_at"`
		DurationMs int64     `json:"duration_ms"`
	}
)

// Assets prefixes local asset paths with the base path the shop is
// served under.
type Assets struct {
	base string
}

func NewAssets(basePath string) Assets {
	return Assets{base: normalizeBase(basePath)}
}

// Path returns p under the base path. Absolute URLs are returned as is.
func (a Assets) Path(p string) string {
	if strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") {
		return p
	}
	return a.base + "/" + strings.TrimPrefix(p, "/")
}

func (a Assets) paths(ps []string) []string {
	if ps == nil {
		return nil
	}
	out := make([]string, len(ps))
	for i, p := range ps {
		out[i] = a.Path(p)
	}
	return out
}

// normalizeBase turns "shop/", "/shop" and "/shop/" into "/shop"
// and "/" into "".
func normalizeBase(base string) string {
	base = strings.Trim(base, "/")
	if base == "" {
		return ""
	}
	return "/" + base
}

func toVariant(vs domain.VariantStock) Variant {
	return Variant{
		ID:        vs.Variant.ID,
		Diameter:  vs.Variant.Diameter,
		Width:     vs.Variant.Width,
		ET:        vs.Variant.ET,
		Price:     vs.Variant.Price,
		PriceText: price.Format(vs.Variant.Price),
		Stock:     vs.Variant.Stock,
		Reserved:  vs.Reserved,
		Remaining: vs.Remaining,
	}
}

func toProduct(v domain.ProductView, a Assets, withReviews bool) Product {
	p := v.Product
	out := Product{
		ID:          p.ID,
		Name:        p.Name,
		Brand:       p.Brand,
		Model:       p.Model,
		Description: p.Description,
		Price:       p.MinPrice(),
		PriceText:   price.Format(p.MinPrice()),
		Images:      a.paths(p.Images),
		Specs: Specs{
			Diameters: p.Specs.Diameters,
			Width:     p.Specs.Width,
			PCD:       p.Specs.PCD,
			ETs:       p.Specs.ETs,
			DIA:       p.Specs.DIA,
		},
		Variants:     make([]Variant, len(v.Variants)),
		Remaining:    v.Remaining,
		Rating:       p.Rating,
		ReviewsCount: len(p.Reviews),
		Highlighted:  v.Highlighted,
	}
	for i, vs := range v.Variants {
		out.Variants[i] = toVariant(vs)
	}
	if withReviews {
		out.Reviews = toReviews(p.Reviews, a)
	}
	return out
}

func toProducts(vs []domain.ProductView, a Assets) []Product {
	out := make([]Product, len(vs))
	for i, v := range vs {
		out[i] = toProduct(v, a, false)
	}
	return out
}

func toFacets(f domain.Facets) Facets {
	return Facets{
		Brands:    f.Brands,
		Diameters: f.Diameters,
		Widths:    f.Widths,
		PCDs:      f.PCDs,
		ETs:       f.ETs,
		PriceMin:  f.PriceMin,
		PriceMax:  f.PriceMax,
	}
}

func toReviews(rs []domain.Review, a Assets) []Review {
	out := make([]Review, len(rs))
	for i, r := range rs {
		out[i] = toReview(r, a)
	}
	return out
}

func toReview(r domain.Review, a Assets) Review {
	out := Review{
		ID:        r.ID,
		ProductID: r.ProductID,
		Model:     r.Model,
		Author:    r.Author,
		Rating:    r.Rating,
		Date:      r.Date,
		Text:      r.Text,
		Likes:     r.Likes,
		Dislikes:  r.Dislikes,
		Images:    a.paths(r.Images),
	}
	if r.Avatar != "" {
		out.Avatar = a.Path(r.Avatar)
	}
	return out
}

func (r ReviewRequest) toDomain() domain.ReviewRequest {
	return domain.ReviewRequest{
		OrderNumber: r.OrderNumber,
		Author:      r.Author,
		Rating:      r.Rating,
		Text:        r.Text,
		Images:      r.Images,
	}
}

func toCart(s domain.CartSummary, a Assets) Cart {
	out := Cart{
		Lines:     make([]CartLine, len(s.Lines)),
		Units:     s.Units,
		Total:     s.Total,
		TotalText: price.Format(s.Total),
	}
	for i, l := range s.Lines {
		line := CartLine{
			ProductID: l.Product.ID,
			Name:      l.Product.Name,
			Variant: toVariant(domain.VariantStock{
				Variant:   l.Variant,
				Reserved:  l.Quantity,
				Remaining: l.Remaining,
			}),
			Quantity:     l.Quantity,
			Subtotal:     l.Subtotal,
			SubtotalText: price.Format(l.Subtotal),
		}
		if len(l.Product.Images) != 0 {
			line.Image = a.Path(l.Product.Images[0])
		}
		out.Lines[i] = line
	}
	return out
}

func toNotifications(ns []domain.Notification) []Notification {
	out := make([]Notification, len(ns))
	for i, n := range ns {
		out[i] = Notification{
			ID:         n.ID,
			Title:      n.Title,
			Message:    n.Message,
			Severity:   string(n.Severity),
			CreatedAt:  n.CreatedAt,
			DurationMs: n.Duration.Milliseconds(),
		}
	}
	return out
}
