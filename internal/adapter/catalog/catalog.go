package catalog

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"sync"
	"time"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embedded []byte

var _ port.Catalog = (*Static)(nil)
var _ port.ReviewsStorage = (*Static)(nil)
var _ port.OrderBook = (*Static)(nil)

var ErrDuplicateID = errors.New("duplicate id")

type variantRef struct {
	product int
	variant int
}

// A Static is the catalog built into the binary.
//
// Products and orders never change at runtime, reviews are kept in memory.
type Static struct {
	products []domain.Product
	index    map[string]int
	variants map[string]variantRef
	orders   map[string]domain.Order

	mu      sync.RWMutex
	reviews []domain.Review
	lastID  int
}

// Default parses the embedded catalog document.
func Default() (*Static, error) {
	const op = "catalog.Default"
	s, err := Parse(embedded)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

// Load parses the catalog document at path. An empty path loads
// the embedded catalog.
func Load(path string) (*Static, error) {
	const op = "catalog.Load"

	if path == "" {
		return Default()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return s, nil
}

func Parse(data []byte) (*Static, error) {
	const op = "catalog.Parse"

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var doc document
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s := &Static{
		index:    make(map[string]int),
		variants: make(map[string]variantRef),
		orders:   make(map[string]domain.Order),
	}

	for i, p := range doc.Products {
		if _, ok := s.index[p.ID]; ok {
			return nil, fmt.Errorf("%s: %w: product %q", op, ErrDuplicateID, p.ID)
		}
		s.index[p.ID] = i

		dp := p.toDomain()
		for j, v := range dp.Variants {
			if _, ok := s.variants[v.ID]; ok {
				return nil, fmt.Errorf("%s: %w: variant %q", op, ErrDuplicateID, v.ID)
			}
			s.variants[v.ID] = variantRef{product: i, variant: j}
		}
		s.products = append(s.products, dp)
	}

	for _, r := range doc.Reviews {
		s.reviews = append(s.reviews, r.toDomain())
		s.lastID = max(s.lastID, r.ID)
	}

	for _, o := range doc.Orders {
		s.orders[o.Number] = o.toDomain()
	}

	return s, nil
}

func (s *Static) Products(ctx context.Context) ([]domain.Product, error) {
	const op = "Static.Products"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return slices.Clone(s.products), nil
}

func (s *Static) Product(
	ctx context.Context, productID string,
) (domain.Product, error) {
	const op = "Static.Product"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, fmt.Errorf("%s: %w", op, err)
	}

	i, ok := s.index[productID]
	if !ok {
		return domain.Product{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrProductNotFound, productID,
		)
	}
	return s.products[i], nil
}

func (s *Static) VariantProduct(
	ctx context.Context, variantID string,
) (domain.Product, domain.Variant, error) {
	const op = "Static.VariantProduct"

	if err := ctx.Err(); err != nil {
		return domain.Product{}, domain.Variant{}, fmt.Errorf("%s: %w", op, err)
	}

	ref, ok := s.variants[variantID]
	if !ok {
		return domain.Product{}, domain.Variant{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrVariantNotFound, variantID,
		)
	}
	p := s.products[ref.product]
	return p, p.Variants[ref.variant], nil
}

func (s *Static) Reviews(ctx context.Context) ([]domain.Review, error) {
	const op = "Static.Reviews"

	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.reviews), nil
}

// StoreReview assigns the next id and keeps the review in memory.
func (s *Static) StoreReview(
	ctx context.Context, r domain.Review,
) (domain.Review, error) {
	const op = "Static.StoreReview"

	if err := ctx.Err(); err != nil {
		return domain.Review{}, fmt.Errorf("%s: %w", op, err)
	}

	if _, ok := s.index[r.ProductID]; !ok {
		return domain.Review{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrProductNotFound, r.ProductID,
		)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	r.ID = s.lastID
	if r.Date.IsZero() {
		r.Date = time.Now()
	}
	s.reviews = append([]domain.Review{r}, s.reviews...)
	return r, nil
}

func (s *Static) FindOrder(
	ctx context.Context, number string,
) (domain.Order, error) {
	const op = "Static.FindOrder"

	if err := ctx.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("%s: %w", op, err)
	}

	o, ok := s.orders[number]
	if !ok {
		return domain.Order{}, fmt.Errorf(
			"%s: %w: %q", op, domain.ErrOrderNotFound, number,
		)
	}
	return o, nil
}
