package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
	"golang.org/x/sync/singleflight"
)

// DefaultMaxOpenCarts bounds the carts kept in memory by [Carts].
const DefaultMaxOpenCarts = 10000

// ErrCartStoreClosed is returned by mutations of a store evicted
// from [Carts]. Callers open the store again.
var ErrCartStoreClosed = errors.New("cart store is closed")

// A CartStore holds the reserved quantities of one cart key.
//
// Every mutation is validated against the catalog stock and written
// through to the [port.CartStorage] before it returns. An emptied cart
// is deleted from the storage. Events are published after the store
// lock is released.
//
// The store assumes it is the only writer of its key and never reloads
// it, so one storage serves one shop instance.
type CartStore struct {
	mu      sync.Mutex
	key     string
	cart    domain.Cart
	closed  bool
	catalog port.Catalog
	storage port.CartStorage
	events  port.CartEventPublisher
	now     func() time.Time
}

// OpenCartStore loads the persisted cart of the key.
//
// Malformed data is replaced with an empty cart. Entries of unknown
// variants are dropped and quantities are clamped to the stock.
func OpenCartStore(
	ctx context.Context,
	key string,
	catalog port.Catalog,
	storage port.CartStorage,
	events port.CartEventPublisher,
) (*CartStore, error) {
	const op = "OpenCartStore"
	log := slog.With("op", op, "cartKey", key)

	s := &CartStore{
		key:     key,
		catalog: catalog,
		storage: storage,
		events:  events,
		now:     time.Now,
	}

	c, err := loadCart(ctx, storage, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	c, changed := domain.Reconcile(c, variantLookup(ctx, catalog))
	s.cart = c
	if changed {
		log.Info("cart reconciled with catalog stock")
		if err := s.persist(ctx); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
	}
	return s, nil
}

// loadCart reads the persisted cart. A missing or malformed cart
// loads as an empty one.
func loadCart(
	ctx context.Context, storage port.CartStorage, key string,
) (domain.Cart, error) {
	c, err := storage.LoadCart(ctx, key)
	switch {
	case err == nil:
		return c, nil
	case errors.Is(err, domain.ErrCartNotFound):
		return domain.Cart{}, nil
	case errors.Is(err, domain.ErrMalformedCart):
		slog.Warn("replace malformed cart with empty one",
			"op", "loadCart", "cartKey", key, "err", err)
		return domain.Cart{}, nil
	default:
		return nil, err
	}
}

func (s *CartStore) Key() string {
	return s.key
}

// AddToCart reserves qty more units of the variant and returns
// the new reserved quantity.
func (s *CartStore) AddToCart(
	ctx context.Context, variantID string, qty int,
) (int, error) {
	const op = "CartStore.AddToCart"

	if qty <= 0 {
		return 0, fmt.Errorf("%s: %w", op, domain.ErrInvalidQuantity)
	}

	_, v, err := s.catalog.VariantProduct(ctx, variantID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, evt, err := s.add(ctx, v, qty)
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(evt)
	return n, nil
}

func (s *CartStore) add(
	ctx context.Context, v domain.Variant, qty int,
) (int, domain.CartEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cart.Quantity(v.ID)
	if s.closed {
		return cur, domain.CartEvent{}, ErrCartStoreClosed
	}

	if !domain.CanAdd(v, s.cart, qty) {
		return cur, domain.CartEvent{}, fmt.Errorf(
			"%w: %q requested %d, remaining %d",
			domain.ErrStockExceeded, v.ID, qty, domain.RemainingStock(v, s.cart),
		)
	}

	n := cur + qty
	evt, err := s.mutate(ctx, domain.CartAdd, v.ID, n, func(c domain.Cart) {
		c[v.ID] = n
	})
	if err != nil {
		return cur, domain.CartEvent{}, err
	}
	return n, evt, nil
}

// UpdateQuantity sets the reserved quantity of the variant.
// A quantity <= 0 removes the variant from the cart.
func (s *CartStore) UpdateQuantity(
	ctx context.Context, variantID string, qty int,
) (int, error) {
	const op = "CartStore.UpdateQuantity"

	if qty <= 0 {
		if err := s.RemoveFromCart(ctx, variantID); err != nil {
			return 0, fmt.Errorf("%s: %w", op, err)
		}
		return 0, nil
	}

	_, v, err := s.catalog.VariantProduct(ctx, variantID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	n, evt, err := s.set(ctx, v, qty)
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}

	s.publish(evt)
	return n, nil
}

func (s *CartStore) set(
	ctx context.Context, v domain.Variant, qty int,
) (int, domain.CartEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cur := s.cart.Quantity(v.ID)
	if s.closed {
		return cur, domain.CartEvent{}, ErrCartStoreClosed
	}

	if !domain.CanSet(v, qty) {
		return cur, domain.CartEvent{}, fmt.Errorf(
			"%w: %q requested %d, stock %d",
			domain.ErrStockExceeded, v.ID, qty, v.Stock,
		)
	}

	evt, err := s.mutate(ctx, domain.CartUpdate, v.ID, qty, func(c domain.Cart) {
		c[v.ID] = qty
	})
	if err != nil {
		return cur, domain.CartEvent{}, err
	}
	return qty, evt, nil
}

// RemoveFromCart deletes the variant key from the cart.
func (s *CartStore) RemoveFromCart(ctx context.Context, variantID string) error {
	const op = "CartStore.RemoveFromCart"

	evt, err := s.remove(ctx, variantID)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(evt)
	return nil
}

func (s *CartStore) remove(
	ctx context.Context, variantID string,
) (domain.CartEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.CartEvent{}, ErrCartStoreClosed
	}

	if _, ok := s.cart[variantID]; !ok {
		return domain.CartEvent{}, nil
	}

	return s.mutate(ctx, domain.CartRemove, variantID, 0, func(c domain.Cart) {
		delete(c, variantID)
	})
}

func (s *CartStore) GetCartQuantity(variantID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Quantity(variantID)
}

func (s *CartStore) ClearCart(ctx context.Context) error {
	const op = "CartStore.ClearCart"

	evt, err := s.reset(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.publish(evt)
	return nil
}

func (s *CartStore) reset(ctx context.Context) (domain.CartEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return domain.CartEvent{}, ErrCartStoreClosed
	}

	return s.mutate(ctx, domain.CartClear, "", 0, func(c domain.Cart) {
		clear(c)
	})
}

// Cart returns a snapshot copy of the reserved quantities.
func (s *CartStore) Cart() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

// markClosed waits for the running mutation and rejects the next ones.
func (s *CartStore) markClosed() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
}

// mutate applies fn and persists the result, restoring the previous
// state when the storage fails. It returns the event to publish once
// the lock is released. Callers hold s.mu.
func (s *CartStore) mutate(
	ctx context.Context,
	kind domain.CartEventKind,
	variantID string,
	qty int,
	fn func(domain.Cart),
) (domain.CartEvent, error) {
	prev := s.cart.Clone()
	fn(s.cart)
	if err := s.persist(ctx); err != nil {
		s.cart = prev
		return domain.CartEvent{}, err
	}
	return domain.CartEvent{
		CartKey:   s.key,
		Kind:      kind,
		VariantID: variantID,
		Quantity:  qty,
		At:        s.now(),
	}, nil
}

func (s *CartStore) persist(ctx context.Context) error {
	if len(s.cart) == 0 {
		return s.storage.DeleteCart(ctx, s.key)
	}
	return s.storage.SaveCart(ctx, s.key, s.cart)
}

func (s *CartStore) publish(evt domain.CartEvent) {
	if s.events == nil || evt.Kind == "" {
		return
	}
	s.events.PublishCartEvent(evt)
}

func variantLookup(ctx context.Context, catalog port.Catalog) domain.VariantLookup {
	return func(variantID string) (domain.Variant, bool) {
		_, v, err := catalog.VariantProduct(ctx, variantID)
		return v, err == nil
	}
}

// Carts keeps the most recently used [CartStore] of every cart key.
// Least recently used stores are closed and dropped once more than
// maxOpen are open; their state is already persisted.
type Carts struct {
	stores  *lru.Cache
	opening singleflight.Group
	catalog port.Catalog
	storage port.CartStorage
	events  port.CartEventPublisher
}

func NewCarts(
	catalog port.Catalog,
	storage port.CartStorage,
	events port.CartEventPublisher,
	maxOpen int,
) *Carts {
	if maxOpen <= 0 {
		maxOpen = DefaultMaxOpenCarts
	}
	stores, err := lru.NewWithEvict(maxOpen, func(_, v any) {
		v.(*CartStore).markClosed()
	})
	if err != nil {
		panic(err) // develop mistake
	}
	return &Carts{
		stores:  stores,
		catalog: catalog,
		storage: storage,
		events:  events,
	}
}

// Store returns the open store of the key, opening it on first use.
// Concurrent first uses of one key share a single open.
func (c *Carts) Store(ctx context.Context, key string) (*CartStore, error) {
	const op = "Carts.Store"

	if s, ok := c.stores.Get(key); ok {
		return s.(*CartStore), nil
	}

	v, err, _ := c.opening.Do(key, func() (any, error) {
		if s, ok := c.stores.Get(key); ok {
			return s, nil
		}
		s, err := OpenCartStore(ctx, key, c.catalog, c.storage, c.events)
		if err != nil {
			return nil, err
		}
		c.stores.Add(key, s)
		return s, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return v.(*CartStore), nil
}

// Snapshot returns the reserved quantities of the key without opening
// a store for it.
func (c *Carts) Snapshot(ctx context.Context, key string) (domain.Cart, error) {
	const op = "Carts.Snapshot"

	if s, ok := c.stores.Get(key); ok {
		return s.(*CartStore).Cart(), nil
	}

	cart, err := loadCart(ctx, c.storage, key)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	cart, _ = domain.Reconcile(cart, variantLookup(ctx, c.catalog))
	return cart, nil
}

// Len returns the number of open stores.
func (c *Carts) Len() int {
	return c.stores.Len()
}
