package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
)

var _ port.CartManager = (*Service)(nil)
var _ port.ProductsViewer = (*Service)(nil)
var _ port.ReviewsManager = (*Service)(nil)
var _ port.Notifier = (*Service)(nil)

type Service struct {
	catalog       port.Catalog
	reviews       port.ReviewsStorage
	orders        port.OrderBook
	carts         *Carts
	notifications *Notifications
	now           func() time.Time
	randomAuthor  func() string
}

type options struct {
	notificationDuration time.Duration
	maxOpenCarts         int
	now                  func() time.Time
}

type Opt func(*options)

// NotificationDurationOpt sets the default lifetime of notifications.
func NotificationDurationOpt(d time.Duration) Opt {
	return func(o *options) {
		o.notificationDuration = d
	}
}

// MaxOpenCartsOpt bounds the cart stores kept in memory.
func MaxOpenCartsOpt(n int) Opt {
	return func(o *options) {
		o.maxOpenCarts = n
	}
}

func ClockOpt(now func() time.Time) Opt {
	return func(o *options) {
		o.now = now
	}
}

func New(
	catalog port.Catalog,
	reviews port.ReviewsStorage,
	orders port.OrderBook,
	cartStorage port.CartStorage,
	events port.CartEventPublisher,
	opts ...Opt,
) Service {
	o := options{
		notificationDuration: DefaultNotificationDuration,
		maxOpenCarts:         DefaultMaxOpenCarts,
		now:                  time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}

	return Service{
		catalog:       catalog,
		reviews:       reviews,
		orders:        orders,
		carts:         NewCarts(catalog, cartStorage, events, o.maxOpenCarts),
		notifications: NewNotifications(o.notificationDuration),
		now:           o.now,
		randomAuthor:  randomAuthor,
	}
}

func (s Service) Close() {
	s.notifications.Shutdown()
}

// Stats reports the sizes of the in-memory registries.
type Stats struct {
	OpenCarts          int
	NotificationQueues int
}

func (s Service) Stats() Stats {
	return Stats{
		OpenCarts:          s.carts.Len(),
		NotificationQueues: s.notifications.Len(),
	}
}

// maxStoreAttempts bounds the reopenings of a store evicted between
// lookup and mutation.
const maxStoreAttempts = 3

// withStore runs fn on the open store of the key and retries on a
// fresh store when the one it got was evicted meanwhile.
func (s Service) withStore(
	ctx context.Context, key string, fn func(*CartStore) error,
) error {
	var err error
	for range maxStoreAttempts {
		var store *CartStore
		store, err = s.carts.Store(ctx, key)
		if err != nil {
			return err
		}
		err = fn(store)
		if !errors.Is(err, ErrCartStoreClosed) {
			return err
		}
	}
	return err
}

func (s Service) AddToCart(
	ctx context.Context, key, variantID string, qty int,
) (int, error) {
	const op = "Service.AddToCart"

	var n int
	err := s.withStore(ctx, key, func(store *CartStore) (err error) {
		n, err = store.AddToCart(ctx, variantID, qty)
		if err != nil && !errors.Is(err, ErrCartStoreClosed) {
			s.notifyFailure(ctx, key, variantID, store, err)
		}
		return err
	})
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}

	s.notifySuccess(key, "Added to cart", fmt.Sprintf("%s: %d pcs.", variantID, n))
	return n, nil
}

func (s Service) UpdateQuantity(
	ctx context.Context, key, variantID string, qty int,
) (int, error) {
	const op = "Service.UpdateQuantity"

	var n int
	err := s.withStore(ctx, key, func(store *CartStore) (err error) {
		n, err = store.UpdateQuantity(ctx, variantID, qty)
		if err != nil && !errors.Is(err, ErrCartStoreClosed) {
			s.notifyFailure(ctx, key, variantID, store, err)
		}
		return err
	})
	if err != nil {
		return n, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s Service) RemoveFromCart(ctx context.Context, key, variantID string) error {
	const op = "Service.RemoveFromCart"

	err := s.withStore(ctx, key, func(store *CartStore) error {
		return store.RemoveFromCart(ctx, variantID)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) GetCartQuantity(
	ctx context.Context, key, variantID string,
) (int, error) {
	const op = "Service.GetCartQuantity"

	cart, err := s.carts.Snapshot(ctx, key)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return cart.Quantity(variantID), nil
}

func (s Service) ClearCart(ctx context.Context, key string) error {
	const op = "Service.ClearCart"

	err := s.withStore(ctx, key, func(store *CartStore) error {
		return store.ClearCart(ctx)
	})
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	s.notifySuccess(key, "Cart cleared", "")
	return nil
}

// CartSummary lists the cart lines with subtotals. Lines of variants
// unknown to the catalog are skipped.
func (s Service) CartSummary(
	ctx context.Context, key string,
) (domain.CartSummary, error) {
	const op = "Service.CartSummary"

	cart, err := s.cart(ctx, key)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	var sum domain.CartSummary
	for variantID, qty := range cart {
		p, v, err := s.catalog.VariantProduct(ctx, variantID)
		if err != nil {
			if errors.Is(err, domain.ErrVariantNotFound) {
				continue
			}
			return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
		}
		line := domain.CartLine{
			Product:   p,
			Variant:   v,
			Quantity:  qty,
			Subtotal:  v.Price * qty,
			Remaining: domain.RemainingStock(v, cart),
		}
		sum.Lines = append(sum.Lines, line)
		sum.Units += qty
		sum.Total += line.Subtotal
	}

	slices.SortFunc(sum.Lines, func(a, b domain.CartLine) int {
		if c := strings.Compare(a.Product.Name, b.Product.Name); c != 0 {
			return c
		}
		return strings.Compare(a.Variant.ID, b.Variant.ID)
	})
	return sum, nil
}

// Checkout validates the cart against the stock and returns its summary.
func (s Service) Checkout(
	ctx context.Context, key string,
) (domain.CartSummary, error) {
	const op = "Service.Checkout"

	cart, err := s.cart(ctx, key)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}

	if len(cart) == 0 {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, domain.ErrEmptyCart)
	}

	conflicts := domain.StockConflicts(cart, variantLookup(ctx, s.catalog))
	if len(conflicts) != 0 {
		slices.Sort(conflicts)
		s.notify(key, domain.NotificationRequest{
			Title:    "Not enough stock",
			Message:  strings.Join(conflicts, ", "),
			Severity: domain.SeverityError,
		})
		return domain.CartSummary{}, fmt.Errorf(
			"%s: %w: %s", op, domain.ErrStockExceeded, strings.Join(conflicts, ", "),
		)
	}

	sum, err := s.CartSummary(ctx, key)
	if err != nil {
		return domain.CartSummary{}, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}

func (s Service) Notify(
	key string, req domain.NotificationRequest,
) (domain.Notification, error) {
	const op = "Service.Notify"

	n, err := s.notifications.Show(key, req)
	if err != nil {
		return domain.Notification{}, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

func (s Service) Notifications(key string) []domain.Notification {
	return s.notifications.List(key)
}

func (s Service) CloseNotification(key, id string) error {
	const op = "Service.CloseNotification"

	if err := s.notifications.Close(key, id); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (s Service) cart(ctx context.Context, key string) (domain.Cart, error) {
	return s.carts.Snapshot(ctx, key)
}

func (s Service) notifySuccess(key, title, message string) {
	s.notify(key, domain.NotificationRequest{
		Title:    title,
		Message:  message,
		Severity: domain.SeveritySuccess,
	})
}

func (s Service) notifyFailure(
	ctx context.Context, key, variantID string, store *CartStore, err error,
) {
	switch {
	case errors.Is(err, domain.ErrStockExceeded):
		msg := "Requested quantity is not available"
		if _, v, lerr := s.catalog.VariantProduct(ctx, variantID); lerr == nil {
			remaining := domain.RemainingStock(v, store.Cart())
			msg = fmt.Sprintf("Available to add: %d pcs.", remaining)
		}
		s.notify(key, domain.NotificationRequest{
			Title:    "Not enough stock",
			Message:  msg,
			Severity: domain.SeverityError,
		})
	case errors.Is(err, domain.ErrVariantNotFound):
		s.notify(key, domain.NotificationRequest{
			Title:    "Product not found",
			Message:  variantID,
			Severity: domain.SeverityWarning,
		})
	}
}

func (s Service) notify(key string, req domain.NotificationRequest) {
	const op = "Service.notify"
	if _, err := s.notifications.Show(key, req); err != nil {
		slog.Warn("failed to show notification", "op", op, "err", err)
	}
}
