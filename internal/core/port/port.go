package port

import (
	"context"

	"github.com/niksmo/wheels-shop/internal/core/domain"
)

type Catalog interface {
	Products(context.Context) ([]domain.Product, error)
	Product(ctx context.Context, productID string) (domain.Product, error)
	VariantProduct(ctx context.Context, variantID string) (domain.Product, domain.Variant, error)
}

type ReviewsStorage interface {
	Reviews(context.Context) ([]domain.Review, error)
	StoreReview(context.Context, domain.Review) (domain.Review, error)
}

type OrderBook interface {
	FindOrder(ctx context.Context, number string) (domain.Order, error)
}

// CartStorage is the client local storage of carts: one key, one JSON object.
type CartStorage interface {
	LoadCart(ctx context.Context, key string) (domain.Cart, error)
	SaveCart(ctx context.Context, key string, c domain.Cart) error
	DeleteCart(ctx context.Context, key string) error
}

type CartEventPublisher interface {
	PublishCartEvent(domain.CartEvent)
}

type CartEventsProducer interface {
	ProduceCartEvents(context.Context, []domain.CartEvent) error
}

type CartManager interface {
	AddToCart(ctx context.Context, key, variantID string, qty int) (int, error)
	RemoveFromCart(ctx context.Context, key, variantID string) error
	UpdateQuantity(ctx context.Context, key, variantID string, qty int) (int, error)
	GetCartQuantity(ctx context.Context, key, variantID string) (int, error)
	ClearCart(ctx context.Context, key string) error
	CartSummary(ctx context.Context, key string) (domain.CartSummary, error)
	Checkout(ctx context.Context, key string) (domain.CartSummary, error)
}

type ProductsViewer interface {
	Products(ctx context.Context, key string, f domain.ProductFilter) ([]domain.ProductView, error)
	Product(ctx context.Context, key, productID string) (domain.ProductView, error)
	Facets(context.Context) (domain.Facets, error)
}

type ReviewsManager interface {
	Reviews(context.Context, domain.ReviewQuery) ([]domain.Review, error)
	AddReview(context.Context, domain.ReviewRequest) (domain.Review, error)
}

type Notifier interface {
	Notify(key string, req domain.NotificationRequest) (domain.Notification, error)
	Notifications(key string) []domain.Notification
	CloseNotification(key, id string) error
}
