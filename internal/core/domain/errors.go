package domain

import "errors"

var (
	ErrProductNotFound  = errors.New("product not found")
	ErrVariantNotFound  = errors.New("variant not found")
	ErrStockExceeded    = errors.New("stock exceeded")
	ErrInvalidQuantity  = errors.New("invalid quantity")
	ErrEmptyCart        = errors.New("cart is empty")
	ErrOrderNotFound    = errors.New("order not found")
	ErrInvalidRating    = errors.New("rating must be between 1 and 5")
	ErrEmptyReview      = errors.New("review text is empty")
	ErrMalformedCart    = errors.New("malformed cart data")
	ErrCartNotFound     = errors.New("cart not found")
	ErrInvalidSeverity  = errors.New("invalid notification severity")
	ErrNotificationGone = errors.New("notification not found")
)
