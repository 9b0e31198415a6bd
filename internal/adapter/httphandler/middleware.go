package httphandler

import (
	"context"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/niksmo/wheels-shop/internal/core/domain"
)

const (
	CartCookieName   = "cart_id"
	cartCookieMaxAge = 365 * 24 * time.Hour
)

type cartKeyCtx struct{}

func AllowJSON(next http.Handler) http.Handler {
	hf := func(w http.ResponseWriter, r *http.Request) {
		if r.ContentLength == 0 {
			next.ServeHTTP(w, r)
			return
		}

		mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
		if err != nil || mt != "application/json" {
			http.Error(w, "invalid media type", http.StatusUnsupportedMediaType)
			return
		}

		next.ServeHTTP(w, r)
	}
	return http.HandlerFunc(hf)
}

// CartKey resolves the cart key of the client from the cart cookie and
// issues a new cookie when it is missing or invalid.
func CartKey(cookiePath string) func(http.Handler) http.Handler {
	if cookiePath == "" {
		cookiePath = "/"
	}
	return func(next http.Handler) http.Handler {
		hf := func(w http.ResponseWriter, r *http.Request) {
			id := cartID(r)
			if id == "" {
				id = uuid.NewString()
				http.SetCookie(w, &http.Cookie{
					Name:     CartCookieName,
					Value:    id,
					Path:     cookiePath,
					MaxAge:   int(cartCookieMaxAge.Seconds()),
					HttpOnly: true,
					SameSite: http.SameSiteLaxMode,
				})
				slog.Debug("issued cart cookie", "op", "CartKey", "cartID", id)
			}
			ctx := context.WithValue(r.Context(), cartKeyCtx{}, domain.CartKey(id))
			next.ServeHTTP(w, r.WithContext(ctx))
		}
		return http.HandlerFunc(hf)
	}
}

func cartID(r *http.Request) string {
	c, err := r.Cookie(CartCookieName)
	if err != nil {
		return ""
	}
	id, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return id.String()
}

// CartKeyFromContext returns the cart key set by [CartKey] or
// [domain.DefaultCartKey].
func CartKeyFromContext(ctx context.Context) string {
	if key, ok := ctx.Value(cartKeyCtx{}).(string); ok {
		return key
	}
	return domain.DefaultCartKey
}
