package httphandler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/niksmo/wheels-shop/internal/core/domain"
	"github.com/niksmo/wheels-shop/internal/core/port"
)

// GET v1/products?brand=&diameter=&width=&pcd=&et=&q=&price_min=&price_max=&in_stock=&sort=&highlight= (200 OK, 400 Bad request)
// GET v1/products/facets (200 OK)
// GET v1/products/{id}?tab=reviews (200 OK, 404 Not found)

type ProductsHandler struct {
	viewer port.ProductsViewer
	assets Assets
}

func RegisterProducts(mux *http.ServeMux, viewer port.ProductsViewer, assets Assets) {
	h := ProductsHandler{viewer, assets}
	mux.HandleFunc("GET /v1/products", h.GetProducts)
	mux.HandleFunc("GET /v1/products/facets", h.GetFacets)
	mux.HandleFunc("GET /v1/products/{id}", h.GetProduct)
}

func (h ProductsHandler) GetProducts(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProducts"
	log := slog.With("op", op)

	f, err := parseProductFilter(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		log.Warn("invalid filter", "err", err)
		return
	}

	vs, err := h.viewer.Products(r.Context(), CartKeyFromContext(r.Context()), f)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, toProducts(vs, h.assets))
}

func (h ProductsHandler) GetFacets(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetFacets"
	log := slog.With("op", op)

	f, err := h.viewer.Facets(r.Context())
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, toFacets(f))
}

func (h ProductsHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	const op = "ProductsHandler.GetProduct"
	log := slog.With("op", op)

	v, err := h.viewer.Product(
		r.Context(), CartKeyFromContext(r.Context()), r.PathValue("id"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	withReviews := r.URL.Query().Get("tab") == "reviews"
	writeJSON(w, log, http.StatusOK, toProduct(v, h.assets, withReviews))
}

func parseProductFilter(r *http.Request) (domain.ProductFilter, error) {
	q := r.URL.Query()
	f := domain.ProductFilter{
		Brands:    queryList(q["brand"]),
		Diameters: queryList(q["diameter"]),
		Widths:    queryList(q["width"]),
		PCDs:      queryList(q["pcd"]),
		ETs:       queryList(q["et"]),
		Query:     q.Get("q"),
		Highlight: q.Get("highlight"),
	}

	var err error
	if f.PriceMin, err = queryInt(q.Get("price_min")); err != nil {
		return f, fmt.Errorf("price_min: %w", err)
	}
	if f.PriceMax, err = queryInt(q.Get("price_max")); err != nil {
		return f, fmt.Errorf("price_max: %w", err)
	}

	if s := q.Get("in_stock"); s != "" {
		if f.InStock, err = strconv.ParseBool(s); err != nil {
			return f, fmt.Errorf("in_stock: %w", err)
		}
	}

	switch sort := domain.ProductSort(q.Get("sort")); sort {
	case domain.SortDefault, domain.SortPriceAsc, domain.SortPriceDesc, domain.SortName:
		f.Sort = sort
	default:
		return f, fmt.Errorf("sort: unknown value %q", sort)
	}
	return f, nil
}

// queryList accepts both repeated and comma separated values.
func queryList(vs []string) []string {
	var out []string
	for _, v := range vs {
		for s := range strings.SplitSeq(v, ",") {
			if s = strings.TrimSpace(s); s != "" {
				out = append(out, s)
			}
		}
	}
	return out
}

func queryInt(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid value %q", s)
	}
	return n, nil
}

// GET v1/reviews?product_id=&model=&sort= (200 OK, 400 Bad request)
// POST v1/reviews JSON (201 Created, 400 Bad request, 404 Not found)

type ReviewsHandler struct {
	reviews port.ReviewsManager
	assets  Assets
}

func RegisterReviews(mux *http.ServeMux, reviews port.ReviewsManager, assets Assets) {
	h := ReviewsHandler{reviews, assets}
	mux.HandleFunc("GET /v1/reviews", h.GetReviews)
	mux.HandleFunc("POST /v1/reviews", h.PostReview)
}

func (h ReviewsHandler) GetReviews(w http.ResponseWriter, r *http.Request) {
	const op = "ReviewsHandler.GetReviews"
	log := slog.With("op", op)

	q := r.URL.Query()
	query := domain.ReviewQuery{
		ProductID: q.Get("product_id"),
		Model:     q.Get("model"),
		Sort:      domain.ReviewSort(q.Get("sort")),
	}
	switch query.Sort {
	case "", domain.ReviewsNewest, domain.ReviewsPositive, domain.ReviewsNegative:
	default:
		http.Error(w, "unknown sort", http.StatusBadRequest)
		return
	}

	rs, err := h.reviews.Reviews(r.Context(), query)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, toReviews(rs, h.assets))
}

func (h ReviewsHandler) PostReview(w http.ResponseWriter, r *http.Request) {
	const op = "ReviewsHandler.PostReview"
	log := slog.With("op", op)

	var req ReviewRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	review, err := h.reviews.AddReview(r.Context(), req.toDomain())
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("review added", "reviewID", review.ID, "productID", review.ProductID)
	writeJSON(w, log, http.StatusCreated, toReview(review, h.assets))
}

// GET v1/cart (200 OK)
// DELETE v1/cart (204 No content)
// POST v1/cart/items JSON {"variant_id" string, "quantity" int} (200 OK, 400, 404, 409 Conflict)
// GET|PUT|DELETE v1/cart/items/{variantID}
// POST v1/cart/buy-now JSON (303 See other)
// POST v1/cart/checkout (200 OK, 409 Conflict, 422 Unprocessable entity)

type CartHandler struct {
	carts    port.CartManager
	assets   Assets
	checkout string
}

func RegisterCart(mux *http.ServeMux, carts port.CartManager, assets Assets) {
	h := CartHandler{carts, assets, assets.Path("checkout")}
	mux.HandleFunc("GET /v1/cart", h.GetCart)
	mux.HandleFunc("DELETE /v1/cart", h.ClearCart)
	mux.HandleFunc("POST /v1/cart/items", h.AddItem)
	mux.HandleFunc("GET /v1/cart/items/{variantID}", h.GetItem)
	mux.HandleFunc("PUT /v1/cart/items/{variantID}", h.UpdateItem)
	mux.HandleFunc("DELETE /v1/cart/items/{variantID}", h.RemoveItem)
	mux.HandleFunc("POST /v1/cart/buy-now", h.BuyNow)
	mux.HandleFunc("POST /v1/cart/checkout", h.Checkout)
}

func (h CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetCart"
	log := slog.With("op", op)

	sum, err := h.carts.CartSummary(r.Context(), CartKeyFromContext(r.Context()))
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, toCart(sum, h.assets))
}

func (h CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.ClearCart"
	log := slog.With("op", op)

	if err := h.carts.ClearCart(r.Context(), CartKeyFromContext(r.Context())); err != nil {
		writeError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.AddItem"
	log := slog.With("op", op)

	var req CartItemRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	n, err := h.carts.AddToCart(
		r.Context(), CartKeyFromContext(r.Context()), req.VariantID, req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, CartItem{req.VariantID, n})
}

func (h CartHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.GetItem"
	log := slog.With("op", op)

	variantID := r.PathValue("variantID")
	n, err := h.carts.GetCartQuantity(
		r.Context(), CartKeyFromContext(r.Context()), variantID,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, CartItem{variantID, n})
}

func (h CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.UpdateItem"
	log := slog.With("op", op)

	var req QuantityRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}

	variantID := r.PathValue("variantID")
	n, err := h.carts.UpdateQuantity(
		r.Context(), CartKeyFromContext(r.Context()), variantID, req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	writeJSON(w, log, http.StatusOK, CartItem{variantID, n})
}

func (h CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.RemoveItem"
	log := slog.With("op", op)

	err := h.carts.RemoveFromCart(
		r.Context(), CartKeyFromContext(r.Context()), r.PathValue("variantID"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// BuyNow adds the variant and redirects to the checkout page.
// Nothing is rolled back when the client never reaches checkout.
func (h CartHandler) BuyNow(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.BuyNow"
	log := slog.With("op", op)

	var req CartItemRequest
	if !decodeJSON(w, r, log, &req) {
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	_, err := h.carts.AddToCart(
		r.Context(), CartKeyFromContext(r.Context()), req.VariantID, req.Quantity,
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	http.Redirect(w, r, h.checkout, http.StatusSeeOther)
}

func (h CartHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CartHandler.Checkout"
	log := slog.With("op", op)

	key := CartKeyFromContext(r.Context())
	sum, err := h.carts.Checkout(r.Context(), key)
	if err != nil {
		writeError(w, log, err)
		return
	}

	log.Info("checkout", "cartKey", key, "units", sum.Units, "total", sum.Total)
	writeJSON(w, log, http.StatusOK, toCart(sum, h.assets))
}

// GET v1/notifications (200 OK)
// DELETE v1/notifications/{id} (204 No content, 404 Not found)

type NotificationsHandler struct {
	notifier port.Notifier
}

func RegisterNotifications(mux *http.ServeMux, notifier port.Notifier) {
	h := NotificationsHandler{notifier}
	mux.HandleFunc("GET /v1/notifications", h.GetNotifications)
	mux.HandleFunc("DELETE /v1/notifications/{id}", h.CloseNotification)
}

func (h NotificationsHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	const op = "NotificationsHandler.GetNotifications"
	log := slog.With("op", op)

	ns := h.notifier.Notifications(CartKeyFromContext(r.Context()))
	writeJSON(w, log, http.StatusOK, toNotifications(ns))
}

func (h NotificationsHandler) CloseNotification(w http.ResponseWriter, r *http.Request) {
	const op = "NotificationsHandler.CloseNotification"
	log := slog.With("op", op)

	err := h.notifier.CloseNotification(
		CartKeyFromContext(r.Context()), r.PathValue("id"),
	)
	if err != nil {
		writeError(w, log, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func decodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, v any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		http.Error(w, "invalid JSON data", http.StatusBadRequest)
		log.Warn("failed to parse JSON", "err", err)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, log *slog.Logger, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to write response body", "err", err)
	}
}

func writeError(w http.ResponseWriter, log *slog.Logger, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		log.Error("request failed", "err", err)
		http.Error(w, http.StatusText(status), status)
		return
	}
	log.Warn("request rejected", "err", err)
	http.Error(w, rootCause(err), status)
}

func statusOf(err error) int {
	switch {
	case errors.Is(err, domain.ErrStockExceeded):
		return http.StatusConflict
	case errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrVariantNotFound),
		errors.Is(err, domain.ErrOrderNotFound),
		errors.Is(err, domain.ErrNotificationGone):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrInvalidQuantity),
		errors.Is(err, domain.ErrInvalidRating),
		errors.Is(err, domain.ErrEmptyReview),
		errors.Is(err, domain.ErrInvalidSeverity):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrEmptyCart):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// rootCause strips the "op: " prefixes of a wrapped error.
func rootCause(err error) string {
	msg := err.Error()
	for _, target := range []error{
		domain.ErrStockExceeded, domain.ErrProductNotFound,
		domain.ErrVariantNotFound, domain.ErrOrderNotFound,
		domain.ErrNotificationGone, domain.ErrInvalidQuantity,
		domain.ErrInvalidRating, domain.ErrEmptyReview,
		domain.ErrInvalidSeverity, domain.ErrEmptyCart,
	} {
		if i := strings.Index(msg, target.Error()); i >= 0 {
			return msg[i:]
		}
	}
	return msg
}
