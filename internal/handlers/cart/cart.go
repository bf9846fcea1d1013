package cart

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"cartstore/internal/models"
	serviceerrors "cartstore/internal/service"
	"cartstore/internal/session"
	"cartstore/pkg/lib/logger/sl"
	"cartstore/pkg/lib/productparser"

	"github.com/go-playground/validator/v10"
)

const StatusClientClosedRequest = 499

const maxBodyBytes = 1 << 20

type CartService interface {
	Initialize(ctx context.Context, owner string) error
	GetCart(ctx context.Context, owner string) (models.Cart, error)
	AddItem(ctx context.Context, owner string, item models.LineItem) (models.Cart, error)
	SetQuantity(ctx context.Context, owner string, id string, quantity int) (models.Cart, error)
	AdjustQuantity(ctx context.Context, owner string, id string, delta int) (models.Cart, error)
	RemoveItem(ctx context.Context, owner string, id string) (models.Cart, error)
	Pricing() models.Pricing
}

type Renderer interface {
	RenderCartCount(w io.Writer, count int) error
	RenderCartPage(w io.Writer, cart models.Cart, summary models.Summary) error
}

type Handler struct {
	log      *slog.Logger
	service  CartService
	view     Renderer
	validate *validator.Validate
}

type CartResponse struct {
	Items   models.Cart    `json:"items"`
	Summary models.Summary `json:"summary"`
	Count   int            `json:"count"`
}

type AddResponse struct {
	Item    models.LineItem `json:"item"`
	Count   int             `json:"count"`
	Message string          `json:"message"`
}

type QuantityRequest struct {
	Quantity *int `json:"quantity" validate:"required,lte=9999"`
}

func New(log *slog.Logger, service CartService, view Renderer) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		view:     view,
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}
}

// GET /cart
func (h *Handler) ViewCart(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.ViewCart"
	log := h.log.With("op", op)

	cart, ok := h.loadCart(w, r, log)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.view.RenderCartPage(w, cart, models.ComputeSummary(cart, h.service.Pricing())); err != nil {
		log.Error("Failed to render cart page", sl.Err(err))
		http.Error(w, "Failed to render cart page", http.StatusInternalServerError)
		return
	}
}

// GET /cart/count
func (h *Handler) CartCount(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.CartCount"
	log := h.log.With("op", op)

	cart, ok := h.loadCart(w, r, log)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.view.RenderCartCount(w, cart.Count()); err != nil {
		log.Error("Failed to render cart count", sl.Err(err))
		http.Error(w, "Failed to render cart count", http.StatusInternalServerError)
		return
	}
}

// POST /cart/items
func (h *Handler) AddToCart(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.AddToCart"
	log := h.log.With("op", op)

	item, ok := h.readItem(w, r, log)
	if !ok {
		return
	}

	cart, err := h.service.AddItem(r.Context(), session.Owner(r.Context()), item)
	if err != nil {
		h.fail(w, log, err, "Failed to add item to cart")
		return
	}

	if !isJSON(r) {
		http.Redirect(w, r, backTo(r), http.StatusSeeOther)
		return
	}

	added := item
	if i, found := cart.Find(models.ProductID(item.Name)); found {
		added = cart[i]
	}

	h.writeJSON(w, log, http.StatusCreated, AddResponse{
		Item:    added,
		Count:   cart.Count(),
		Message: added.Name + " has been added to your cart!",
	})
}

// POST /cart/buy-now
func (h *Handler) BuyNow(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.BuyNow"
	log := h.log.With("op", op)

	item, ok := h.readItem(w, r, log)
	if !ok {
		return
	}

	if _, err := h.service.AddItem(r.Context(), session.Owner(r.Context()), item); err != nil {
		h.fail(w, log, err, "Failed to add item to cart")
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// POST /cart/items/{id}/increment
func (h *Handler) Increment(w http.ResponseWriter, r *http.Request, id string) {
	h.adjust(w, r, "handlers.cart.Increment", id, 1)
}

// POST /cart/items/{id}/decrement
func (h *Handler) Decrement(w http.ResponseWriter, r *http.Request, id string) {
	h.adjust(w, r, "handlers.cart.Decrement", id, -1)
}

func (h *Handler) adjust(w http.ResponseWriter, r *http.Request, op string, id string, delta int) {
	log := h.log.With("op", op, "id", id)

	if _, err := h.service.AdjustQuantity(r.Context(), session.Owner(r.Context()), id, delta); err != nil {
		h.fail(w, log, err, "Failed to update quantity")
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// POST /cart/items/{id}/quantity
//
// Only whole numbers from one to models.MaxQuantity are applied; anything
// else leaves the cart as it was.
func (h *Handler) UpdateQuantity(w http.ResponseWriter, r *http.Request, id string) {
	const op = "handlers.cart.UpdateQuantity"
	log := h.log.With("op", op, "id", id)

	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	quantity, err := strconv.Atoi(strings.TrimSpace(r.FormValue("quantity")))
	if err != nil || quantity <= 0 || quantity > models.MaxQuantity {
		log.Debug("ignoring quantity input", slog.String("quantity", r.FormValue("quantity")))
		http.Redirect(w, r, "/cart", http.StatusSeeOther)
		return
	}

	if _, err := h.service.SetQuantity(r.Context(), session.Owner(r.Context()), id, quantity); err != nil {
		h.fail(w, log, err, "Failed to update quantity")
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// POST /cart/items/{id}/remove
func (h *Handler) RemoveFromCart(w http.ResponseWriter, r *http.Request, id string) {
	const op = "handlers.cart.RemoveFromCart"
	log := h.log.With("op", op, "id", id)

	if _, err := h.service.RemoveItem(r.Context(), session.Owner(r.Context()), id); err != nil {
		h.fail(w, log, err, "Failed to remove item from cart")
		return
	}

	http.Redirect(w, r, "/cart", http.StatusSeeOther)
}

// GET /api/cart
func (h *Handler) GetCartJSON(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.cart.GetCartJSON"
	log := h.log.With("op", op)

	cart, ok := h.loadCart(w, r, log)
	if !ok {
		return
	}

	h.writeJSON(w, log, http.StatusOK, h.cartResponse(cart))
}

// PUT /api/cart/items/{id}
func (h *Handler) SetQuantityJSON(w http.ResponseWriter, r *http.Request, id string) {
	const op = "handlers.cart.SetQuantityJSON"
	log := h.log.With("op", op, "id", id)

	requestBody, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("Cannot read request body", sl.Err(err))
		http.Error(w, "Cannot read request body", http.StatusBadRequest)
		return
	}
	defer r.Body.Close()

	var req QuantityRequest
	if err := json.Unmarshal(requestBody, &req); err != nil {
		log.Warn("Cannot unmarshal request body", sl.Err(err))
		http.Error(w, "Cannot unmarshal request body", http.StatusBadRequest)
		return
	}

	if err := h.validate.Struct(req); err != nil {
		log.Warn("Failed to validate", sl.Err(err))
		http.Error(w, "Failed to validate", http.StatusBadRequest)
		return
	}

	cart, err := h.service.SetQuantity(r.Context(), session.Owner(r.Context()), id, *req.Quantity)
	if err != nil {
		h.fail(w, log, err, "Failed to update quantity")
		return
	}

	h.writeJSON(w, log, http.StatusOK, h.cartResponse(cart))
}

// DELETE /api/cart/items/{id}
func (h *Handler) DeleteItemJSON(w http.ResponseWriter, r *http.Request, id string) {
	const op = "handlers.cart.DeleteItemJSON"
	log := h.log.With("op", op, "id", id)

	if _, err := h.service.RemoveItem(r.Context(), session.Owner(r.Context()), id); err != nil {
		h.fail(w, log, err, "Failed to remove item from cart")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) loadCart(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.Cart, bool) {
	owner := session.Owner(r.Context())

	if err := h.service.Initialize(r.Context(), owner); err != nil {
		h.fail(w, log, err, "Failed to initialize cart")
		return nil, false
	}

	cart, err := h.service.GetCart(r.Context(), owner)
	if err != nil {
		h.fail(w, log, err, "Failed to get cart")
		return nil, false
	}

	return cart, true
}

// readItem accepts either a JSON line item or the product details form
// (name, price label, image).
func (h *Handler) readItem(w http.ResponseWriter, r *http.Request, log *slog.Logger) (models.LineItem, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)

	if isJSON(r) {
		requestBody, err := io.ReadAll(r.Body)
		if err != nil {
			log.Error("Cannot read request body", sl.Err(err))
			http.Error(w, "Cannot read request body", http.StatusBadRequest)
			return models.LineItem{}, false
		}
		defer r.Body.Close()

		var item models.LineItem
		if err := json.Unmarshal(requestBody, &item); err != nil {
			log.Warn("Cannot unmarshal request body", sl.Err(err))
			http.Error(w, "Cannot unmarshal request body", http.StatusBadRequest)
			return models.LineItem{}, false
		}
		return item, true
	}

	item, err := productparser.FromDetails(r.FormValue("name"), r.FormValue("price"), r.FormValue("image"))
	if err != nil {
		log.Warn("Invalid product details", sl.Err(err))
		http.Error(w, err.Error(), http.StatusBadRequest)
		return models.LineItem{}, false
	}

	return item, true
}

func (h *Handler) cartResponse(cart models.Cart) CartResponse {
	return CartResponse{
		Items:   cart,
		Summary: models.ComputeSummary(cart, h.service.Pricing()),
		Count:   cart.Count(),
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, log *slog.Logger, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Error("Failed to respond", sl.Err(err))
	}
}

func (h *Handler) fail(w http.ResponseWriter, log *slog.Logger, err error, msg string) {
	switch {
	case errors.Is(err, serviceerrors.ErrContextCanceled):
		log.Warn("Context canceled", sl.Err(err))
		http.Error(w, "Context canceled", StatusClientClosedRequest)
	case errors.Is(err, serviceerrors.ErrDeadlineExceeded):
		log.Warn("Deadline exceeded", sl.Err(err))
		http.Error(w, "Deadline exceeded", http.StatusGatewayTimeout)
	case errors.Is(err, serviceerrors.ErrInvalidItem):
		log.Warn("Invalid item", sl.Err(err))
		http.Error(w, "Invalid item", http.StatusBadRequest)
	case errors.Is(err, serviceerrors.ErrInvalidQuantity):
		log.Warn("Invalid quantity", sl.Err(err))
		http.Error(w, "Invalid quantity", http.StatusBadRequest)
	default:
		log.Error(msg, sl.Err(err))
		http.Error(w, msg, http.StatusInternalServerError)
	}
}

func isJSON(r *http.Request) bool {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	return err == nil && mediaType == "application/json"
}

// backTo is the local path of the page that submitted the request.
func backTo(r *http.Request) string {
	ref, err := url.Parse(r.Referer())
	if err != nil || ref.Path == "" || !strings.HasPrefix(ref.Path, "/") || strings.HasPrefix(ref.Path, "//") {
		return "/"
	}
	if ref.Host != "" && ref.Host != r.Host {
		return "/"
	}
	if ref.RawQuery != "" {
		return ref.Path + "?" + ref.RawQuery
	}
	return ref.Path
}
