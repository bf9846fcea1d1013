package cartservice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	databaseerrors "cartstore/internal/database"
	"cartstore/internal/models"
	serviceerrors "cartstore/internal/service"
	"cartstore/pkg/lib/logger/sl"

	"github.com/go-playground/validator/v10"
)

const DefaultKey = "cart"

type CartStorage interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
}

// CartService owns the persisted cart. Every mutation reads the whole cart,
// changes one entry and writes the whole cart back; concurrent writers to
// the same key are not coordinated and the last write wins.
type CartService struct {
	log      *slog.Logger
	storage  CartStorage
	key      string
	pricing  models.Pricing
	validate *validator.Validate
}

type Option func(*CartService)

// WithKey replaces the storage key carts are kept under.
func WithKey(key string) Option {
	return func(c *CartService) {
		c.key = key
	}
}

func WithPricing(p models.Pricing) Option {
	return func(c *CartService) {
		c.pricing = p
	}
}

// WithValidator replaces the validator line items are checked with.
func WithValidator(v *validator.Validate) Option {
	return func(c *CartService) {
		c.validate = v
	}
}

func New(log *slog.Logger, storage CartStorage, opts ...Option) *CartService {
	c := &CartService{
		log:      log,
		storage:  storage,
		key:      DefaultKey,
		pricing:  models.DefaultPricing(),
		validate: validator.New(validator.WithRequiredStructEnabled()),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Key is the storage key of owner's cart. An empty owner maps to the bare key.
func (c *CartService) Key(owner string) string {
	if owner == "" {
		return c.key
	}
	return c.key + ":" + owner
}

func (c *CartService) Pricing() models.Pricing {
	return c.pricing
}

// Initialize stores an empty cart unless one is already stored.
func (c *CartService) Initialize(ctx context.Context, owner string) error {
	const op = "service.cart.Initialize"
	log := c.log.With("op", op, "key", c.Key(owner))

	if err := checkContext(ctx, log); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	_, err := c.storage.Get(ctx, c.Key(owner))
	if err == nil {
		return nil
	}
	if !errors.Is(err, databaseerrors.ErrNotFound) {
		return fmt.Errorf("%s: %w", op, storageError(log, err, "Failed to read cart"))
	}

	if err := c.save(ctx, log, owner, models.Cart{}); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("empty cart created")
	return nil
}

func (c *CartService) GetCart(ctx context.Context, owner string) (models.Cart, error) {
	const op = "service.cart.GetCart"
	log := c.log.With("op", op, "key", c.Key(owner))

	if err := checkContext(ctx, log); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := c.load(ctx, log, owner)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

// AddItem appends item, or bumps the quantity of the entry with the same id
// by one. The id is always derived from the name and a zero quantity means
// one.
func (c *CartService) AddItem(ctx context.Context, owner string, item models.LineItem) (models.Cart, error) {
	const op = "service.cart.AddItem"
	log := c.log.With("op", op, "key", c.Key(owner))

	item.ID = models.ProductID(item.Name)
	if item.Quantity == 0 {
		item.Quantity = 1
	}

	if err := c.validateItem(item); err != nil {
		log.Warn("rejected item", sl.Err(err))
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	cart, err := c.mutate(ctx, log, owner, func(cart models.Cart) (models.Cart, bool, error) {
		if i, ok := cart.Find(item.ID); ok {
			if cart[i].Quantity >= models.MaxQuantity {
				return cart, false, serviceerrors.ErrInvalidQuantity
			}
			cart[i].Quantity++
			return cart, true, nil
		}
		return append(cart, item), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Debug("item added", slog.String("id", item.ID), slog.Int("count", cart.Count()))
	return cart, nil
}

// SetQuantity sets the quantity of the entry with the given id. Quantities
// below one remove the entry, quantities above MaxQuantity are rejected.
// Unknown ids leave the cart untouched.
func (c *CartService) SetQuantity(ctx context.Context, owner string, id string, quantity int) (models.Cart, error) {
	const op = "service.cart.SetQuantity"
	log := c.log.With("op", op, "key", c.Key(owner))

	if quantity > models.MaxQuantity {
		log.Warn("rejected quantity", slog.Int("quantity", quantity))
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.ErrInvalidQuantity)
	}

	cart, err := c.mutate(ctx, log, owner, func(cart models.Cart) (models.Cart, bool, error) {
		return setQuantity(cart, id, func(int) int { return quantity })
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

// AdjustQuantity moves the quantity of the entry by delta, which must be
// +1 or -1.
func (c *CartService) AdjustQuantity(ctx context.Context, owner string, id string, delta int) (models.Cart, error) {
	const op = "service.cart.AdjustQuantity"
	log := c.log.With("op", op, "key", c.Key(owner))

	if delta != 1 && delta != -1 {
		log.Warn("rejected delta", slog.Int("delta", delta))
		return nil, fmt.Errorf("%s: %w", op, serviceerrors.ErrInvalidQuantity)
	}

	cart, err := c.mutate(ctx, log, owner, func(cart models.Cart) (models.Cart, bool, error) {
		return setQuantity(cart, id, func(current int) int { return current + delta })
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

func (c *CartService) RemoveItem(ctx context.Context, owner string, id string) (models.Cart, error) {
	const op = "service.cart.RemoveItem"
	log := c.log.With("op", op, "key", c.Key(owner))

	cart, err := c.mutate(ctx, log, owner, func(cart models.Cart) (models.Cart, bool, error) {
		if _, ok := cart.Find(id); !ok {
			return cart, false, nil
		}
		return cart.Without(id), true, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return cart, nil
}

func (c *CartService) Summary(ctx context.Context, owner string) (models.Summary, error) {
	const op = "service.cart.Summary"

	cart, err := c.GetCart(ctx, owner)
	if err != nil {
		return models.Summary{}, fmt.Errorf("%s: %w", op, err)
	}

	return models.ComputeSummary(cart, c.pricing), nil
}

func (c *CartService) Count(ctx context.Context, owner string) (int, error) {
	const op = "service.cart.Count"

	cart, err := c.GetCart(ctx, owner)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	return cart.Count(), nil
}

func (c *CartService) validateItem(item models.LineItem) error {
	if item.ID == "" {
		return fmt.Errorf("%w: empty id", serviceerrors.ErrInvalidItem)
	}
	if item.Price.IsNegative() {
		return fmt.Errorf("%w: negative price", serviceerrors.ErrInvalidItem)
	}
	if err := c.validate.Struct(item); err != nil {
		return fmt.Errorf("%w: %s", serviceerrors.ErrInvalidItem, err.Error())
	}
	return nil
}

func setQuantity(cart models.Cart, id string, next func(current int) int) (models.Cart, bool, error) {
	i, ok := cart.Find(id)
	if !ok {
		return cart, false, nil
	}

	quantity := next(cart[i].Quantity)
	if quantity > models.MaxQuantity {
		return cart, false, serviceerrors.ErrInvalidQuantity
	}
	if quantity < 1 {
		return cart.Without(id), true, nil
	}

	cart[i].Quantity = quantity
	return cart, true, nil
}

func (c *CartService) mutate(
	ctx context.Context,
	log *slog.Logger,
	owner string,
	apply func(models.Cart) (models.Cart, bool, error),
) (models.Cart, error) {
	if err := checkContext(ctx, log); err != nil {
		return nil, err
	}

	cart, err := c.load(ctx, log, owner)
	if err != nil {
		return nil, err
	}

	cart, changed, err := apply(cart)
	if err != nil {
		log.Warn("rejected change", sl.Err(err))
		return nil, err
	}
	if !changed {
		return cart, nil
	}

	if err := c.save(ctx, log, owner, cart); err != nil {
		return nil, err
	}

	return cart, nil
}

// load reads the stored cart. Missing or blank values are an empty cart.
// Undecodable values are replaced by an empty cart so a corrupt entry
// never reaches the page.
func (c *CartService) load(ctx context.Context, log *slog.Logger, owner string) (models.Cart, error) {
	raw, err := c.storage.Get(ctx, c.Key(owner))
	if err != nil {
		if errors.Is(err, databaseerrors.ErrNotFound) {
			return models.Cart{}, nil
		}
		return nil, storageError(log, err, "Failed to read cart")
	}

	if len(bytes.TrimSpace(raw)) == 0 {
		return models.Cart{}, nil
	}

	var cart models.Cart
	if err := json.Unmarshal(raw, &cart); err != nil {
		log.Warn("stored cart is malformed, resetting", sl.Err(err))
		if err := c.save(ctx, log, owner, models.Cart{}); err != nil {
			return nil, err
		}
		return models.Cart{}, nil
	}

	cart, dropped := sanitize(cart)
	if dropped > 0 {
		log.Warn("dropped invalid stored entries", slog.Int("dropped", dropped))
	}

	return cart, nil
}

func (c *CartService) save(ctx context.Context, log *slog.Logger, owner string, cart models.Cart) error {
	if cart == nil {
		cart = models.Cart{}
	}

	raw, err := json.Marshal(cart)
	if err != nil {
		log.Error("Failed to encode cart", sl.Err(err))
		return err
	}

	if err := c.storage.Set(ctx, c.Key(owner), raw); err != nil {
		return storageError(log, err, "Failed to write cart")
	}

	return nil
}

// sanitize drops entries that break the cart invariants: empty ids,
// repeated ids (the first one wins) and quantities outside 1..MaxQuantity.
func sanitize(cart models.Cart) (models.Cart, int) {
	out := make(models.Cart, 0, len(cart))
	seen := make(map[string]struct{}, len(cart))

	for _, item := range cart {
		if strings.TrimSpace(item.ID) == "" || item.Quantity < 1 || item.Quantity > models.MaxQuantity {
			continue
		}
		if _, ok := seen[item.ID]; ok {
			continue
		}
		seen[item.ID] = struct{}{}
		out = append(out, item)
	}

	return out, len(cart) - len(out)
}

func checkContext(ctx context.Context, log *slog.Logger) error {
	select {
	case <-ctx.Done():
		return contextError(log, ctx.Err())
	default:
	}
	return nil
}

func contextError(log *slog.Logger, err error) error {
	if errors.Is(err, context.Canceled) {
		log.Warn("context canceled", sl.Err(err))
		return serviceerrors.ErrContextCanceled
	} else if errors.Is(err, context.DeadlineExceeded) {
		log.Warn("deadline exceeded", sl.Err(err))
		return serviceerrors.ErrDeadlineExceeded
	}
	log.Error("unexpected error", sl.Err(err))
	return err
}

func storageError(log *slog.Logger, err error, msg string) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return contextError(log, err)
	}
	log.Error(msg, sl.Err(err))
	return err
}
