// Package cart manages per-user shopping carts over item variants.
package cart

import (
	"context"
	"errors"

	"github.com/trcstyle/backend/internal/app/apperr"
	cartdomain "github.com/trcstyle/backend/internal/app/domain/cart"
	"github.com/trcstyle/backend/internal/app/storage"
	"github.com/trcstyle/backend/pkg/logger"
)

// Service manages shopping carts.
type Service struct {
	store storage.CartStore
	items storage.ItemStore
	log   *logger.Logger
}

// New constructs a cart service.
func New(store storage.CartStore, items storage.ItemStore, log *logger.Logger) *Service {
	if log == nil {
		log = logger.NewDefault("cart")
	}
	return &Service{store: store, items: items, log: log}
}

// Get assembles the cart with denormalised lines and aggregates. Lines whose
// variant has disappeared are dropped from the response.
func (s *Service) Get(ctx context.Context, userID int64) (cartdomain.State, error) {
	rows, err := s.store.ListCartItems(ctx, userID)
	if err != nil {
		return cartdomain.State{}, err
	}

	state := cartdomain.State{Items: []cartdomain.Line{}}
	for _, row := range rows {
		variant, err := s.items.GetVariant(ctx, row.VariantID)
		if errors.Is(err, storage.ErrNotFound) {
			continue
		}
		if err != nil {
			return cartdomain.State{}, err
		}
		it, err := s.items.GetItem(ctx, variant.ItemID)
		if err != nil {
			return cartdomain.State{}, err
		}

		price := variant.Price
		if price == nil {
			price = it.Price
		}
		line := cartdomain.Line{
			ItemID:    it.ID,
			VariantID: variant.ID,
			Name:      it.Name,
			Brand:     it.Brand,
			ImageURL:  it.ImageURL,
			Size:      variant.Size,
			Color:     variant.Color,
			SKU:       variant.SKU,
			Stock:     variant.Stock,
			Quantity:  row.Quantity,
			Price:     price,
		}
		state.Items = append(state.Items, line)
		state.TotalItems += row.Quantity
		if price != nil {
			state.TotalPrice += *price * float64(row.Quantity)
		}
	}
	return state, nil
}

// Add puts qty units of a variant into the cart, merging with any existing
// line. The merged quantity may not exceed the variant's stock.
func (s *Service) Add(ctx context.Context, userID, variantID int64, qty int) (cartdomain.State, error) {
	if qty <= 0 {
		return cartdomain.State{}, apperr.Unprocessable("quantity must be positive")
	}
	variant, err := s.items.GetVariant(ctx, variantID)
	if errors.Is(err, storage.ErrNotFound) {
		return cartdomain.State{}, apperr.NotFound("variant %d not found", variantID)
	}
	if err != nil {
		return cartdomain.State{}, err
	}

	current := 0
	if existing, err := s.store.GetCartItem(ctx, userID, variantID); err == nil {
		current = existing.Quantity
	} else if !errors.Is(err, storage.ErrNotFound) {
		return cartdomain.State{}, err
	}

	if current+qty > variant.Stock {
		return cartdomain.State{}, apperr.Conflict("only %d in stock", variant.Stock)
	}
	if _, err := s.store.UpsertCartItem(ctx, cartdomain.Item{
		UserID:    userID,
		VariantID: variantID,
		Quantity:  current + qty,
	}); err != nil {
		return cartdomain.State{}, err
	}
	return s.Get(ctx, userID)
}

// SetQuantity replaces a line's quantity. Zero or less removes the line.
func (s *Service) SetQuantity(ctx context.Context, userID, variantID int64, qty int) (cartdomain.State, error) {
	if qty <= 0 {
		return s.Remove(ctx, userID, variantID)
	}
	variant, err := s.items.GetVariant(ctx, variantID)
	if errors.Is(err, storage.ErrNotFound) {
		return cartdomain.State{}, apperr.NotFound("variant %d not found", variantID)
	}
	if err != nil {
		return cartdomain.State{}, err
	}
	if qty > variant.Stock {
		return cartdomain.State{}, apperr.Conflict("only %d in stock", variant.Stock)
	}

	if _, err := s.store.GetCartItem(ctx, userID, variantID); errors.Is(err, storage.ErrNotFound) {
		return cartdomain.State{}, apperr.NotFound("variant %d is not in the cart", variantID)
	} else if err != nil {
		return cartdomain.State{}, err
	}

	if _, err := s.store.UpsertCartItem(ctx, cartdomain.Item{
		UserID:    userID,
		VariantID: variantID,
		Quantity:  qty,
	}); err != nil {
		return cartdomain.State{}, err
	}
	return s.Get(ctx, userID)
}

// Remove drops a line from the cart.
func (s *Service) Remove(ctx context.Context, userID, variantID int64) (cartdomain.State, error) {
	err := s.store.DeleteCartItem(ctx, userID, variantID)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		return cartdomain.State{}, err
	}
	return s.Get(ctx, userID)
}

// Clear empties the cart.
func (s *Service) Clear(ctx context.Context, userID int64) error {
	return s.store.ClearCart(ctx, userID)
}
