package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	d "github.com/jyotishankar04/watch-store-server/internal/domain"
	r "github.com/jyotishankar04/watch-store-server/internal/repository"
)

type CartServiceImpl struct {
	repo r.Store
	log  *zap.Logger
}

func NewCartService(repo r.Store, log *zap.Logger) *CartServiceImpl {
	return &CartServiceImpl{repo: repo, log: log}
}

func (s *CartServiceImpl) GetCart(ctx context.Context, userID string) ([]*d.CartItem, error) {
	return s.repo.GetCartItems(ctx, userID)
}

func (s *CartServiceImpl) AddItem(ctx context.Context, userID, productID string, quantity int32) (*d.CartItem, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	return s.repo.AddCartItem(ctx, userID, productID, quantity)
}

func (s *CartServiceImpl) UpdateItem(ctx context.Context, userID, itemID string, quantity int32) (*d.CartItem, error) {
	if err := checkQuantity(quantity); err != nil {
		return nil, err
	}
	return s.repo.UpdateCartItemQuantity(ctx, userID, itemID, quantity)
}

func (s *CartServiceImpl) RemoveItem(ctx context.Context, userID, itemID string) error {
	return s.repo.DeleteCartItem(ctx, userID, itemID)
}

func checkQuantity(quantity int32) error {
	if quantity < d.MinCartItemQuantity || quantity > d.MaxCartItemQuantity {
		return fmt.Errorf("quantity must be between %d and %d: %w",
			d.MinCartItemQuantity, d.MaxCartItemQuantity, d.ErrValidation)
	}
	return nil
}
