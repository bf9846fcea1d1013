package mocks

import (
	"context"

	"cartstore/internal/models"

	"github.com/stretchr/testify/mock"
)

type Service struct {
	mock.Mock
}

func (m *Service) Initialize(ctx context.Context, owner string) error {
	args := m.Called(ctx, owner)
	return args.Error(0)
}

func (m *Service) GetCart(ctx context.Context, owner string) (models.Cart, error) {
	args := m.Called(ctx, owner)
	cart, _ := args.Get(0).(models.Cart)
	return cart, args.Error(1)
}

func (m *Service) AddItem(ctx context.Context, owner string, item models.LineItem) (models.Cart, error) {
	args := m.Called(ctx, owner, item)
	cart, _ := args.Get(0).(models.Cart)
	return cart, args.Error(1)
}

func (m *Service) SetQuantity(ctx context.Context, owner string, id string, quantity int) (models.Cart, error) {
	args := m.Called(ctx, owner, id, quantity)
	cart, _ := args.Get(0).(models.Cart)
	return cart, args.Error(1)
}

func (m *Service) AdjustQuantity(ctx context.Context, owner string, id string, delta int) (models.Cart, error) {
	args := m.Called(ctx, owner, id, delta)
	cart, _ := args.Get(0).(models.Cart)
	return cart, args.Error(1)
}

func (m *Service) RemoveItem(ctx context.Context, owner string, id string) (models.Cart, error) {
	args := m.Called(ctx, owner, id)
	cart, _ := args.Get(0).(models.Cart)
	return cart, args.Error(1)
}

func (m *Service) Pricing() models.Pricing {
	return models.DefaultPricing()
}
