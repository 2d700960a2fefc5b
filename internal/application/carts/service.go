package carts

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/pkg/logging"
)

var ErrValidation = errors.New("carts: invalid input")

type IDGenerator interface {
	NewID() string
}

// Service implements the cart mutations: direct, single-step field
// replacements with existence checks.
type Service struct {
	carts       cart.Repository
	products    product.Repository
	idGenerator IDGenerator
}

func NewService(carts cart.Repository, products product.Repository, idGen IDGenerator) *Service {
	return &Service{
		carts:       carts,
		products:    products,
		idGenerator: idGen,
	}
}

func (s *Service) Create(ctx context.Context) (*cart.Cart, error) {
	c := cart.New(s.idGenerator.NewID())
	if err := s.carts.Insert(ctx, c); err != nil {
		return nil, fmt.Errorf("carts: create: %w", err)
	}
	logging.FromContext(ctx).Debug("cart_created", zap.String("cart_id", c.ID))
	return c, nil
}

func (s *Service) Get(ctx context.Context, cartID string) (*cart.Cart, error) {
	if cartID == "" {
		return nil, fmt.Errorf("%w: cart id is required", ErrValidation)
	}
	return s.carts.Get(ctx, cartID)
}

// AddProduct adds one unit of the product to the cart. The product has to
// exist in the catalog.
func (s *Service) AddProduct(ctx context.Context, cartID, productID string) (*cart.Cart, error) {
	if cartID == "" || productID == "" {
		return nil, fmt.Errorf("%w: cart id and product id are required", ErrValidation)
	}
	if _, err := s.products.Get(ctx, productID); err != nil {
		return nil, err
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.AddProduct(productID, 1); err != nil {
		return nil, err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("carts: save: %w", err)
	}
	return c, nil
}

func (s *Service) SetQuantity(ctx context.Context, cartID, productID string, quantity int) (*cart.Cart, error) {
	if cartID == "" || productID == "" {
		return nil, fmt.Errorf("%w: cart id and product id are required", ErrValidation)
	}
	if quantity < 1 {
		return nil, fmt.Errorf("%w: quantity must be a positive integer", ErrValidation)
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.SetQuantity(productID, quantity); err != nil {
		return nil, err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("carts: save: %w", err)
	}
	return c, nil
}

func (s *Service) RemoveProduct(ctx context.Context, cartID, productID string) (*cart.Cart, error) {
	if cartID == "" || productID == "" {
		return nil, fmt.Errorf("%w: cart id and product id are required", ErrValidation)
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.RemoveProduct(productID); err != nil {
		return nil, err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("carts: save: %w", err)
	}
	return c, nil
}

// ReplaceItems swaps the cart's whole line-item list.
func (s *Service) ReplaceItems(ctx context.Context, cartID string, items []cart.LineItem) (*cart.Cart, error) {
	if cartID == "" {
		return nil, fmt.Errorf("%w: cart id is required", ErrValidation)
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	if err := c.ReplaceItems(items); err != nil {
		return nil, err
	}
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("carts: save: %w", err)
	}
	return c, nil
}

func (s *Service) Clear(ctx context.Context, cartID string) (*cart.Cart, error) {
	if cartID == "" {
		return nil, fmt.Errorf("%w: cart id is required", ErrValidation)
	}

	c, err := s.carts.Get(ctx, cartID)
	if err != nil {
		return nil, err
	}
	c.Clear()
	if err := s.carts.Update(ctx, c); err != nil {
		return nil, fmt.Errorf("carts: save: %w", err)
	}
	return c, nil
}
