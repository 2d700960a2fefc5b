package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ferretools/shopapi/internal/domain/product"
)

var ErrValidation = errors.New("catalog: invalid input")

type IDGenerator interface {
	NewID() string
}

type Service struct {
	products    product.Repository
	idGenerator IDGenerator
}

func NewService(products product.Repository, idGen IDGenerator) *Service {
	return &Service{products: products, idGenerator: idGen}
}

type CreateProductInput struct {
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Code        string
	Thumbnails  []string
}

func (s *Service) Create(ctx context.Context, input CreateProductInput) (*product.Product, error) {
	if input.Code == "" {
		return nil, fmt.Errorf("%w: code is required", ErrValidation)
	}

	p, err := product.New(s.idGenerator.NewID(), input.Name, input.Description,
		input.Price, input.Category, input.Stock, input.Code, input.Thumbnails)
	if err != nil {
		return nil, err
	}
	if err := s.products.Insert(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Get(ctx context.Context, id string) (*product.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrValidation)
	}
	return s.products.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, limit, offset int) ([]*product.Product, error) {
	if limit < 0 || offset < 0 {
		return nil, fmt.Errorf("%w: limit and offset must be zero or greater", ErrValidation)
	}
	return s.products.List(ctx, limit, offset)
}

type UpdateProductInput struct {
	Name        *string
	Description *string
	Price       *decimal.Decimal
	Category    *string
	Stock       *int
	Thumbnails  []string
}

// Update applies the non-nil fields onto the stored product.
func (s *Service) Update(ctx context.Context, id string, input UpdateProductInput) (*product.Product, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: product id is required", ErrValidation)
	}

	p, err := s.products.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, product.ErrInvalidName
		}
		p.Name = *input.Name
	}
	if input.Description != nil {
		p.Description = *input.Description
	}
	if input.Price != nil {
		if input.Price.IsNegative() {
			return nil, product.ErrInvalidPrice
		}
		p.Price = *input.Price
	}
	if input.Category != nil {
		p.Category = *input.Category
	}
	if input.Stock != nil {
		if err := p.SetStock(*input.Stock); err != nil {
			return nil, err
		}
	}
	if input.Thumbnails != nil {
		p.Thumbnails = input.Thumbnails
	}

	if err := s.products.Update(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

func (s *Service) Delete(ctx context.Context, id string) error {
	if id == "" {
		return fmt.Errorf("%w: product id is required", ErrValidation)
	}
	return s.products.Delete(ctx, id)
}
