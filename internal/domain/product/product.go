package product

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
)

var (
	ErrNotFound     = errors.New("product: not found")
	ErrCodeInUse    = errors.New("product: code already in use")
	ErrInvalidName  = errors.New("product: name is required")
	ErrInvalidPrice = errors.New("product: price must be zero or greater")
	ErrInvalidStock = errors.New("product: stock must be zero or greater")
)

type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Category    string
	Stock       int
	Code        string
	Thumbnails  []string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

func New(id, name, description string, price decimal.Decimal, category string, stock int, code string, thumbnails []string) (*Product, error) {
	if name == "" {
		return nil, ErrInvalidName
	}
	if price.IsNegative() {
		return nil, ErrInvalidPrice
	}
	if stock < 0 {
		return nil, ErrInvalidStock
	}

	now := time.Now().UTC()
	return &Product{
		ID:          id,
		Name:        name,
		Description: description,
		Price:       price,
		Category:    category,
		Stock:       stock,
		Code:        code,
		Thumbnails:  thumbnails,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// SetStock replaces the stock level. Stock never goes negative.
func (p *Product) SetStock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	p.Stock = stock
	p.touch()
	return nil
}

func (p *Product) touch() {
	p.UpdatedAt = time.Now().UTC()
}

func (p *Product) Clone() *Product {
	if p == nil {
		return nil
	}
	clone := *p
	clone.Thumbnails = append([]string(nil), p.Thumbnails...)
	return &clone
}
