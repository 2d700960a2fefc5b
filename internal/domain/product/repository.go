package product

import (
	"context"
)

// DefaultListLimit is the page size List falls back to when the caller passes
// a non-positive limit. Both backends apply it.
const DefaultListLimit = 50

type Repository interface {
	Get(ctx context.Context, id string) (*Product, error)
	GetByCode(ctx context.Context, code string) (*Product, error)

	// List returns a page of products in stable order; limit <= 0 means
	// DefaultListLimit.
	List(ctx context.Context, limit, offset int) ([]*Product, error)
	Insert(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error

	// DecrementStock conditionally deducts quantity from the product's stock.
	// It returns false (and no error) when the remaining stock is insufficient,
	// so the check and the write happen atomically at the store.
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
}
