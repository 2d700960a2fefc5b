package cart

import (
	"context"
)

type Repository interface {
	Get(ctx context.Context, id string) (*Cart, error)
	Insert(ctx context.Context, c *Cart) error
	Update(ctx context.Context, c *Cart) error
	Delete(ctx context.Context, id string) error
}
