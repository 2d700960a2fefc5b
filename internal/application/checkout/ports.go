package checkout

import (
	"context"

	"github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/domain/ticket"
)

type ProductStore interface {
	Get(ctx context.Context, id string) (*product.Product, error)
	DecrementStock(ctx context.Context, id string, quantity int) (bool, error)
}

type CartStore interface {
	Get(ctx context.Context, id string) (*cart.Cart, error)
	Update(ctx context.Context, c *cart.Cart) error
}

type TicketStore interface {
	Create(ctx context.Context, t *ticket.Ticket) error
}

// IdempotencyStore reserves purchase keys so a replayed request cannot
// decrement stock twice. Reserve returns false for an already-claimed key;
// Release frees a claim so a failed purchase can be retried under the same
// key.
type IdempotencyStore interface {
	Reserve(ctx context.Context, key string) (bool, error)
	Release(ctx context.Context, key string) error
}

type IDGenerator interface {
	NewID() string
}
