package ticket

import (
	"context"
)

type Repository interface {
	Create(ctx context.Context, t *Ticket) error
	Get(ctx context.Context, id string) (*Ticket, error)
	ListByPurchaser(ctx context.Context, purchaser string) ([]*Ticket, error)
}
