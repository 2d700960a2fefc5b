package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	domain "github.com/ferretools/shopapi/internal/domain/ticket"
)

type TicketRepository struct {
	mu      sync.RWMutex
	tickets map[string]*domain.Ticket
}

func NewTicketRepository() *TicketRepository {
	return &TicketRepository{
		tickets: make(map[string]*domain.Ticket),
	}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	_ = ctx
	if t == nil || t.ID == "" {
		return fmt.Errorf("ticket repository: id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.tickets[t.ID] = t.Clone()
	return nil
}

func (r *TicketRepository) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	t, ok := r.tickets[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return t.Clone(), nil
}

func (r *TicketRepository) ListByPurchaser(ctx context.Context, purchaser string) ([]*domain.Ticket, error) {
	_ = ctx

	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*domain.Ticket, 0)
	for _, t := range r.tickets {
		if t.Purchaser == purchaser {
			out = append(out, t.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].PurchasedAt.Before(out[j].PurchasedAt)
	})
	return out, nil
}
