package ticket

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"

	"github.com/ferretools/shopapi/internal/domain/cart"
)

var (
	ErrNotFound         = errors.New("ticket: not found")
	ErrNoItems          = errors.New("ticket: at least one line item is required")
	ErrInvalidPurchaser = errors.New("ticket: purchaser is required")
)

// Ticket is an immutable receipt for the fulfilled portion of a purchase.
type Ticket struct {
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	Purchaser   string          `json:"purchaser"`
	Items       []cart.LineItem `json:"products"`
	PurchasedAt time.Time       `json:"purchase_datetime"`
}

func New(id string, amount decimal.Decimal, purchaser string, items []cart.LineItem, purchasedAt time.Time) (*Ticket, error) {
	if purchaser == "" {
		return nil, ErrInvalidPurchaser
	}
	if len(items) == 0 {
		return nil, ErrNoItems
	}
	return &Ticket{
		ID:          id,
		Amount:      amount,
		Purchaser:   purchaser,
		Items:       append([]cart.LineItem{}, items...),
		PurchasedAt: purchasedAt,
	}, nil
}

func (t *Ticket) Clone() *Ticket {
	if t == nil {
		return nil
	}
	clone := *t
	clone.Items = append([]cart.LineItem{}, t.Items...)
	return &clone
}
