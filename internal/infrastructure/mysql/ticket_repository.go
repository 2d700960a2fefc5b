package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/ferretools/shopapi/internal/domain/cart"
	domain "github.com/ferretools/shopapi/internal/domain/ticket"
)

type TicketRepository struct {
	db *sql.DB
}

func NewTicketRepository(db *sql.DB) *TicketRepository {
	return &TicketRepository{db: db}
}

func (r *TicketRepository) Create(ctx context.Context, t *domain.Ticket) error {
	items, err := json.Marshal(t.Items)
	if err != nil {
		return fmt.Errorf("marshal ticket items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO tickets (id, amount, purchaser, items, purchased_at)
		VALUES (?, ?, ?, ?, ?)`,
		t.ID, t.Amount.String(), t.Purchaser, items, t.PurchasedAt,
	)
	if err != nil {
		return fmt.Errorf("insert ticket: %w", err)
	}
	return nil
}

func (r *TicketRepository) Get(ctx context.Context, id string) (*domain.Ticket, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT id, amount, purchaser, items, purchased_at FROM tickets WHERE id = ?", id)
	return scanTicket(row)
}

func (r *TicketRepository) ListByPurchaser(ctx context.Context, purchaser string) ([]*domain.Ticket, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT id, amount, purchaser, items, purchased_at FROM tickets WHERE purchaser = ? ORDER BY purchased_at",
		purchaser)
	if err != nil {
		return nil, fmt.Errorf("query tickets: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Ticket, 0)
	for rows.Next() {
		t, err := scanTicket(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func scanTicket(row rowScanner) (*domain.Ticket, error) {
	var (
		t         domain.Ticket
		amountRaw string
		items     []byte
	)
	err := row.Scan(&t.ID, &amountRaw, &t.Purchaser, &items, &t.PurchasedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan ticket: %w", err)
	}

	amount, err := decimal.NewFromString(amountRaw)
	if err != nil {
		return nil, fmt.Errorf("parse amount: %w", err)
	}
	t.Amount = amount

	t.Items = []cart.LineItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &t.Items); err != nil {
			return nil, fmt.Errorf("unmarshal ticket items: %w", err)
		}
	}
	return &t, nil
}
