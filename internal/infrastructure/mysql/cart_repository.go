package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	domain "github.com/ferretools/shopapi/internal/domain/cart"
)

type CartRepository struct {
	db *sql.DB
}

func NewCartRepository(db *sql.DB) *CartRepository {
	return &CartRepository{db: db}
}

func (r *CartRepository) Get(ctx context.Context, id string) (*domain.Cart, error) {
	var (
		c     domain.Cart
		items []byte
	)
	err := r.db.QueryRowContext(ctx,
		"SELECT id, items, created_at, updated_at FROM carts WHERE id = ?", id,
	).Scan(&c.ID, &items, &c.CreatedAt, &c.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query cart: %w", err)
	}

	c.Items = []domain.LineItem{}
	if len(items) > 0 {
		if err := json.Unmarshal(items, &c.Items); err != nil {
			return nil, fmt.Errorf("unmarshal cart items: %w", err)
		}
	}
	return &c, nil
}

func (r *CartRepository) Insert(ctx context.Context, c *domain.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshal cart items: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO carts (id, items, created_at, updated_at)
		VALUES (?, ?, ?, ?)`,
		c.ID, items, c.CreatedAt, c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert cart: %w", err)
	}
	return nil
}

func (r *CartRepository) Update(ctx context.Context, c *domain.Cart) error {
	items, err := json.Marshal(c.Items)
	if err != nil {
		return fmt.Errorf("marshal cart items: %w", err)
	}

	result, err := r.db.ExecContext(ctx,
		"UPDATE carts SET items = ?, updated_at = ? WHERE id = ?",
		items, c.UpdatedAt, c.ID,
	)
	if err != nil {
		return fmt.Errorf("update cart: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CartRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM carts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete cart: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}
