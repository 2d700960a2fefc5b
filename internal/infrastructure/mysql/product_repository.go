package mysql

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	domain "github.com/ferretools/shopapi/internal/domain/product"
)

type ProductRepository struct {
	db *sql.DB
}

func NewProductRepository(db *sql.DB) *ProductRepository {
	return &ProductRepository{db: db}
}

const productColumns = "id, name, description, price, category, stock, code, thumbnails, created_at, updated_at"

func (r *ProductRepository) Get(ctx context.Context, id string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE id = ?", id)
	return scanProduct(row)
}

func (r *ProductRepository) GetByCode(ctx context.Context, code string) (*domain.Product, error) {
	row := r.db.QueryRowContext(ctx,
		"SELECT "+productColumns+" FROM products WHERE code = ?", code)
	return scanProduct(row)
}

func (r *ProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.Product, error) {
	if limit <= 0 {
		limit = domain.DefaultListLimit
	}
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+productColumns+" FROM products ORDER BY created_at, id LIMIT ? OFFSET ?",
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	out := make([]*domain.Product, 0, limit)
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (r *ProductRepository) Insert(ctx context.Context, p *domain.Product) error {
	thumbs, err := json.Marshal(p.Thumbnails)
	if err != nil {
		return fmt.Errorf("marshal thumbnails: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO products (id, name, description, price, category, stock, code, thumbnails, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.Code, thumbs,
		p.CreatedAt, p.UpdatedAt,
	)
	if isDuplicateEntry(err) {
		return domain.ErrCodeInUse
	}
	if err != nil {
		return fmt.Errorf("insert product: %w", err)
	}
	return nil
}

func (r *ProductRepository) Update(ctx context.Context, p *domain.Product) error {
	thumbs, err := json.Marshal(p.Thumbnails)
	if err != nil {
		return fmt.Errorf("marshal thumbnails: %w", err)
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET name = ?, description = ?, price = ?, category = ?, stock = ?, code = ?, thumbnails = ?, updated_at = ?
		WHERE id = ?`,
		p.Name, p.Description, p.Price.String(), p.Category, p.Stock, p.Code, thumbs, p.UpdatedAt,
		p.ID,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ProductRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, "DELETE FROM products WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// DecrementStock deducts in a single conditional UPDATE; the stock check and
// the write cannot be interleaved by a concurrent checkout.
func (r *ProductRepository) DecrementStock(ctx context.Context, id string, quantity int) (bool, error) {
	if quantity <= 0 {
		return false, domain.ErrInvalidStock
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE products
		SET stock = stock - ?, updated_at = NOW()
		WHERE id = ? AND stock >= ?`,
		quantity, id, quantity,
	)
	if err != nil {
		return false, fmt.Errorf("decrement stock: %w", err)
	}

	rows, _ := result.RowsAffected()
	if rows == 0 {
		// Either the product is missing or the stock is short; callers that
		// care look the product up afterwards.
		return false, nil
	}
	return true, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProduct(row rowScanner) (*domain.Product, error) {
	var (
		p        domain.Product
		priceRaw string
		thumbs   []byte
	)
	err := row.Scan(&p.ID, &p.Name, &p.Description, &priceRaw, &p.Category, &p.Stock,
		&p.Code, &thumbs, &p.CreatedAt, &p.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan product: %w", err)
	}

	price, err := decimal.NewFromString(priceRaw)
	if err != nil {
		return nil, fmt.Errorf("parse price: %w", err)
	}
	p.Price = price

	if len(thumbs) > 0 {
		if err := json.Unmarshal(thumbs, &p.Thumbnails); err != nil {
			return nil, fmt.Errorf("unmarshal thumbnails: %w", err)
		}
	}
	return &p, nil
}
