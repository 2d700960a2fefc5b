package memory

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretools/shopapi/internal/domain/product"
)

func newProduct(t *testing.T, id, code string, stock int) *product.Product {
	t.Helper()
	p, err := product.New(id, "Sierra "+id, "", decimal.NewFromInt(10), "Herramientas Manuales", stock, code, nil)
	require.NoError(t, err)
	return p
}

func TestProductRepository_CRUD(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "p1")
	require.ErrorIs(t, err, product.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, newProduct(t, "p1", "code-1", 5)))

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "p1", got.ID)

	// Mutating the returned copy must not leak into the store.
	got.Stock = 999
	again, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, again.Stock)

	byCode, err := repo.GetByCode(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "p1", byCode.ID)

	err = repo.Insert(ctx, newProduct(t, "p2", "code-1", 1))
	require.ErrorIs(t, err, product.ErrCodeInUse)

	got.Stock = 7
	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 7, updated.Stock)

	require.NoError(t, repo.Delete(ctx, "p1"))
	require.ErrorIs(t, repo.Delete(ctx, "p1"), product.ErrNotFound)
}

func TestProductRepository_ListPagination(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("p%d", i)
		require.NoError(t, repo.Insert(ctx, newProduct(t, id, "code-"+id, 1)))
	}

	first, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, first, 5)
	assert.Equal(t, "p0", first[0].ID)

	page, err := repo.List(ctx, 2, 2)
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, "p2", page[0].ID)
	assert.Equal(t, "p3", page[1].ID)

	empty, err := repo.List(ctx, 10, 100)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

// A non-positive limit means the default page size, same as the mysql backend.
func TestProductRepository_ListDefaultLimit(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()
	for i := 0; i < product.DefaultListLimit+10; i++ {
		id := fmt.Sprintf("p%03d", i)
		require.NoError(t, repo.Insert(ctx, newProduct(t, id, "code-"+id, 1)))
	}

	page, err := repo.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, page, product.DefaultListLimit)

	rest, err := repo.List(ctx, 0, product.DefaultListLimit)
	require.NoError(t, err)
	assert.Len(t, rest, 10)
}

func TestProductRepository_DecrementStock(t *testing.T) {
	repo := NewProductRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newProduct(t, "p1", "code-1", 3)))

	ok, err := repo.DecrementStock(ctx, "p1", 2)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.DecrementStock(ctx, "p1", 2)
	require.NoError(t, err)
	assert.False(t, ok, "short decrement must be refused whole")

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, 1, got.Stock)

	_, err = repo.DecrementStock(ctx, "p1", 0)
	require.ErrorIs(t, err, product.ErrInvalidStock)

	_, err = repo.DecrementStock(ctx, "missing", 1)
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestProductRepository_DecrementStockConcurrent(t *testing.T) {
	const (
		initialStock = 200
		workers      = 64
		attempts     = 10
	)

	repo := NewProductRepository()
	ctx := context.Background()
	require.NoError(t, repo.Insert(ctx, newProduct(t, "p1", "code-1", initialStock)))

	var fulfilled atomic.Int64
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < attempts; j++ {
				ok, err := repo.DecrementStock(ctx, "p1", 1)
				if err == nil && ok {
					fulfilled.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	got, err := repo.Get(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, initialStock, int(fulfilled.Load()), "demand exceeds stock, so exactly the stock is sold")
	assert.Equal(t, 0, got.Stock)
}

func TestIdempotencyStore_Reserve(t *testing.T) {
	now := time.Now()
	store := NewIdempotencyStore(time.Minute)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	ok, err := store.Reserve(ctx, "cart:key")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = store.Reserve(ctx, "cart:key")
	require.NoError(t, err)
	assert.False(t, ok, "second reservation inside the TTL is refused")

	ok, err = store.Reserve(ctx, "cart:other")
	require.NoError(t, err)
	assert.True(t, ok)

	now = now.Add(2 * time.Minute)
	ok, err = store.Reserve(ctx, "cart:key")
	require.NoError(t, err)
	assert.True(t, ok, "expired keys can be reclaimed")

	require.NoError(t, store.Release(ctx, "cart:other"))
	ok, err = store.Reserve(ctx, "cart:other")
	require.NoError(t, err)
	assert.True(t, ok, "released keys can be reserved again")

	require.NoError(t, store.Release(ctx, "cart:never-reserved"))
}
