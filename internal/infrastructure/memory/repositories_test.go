package memory

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretools/shopapi/internal/domain/cart"
	"github.com/ferretools/shopapi/internal/domain/ticket"
	"github.com/ferretools/shopapi/internal/domain/user"
)

func TestCartRepository(t *testing.T) {
	repo := NewCartRepository()
	ctx := context.Background()

	_, err := repo.Get(ctx, "c1")
	require.ErrorIs(t, err, cart.ErrNotFound)

	c := cart.New("c1")
	require.NoError(t, c.AddProduct("p1", 2))
	require.NoError(t, repo.Insert(ctx, c))

	got, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	require.Len(t, got.Items, 1)

	// The stored cart is isolated from later mutations of the copy.
	require.NoError(t, got.AddProduct("p2", 1))
	again, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, again.Items, 1)

	require.NoError(t, repo.Update(ctx, got))
	updated, err := repo.Get(ctx, "c1")
	require.NoError(t, err)
	assert.Len(t, updated.Items, 2)

	require.ErrorIs(t, repo.Update(ctx, cart.New("ghost")), cart.ErrNotFound)

	require.NoError(t, repo.Delete(ctx, "c1"))
	require.ErrorIs(t, repo.Delete(ctx, "c1"), cart.ErrNotFound)
}

func TestTicketRepository(t *testing.T) {
	repo := NewTicketRepository()
	ctx := context.Background()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	items := []cart.LineItem{{ProductID: "p1", Quantity: 1}}
	for i, offset := range []time.Duration{2 * time.Hour, 0, time.Hour} {
		tk, err := ticket.New(
			[]string{"t1", "t2", "t3"}[i],
			decimal.NewFromInt(100),
			"buyer@example.com",
			items,
			base.Add(offset),
		)
		require.NoError(t, err)
		require.NoError(t, repo.Create(ctx, tk))
	}

	other, err := ticket.New("t4", decimal.NewFromInt(50), "other@example.com", items, base)
	require.NoError(t, err)
	require.NoError(t, repo.Create(ctx, other))

	got, err := repo.Get(ctx, "t2")
	require.NoError(t, err)
	assert.Equal(t, "buyer@example.com", got.Purchaser)

	_, err = repo.Get(ctx, "ghost")
	require.ErrorIs(t, err, ticket.ErrNotFound)

	list, err := repo.ListByPurchaser(ctx, "buyer@example.com")
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "t2", list[0].ID, "tickets come back oldest first")
	assert.Equal(t, "t3", list[1].ID)
	assert.Equal(t, "t1", list[2].ID)
}

func TestUserRepository(t *testing.T) {
	repo := NewUserRepository()
	ctx := context.Background()

	u, err := user.New("u1", "Ada", "Lovelace", 30, "Ada@Example.com", "hash", user.RoleUser, "c1")
	require.NoError(t, err)
	require.NoError(t, repo.Insert(ctx, u))

	// Email lookup is case and whitespace insensitive.
	got, err := repo.GetByEmail(ctx, "  ada@example.COM ")
	require.NoError(t, err)
	assert.Equal(t, "u1", got.ID)

	dup, err := user.New("u2", "Eve", "Clone", 25, "ADA@example.com", "hash", user.RoleUser, "c2")
	require.NoError(t, err)
	require.ErrorIs(t, repo.Insert(ctx, dup), user.ErrEmailTaken)

	require.NoError(t, repo.Delete(ctx, "u1"))
	_, err = repo.GetByEmail(ctx, "ada@example.com")
	require.ErrorIs(t, err, user.ErrNotFound)

	// After deletion the email is free again.
	require.NoError(t, repo.Insert(ctx, dup))
}
