package catalog_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ferretools/shopapi/internal/application/catalog"
	"github.com/ferretools/shopapi/internal/domain/product"
	"github.com/ferretools/shopapi/internal/infrastructure/id"
	"github.com/ferretools/shopapi/internal/infrastructure/memory"
)

func newService(t *testing.T) *catalog.Service {
	t.Helper()
	return catalog.NewService(memory.NewProductRepository(), id.NewUUIDGenerator())
}

func createInput(code string) catalog.CreateProductInput {
	return catalog.CreateProductInput{
		Name:        "Martillo de garra",
		Description: "Mango de fibra de vidrio",
		Price:       decimal.NewFromFloat(19.99),
		Category:    "Herramientas Manuales",
		Stock:       25,
		Code:        code,
	}
}

func TestCreateAndGet(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, createInput("MTL-001"))
	require.NoError(t, err)
	require.NotEmpty(t, p.ID)
	assert.True(t, p.Price.Equal(decimal.NewFromFloat(19.99)))

	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Name, got.Name)
}

func TestCreate_Validation(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput(""))
	require.ErrorIs(t, err, catalog.ErrValidation)

	in := createInput("MTL-001")
	in.Name = ""
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, product.ErrInvalidName)

	in = createInput("MTL-001")
	in.Price = decimal.NewFromInt(-1)
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, product.ErrInvalidPrice)

	in = createInput("MTL-001")
	in.Stock = -1
	_, err = svc.Create(ctx, in)
	require.ErrorIs(t, err, product.ErrInvalidStock)
}

func TestCreate_DuplicateCode(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, createInput("MTL-001"))
	require.NoError(t, err)

	_, err = svc.Create(ctx, createInput("MTL-001"))
	require.ErrorIs(t, err, product.ErrCodeInUse)
}

func TestUpdate_PartialFields(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p, err := svc.Create(ctx, createInput("MTL-001"))
	require.NoError(t, err)

	name := "Martillo de bola"
	stock := 40
	updated, err := svc.Update(ctx, p.ID, catalog.UpdateProductInput{
		Name:  &name,
		Stock: &stock,
	})
	require.NoError(t, err)
	assert.Equal(t, "Martillo de bola", updated.Name)
	assert.Equal(t, 40, updated.Stock)
	assert.Equal(t, p.Description, updated.Description, "untouched fields survive")
	assert.True(t, updated.Price.Equal(p.Price))

	empty := ""
	_, err = svc.Update(ctx, p.ID, catalog.UpdateProductInput{Name: &empty})
	require.ErrorIs(t, err, product.ErrInvalidName)

	negative := -1
	_, err = svc.Update(ctx, p.ID, catalog.UpdateProductInput{Stock: &negative})
	require.ErrorIs(t, err, product.ErrInvalidStock)

	_, err = svc.Update(ctx, "ghost", catalog.UpdateProductInput{Name: &name})
	require.ErrorIs(t, err, product.ErrNotFound)
}

func TestListAndDelete(t *testing.T) {
	svc := newService(t)
	ctx := context.Background()

	p1, err := svc.Create(ctx, createInput("MTL-001"))
	require.NoError(t, err)
	_, err = svc.Create(ctx, createInput("MTL-002"))
	require.NoError(t, err)

	all, err := svc.List(ctx, 0, 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = svc.List(ctx, -1, 0)
	require.ErrorIs(t, err, catalog.ErrValidation)

	require.NoError(t, svc.Delete(ctx, p1.ID))
	require.ErrorIs(t, svc.Delete(ctx, p1.ID), product.ErrNotFound)
}
