package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopper/internal/catalog"
	"shopper/internal/catalog/catalogtest"
	"shopper/internal/models"
)

func newProductService(t *testing.T) (*ProductService, *countingProvider[models.Product], models.Category) {
	t.Helper()
	mem := catalogtest.New()
	cat := mem.Add("Stationery", nil)

	products := newMemProducts()
	provider := &countingProvider[models.Product]{inner: catalog.NewPassThrough[models.Product](products)}
	return NewProductService(products, provider, catalog.NewTreeCache(mem)), provider, cat
}

func TestProductServiceLifecycle(t *testing.T) {
	ctx := context.Background()
	svc, provider, cat := newProductService(t)

	p, err := svc.Create(ctx, ProductInput{Name: "Pen", Price: 1.5, CategoryID: &cat.ID})
	require.NoError(t, err)
	assert.Equal(t, "Pen", p.Name)

	updated, err := svc.Update(ctx, p.ID, ProductPatch{Price: ptr(2.0)})
	require.NoError(t, err)
	assert.Equal(t, 2.0, updated.Price)
	assert.Equal(t, "Pen", updated.Name)
	assert.Equal(t, cat.ID, *updated.CategoryID)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, p.ID))
	got, err := svc.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.Equal(t, 3, provider.invalidated)
}

func TestProductServiceErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, cat := newProductService(t)

	_, err := svc.Create(ctx, ProductInput{Name: "Ghost", CategoryID: ptr(uuid.New())})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	p, err := svc.Create(ctx, ProductInput{Name: "Pen", CategoryID: &cat.ID})
	require.NoError(t, err)

	_, err = svc.Update(ctx, p.ID, ProductPatch{CategoryID: ptr(uuid.New())})
	assert.ErrorIs(t, err, ErrInvalidCategory)

	_, err = svc.Update(ctx, uuid.New(), ProductPatch{Name: ptr("x")})
	assert.ErrorIs(t, err, ErrProductNotFound)

	assert.ErrorIs(t, svc.Delete(ctx, uuid.New()), ErrProductNotFound)
}
