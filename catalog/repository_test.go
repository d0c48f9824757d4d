package catalog_test

import (
	"context"
	"testing"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/catalog"
	"github.com/goliatone/go-storefront/internal/persistence/persistencetest"
)

func newProduct(name string) *catalog.Product {
	return &catalog.Product{
		Name:        name,
		Description: name + " description",
		Price:       9.5,
		Stock:       3,
		Category:    "tools",
		IsActive:    true,
		CreatedBy:   uuid.New(),
	}
}

func TestProducts_CRUD(t *testing.T) {
	repo := catalog.NewProductsRepository(persistencetest.New(t))
	ctx := context.Background()

	hammer, err := repo.Insert(ctx, newProduct("Hammer"))
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, hammer.ID)
	require.NotNil(t, hammer.CreatedAt)

	_, err = repo.Insert(ctx, newProduct("Saw"))
	require.NoError(t, err)

	found, err := repo.Find(ctx, hammer.ID)
	require.NoError(t, err)
	assert.Equal(t, "Hammer", found.Name)
	assert.Equal(t, 9.5, found.Price)
	assert.Equal(t, hammer.CreatedBy, found.CreatedBy)

	list, err := repo.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	price := 12.0
	name := "Claw Hammer"
	updated, err := repo.Patch(ctx, hammer.ID, catalog.Changes{Name: &name, Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "Claw Hammer", updated.Name)
	assert.Equal(t, 12.0, updated.Price)
	assert.Equal(t, 3, updated.Stock, "unchanged fields are kept")

	toggled, err := repo.Toggle(ctx, hammer.ID)
	require.NoError(t, err)
	assert.False(t, toggled.IsActive)

	toggled, err = repo.Toggle(ctx, hammer.ID)
	require.NoError(t, err)
	assert.True(t, toggled.IsActive)

	require.NoError(t, repo.DeleteByID(ctx, hammer.ID))

	_, err = repo.Find(ctx, hammer.ID)
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
}

func TestProducts_NotFound(t *testing.T) {
	repo := catalog.NewProductsRepository(persistencetest.New(t))
	ctx := context.Background()
	missing := uuid.New()

	_, err := repo.Patch(ctx, missing, catalog.Changes{})
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))

	_, err = repo.Toggle(ctx, missing)
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))

	err = repo.DeleteByID(ctx, missing)
	assert.True(t, errors.Is(err, catalog.ErrProductNotFound))
}

func TestProducts_FindMany(t *testing.T) {
	repo := catalog.NewProductsRepository(persistencetest.New(t))
	ctx := context.Background()

	a, err := repo.Insert(ctx, newProduct("A"))
	require.NoError(t, err)
	b, err := repo.Insert(ctx, newProduct("B"))
	require.NoError(t, err)

	found, err := repo.FindMany(ctx, []uuid.UUID{a.ID, b.ID, uuid.New()})
	require.NoError(t, err)
	assert.Len(t, found, 2)
	assert.Equal(t, "A", found[a.ID].Name)
	assert.Equal(t, "B", found[b.ID].Name)

	empty, err := repo.FindMany(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}
