package orders_test

import (
	"context"
	"testing"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-storefront/catalog"
	"github.com/goliatone/go-storefront/internal/persistence/persistencetest"
	"github.com/goliatone/go-storefront/orders"
)

func TestOrders_CRUD(t *testing.T) {
	repo := orders.NewOrdersRepository(persistencetest.New(t))
	ctx := context.Background()

	owner := uuid.New()
	productA, productB := uuid.New(), uuid.New()

	order, err := repo.Insert(ctx, &orders.Order{
		UserID:     owner,
		Products:   []orders.LineItem{{Product: productA, Quantity: 2}},
		TotalPrice: 20,
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, order.ID)

	found, err := repo.Find(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, owner, found.UserID)
	assert.Equal(t, []orders.LineItem{{Product: productA, Quantity: 2}}, found.Products)

	items := []orders.LineItem{
		{Product: productA, Quantity: 1},
		{Product: productB, Quantity: 4},
	}
	updated, err := repo.Patch(ctx, order.ID, orders.Changes{Products: &items})
	require.NoError(t, err)
	assert.Equal(t, items, updated.Products)
	assert.Equal(t, 20.0, updated.TotalPrice, "unchanged fields are kept")

	found, err = repo.Find(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, items, found.Products)

	require.NoError(t, repo.DeleteByID(ctx, order.ID))

	_, err = repo.Find(ctx, order.ID)
	assert.True(t, errors.Is(err, orders.ErrOrderNotFound))

	err = repo.DeleteByID(ctx, order.ID)
	assert.True(t, errors.Is(err, orders.ErrOrderNotFound))

	total := 1.0
	_, err = repo.Patch(ctx, order.ID, orders.Changes{TotalPrice: &total})
	assert.True(t, errors.Is(err, orders.ErrOrderNotFound))
}

func TestOrders_ListByUser(t *testing.T) {
	repo := orders.NewOrdersRepository(persistencetest.New(t))
	ctx := context.Background()

	owner, other := uuid.New(), uuid.New()

	first, err := repo.Insert(ctx, &orders.Order{UserID: owner, TotalPrice: 1})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.Insert(ctx, &orders.Order{UserID: owner, TotalPrice: 2})
	require.NoError(t, err)
	_, err = repo.Insert(ctx, &orders.Order{UserID: other, TotalPrice: 3})
	require.NoError(t, err)

	list, err := repo.ListByUser(ctx, owner)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID, "newest first")
	assert.Equal(t, first.ID, list[1].ID)

	none, err := repo.ListByUser(ctx, uuid.New())
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestPopulate(t *testing.T) {
	kept := &catalog.Product{ID: uuid.New(), Name: "Hammer"}
	gone := uuid.New()

	order := &orders.Order{
		ID:     uuid.New(),
		UserID: uuid.New(),
		Products: []orders.LineItem{
			{Product: kept.ID, Quantity: 1},
			{Product: gone, Quantity: 2},
			{Product: kept.ID, Quantity: 3},
		},
		TotalPrice: 10,
	}

	assert.Equal(t, []uuid.UUID{kept.ID, gone}, order.ProductIDs())

	view := orders.Populate(order, map[uuid.UUID]*catalog.Product{kept.ID: kept})
	require.Len(t, view.Products, 3)
	assert.Equal(t, "Hammer", view.Products[0].Product.Name)
	assert.Nil(t, view.Products[1].Product)
	assert.Equal(t, 2, view.Products[1].Quantity)
	assert.Equal(t, order.TotalPrice, view.TotalPrice)
}
