package services_test

import (
	"context"
	"testing"

	"doner/internal/models"
	"doner/internal/repositories"
	"doner/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogService_ListCategories(t *testing.T) {
	catalog := repositories.NewMockCatalogRepository()
	svc := services.NewCatalogService(catalog)

	categories, err := svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, services.DefaultCategories, categories)

	require.NoError(t, catalog.Create(context.Background(), &models.CatalogItem{Name: "Ayran", Category: "Drinks"}))
	require.NoError(t, catalog.Create(context.Background(), &models.CatalogItem{Name: "Cola", Category: "Drinks"}))
	require.NoError(t, catalog.Create(context.Background(), &models.CatalogItem{Name: "Kebab", Category: "Classic"}))

	categories, err = svc.ListCategories(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Classic", "Drinks"}, categories)

	items, err := svc.ListItems(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 3)
}

func TestOrderService_ListAndGet(t *testing.T) {
	const adminID = 1001
	f := newReconciliationFixture(t)
	svc := services.NewOrderService(f.orders, adminID)

	var ids []uint
	for _, user := range []int64{42, 42, 7} {
		c := confirmation(f.checkout(t, user))
		c.PayerID = user
		ack, err := f.confirm.ConfirmPayment(context.Background(), c)
		require.NoError(t, err)
		ids = append(ids, ack.OrderID)
	}

	mine, err := svc.ListOrders(context.Background(), 42, 0)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	mine, err = svc.ListOrders(context.Background(), 42, 42)
	require.NoError(t, err)
	assert.Len(t, mine, 2)

	_, err = svc.ListOrders(context.Background(), 42, 7)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	_, err = svc.ListOrders(context.Background(), 0, 0)
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	all, err := svc.ListOrders(context.Background(), adminID, 0)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	theirs, err := svc.ListOrders(context.Background(), adminID, 7)
	require.NoError(t, err)
	assert.Len(t, theirs, 1)

	order, err := svc.GetOrder(context.Background(), 7, ids[2])
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.UserID)

	_, err = svc.GetOrder(context.Background(), 42, ids[2])
	assert.ErrorIs(t, err, services.ErrOrderNotFound)

	order, err = svc.GetOrder(context.Background(), adminID, ids[2])
	require.NoError(t, err)
	assert.Equal(t, int64(7), order.UserID)

	_, err = svc.GetOrder(context.Background(), 42, 9999)
	assert.ErrorIs(t, err, services.ErrOrderNotFound)
}

func TestOrderService_NoAdminConfigured(t *testing.T) {
	svc := services.NewOrderService(repositories.NewMockOrderRepository(), 0)

	orders, err := svc.ListOrders(context.Background(), 42, 0)
	require.NoError(t, err)
	assert.Empty(t, orders)

	_, err = svc.ListOrders(context.Background(), 42, 7)
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}
