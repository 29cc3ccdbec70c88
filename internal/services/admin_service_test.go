package services_test

import (
	"context"
	"testing"

	"doner/internal/repositories"
	"doner/internal/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const adminID int64 = 1001

func newAdminService() (*services.AdminService, *repositories.MockCatalogRepository) {
	catalog := repositories.NewMockCatalogRepository()
	return services.NewAdminService(catalog, adminID), catalog
}

func TestAdminService_AddItem(t *testing.T) {
	svc, catalog := newAdminService()

	item, err := svc.AddItem(context.Background(), adminID, services.AddItemCommand{
		Name:        "Shawarma",
		Price:       "9.50",
		Category:    "Classic",
		Emoji:       "🌯",
		Description: "Lamb, garlic sauce",
	})
	require.NoError(t, err)
	assert.NotZero(t, item.ID)
	assert.Equal(t, "9.50", item.Price.StringFixed(2))

	stored, err := catalog.GetByName(context.Background(), "Shawarma")
	require.NoError(t, err)
	assert.Equal(t, "Lamb, garlic sauce", stored.Description)
}

func TestAdminService_AddItemRejections(t *testing.T) {
	valid := services.AddItemCommand{Name: "Falafel", Price: "7.00", Category: "Vegan", Emoji: "🥙"}

	tests := []struct {
		name   string
		caller int64
		mutate func(*services.AddItemCommand)
		want   error
	}{
		{name: "not admin", caller: 7, mutate: func(*services.AddItemCommand) {}, want: services.ErrUnauthorized},
		{name: "blank name", caller: adminID, mutate: func(c *services.AddItemCommand) { c.Name = "   " }, want: services.ErrInvalidName},
		{name: "not a number", caller: adminID, mutate: func(c *services.AddItemCommand) { c.Price = "cheap" }, want: services.ErrInvalidPrice},
		{name: "negative price", caller: adminID, mutate: func(c *services.AddItemCommand) { c.Price = "-1" }, want: services.ErrInvalidPrice},
		{name: "sub-cent price", caller: adminID, mutate: func(c *services.AddItemCommand) { c.Price = "1.001" }, want: services.ErrInvalidPrice},
		{name: "missing price", caller: adminID, mutate: func(c *services.AddItemCommand) { c.Price = "" }, want: services.ErrInvalidPrice},
		{name: "missing category", caller: adminID, mutate: func(c *services.AddItemCommand) { c.Category = "" }, want: services.ErrInvalidCommand},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, catalog := newAdminService()
			cmd := valid
			tt.mutate(&cmd)

			_, err := svc.AddItem(context.Background(), tt.caller, cmd)
			assert.ErrorIs(t, err, tt.want)

			items, err := catalog.GetAll(context.Background())
			require.NoError(t, err)
			assert.Empty(t, items)
		})
	}
}

func TestAdminService_AddItemDuplicateName(t *testing.T) {
	svc, catalog := newAdminService()
	cmd := services.AddItemCommand{Name: "Ayran", Price: "2.00", Category: "Drinks"}

	_, err := svc.AddItem(context.Background(), adminID, cmd)
	require.NoError(t, err)

	_, err = svc.AddItem(context.Background(), adminID, cmd)
	assert.ErrorIs(t, err, services.ErrDuplicateName)

	items, err := catalog.GetAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestAdminService_DisabledWithoutAdmin(t *testing.T) {
	svc := services.NewAdminService(repositories.NewMockCatalogRepository(), 0)

	_, err := svc.AddItem(context.Background(), 0, services.AddItemCommand{Name: "X", Price: "1", Category: "Y"})
	assert.ErrorIs(t, err, services.ErrUnauthorized)
}

func TestAdminService_DeleteItem(t *testing.T) {
	svc, catalog := newAdminService()
	addItem(t, catalog, "Cheese Bomb", "14.00")

	err := svc.DeleteItem(context.Background(), 7, services.DeleteItemCommand{Name: "Cheese Bomb"})
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	require.NoError(t, svc.DeleteItem(context.Background(), adminID, services.DeleteItemCommand{Name: "Cheese Bomb"}))

	err = svc.DeleteItem(context.Background(), adminID, services.DeleteItemCommand{Name: "Cheese Bomb"})
	assert.ErrorIs(t, err, services.ErrItemNotFound)
}

func TestParseCommand(t *testing.T) {
	cmd, err := services.ParseCommand("/add Kebab 15.99 Classic 🌯 Chicken, cucumber and sauce")
	require.NoError(t, err)
	assert.Equal(t, &services.AddItemCommand{
		Name:        "Kebab",
		Price:       "15.99",
		Category:    "Classic",
		Emoji:       "🌯",
		Description: "Chicken, cucumber and sauce",
	}, cmd)

	cmd, err = services.ParseCommand("/del@MamaDonerBot Spicy Dragon")
	require.NoError(t, err)
	assert.Equal(t, &services.DeleteItemCommand{Name: "Spicy Dragon"}, cmd)

	for _, text := range []string{"", "/add Kebab 15.99", "/del", "/start"} {
		_, err := services.ParseCommand(text)
		assert.ErrorIs(t, err, services.ErrInvalidCommand, text)
	}
}

func TestAdminService_Execute(t *testing.T) {
	svc, catalog := newAdminService()

	reply, err := svc.Execute(context.Background(), adminID, "/add Kebab 15.99 Classic 🌯 House sauce")
	require.NoError(t, err)
	assert.Equal(t, "Menu item 'Kebab' added successfully.", reply)

	_, err = svc.Execute(context.Background(), adminID, "/add Kebab 1.00 Classic 🌯 Again")
	assert.ErrorIs(t, err, services.ErrDuplicateName)

	reply, err = svc.Execute(context.Background(), adminID, "/del Kebab")
	require.NoError(t, err)
	assert.Equal(t, "Menu item 'Kebab' deleted successfully.", reply)

	_, err = svc.Execute(context.Background(), 7, "/del Kebab")
	assert.ErrorIs(t, err, services.ErrUnauthorized)

	items, err := catalog.GetAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
}
