package catalog_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/service/catalog"
	"github.com/vladislavdragonenkov/pedix/internal/storage/memory"
)

func newCatalogService() *catalog.Service {
	return catalog.NewService(memory.NewMenuRepository(), nil)
}

func sampleItem() domain.MenuItem {
	return domain.MenuItem{
		Name:        "Pizza Calabresa",
		Description: "Mussarela, calabresa e cebola",
		Price:       decimal.RequireFromString("35.00"),
		Category:    domain.MenuCategoryDish,
		Available:   true,
	}
}

func TestCatalogService_CreateAndGet(t *testing.T) {
	svc := newCatalogService()

	created, err := svc.Create(sampleItem())
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	got, err := svc.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "Pizza Calabresa", got.Name)
	require.Equal(t, "35.00", domain.MoneyString(got.Price))
	require.True(t, got.Available)

	_, err = svc.Get(404)
	require.ErrorIs(t, err, domain.ErrMenuItemNotFound)
}

func TestCatalogService_Create_Validation(t *testing.T) {
	svc := newCatalogService()

	tests := []struct {
		name    string
		mutate  func(*domain.MenuItem)
		wantErr error
	}{
		{
			name:    "empty name",
			mutate:  func(m *domain.MenuItem) { m.Name = "" },
			wantErr: domain.ErrMenuItemNameRequired,
		},
		{
			name:    "zero price",
			mutate:  func(m *domain.MenuItem) { m.Price = decimal.Zero },
			wantErr: domain.ErrMenuItemPriceInvalid,
		},
		{
			name:    "negative price",
			mutate:  func(m *domain.MenuItem) { m.Price = decimal.RequireFromString("-1.00") },
			wantErr: domain.ErrMenuItemPriceInvalid,
		},
		{
			name:    "unknown category",
			mutate:  func(m *domain.MenuItem) { m.Category = domain.MenuCategory("LANCHE") },
			wantErr: domain.ErrMenuItemCategoryInvalid,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := sampleItem()
			tt.mutate(&item)
			_, err := svc.Create(item)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestCatalogService_Listing(t *testing.T) {
	svc := newCatalogService()

	pizza, err := svc.Create(sampleItem())
	require.NoError(t, err)

	soda := sampleItem()
	soda.Name = "Refrigerante"
	soda.Price = decimal.RequireFromString("8.50")
	soda.Category = domain.MenuCategoryBeverage
	_, err = svc.Create(soda)
	require.NoError(t, err)

	hidden := sampleItem()
	hidden.Name = "Pudim"
	hidden.Category = domain.MenuCategoryDessert
	hidden.Available = false
	_, err = svc.Create(hidden)
	require.NoError(t, err)

	available, err := svc.ListAvailable()
	require.NoError(t, err)
	require.Len(t, available, 2)
	for _, item := range available {
		require.True(t, item.Available)
	}

	dishes, err := svc.ListByCategory(domain.MenuCategoryDish)
	require.NoError(t, err)
	require.Len(t, dishes, 1)
	require.Equal(t, pizza.ID, dishes[0].ID)

	// Категорийная выдача показывает только доступные позиции.
	desserts, err := svc.ListByCategory(domain.MenuCategoryDessert)
	require.NoError(t, err)
	require.Empty(t, desserts)

	_, err = svc.ListByCategory(domain.MenuCategory("LANCHE"))
	require.ErrorIs(t, err, domain.ErrMenuItemCategoryInvalid)
}

func TestCatalogService_Update(t *testing.T) {
	svc := newCatalogService()

	created, err := svc.Create(sampleItem())
	require.NoError(t, err)

	created.Name = "Pizza Calabresa Grande"
	created.Price = decimal.RequireFromString("42.00")
	updated, err := svc.Update(created)
	require.NoError(t, err)
	require.Equal(t, "Pizza Calabresa Grande", updated.Name)
	require.Equal(t, "42.00", domain.MoneyString(updated.Price))

	created.Name = ""
	_, err = svc.Update(created)
	require.ErrorIs(t, err, domain.ErrMenuItemNameRequired)

	missing := sampleItem()
	missing.ID = 404
	_, err = svc.Update(missing)
	require.ErrorIs(t, err, domain.ErrMenuItemNotFound)
}

func TestCatalogService_SetAvailability(t *testing.T) {
	svc := newCatalogService()

	created, err := svc.Create(sampleItem())
	require.NoError(t, err)

	updated, err := svc.SetAvailability(created.ID, false)
	require.NoError(t, err)
	require.False(t, updated.Available)

	// Повторное выключение — no-op.
	updated, err = svc.SetAvailability(created.ID, false)
	require.NoError(t, err)
	require.False(t, updated.Available)

	updated, err = svc.SetAvailability(created.ID, true)
	require.NoError(t, err)
	require.True(t, updated.Available)

	_, err = svc.SetAvailability(404, true)
	require.ErrorIs(t, err, domain.ErrMenuItemNotFound)
}

func TestCatalogService_Delete(t *testing.T) {
	svc := newCatalogService()

	created, err := svc.Create(sampleItem())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(created.ID))
	_, err = svc.Get(created.ID)
	require.ErrorIs(t, err, domain.ErrMenuItemNotFound)

	require.ErrorIs(t, svc.Delete(created.ID), domain.ErrMenuItemNotFound)
}
