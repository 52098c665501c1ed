package memory_test

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/storage/memory"
)

func newMenuItem(name string, price string, category domain.MenuCategory, available bool) domain.MenuItem {
	return domain.MenuItem{
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Category:  category,
		Available: available,
	}
}

func TestMenuRepository_CreateGet(t *testing.T) {
	repo := memory.NewMenuRepository()

	created, err := repo.Create(newMenuItem("Pizza Calabresa", "35.00", domain.MenuCategoryDish, true))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected item to receive an id")
	}

	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Name != "Pizza Calabresa" {
		t.Fatalf("expected name Pizza Calabresa, got %q", stored.Name)
	}

	if _, err := repo.Get(999); err != domain.ErrMenuItemNotFound {
		t.Fatalf("expected ErrMenuItemNotFound, got %v", err)
	}
}

func TestMenuRepository_ListAvailable(t *testing.T) {
	repo := memory.NewMenuRepository()
	if _, err := repo.Create(newMenuItem("Pizza Calabresa", "35.00", domain.MenuCategoryDish, true)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.Create(newMenuItem("Feijoada", "42.00", domain.MenuCategoryDish, false)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, err := repo.ListAvailable()
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 available item, got %d", len(items))
	}
	if items[0].Name != "Pizza Calabresa" {
		t.Fatalf("expected Pizza Calabresa, got %q", items[0].Name)
	}
}

func TestMenuRepository_ListByCategory(t *testing.T) {
	repo := memory.NewMenuRepository()
	if _, err := repo.Create(newMenuItem("Pizza Calabresa", "35.00", domain.MenuCategoryDish, true)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.Create(newMenuItem("Refrigerante", "8.50", domain.MenuCategoryBeverage, true)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, err := repo.ListByCategory(domain.MenuCategoryBeverage)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 bebida, got %d", len(items))
	}
}

func TestMenuRepository_ListByCategorySkipsUnavailable(t *testing.T) {
	repo := memory.NewMenuRepository()
	if _, err := repo.Create(newMenuItem("Pudim", "12.00", domain.MenuCategoryDessert, false)); err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if _, err := repo.Create(newMenuItem("Sorvete Chocolate", "12.00", domain.MenuCategoryDessert, true)); err != nil {
		t.Fatalf("create failed: %v", err)
	}

	items, err := repo.ListByCategory(domain.MenuCategoryDessert)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 sobremesa, got %d", len(items))
	}
	if items[0].Name != "Sorvete Chocolate" {
		t.Fatalf("expected Sorvete Chocolate, got %q", items[0].Name)
	}
}

func TestMenuRepository_UpdateDelete(t *testing.T) {
	repo := memory.NewMenuRepository()
	created, err := repo.Create(newMenuItem("Sorvete Chocolate", "12.00", domain.MenuCategoryDessert, true))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	created.Available = false
	if err := repo.Update(created); err != nil {
		t.Fatalf("update failed: %v", err)
	}
	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.Available {
		t.Fatal("expected item to be unavailable after update")
	}

	if err := repo.Delete(created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if err := repo.Delete(created.ID); err != domain.ErrMenuItemNotFound {
		t.Fatalf("expected ErrMenuItemNotFound on double delete, got %v", err)
	}
}
