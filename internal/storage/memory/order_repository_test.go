package memory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/storage/memory"
)

func newOrder() domain.Order {
	now := time.Now().UTC()
	return domain.Order{
		TabID:  7,
		Status: domain.OrderStatusInPreparation,
		Lines: []domain.OrderLine{
			{
				MenuItemID: 1,
				Name:       "Pizza Calabresa",
				Quantity:   1,
				UnitPrice:  decimal.RequireFromString("35.00"),
				Subtotal:   decimal.RequireFromString("35.00"),
				CreatedAt:  now,
			},
		},
		Total:     decimal.RequireFromString("35.00"),
		Version:   0,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestOrderRepository_CreateGet(t *testing.T) {
	repo := memory.NewOrderRepository()

	created, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID == 0 {
		t.Fatal("expected pedido to receive an id")
	}
	if created.Lines[0].ID == 0 {
		t.Fatal("expected pedido item to receive an id")
	}

	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if stored.ID != created.ID {
		t.Fatalf("expected id %d, got %d", created.ID, stored.ID)
	}
	if stored.Lines[0].OrderID != created.ID {
		t.Fatalf("expected line to reference pedido %d, got %d", created.ID, stored.Lines[0].OrderID)
	}
}

func TestOrderRepository_GetByLine(t *testing.T) {
	repo := memory.NewOrderRepository()
	created, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	owner, err := repo.GetByLine(created.Lines[0].ID)
	if err != nil {
		t.Fatalf("get by line failed: %v", err)
	}
	if owner.ID != created.ID {
		t.Fatalf("expected owner %d, got %d", created.ID, owner.ID)
	}

	if _, err := repo.GetByLine(999); err != domain.ErrLineNotFound {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}
}

func TestOrderRepository_ListByTab(t *testing.T) {
	repo := memory.NewOrderRepository()
	created, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	orders, err := repo.ListByTab(created.TabID, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 1 {
		t.Fatalf("expected 1 pedido, got %d", len(orders))
	}

	orders, err = repo.ListByTab(999, 10)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(orders) != 0 {
		t.Fatalf("expected empty list for unknown comanda, got %d", len(orders))
	}
}

func TestOrderRepository_Save(t *testing.T) {
	repo := memory.NewOrderRepository()
	created, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	stored, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}

	line, err := domain.NewOrderLine(domain.MenuItem{
		ID:    2,
		Name:  "Refrigerante",
		Price: decimal.RequireFromString("8.50"),
	}, 2)
	if err != nil {
		t.Fatalf("new line failed: %v", err)
	}
	if err := stored.AddLine(&line); err != nil {
		t.Fatalf("add line failed: %v", err)
	}
	if err := repo.Save(stored); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	updated, err := repo.Get(created.ID)
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if len(updated.Lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(updated.Lines))
	}
	if updated.Lines[1].ID == 0 {
		t.Fatal("expected new line to receive an id")
	}
	if got := domain.MoneyString(updated.Total); got != "52.00" {
		t.Fatalf("expected total 52.00, got %s", got)
	}
	if updated.Version != stored.Version+1 {
		t.Fatalf("expected version increment, got %d", updated.Version)
	}
}

func TestOrderRepository_ListLines(t *testing.T) {
	repo := memory.NewOrderRepository()
	first, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	second, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	lines, err := repo.ListLines()
	if err != nil {
		t.Fatalf("list lines failed: %v", err)
	}
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %d", len(lines))
	}
	if lines[0].ID >= lines[1].ID {
		t.Fatalf("expected lines sorted by id, got %d then %d", lines[0].ID, lines[1].ID)
	}
	if lines[0].OrderID != first.ID || lines[1].OrderID != second.ID {
		t.Fatalf("unexpected line owners: %d, %d", lines[0].OrderID, lines[1].OrderID)
	}
}

func TestOrderRepository_SaveVersionConflict(t *testing.T) {
	repo := memory.NewOrderRepository()
	created, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	created.Version = 42
	if err := repo.Save(created); err != domain.ErrOrderVersionConflict {
		t.Fatalf("expected version conflict error, got %v", err)
	}
}

func TestOrderRepository_Delete(t *testing.T) {
	repo := memory.NewOrderRepository()
	created, err := repo.Create(newOrder())
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	lineID := created.Lines[0].ID

	if err := repo.Delete(created.ID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if _, err := repo.Get(created.ID); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
	// Позиции удаляются вместе с заказом.
	if _, err := repo.GetByLine(lineID); err != domain.ErrLineNotFound {
		t.Fatalf("expected ErrLineNotFound, got %v", err)
	}

	if err := repo.Delete(created.ID); err != domain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound on double delete, got %v", err)
	}
}
