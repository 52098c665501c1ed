package order_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/service/order"
	"github.com/vladislavdragonenkov/pedix/internal/storage/memory"
)

type serviceFixture struct {
	service  *order.Service
	orders   domain.OrderRepository
	menu     domain.MenuItemRepository
	timeline domain.TimelineRepository
	outbox   domain.OutboxRepository

	pizza       domain.MenuItem
	soda        domain.MenuItem
	unavailable domain.MenuItem
}

func newServiceFixture(t *testing.T, lifecycle *domain.Lifecycle) *serviceFixture {
	t.Helper()

	orders := memory.NewOrderRepository()
	menu := memory.NewMenuRepository()
	timeline := memory.NewTimelineRepository()
	outbox := memory.NewOutboxRepository()

	pizza, err := menu.Create(domain.MenuItem{
		Name:      "Pizza Calabresa",
		Price:     decimal.RequireFromString("35.00"),
		Category:  domain.MenuCategoryDish,
		Available: true,
	})
	require.NoError(t, err)

	soda, err := menu.Create(domain.MenuItem{
		Name:      "Refrigerante",
		Price:     decimal.RequireFromString("8.50"),
		Category:  domain.MenuCategoryBeverage,
		Available: true,
	})
	require.NoError(t, err)

	unavailable, err := menu.Create(domain.MenuItem{
		Name:      "Pudim",
		Price:     decimal.RequireFromString("12.00"),
		Category:  domain.MenuCategoryDessert,
		Available: false,
	})
	require.NoError(t, err)

	return &serviceFixture{
		service:     order.NewService(orders, menu, timeline, outbox, lifecycle, nil, nil),
		orders:      orders,
		menu:        menu,
		timeline:    timeline,
		outbox:      outbox,
		pizza:       pizza,
		soda:        soda,
		unavailable: unavailable,
	}
}

func (f *serviceFixture) createSampleOrder(t *testing.T) domain.Order {
	t.Helper()

	created, err := f.service.Create(7, "sem cebola", []order.LineRequest{
		{MenuItemID: f.pizza.ID, Quantity: 1},
		{MenuItemID: f.soda.ID, Quantity: 2},
	})
	require.NoError(t, err)
	return created
}

func TestService_Create(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	require.NotZero(t, created.ID)
	require.Equal(t, int64(7), created.TabID)
	require.Equal(t, domain.OrderStatusInPreparation, created.Status)
	require.Equal(t, "sem cebola", created.Note)
	require.Equal(t, "52.00", domain.MoneyString(created.Total))
	require.Len(t, created.Lines, 2)

	// Позиции снимают цену и имя каталога на момент создания.
	require.Equal(t, "Pizza Calabresa", created.Lines[0].Name)
	require.Equal(t, "35.00", domain.MoneyString(created.Lines[0].Subtotal))
	require.Equal(t, "8.50", domain.MoneyString(created.Lines[1].UnitPrice))
	require.Equal(t, "17.00", domain.MoneyString(created.Lines[1].Subtotal))

	events, err := f.timeline.List(created.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	require.Equal(t, "PedidoCreated", events[0].Type)

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	require.Equal(t, "pedido.created", pending[0].EventType)
	require.Equal(t, "pedido", pending[0].AggregateType)
}

func TestService_Create_PriceSnapshotIsStable(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	// Подорожание в каталоге не влияет на уже созданный педидо.
	f.pizza.Price = decimal.RequireFromString("40.00")
	require.NoError(t, f.menu.Update(f.pizza))

	reloaded, err := f.service.Get(created.ID)
	require.NoError(t, err)
	require.Equal(t, "35.00", domain.MoneyString(reloaded.Lines[0].UnitPrice))
	require.Equal(t, "52.00", domain.MoneyString(reloaded.Total))
}

func TestService_Create_Validation(t *testing.T) {
	f := newServiceFixture(t, nil)

	tests := []struct {
		name    string
		tabID   int64
		lines   []order.LineRequest
		wantErr error
	}{
		{
			name:    "missing tab",
			tabID:   0,
			lines:   []order.LineRequest{{MenuItemID: f.pizza.ID, Quantity: 1}},
			wantErr: domain.ErrTabRequired,
		},
		{
			name:    "empty lines",
			tabID:   7,
			lines:   nil,
			wantErr: domain.ErrLinesRequired,
		},
		{
			name:    "unknown menu item",
			tabID:   7,
			lines:   []order.LineRequest{{MenuItemID: 9999, Quantity: 1}},
			wantErr: domain.ErrMenuItemNotFound,
		},
		{
			name:    "unavailable menu item",
			tabID:   7,
			lines:   []order.LineRequest{{MenuItemID: f.unavailable.ID, Quantity: 1}},
			wantErr: domain.ErrItemUnavailable,
		},
		{
			name:    "zero quantity",
			tabID:   7,
			lines:   []order.LineRequest{{MenuItemID: f.pizza.ID, Quantity: 0}},
			wantErr: domain.ErrInvalidQuantity,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.service.Create(tt.tabID, "", tt.lines)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestService_ListByTab(t *testing.T) {
	f := newServiceFixture(t, nil)

	first := f.createSampleOrder(t)
	second, err := f.service.Create(7, "", []order.LineRequest{{MenuItemID: f.soda.ID, Quantity: 1}})
	require.NoError(t, err)
	_, err = f.service.Create(9, "", []order.LineRequest{{MenuItemID: f.pizza.ID, Quantity: 1}})
	require.NoError(t, err)

	listed, err := f.service.ListByTab(7, 0)
	require.NoError(t, err)
	require.Len(t, listed, 2)
	for _, got := range listed {
		require.Equal(t, int64(7), got.TabID)
		require.Contains(t, []int64{first.ID, second.ID}, got.ID)
	}

	empty, err := f.service.ListByTab(404, 0)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestService_UpdateStatus(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	updated, err := f.service.UpdateStatus(created.ID, domain.OrderStatusReady)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusReady, updated.Status)

	events, err := f.timeline.List(created.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)
	require.Equal(t, "PedidoStatusChanged", events[1].Type)
	require.Equal(t, "PRONTO", events[1].Reason)

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Len(t, pending, 2)
	require.Equal(t, "pedido.status_changed", pending[1].EventType)
}

func TestService_UpdateStatus_NoOp(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	// Переход в текущий статус не порождает событий.
	updated, err := f.service.UpdateStatus(created.ID, domain.OrderStatusInPreparation)
	require.NoError(t, err)
	require.Equal(t, domain.OrderStatusInPreparation, updated.Status)

	events, err := f.timeline.List(created.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestService_UpdateStatus_TerminalStatusIsClosed(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	_, err := f.service.UpdateStatus(created.ID, domain.OrderStatusCanceled)
	require.NoError(t, err)

	_, err = f.service.UpdateStatus(created.ID, domain.OrderStatusReady)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestService_UpdateStatus_StrictLifecycle(t *testing.T) {
	f := newServiceFixture(t, domain.StrictLifecycle())

	created := f.createSampleOrder(t)

	// Строгая схема не пускает EM_PREPARO сразу в ENTREGUE.
	_, err := f.service.UpdateStatus(created.ID, domain.OrderStatusDelivered)
	require.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = f.service.UpdateStatus(created.ID, domain.OrderStatusReady)
	require.NoError(t, err)
	_, err = f.service.UpdateStatus(created.ID, domain.OrderStatusDelivered)
	require.NoError(t, err)
}

func TestService_UpdateStatus_Errors(t *testing.T) {
	f := newServiceFixture(t, nil)

	_, err := f.service.UpdateStatus(404, domain.OrderStatusReady)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	created := f.createSampleOrder(t)
	_, err = f.service.UpdateStatus(created.ID, domain.OrderStatus("EM_ROTA"))
	require.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestService_Delete(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)
	lineID := created.Lines[0].ID

	require.NoError(t, f.service.Delete(created.ID))

	_, err := f.service.Get(created.ID)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	// Позиции удаляются вместе с владельцем.
	_, err = f.service.GetLine(lineID)
	require.ErrorIs(t, err, domain.ErrLineNotFound)

	require.ErrorIs(t, f.service.Delete(created.ID), domain.ErrOrderNotFound)
}

func TestService_AddLine(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	updated, err := f.service.AddLine(created.ID, f.soda.ID, 1, nil)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 3)
	require.Equal(t, "60.50", domain.MoneyString(updated.Total))

	pending, err := f.outbox.PullPending(10)
	require.NoError(t, err)
	require.Equal(t, "pedido.item_added", pending[len(pending)-1].EventType)
}

func TestService_AddLine_CustomPrice(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	price := decimal.RequireFromString("30.00")
	updated, err := f.service.AddLine(created.ID, f.pizza.ID, 1, &price)
	require.NoError(t, err)
	require.Equal(t, "82.00", domain.MoneyString(updated.Total))
}

func TestService_AddLine_Errors(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	_, err := f.service.AddLine(404, f.pizza.ID, 1, nil)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)

	_, err = f.service.AddLine(created.ID, 9999, 1, nil)
	require.ErrorIs(t, err, domain.ErrMenuItemNotFound)

	_, err = f.service.AddLine(created.ID, f.unavailable.ID, 1, nil)
	require.ErrorIs(t, err, domain.ErrItemUnavailable)

	_, err = f.service.AddLine(created.ID, f.pizza.ID, -1, nil)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestService_UpdateLine(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)
	pizzaLine := created.Lines[0]

	quantity := int32(4)
	updated, err := f.service.UpdateLine(pizzaLine.ID, &quantity, nil)
	require.NoError(t, err)
	require.Equal(t, "157.00", domain.MoneyString(updated.Total))

	line, ok := updated.Line(pizzaLine.ID)
	require.True(t, ok)
	require.Equal(t, int32(4), line.Quantity)
	require.Equal(t, "140.00", domain.MoneyString(line.Subtotal))

	price := decimal.RequireFromString("10.00")
	updated, err = f.service.UpdateLine(pizzaLine.ID, nil, &price)
	require.NoError(t, err)
	require.Equal(t, "57.00", domain.MoneyString(updated.Total))
}

func TestService_UpdateLine_Errors(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)
	lineID := created.Lines[0].ID

	_, err := f.service.UpdateLine(9999, nil, nil)
	require.ErrorIs(t, err, domain.ErrLineNotFound)

	quantity := int32(0)
	_, err = f.service.UpdateLine(lineID, &quantity, nil)
	require.ErrorIs(t, err, domain.ErrInvalidQuantity)

	price := decimal.RequireFromString("-1.00")
	_, err = f.service.UpdateLine(lineID, nil, &price)
	require.ErrorIs(t, err, domain.ErrInvalidPrice)
}

func TestService_RemoveLine(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	updated, err := f.service.RemoveLine(created.Lines[1].ID)
	require.NoError(t, err)
	require.Len(t, updated.Lines, 1)
	require.Equal(t, "35.00", domain.MoneyString(updated.Total))

	// Удаление последней позиции допустимо: итог обнуляется.
	updated, err = f.service.RemoveLine(updated.Lines[0].ID)
	require.NoError(t, err)
	require.Empty(t, updated.Lines)
	require.Equal(t, "0.00", domain.MoneyString(updated.Total))

	_, err = f.service.RemoveLine(9999)
	require.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestService_GetLine(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)

	line, err := f.service.GetLine(created.Lines[1].ID)
	require.NoError(t, err)
	require.Equal(t, created.ID, line.OrderID)
	require.Equal(t, "Refrigerante", line.Name)
	require.Equal(t, int32(2), line.Quantity)

	_, err = f.service.GetLine(9999)
	require.ErrorIs(t, err, domain.ErrLineNotFound)
}

func TestService_Timeline(t *testing.T) {
	f := newServiceFixture(t, nil)

	created := f.createSampleOrder(t)
	_, err := f.service.UpdateStatus(created.ID, domain.OrderStatusReady)
	require.NoError(t, err)

	events, err := f.service.Timeline(created.ID)
	require.NoError(t, err)
	require.Len(t, events, 2)

	_, err = f.service.Timeline(404)
	require.ErrorIs(t, err, domain.ErrOrderNotFound)
}
