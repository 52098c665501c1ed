package order

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
	"github.com/vladislavdragonenkov/pedix/internal/messaging/kafka"
	"github.com/vladislavdragonenkov/pedix/internal/metrics"
)

const (
	defaultListLimit = 100

	timelineEventPedidoCreated       = "PedidoCreated"
	timelineEventPedidoStatusChanged = "PedidoStatusChanged"
	timelineEventPedidoDeleted       = "PedidoDeleted"
	timelineEventPedidoItemAdded     = "PedidoItemAdded"
	timelineEventPedidoItemUpdated   = "PedidoItemUpdated"
	timelineEventPedidoItemRemoved   = "PedidoItemRemoved"
)

// LineRequest описывает позицию создаваемого педидо.
type LineRequest struct {
	MenuItemID int64
	Quantity   int32
}

// Service реализует операции над педидо поверх доменных репозиториев.
// Мутации проходят цикл load -> mutate -> save -> reload, чтобы ответ
// всегда отражал сохранённое состояние.
type Service struct {
	orders    domain.OrderRepository
	menu      domain.MenuCatalog
	timeline  domain.TimelineRepository
	outbox    domain.OutboxRepository
	lifecycle *domain.Lifecycle
	metrics   *metrics.OrderMetrics
	logger    *log.Entry
}

// NewService конструирует сервис педидо с зависимостями.
// timeline, outbox и metrics опциональны: nil отключает соответствующий слой.
func NewService(
	orders domain.OrderRepository,
	menu domain.MenuCatalog,
	timeline domain.TimelineRepository,
	outbox domain.OutboxRepository,
	lifecycle *domain.Lifecycle,
	orderMetrics *metrics.OrderMetrics,
	logger *log.Entry,
) *Service {
	if lifecycle == nil {
		lifecycle = domain.DefaultLifecycle()
	}
	if logger == nil {
		logger = log.New().WithField("component", "pedido-service")
	}
	return &Service{
		orders:    orders,
		menu:      menu,
		timeline:  timeline,
		outbox:    outbox,
		lifecycle: lifecycle,
		metrics:   orderMetrics,
		logger:    logger,
	}
}

// Create создаёт педидо для комманды, снимая цены позиций каталога.
func (s *Service) Create(tabID int64, note string, lines []LineRequest) (domain.Order, error) {
	if tabID == 0 {
		return domain.Order{}, domain.ErrTabRequired
	}
	if len(lines) == 0 {
		return domain.Order{}, domain.ErrLinesRequired
	}

	now := time.Now().UTC()
	order := domain.Order{
		TabID:     tabID,
		Status:    domain.OrderStatusInPreparation,
		Note:      note,
		Total:     decimal.Zero,
		CreatedAt: now,
		UpdatedAt: now,
	}

	for _, req := range lines {
		item, err := s.menu.Get(req.MenuItemID)
		if err != nil {
			return domain.Order{}, err
		}
		if !item.Available {
			return domain.Order{}, domain.ErrItemUnavailable
		}
		line, err := domain.NewOrderLine(item, req.Quantity)
		if err != nil {
			return domain.Order{}, err
		}
		if err := order.AddLine(&line); err != nil {
			return domain.Order{}, err
		}
	}

	if errs := order.ValidateInvariants(); len(errs) > 0 {
		return domain.Order{}, errs[0]
	}

	created, err := s.orders.Create(order)
	if err != nil {
		s.logger.WithError(err).Error("failed to create pedido")
		return domain.Order{}, err
	}

	s.appendTimeline(created.ID, timelineEventPedidoCreated, string(created.Status))
	s.enqueueEvent(kafka.EventTypePedidoCreated, created, nil)
	if s.metrics != nil {
		s.metrics.RecordPedidoCreated()
	}

	return created, nil
}

// Get возвращает педидо по идентификатору.
func (s *Service) Get(id int64) (domain.Order, error) {
	return s.orders.Get(id)
}

// ListByTab возвращает педидо комманды, ограничивая выборку limit (если >0).
func (s *Service) ListByTab(tabID int64, limit int) ([]domain.Order, error) {
	if limit <= 0 {
		limit = defaultListLimit
	}
	return s.orders.ListByTab(tabID, limit)
}

// Timeline возвращает события жизненного цикла педидо.
func (s *Service) Timeline(orderID int64) ([]domain.TimelineEvent, error) {
	if s.timeline == nil {
		return nil, nil
	}
	if _, err := s.orders.Get(orderID); err != nil {
		return nil, err
	}
	return s.timeline.List(orderID)
}

// UpdateStatus применяет смену статуса через таблицу переходов.
func (s *Service) UpdateStatus(id int64, status domain.OrderStatus) (domain.Order, error) {
	order, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}

	previous := order.Status
	if err := s.lifecycle.Apply(&order, status); err != nil {
		return domain.Order{}, err
	}
	if previous == order.Status {
		// No-op переход не трогает хранилище.
		return order, nil
	}

	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithField("pedido_id", id).Error("failed to save pedido status")
		return domain.Order{}, err
	}

	updated, err := s.orders.Get(id)
	if err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(id, timelineEventPedidoStatusChanged, string(updated.Status))
	s.enqueueEvent(kafka.EventTypePedidoStatusChanged, updated, map[string]interface{}{
		"previous_status": string(previous),
	})
	if s.metrics != nil {
		s.metrics.RecordStatusChange(string(updated.Status))
	}

	return updated, nil
}

// Delete удаляет педидо вместе с позициями.
func (s *Service) Delete(id int64) error {
	order, err := s.orders.Get(id)
	if err != nil {
		return err
	}

	if err := s.orders.Delete(id); err != nil {
		s.logger.WithError(err).WithField("pedido_id", id).Error("failed to delete pedido")
		return err
	}

	s.appendTimeline(id, timelineEventPedidoDeleted, "")
	s.enqueueEvent(kafka.EventTypePedidoDeleted, order, nil)
	if s.metrics != nil {
		s.metrics.RecordPedidoDeleted()
	}

	return nil
}

// AddLine добавляет позицию в существующий педидо. Если unitPrice задан,
// он переопределяет цену каталога, иначе снимается текущая цена позиции.
func (s *Service) AddLine(orderID, menuItemID int64, quantity int32, unitPrice *decimal.Decimal) (domain.Order, error) {
	order, err := s.orders.Get(orderID)
	if err != nil {
		return domain.Order{}, err
	}

	item, err := s.menu.Get(menuItemID)
	if err != nil {
		return domain.Order{}, err
	}
	if !item.Available {
		return domain.Order{}, domain.ErrItemUnavailable
	}

	line, err := domain.NewOrderLine(item, quantity)
	if err != nil {
		return domain.Order{}, err
	}
	if unitPrice != nil {
		if err := line.SetUnitPrice(*unitPrice); err != nil {
			return domain.Order{}, err
		}
	}
	if err := order.AddLine(&line); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.saveAndReload(order, "AddLine")
	if err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(orderID, timelineEventPedidoItemAdded, item.Name)
	s.enqueueEvent(kafka.EventTypePedidoItemAdded, updated, map[string]interface{}{
		"item_cardapio_id": menuItemID,
	})
	if s.metrics != nil {
		s.metrics.RecordItemMutation("add")
	}

	return updated, nil
}

// UpdateLine меняет количество и/или цену позиции по её идентификатору.
// nil-параметр оставляет соответствующее поле без изменений.
func (s *Service) UpdateLine(lineID int64, quantity *int32, unitPrice *decimal.Decimal) (domain.Order, error) {
	order, err := s.orders.GetByLine(lineID)
	if err != nil {
		return domain.Order{}, err
	}

	line, ok := order.Line(lineID)
	if !ok {
		return domain.Order{}, domain.ErrLineNotFound
	}

	if quantity != nil {
		if err := line.SetQuantity(*quantity); err != nil {
			return domain.Order{}, err
		}
	}
	if unitPrice != nil {
		if err := line.SetUnitPrice(*unitPrice); err != nil {
			return domain.Order{}, err
		}
	}
	order.RecalculateTotal()

	updated, err := s.saveAndReload(order, "UpdateLine")
	if err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(order.ID, timelineEventPedidoItemUpdated, strconv.FormatInt(lineID, 10))
	s.enqueueEvent(kafka.EventTypePedidoItemUpdated, updated, map[string]interface{}{
		"item_id": lineID,
	})
	if s.metrics != nil {
		s.metrics.RecordItemMutation("update")
	}

	return updated, nil
}

// RemoveLine удаляет позицию педидо и пересчитывает итог владельца.
// Удаление последней позиции допустимо: итог становится 0.00.
func (s *Service) RemoveLine(lineID int64) (domain.Order, error) {
	order, err := s.orders.GetByLine(lineID)
	if err != nil {
		return domain.Order{}, err
	}

	if err := order.RemoveLine(lineID); err != nil {
		return domain.Order{}, err
	}

	updated, err := s.saveAndReload(order, "RemoveLine")
	if err != nil {
		return domain.Order{}, err
	}

	s.appendTimeline(order.ID, timelineEventPedidoItemRemoved, strconv.FormatInt(lineID, 10))
	s.enqueueEvent(kafka.EventTypePedidoItemRemoved, updated, map[string]interface{}{
		"item_id": lineID,
	})
	if s.metrics != nil {
		s.metrics.RecordItemMutation("remove")
	}

	return updated, nil
}

// ListLines возвращает позиции всех педидо, отсортированные по идентификатору.
func (s *Service) ListLines() ([]domain.OrderLine, error) {
	return s.orders.ListLines()
}

// GetLine возвращает позицию педидо вместе с владеющим заказом.
func (s *Service) GetLine(lineID int64) (domain.OrderLine, error) {
	order, err := s.orders.GetByLine(lineID)
	if err != nil {
		return domain.OrderLine{}, err
	}
	line, ok := order.Line(lineID)
	if !ok {
		return domain.OrderLine{}, domain.ErrLineNotFound
	}
	return *line, nil
}

func (s *Service) saveAndReload(order domain.Order, operation string) (domain.Order, error) {
	order.UpdatedAt = time.Now().UTC()
	if err := s.orders.Save(order); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"operation": operation,
			"pedido_id": order.ID,
		}).Error("failed to save pedido")
		return domain.Order{}, err
	}
	return s.orders.Get(order.ID)
}

func (s *Service) appendTimeline(orderID int64, eventType, reason string) {
	if s.timeline == nil {
		return
	}
	event := domain.TimelineEvent{
		OrderID:  orderID,
		Type:     eventType,
		Reason:   reason,
		Occurred: time.Now().UTC(),
	}
	if err := s.timeline.Append(event); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"pedido_id": orderID,
			"event":     eventType,
		}).Warn("failed to append timeline event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordTimelineEvent()
	}
}

// enqueueEvent кладёт событие в transactional outbox. Ошибка не прерывает
// операцию: педидо уже сохранён, событие можно восстановить из timeline.
func (s *Service) enqueueEvent(eventType kafka.EventType, order domain.Order, metadata map[string]interface{}) {
	if s.outbox == nil {
		return
	}

	event := kafka.NewPedidoEvent(
		eventType,
		order.ID,
		order.TabID,
		string(order.Status),
		domain.MoneyString(order.Total),
		metadata,
	)
	payload, err := json.Marshal(event)
	if err != nil {
		s.logger.WithError(err).WithField("pedido_id", order.ID).Warn("failed to marshal pedido event")
		return
	}

	if _, err := s.outbox.Enqueue(domain.OutboxMessage{
		AggregateType: "pedido",
		AggregateID:   strconv.FormatInt(order.ID, 10),
		EventType:     string(eventType),
		Payload:       payload,
	}); err != nil {
		s.logger.WithError(err).WithFields(log.Fields{
			"pedido_id": order.ID,
			"event":     eventType,
		}).Warn("failed to enqueue outbox event")
		return
	}
	if s.metrics != nil {
		s.metrics.RecordOutboxEvent()
	}
}
