package kafka

import (
	"fmt"
	"time"
)

// EventType определяет тип события
type EventType string

const (
	// Pedido события
	EventTypePedidoCreated       EventType = "pedido.created"
	EventTypePedidoStatusChanged EventType = "pedido.status_changed"
	EventTypePedidoDeleted       EventType = "pedido.deleted"

	// События позиций педидо
	EventTypePedidoItemAdded   EventType = "pedido.item_added"
	EventTypePedidoItemUpdated EventType = "pedido.item_updated"
	EventTypePedidoItemRemoved EventType = "pedido.item_removed"
)

// Topics для Kafka
const (
	TopicPedidoEvents    = "pedix.pedido.events"
	TopicDeadLetterQueue = "pedix.dlq" // Dead Letter Queue для failed messages
)

// Kafka headers для retry логики
const (
	HeaderRetryCount    = "x-retry-count"
	HeaderOriginalTopic = "x-original-topic"
	HeaderErrorMessage  = "x-error-message"
	HeaderFailedAt      = "x-failed-at"
)

// Known возвращает true для типов событий, которые публикует этот сервис.
func (t EventType) Known() bool {
	switch t {
	case EventTypePedidoCreated,
		EventTypePedidoStatusChanged,
		EventTypePedidoDeleted,
		EventTypePedidoItemAdded,
		EventTypePedidoItemUpdated,
		EventTypePedidoItemRemoved:
		return true
	}
	return false
}

// PedidoEvent представляет событие педидо
type PedidoEvent struct {
	EventType EventType              `json:"event_type"`
	PedidoID  int64                  `json:"pedido_id"`
	ComandaID int64                  `json:"comanda_id"`
	Status    string                 `json:"status"`
	Total     string                 `json:"total"`
	Timestamp time.Time              `json:"timestamp"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// NewPedidoEvent создает новое событие педидо
func NewPedidoEvent(eventType EventType, pedidoID, comandaID int64, status, total string, metadata map[string]interface{}) *PedidoEvent {
	return &PedidoEvent{
		EventType: eventType,
		PedidoID:  pedidoID,
		ComandaID: comandaID,
		Status:    status,
		Total:     total,
		Timestamp: time.Now(),
		Metadata:  metadata,
	}
}

// Validate проверяет, что событие можно публиковать и реплеить:
// тип известен, педидо идентифицирован.
func (e *PedidoEvent) Validate() error {
	if !e.EventType.Known() {
		return fmt.Errorf("unknown event type %q", e.EventType)
	}
	if e.PedidoID <= 0 {
		return fmt.Errorf("event %s has no pedido id", e.EventType)
	}
	return nil
}
