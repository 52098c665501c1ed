package domain

// OrderStatus описывает жизненный цикл педидо.
type OrderStatus string

const (
	// OrderStatusInPreparation — педидо создан и готовится на кухне (начальный статус).
	OrderStatusInPreparation OrderStatus = "EM_PREPARO"
	// OrderStatusReady — педидо готов к выдаче.
	OrderStatusReady OrderStatus = "PRONTO"
	// OrderStatusDelivered — педидо доставлен к комманде (терминальный статус).
	OrderStatusDelivered OrderStatus = "ENTREGUE"
	// OrderStatusCanceled — педидо отменён (терминальный статус).
	OrderStatusCanceled OrderStatus = "CANCELADO"
)

// Valid проверяет, что статус относится к поддерживаемым значениям.
func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusInPreparation, OrderStatusReady, OrderStatusDelivered, OrderStatusCanceled:
		return true
	default:
		return false
	}
}

// Terminal сообщает, является ли статус конечным: из терминального
// статуса дальнейшие переходы запрещены.
func (s OrderStatus) Terminal() bool {
	return s == OrderStatusDelivered || s == OrderStatusCanceled
}

// Lifecycle задаёт таблицу допустимых переходов между статусами.
// Таблица передаётся как конфигурация: вызывающий код не знает,
// работает он с разрешительной или строгой схемой.
type Lifecycle struct {
	transitions map[OrderStatus][]OrderStatus
}

// NewLifecycle создаёт lifecycle с произвольной таблицей переходов.
func NewLifecycle(transitions map[OrderStatus][]OrderStatus) *Lifecycle {
	copied := make(map[OrderStatus][]OrderStatus, len(transitions))
	for from, targets := range transitions {
		copied[from] = append([]OrderStatus(nil), targets...)
	}
	return &Lifecycle{transitions: copied}
}

// DefaultLifecycle воспроизводит поведение исходной системы: любой статус
// можно сменить на любой другой, но терминальные статусы (ENTREGUE,
// CANCELADO) закрыты для дальнейших переходов.
func DefaultLifecycle() *Lifecycle {
	open := []OrderStatus{OrderStatusInPreparation, OrderStatusReady, OrderStatusDelivered, OrderStatusCanceled}
	return NewLifecycle(map[OrderStatus][]OrderStatus{
		OrderStatusInPreparation: open,
		OrderStatusReady:         open,
		OrderStatusDelivered:     nil,
		OrderStatusCanceled:      nil,
	})
}

// StrictLifecycle задаёт валидируемый граф:
// EM_PREPARO -> PRONTO -> ENTREGUE, отмена возможна до выдачи.
func StrictLifecycle() *Lifecycle {
	return NewLifecycle(map[OrderStatus][]OrderStatus{
		OrderStatusInPreparation: {OrderStatusReady, OrderStatusCanceled},
		OrderStatusReady:         {OrderStatusDelivered, OrderStatusCanceled},
		OrderStatusDelivered:     nil,
		OrderStatusCanceled:      nil,
	})
}

// CanTransition сообщает, допускает ли таблица переход from -> to.
// Переход в текущий статус считается no-op и всегда разрешён.
func (l *Lifecycle) CanTransition(from, to OrderStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if from == to {
		return true
	}
	for _, target := range l.transitions[from] {
		if target == to {
			return true
		}
	}
	return false
}

// Apply валидирует и применяет смену статуса к педидо.
func (l *Lifecycle) Apply(order *Order, to OrderStatus) error {
	if !to.Valid() {
		return ErrInvalidStatus
	}
	if !l.CanTransition(order.Status, to) {
		return ErrInvalidTransition
	}
	order.Status = to
	return nil
}
