package domain

import "errors"

var (
	// Ошибка отсутствующего идентификатора команды.
	ErrTabRequired = errors.New("comanda_id is required")
	// Ошибка создания пустого педидо.
	ErrLinesRequired = errors.New("pedido must contain at least one item")
	// Ошибка некорректного количества (< 1).
	ErrInvalidQuantity = errors.New("quantidade must be greater than zero")
	// Ошибка отрицательной цены позиции.
	ErrInvalidPrice = errors.New("preco_unitario must be non-negative")
	// Ошибка при попытке добавить отсутствующую позицию.
	ErrNilLine = errors.New("pedido item is required")
	// Ошибка несоответствия итога и суммы позиций.
	ErrTotalMismatch = errors.New("pedido total does not match items sum")
	// Ошибка неизвестного статуса педидо.
	ErrInvalidStatus = errors.New("unknown pedido status")
	// ErrInvalidTransition — смена статуса запрещена таблицей переходов.
	ErrInvalidTransition = errors.New("status transition is not allowed")
	// ErrItemUnavailable — позиция каталога существует, но недоступна для заказа.
	ErrItemUnavailable = errors.New("item cardapio is unavailable")

	// ErrOrderNotFound возвращается, если педидо не найден в репозитории.
	ErrOrderNotFound = errors.New("pedido not found")
	// ErrLineNotFound возвращается, если позиция педидо не найдена.
	ErrLineNotFound = errors.New("pedido item not found")
	// ErrMenuItemNotFound возвращается, если позиция каталога не найдена.
	ErrMenuItemNotFound = errors.New("item cardapio not found")
	// ErrOrderVersionConflict сигнализирует о конфликте версий при сохранении.
	ErrOrderVersionConflict = errors.New("pedido version conflict")

	// Ошибки валидации позиции каталога.
	ErrMenuItemNameRequired    = errors.New("item cardapio nome is required")
	ErrMenuItemPriceInvalid    = errors.New("item cardapio preco must be positive")
	ErrMenuItemCategoryInvalid = errors.New("unknown item cardapio categoria")

	// ErrOutboxPublish — ошибка при публикации сообщения из outbox.
	ErrOutboxPublish = errors.New("outbox publish failed")

	// Ошибки слоя идемпотентности.
	ErrIdempotencyKeyRequired         = errors.New("idempotency key is required")
	ErrIdempotencyRequestHashRequired = errors.New("idempotency request hash is required")
	ErrIdempotencyKeyAlreadyExists    = errors.New("idempotency key already exists")
	ErrIdempotencyHashMismatch        = errors.New("idempotency key is used with a different request")
	ErrIdempotencyKeyNotFound         = errors.New("idempotency key not found")
)

// IsNotFound проверяет, относится ли ошибка к семейству "не найдено".
func IsNotFound(err error) bool {
	return errors.Is(err, ErrOrderNotFound) ||
		errors.Is(err, ErrLineNotFound) ||
		errors.Is(err, ErrMenuItemNotFound)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrOrderVersionConflict)
}
