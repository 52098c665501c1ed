package memory

import (
	"sort"
	"sync"
	"time"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

// orderRepositoryInMemory — простая in-memory реализация OrderRepository.
// Идентификаторы педидо и позиций выдаются монотонными счётчиками,
// имитируя BIGSERIAL в postgres.
type orderRepositoryInMemory struct {
	mu         sync.RWMutex
	items      map[int64]domain.Order
	nextOrder  int64
	nextLine   int64
	lineOwners map[int64]int64
}

// NewOrderRepository возвращает in-memory репозиторий для локальной разработки и тестов.
func NewOrderRepository() domain.OrderRepository {
	return &orderRepositoryInMemory{
		items:      make(map[int64]domain.Order),
		lineOwners: make(map[int64]int64),
	}
}

// Create сохраняет новый педидо, присваивая идентификаторы ему и его позициям.
func (r *orderRepositoryInMemory) Create(order domain.Order) (domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextOrder++
	order.ID = r.nextOrder
	now := time.Now().UTC()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	order.UpdatedAt = now

	// Копируем срез позиций, чтобы избежать непредсказуемых мутаций извне.
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	for i := range lines {
		r.nextLine++
		lines[i].ID = r.nextLine
		lines[i].OrderID = order.ID
		if lines[i].CreatedAt.IsZero() {
			lines[i].CreatedAt = now
		}
		r.lineOwners[lines[i].ID] = order.ID
	}
	order.Lines = lines

	r.items[order.ID] = order
	return cloneOrder(order), nil
}

// Get возвращает педидо или ErrOrderNotFound, если его нет.
func (r *orderRepositoryInMemory) Get(id int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	order, ok := r.items[id]
	if !ok {
		return domain.Order{}, domain.ErrOrderNotFound
	}
	return cloneOrder(order), nil
}

// GetByLine возвращает педидо, владеющий позицией, или ErrLineNotFound.
func (r *orderRepositoryInMemory) GetByLine(lineID int64) (domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	orderID, ok := r.lineOwners[lineID]
	if !ok {
		return domain.Order{}, domain.ErrLineNotFound
	}
	order, ok := r.items[orderID]
	if !ok {
		return domain.Order{}, domain.ErrLineNotFound
	}
	return cloneOrder(order), nil
}

// ListByTab возвращает педидо команды, ограничивая выборку limit (если >0).
func (r *orderRepositoryInMemory) ListByTab(tabID int64, limit int) ([]domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.Order, 0, len(r.items))
	for _, order := range r.items {
		if order.TabID != tabID {
			continue
		}
		result = append(result, cloneOrder(order))
	}

	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}

	return result, nil
}

// ListLines возвращает позиции всех педидо, отсортированные по ID.
func (r *orderRepositoryInMemory) ListLines() ([]domain.OrderLine, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.OrderLine, 0, len(r.lineOwners))
	for _, order := range r.items {
		result = append(result, order.Lines...)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Save перезаписывает педидо, проверяя версию (optimistic locking).
// Новые позиции (ID == 0) получают идентификаторы, удалённые из заказа
// позиции исчезают из индекса владельцев.
func (r *orderRepositoryInMemory) Save(order domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	current, ok := r.items[order.ID]
	if !ok {
		return domain.ErrOrderNotFound
	}
	if current.Version != order.Version {
		return domain.ErrOrderVersionConflict
	}

	now := time.Now().UTC()
	kept := make(map[int64]bool, len(order.Lines))
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	for i := range lines {
		if lines[i].ID == 0 {
			r.nextLine++
			lines[i].ID = r.nextLine
			lines[i].CreatedAt = now
		}
		lines[i].OrderID = order.ID
		r.lineOwners[lines[i].ID] = order.ID
		kept[lines[i].ID] = true
	}
	for _, old := range current.Lines {
		if !kept[old.ID] {
			delete(r.lineOwners, old.ID)
		}
	}
	order.Lines = lines

	// Инкрементируем версию перед сохранением.
	order.Version++
	order.UpdatedAt = now
	r.items[order.ID] = order
	return nil
}

// Delete удаляет педидо вместе с позициями.
func (r *orderRepositoryInMemory) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	order, ok := r.items[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	for _, line := range order.Lines {
		delete(r.lineOwners, line.ID)
	}
	delete(r.items, id)
	return nil
}

func cloneOrder(order domain.Order) domain.Order {
	lines := make([]domain.OrderLine, len(order.Lines))
	copy(lines, order.Lines)
	order.Lines = lines
	return order
}

var _ domain.OrderRepository = (*orderRepositoryInMemory)(nil)
