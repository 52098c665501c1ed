package memory

import (
	"sort"
	"sync"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

// menuRepositoryInMemory — in-memory реализация MenuItemRepository.
type menuRepositoryInMemory struct {
	mu     sync.RWMutex
	items  map[int64]domain.MenuItem
	nextID int64
}

// NewMenuRepository возвращает in-memory репозиторий кардапио.
func NewMenuRepository() domain.MenuItemRepository {
	return &menuRepositoryInMemory{items: make(map[int64]domain.MenuItem)}
}

// Create сохраняет новую позицию каталога и присваивает ей идентификатор.
func (r *menuRepositoryInMemory) Create(item domain.MenuItem) (domain.MenuItem, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextID++
	item.ID = r.nextID
	r.items[item.ID] = item
	return item, nil
}

// Get возвращает позицию каталога или ErrMenuItemNotFound.
func (r *menuRepositoryInMemory) Get(id int64) (domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[id]
	if !ok {
		return domain.MenuItem{}, domain.ErrMenuItemNotFound
	}
	return item, nil
}

// ListAvailable возвращает доступные для заказа позиции, отсортированные по ID.
func (r *menuRepositoryInMemory) ListAvailable() ([]domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		if item.Available {
			result = append(result, item)
		}
	}
	sortMenuItems(result)
	return result, nil
}

// ListByCategory возвращает доступные позиции категории, отсортированные по ID.
func (r *menuRepositoryInMemory) ListByCategory(category domain.MenuCategory) ([]domain.MenuItem, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]domain.MenuItem, 0, len(r.items))
	for _, item := range r.items {
		if item.Category == category && item.Available {
			result = append(result, item)
		}
	}
	sortMenuItems(result)
	return result, nil
}

// Update перезаписывает позицию каталога.
func (r *menuRepositoryInMemory) Update(item domain.MenuItem) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[item.ID]; !ok {
		return domain.ErrMenuItemNotFound
	}
	r.items[item.ID] = item
	return nil
}

// Delete удаляет позицию каталога.
func (r *menuRepositoryInMemory) Delete(id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.items[id]; !ok {
		return domain.ErrMenuItemNotFound
	}
	delete(r.items, id)
	return nil
}

func sortMenuItems(items []domain.MenuItem) {
	sort.Slice(items, func(i, j int) bool { return items[i].ID < items[j].ID })
}

var _ domain.MenuItemRepository = (*menuRepositoryInMemory)(nil)
