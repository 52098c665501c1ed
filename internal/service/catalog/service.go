package catalog

import (
	log "github.com/sirupsen/logrus"

	"github.com/vladislavdragonenkov/pedix/internal/domain"
)

// Service реализует операции управления кардапио.
type Service struct {
	items  domain.MenuItemRepository
	logger *log.Entry
}

// NewService конструирует сервис кардапио.
func NewService(items domain.MenuItemRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.New().WithField("component", "cardapio-service")
	}
	return &Service{items: items, logger: logger}
}

// Create валидирует и сохраняет новую позицию каталога.
// Позиция создаётся доступной, если не указано иное.
func (s *Service) Create(item domain.MenuItem) (domain.MenuItem, error) {
	item.ID = 0
	if errs := item.ValidateInvariants(); len(errs) > 0 {
		return domain.MenuItem{}, errs[0]
	}

	created, err := s.items.Create(item)
	if err != nil {
		s.logger.WithError(err).Error("failed to create cardapio item")
		return domain.MenuItem{}, err
	}
	return created, nil
}

// Get возвращает позицию каталога по идентификатору.
func (s *Service) Get(id int64) (domain.MenuItem, error) {
	return s.items.Get(id)
}

// ListAvailable возвращает доступные для заказа позиции.
func (s *Service) ListAvailable() ([]domain.MenuItem, error) {
	return s.items.ListAvailable()
}

// ListByCategory возвращает позиции заданной категории.
func (s *Service) ListByCategory(category domain.MenuCategory) ([]domain.MenuItem, error) {
	if !category.Valid() {
		return nil, domain.ErrMenuItemCategoryInvalid
	}
	return s.items.ListByCategory(category)
}

// Update валидирует и перезаписывает позицию каталога целиком.
func (s *Service) Update(item domain.MenuItem) (domain.MenuItem, error) {
	if _, err := s.items.Get(item.ID); err != nil {
		return domain.MenuItem{}, err
	}
	if errs := item.ValidateInvariants(); len(errs) > 0 {
		return domain.MenuItem{}, errs[0]
	}

	if err := s.items.Update(item); err != nil {
		s.logger.WithError(err).WithField("item_cardapio_id", item.ID).Error("failed to update cardapio item")
		return domain.MenuItem{}, err
	}
	return s.items.Get(item.ID)
}

// SetAvailability переключает доступность позиции, не трогая остальные поля.
// Снятие с продажи не затрагивает уже оформленные педидо: их позиции
// хранят снимок цены и названия.
func (s *Service) SetAvailability(id int64, available bool) (domain.MenuItem, error) {
	item, err := s.items.Get(id)
	if err != nil {
		return domain.MenuItem{}, err
	}
	if item.Available == available {
		return item, nil
	}

	item.Available = available
	if err := s.items.Update(item); err != nil {
		s.logger.WithError(err).WithField("item_cardapio_id", id).Error("failed to toggle cardapio item availability")
		return domain.MenuItem{}, err
	}
	return s.items.Get(id)
}

// Delete удаляет позицию каталога.
func (s *Service) Delete(id int64) error {
	if err := s.items.Delete(id); err != nil {
		if !domain.IsNotFound(err) {
			s.logger.WithError(err).WithField("item_cardapio_id", id).Error("failed to delete cardapio item")
		}
		return err
	}
	return nil
}
