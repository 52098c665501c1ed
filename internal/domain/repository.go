package domain

// OrderRepository описывает требования к хранилищу педидо.
// Позиции сохраняются и удаляются только вместе с владеющим заказом.
type OrderRepository interface {
	// Create сохраняет новый педидо вместе с позициями и возвращает
	// сохранённую копию с присвоенными идентификаторами.
	Create(order Order) (Order, error)
	// Get возвращает педидо по идентификатору или ErrOrderNotFound, если его нет.
	Get(id int64) (Order, error)
	// GetByLine возвращает педидо, владеющий позицией с данным идентификатором,
	// или ErrLineNotFound.
	GetByLine(lineID int64) (Order, error)
	// ListByTab возвращает педидо команды с опциональным ограничением на количество.
	ListByTab(tabID int64, limit int) ([]Order, error)
	// ListLines возвращает позиции всех педидо, отсортированные по идентификатору.
	ListLines() ([]OrderLine, error)
	// Save применяет обновления к педидо и его позициям с учётом optimistic locking.
	Save(order Order) error
	// Delete удаляет педидо вместе с позициями или возвращает ErrOrderNotFound.
	Delete(id int64) error
}

// MenuItemRepository описывает хранилище позиций кардапио.
type MenuItemRepository interface {
	MenuCatalog

	Create(item MenuItem) (MenuItem, error)
	ListAvailable() ([]MenuItem, error)
	ListByCategory(category MenuCategory) ([]MenuItem, error)
	Update(item MenuItem) error
	Delete(id int64) error
}
