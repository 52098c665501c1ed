package domain

import "github.com/shopspring/decimal"

// MenuCategory описывает категорию позиции кардапио.
type MenuCategory string

const (
	// MenuCategoryDish — основное блюдо.
	MenuCategoryDish MenuCategory = "PRATO"
	// MenuCategoryBeverage — напиток.
	MenuCategoryBeverage MenuCategory = "BEBIDA"
	// MenuCategoryDessert — десерт.
	MenuCategoryDessert MenuCategory = "SOBREMESA"
)

// Valid проверяет, что категория относится к поддерживаемым значениям.
func (c MenuCategory) Valid() bool {
	switch c {
	case MenuCategoryDish, MenuCategoryBeverage, MenuCategoryDessert:
		return true
	default:
		return false
	}
}

// MenuItem представляет позицию кардапио. Ядро заказов читает её
// через MenuCatalog и никогда не изменяет.
type MenuItem struct {
	ID          int64
	Name        string
	Description string
	Price       decimal.Decimal
	Category    MenuCategory
	Available   bool
	ImageURL    string
}

// ValidateInvariants проверяет базовые инварианты позиции каталога.
func (m *MenuItem) ValidateInvariants() []error {
	var errs []error

	if m.Name == "" {
		errs = append(errs, ErrMenuItemNameRequired)
	}
	if !m.Price.IsPositive() {
		errs = append(errs, ErrMenuItemPriceInvalid)
	}
	if !m.Category.Valid() {
		errs = append(errs, ErrMenuItemCategoryInvalid)
	}

	return errs
}

// MenuCatalog — читающий порт каталога; единственная зависимость ядра заказов
// от подсистемы кардапио.
type MenuCatalog interface {
	// Get возвращает позицию каталога или ErrMenuItemNotFound, если её нет.
	Get(id int64) (MenuItem, error)
}
