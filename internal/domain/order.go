package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderLine представляет одну позицию педидо. Цена позиции фиксируется
// в момент создания: последующие изменения цен в кардапио не влияют
// на уже оформленные заказы.
type OrderLine struct {
	// ID позиции нужен для однозначной идентификации в API item-CRUD.
	ID int64
	// OrderID — обратная ссылка на владеющий педидо (только идентификатор,
	// никакой навигации по объектам).
	OrderID int64
	// MenuItemID — ссылка на позицию кардапио, из которой сделан снимок цены.
	MenuItemID int64
	// Name — снимок названия позиции каталога для ответов API.
	Name string
	// Quantity — количество единиц, всегда >= 1.
	Quantity int32
	// UnitPrice — цена за единицу на момент создания позиции.
	UnitPrice decimal.Decimal
	// Subtotal всегда равен round(UnitPrice * Quantity, 2).
	Subtotal decimal.Decimal
	// CreatedAt фиксирует момент добавления позиции в педидо.
	CreatedAt time.Time
}

// NewOrderLine создаёт позицию педидо, снимая цену с позиции каталога.
func NewOrderLine(item MenuItem, quantity int32) (OrderLine, error) {
	if quantity < 1 {
		return OrderLine{}, ErrInvalidQuantity
	}

	line := OrderLine{
		MenuItemID: item.ID,
		Name:       item.Name,
		Quantity:   quantity,
		UnitPrice:  item.Price,
		CreatedAt:  time.Now().UTC(),
	}
	line.recalcSubtotal()
	return line, nil
}

// SetQuantity меняет количество и пересчитывает subtotal.
func (l *OrderLine) SetQuantity(quantity int32) error {
	if quantity < 1 {
		return ErrInvalidQuantity
	}
	l.Quantity = quantity
	l.recalcSubtotal()
	return nil
}

// SetUnitPrice меняет цену за единицу и пересчитывает subtotal.
func (l *OrderLine) SetUnitPrice(price decimal.Decimal) error {
	if price.IsNegative() {
		return ErrInvalidPrice
	}
	l.UnitPrice = price
	l.recalcSubtotal()
	return nil
}

func (l *OrderLine) recalcSubtotal() {
	l.Subtotal = RoundMoney(l.UnitPrice.Mul(decimal.NewFromInt32(l.Quantity)))
}

// Order агрегирует состояние педидо и его позиции. Педидо монопольно
// владеет своими позициями: позиция не существует вне заказа и удаляется
// вместе с ним.
type Order struct {
	ID     int64
	TabID  int64
	Status OrderStatus
	Note   string
	Total  decimal.Decimal
	Lines  []OrderLine
	// Version используется для optimistic locking на границе хранилища.
	Version   int64
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AddLine добавляет позицию в педидо и пересчитывает итог.
// В отличие от исходной системы nil-позиция не пропускается молча,
// а отклоняется явной ошибкой.
func (o *Order) AddLine(line *OrderLine) error {
	if line == nil {
		return ErrNilLine
	}
	line.OrderID = o.ID
	o.Lines = append(o.Lines, *line)
	o.RecalculateTotal()
	return nil
}

// RemoveLine удаляет позицию по идентификатору и пересчитывает итог.
func (o *Order) RemoveLine(lineID int64) error {
	for i := range o.Lines {
		if o.Lines[i].ID != lineID {
			continue
		}
		o.Lines[i].OrderID = 0
		o.Lines = append(o.Lines[:i], o.Lines[i+1:]...)
		o.RecalculateTotal()
		return nil
	}
	return ErrLineNotFound
}

// Line возвращает указатель на позицию педидо по идентификатору.
func (o *Order) Line(lineID int64) (*OrderLine, bool) {
	for i := range o.Lines {
		if o.Lines[i].ID == lineID {
			return &o.Lines[i], true
		}
	}
	return nil, false
}

// RecalculateTotal выставляет итог равным сумме subtotal всех позиций
// (0.00 для пустого списка). Вызывается после каждой структурной мутации.
func (o *Order) RecalculateTotal() {
	total := decimal.Zero
	for i := range o.Lines {
		total = total.Add(o.Lines[i].Subtotal)
	}
	o.Total = RoundMoney(total)
}

// ValidateInvariants проверяет базовые инварианты педидо и возвращает
// список замечаний. Пустой список позиций считается нарушением только
// на момент создания заказа.
func (o *Order) ValidateInvariants() []error {
	var errs []error

	if o.TabID == 0 {
		errs = append(errs, ErrTabRequired)
	}
	if !o.Status.Valid() {
		errs = append(errs, ErrInvalidStatus)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}

	// Сверяем итог с суммой позиций: round(preco * qty, 2).
	calc := decimal.Zero
	for i := range o.Lines {
		line := &o.Lines[i]
		if line.Quantity < 1 {
			errs = append(errs, ErrInvalidQuantity)
		}
		if line.UnitPrice.IsNegative() {
			errs = append(errs, ErrInvalidPrice)
		}
		calc = calc.Add(line.Subtotal)
	}
	if !RoundMoney(calc).Equal(o.Total) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
