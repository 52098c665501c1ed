package domain

import "github.com/shopspring/decimal"

// moneyScale — денежные значения всегда храним с двумя знаками после запятой.
const moneyScale = 2

// RoundMoney приводит денежное значение к масштабу 2 (округление half-up),
// как это делает исходная модель с BigDecimal.setScale(2, HALF_UP).
func RoundMoney(value decimal.Decimal) decimal.Decimal {
	return value.Round(moneyScale)
}

// MoneyString форматирует денежное значение для API-ответов ("52.00").
func MoneyString(value decimal.Decimal) string {
	return value.StringFixed(moneyScale)
}
