package domain

import "github.com/shopspring/decimal"

// MinPrice — минимально допустимая цена товара.
var MinPrice = decimal.RequireFromString("0.01")

// Product — товар каталога. Мутируется только через optimistic update:
// Version сравнивается с ожидаемым и увеличивается ровно на единицу
// при каждом успешном обновлении; напрямую версию никто не пишет.
type Product struct {
	ID      uint64
	Name    string
	Price   decimal.Decimal
	Stock   int64
	Version uint64
}

// Identity возвращает идентификатор и версию записи для хранилища.
func (p Product) Identity() (id, version uint64) {
	return p.ID, p.Version
}

// WithIdentity возвращает копию товара с заданными id и версией.
func (p Product) WithIdentity(id, version uint64) Product {
	p.ID = id
	p.Version = version
	return p
}

// Clone возвращает независимую копию записи.
func (p Product) Clone() Product {
	return p
}

// ValidateInvariants проверяет базовые инварианты товара.
func (p Product) ValidateInvariants() []error {
	var errs []error

	if p.Name == "" {
		errs = append(errs, ErrNameRequired)
	}
	if p.Price.LessThan(MinPrice) {
		errs = append(errs, ErrPriceInvalid)
	}
	if p.Stock < 0 {
		errs = append(errs, ErrStockNegative)
	}

	return errs
}
