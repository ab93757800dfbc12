package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// CurrencyScale — точность денежных сумм (два знака после запятой).
const CurrencyScale = 2

// OrderLine представляет одну позицию заказа. Цена снимается в момент
// оформления и никогда не пересчитывается по текущей цене товара.
type OrderLine struct {
	ProductID uint64
	Quantity  int64
	UnitPrice decimal.Decimal
}

// Order агрегирует оформленный заказ. После сохранения запись неизменяема.
// CustomerName — денормализованный снимок имени покупателя на момент
// оформления; последующие переименования покупателя его не меняют.
type Order struct {
	ID              uint64
	CustomerID      uint64
	CustomerName    string
	Date            time.Time
	Subtotal        decimal.Decimal
	DiscountApplied decimal.Decimal
	Total           decimal.Decimal
	Lines           []OrderLine
	Version         uint64
}

// Identity возвращает идентификатор и версию записи для хранилища.
func (o Order) Identity() (id, version uint64) {
	return o.ID, o.Version
}

// WithIdentity возвращает копию заказа с заданными id и версией.
func (o Order) WithIdentity(id, version uint64) Order {
	o.ID = id
	o.Version = version
	return o
}

// Clone возвращает глубокую копию заказа: срез позиций не разделяется
// с оригиналом, чтобы хранилище оставалось единственным владельцем данных.
func (o Order) Clone() Order {
	o.Lines = append([]OrderLine(nil), o.Lines...)
	return o
}

// ValidateInvariants проверяет инварианты заказа и возвращает список замечаний.
func (o Order) ValidateInvariants() []error {
	var errs []error

	if o.CustomerID == 0 {
		errs = append(errs, ErrCustomerRequired)
	}
	if len(o.Lines) == 0 {
		errs = append(errs, ErrLinesRequired)
	}
	if o.Subtotal.IsNegative() {
		errs = append(errs, ErrAmountNegative)
	}

	// Сверяем подытог с суммой позиций: qty * unit price.
	calc := decimal.Zero
	for _, line := range o.Lines {
		if line.Quantity <= 0 {
			errs = append(errs, ErrQuantityInvalid)
		}
		if line.UnitPrice.IsNegative() {
			errs = append(errs, ErrPriceInvalid)
		}
		calc = calc.Add(line.UnitPrice.Mul(decimal.NewFromInt(line.Quantity)))
	}
	if !calc.Equal(o.Subtotal) {
		errs = append(errs, ErrAmountMismatch)
	}

	// total = subtotal - discountApplied, скидка в пределах [0, subtotal].
	if o.DiscountApplied.IsNegative() || o.DiscountApplied.GreaterThan(o.Subtotal) {
		errs = append(errs, ErrDiscountInvalid)
	}
	if !o.Total.Equal(o.Subtotal.Sub(o.DiscountApplied)) {
		errs = append(errs, ErrTotalMismatch)
	}

	return errs
}
