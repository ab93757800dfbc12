package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrCustomerNotFound возвращается, если покупатель не найден в хранилище.
	ErrCustomerNotFound = errors.New("customer not found")
	// ErrProductNotFound возвращается, если товар не найден в хранилище.
	ErrProductNotFound = errors.New("product not found")
	// ErrOrderNotFound возвращается, если заказ не найден в хранилище.
	ErrOrderNotFound = errors.New("order not found")
	// ErrVersionConflict сигнализирует о несовпадении ожидаемой и текущей версии записи.
	ErrVersionConflict = errors.New("record version conflict")
	// ErrConcurrentModification — отказ оформления заказа после конфликта версий;
	// возвращается только после компенсации уже применённых списаний остатков.
	ErrConcurrentModification = errors.New("order creation lost a concurrent stock update")
	// Ошибка отсутствующего имени в записи.
	ErrNameRequired = errors.New("name is required")
	// Ошибка отсутствующего e-mail покупателя.
	ErrEmailRequired = errors.New("email is required")
	// Ошибка отсутствующего идентификатора покупателя.
	ErrCustomerRequired = errors.New("customer_id is required")
	// Ошибка отсутствия хотя бы одной позиции в заказе.
	ErrLinesRequired = errors.New("order must contain at least one line")
	// Ошибка при некорректном количестве товара (<= 0).
	ErrQuantityInvalid = errors.New("line quantity must be greater than zero")
	// Ошибка цены ниже минимально допустимой.
	ErrPriceInvalid = errors.New("price must be at least 0.01")
	// Ошибка отрицательного остатка на складе.
	ErrStockNegative = errors.New("stock must be non-negative")
	// Ошибка отрицательного подытога заказа.
	ErrAmountNegative = errors.New("subtotal must be non-negative")
	// Ошибка несоответствия подытога и сумм позиций.
	ErrAmountMismatch = errors.New("subtotal does not match lines sum")
	// Ошибка скидки вне диапазона [0, subtotal].
	ErrDiscountInvalid = errors.New("discount must be within [0, subtotal]")
	// Ошибка нарушения равенства total = subtotal - discount.
	ErrTotalMismatch = errors.New("total does not equal subtotal minus discount")
	// Ошибка некорректного номера страницы (< 1).
	ErrPageInvalid = errors.New("page must be at least 1")
	// Ошибка некорректного размера страницы (< 1).
	ErrPageSizeInvalid = errors.New("page size must be at least 1")
)

// InsufficientStockError возвращается, когда запрошенное количество
// превышает остаток товара на момент резервирования.
type InsufficientStockError struct {
	ProductID   uint64
	ProductName string
	Requested   int64
	Available   int64
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for product %q: requested %d, available %d",
		e.ProductName, e.Requested, e.Available)
}

// IsVersionConflict проверяет, является ли ошибка конфликтом версий.
func IsVersionConflict(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// IsNotFound проверяет, относится ли ошибка к отсутствующей записи любого типа.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrCustomerNotFound) ||
		errors.Is(err, ErrProductNotFound) ||
		errors.Is(err, ErrOrderNotFound)
}

// IsInsufficientStock проверяет, является ли ошибка нехваткой остатков.
func IsInsufficientStock(err error) bool {
	var target *InsufficientStockError
	return errors.As(err, &target)
}

// IsConcurrentModification проверяет, проиграл ли запрос гонку за остатки.
func IsConcurrentModification(err error) bool {
	return errors.Is(err, ErrConcurrentModification)
}
