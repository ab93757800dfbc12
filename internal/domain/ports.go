package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// CustomerRepository описывает требования к хранилищу покупателей.
type CustomerRepository interface {
	// Insert сохраняет покупателя, игнорируя переданный id: хранилище
	// назначает свежий идентификатор и возвращает сохранённую копию.
	Insert(c Customer) (Customer, error)
	// Get возвращает покупателя по идентификатору или ErrCustomerNotFound.
	Get(id uint64) (Customer, error)
	// List возвращает снимок всех покупателей, отсортированный по id.
	List() ([]Customer, error)
}

// ProductRepository описывает требования к хранилищу товаров.
type ProductRepository interface {
	Insert(p Product) (Product, error)
	Get(id uint64) (Product, error)
	List() ([]Product, error)
	// Update применяет optimistic update: сохранённая версия должна
	// совпасть с expectedVersion, иначе ErrVersionConflict без побочных
	// эффектов. Успех увеличивает версию ровно на единицу.
	Update(p Product, expectedVersion uint64) (Product, error)
	// Delete удаляет товар; false, если записи уже нет (повтор идемпотентен).
	Delete(id uint64) bool
}

// OrderQuery задаёт фильтры и пагинацию выборки заказов.
// Границы дат включительны; nil-поля отключают соответствующий фильтр.
type OrderQuery struct {
	CustomerID *uint64
	From       *time.Time
	To         *time.Time
	Page       int
	PageSize   int
}

// OrderRepository описывает требования к хранилищу заказов.
type OrderRepository interface {
	Insert(o Order) (Order, error)
	Get(id uint64) (Order, error)
	// Query возвращает страницу заказов (дата по убыванию, id по убыванию
	// при равных датах) и количество записей до пагинации.
	Query(q OrderQuery) ([]Order, int, error)
}

// DiscountService — граница внешнего сервиса скидок. Возвращает процент
// скидки в диапазоне [0, 100]; любая ошибка транспорта, разбора ответа или
// отмены контекста разрешается в 0 и никогда не выходит наружу.
type DiscountService interface {
	GetDiscount(ctx context.Context, code string) decimal.Decimal
}
