package memory

import (
	"sort"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// orderRepository — типизированный фасад над Store для заказов с доменной
// семантикой выборки: фильтры, сортировка, пагинация.
type orderRepository struct {
	store *Store[domain.Order]
}

// NewOrderRepository создаёт репозиторий заказов поверх общего генератора
// последовательностей.
func NewOrderRepository(seq *Sequence, options ...StoreOption) domain.OrderRepository {
	return &orderRepository{
		store: NewStore[domain.Order](seq, KindOrder, domain.ErrOrderNotFound, options...),
	}
}

func (r *orderRepository) Insert(o domain.Order) (domain.Order, error) {
	return r.store.Insert(o), nil
}

func (r *orderRepository) Get(id uint64) (domain.Order, error) {
	return r.store.Get(id)
}

// Query фильтрует заказы по покупателю и включительному диапазону дат,
// сортирует по дате по убыванию (id по убыванию при равных датах, чтобы
// пагинация оставалась стабильной) и возвращает страницу вместе с числом
// совпадений до пагинации.
func (r *orderRepository) Query(q domain.OrderQuery) ([]domain.Order, int, error) {
	if q.Page < 1 {
		return nil, 0, domain.ErrPageInvalid
	}
	if q.PageSize < 1 {
		return nil, 0, domain.ErrPageSizeInvalid
	}

	matched := make([]domain.Order, 0)
	for _, order := range r.store.List() {
		if q.CustomerID != nil && order.CustomerID != *q.CustomerID {
			continue
		}
		if q.From != nil && order.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && order.Date.After(*q.To) {
			continue
		}
		matched = append(matched, order)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].Date.Equal(matched[j].Date) {
			return matched[i].Date.After(matched[j].Date)
		}
		return matched[i].ID > matched[j].ID
	})

	total := len(matched)

	skip := (q.Page - 1) * q.PageSize
	if skip >= total {
		return []domain.Order{}, total, nil
	}

	end := skip + q.PageSize
	if end > total {
		end = total
	}
	return matched[skip:end], total, nil
}

var _ domain.OrderRepository = (*orderRepository)(nil)
