package memory

import "github.com/divyamds/OrdersDemo/internal/domain"

// customerRepository — типизированный фасад над Store для покупателей.
type customerRepository struct {
	store *Store[domain.Customer]
}

// NewCustomerRepository создаёт репозиторий покупателей поверх общего
// генератора последовательностей.
func NewCustomerRepository(seq *Sequence, options ...StoreOption) domain.CustomerRepository {
	return &customerRepository{
		store: NewStore[domain.Customer](seq, KindCustomer, domain.ErrCustomerNotFound, options...),
	}
}

func (r *customerRepository) Insert(c domain.Customer) (domain.Customer, error) {
	return r.store.Insert(c), nil
}

func (r *customerRepository) Get(id uint64) (domain.Customer, error) {
	return r.store.Get(id)
}

func (r *customerRepository) List() ([]domain.Customer, error) {
	return r.store.List(), nil
}

var _ domain.CustomerRepository = (*customerRepository)(nil)
