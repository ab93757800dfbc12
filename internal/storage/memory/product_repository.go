package memory

import "github.com/divyamds/OrdersDemo/internal/domain"

// productRepository — типизированный фасад над Store для товаров.
type productRepository struct {
	store *Store[domain.Product]
}

// NewProductRepository создаёт репозиторий товаров поверх общего генератора
// последовательностей.
func NewProductRepository(seq *Sequence, options ...StoreOption) domain.ProductRepository {
	return &productRepository{
		store: NewStore[domain.Product](seq, KindProduct, domain.ErrProductNotFound, options...),
	}
}

func (r *productRepository) Insert(p domain.Product) (domain.Product, error) {
	return r.store.Insert(p), nil
}

func (r *productRepository) Get(id uint64) (domain.Product, error) {
	return r.store.Get(id)
}

func (r *productRepository) List() ([]domain.Product, error) {
	return r.store.List(), nil
}

// Update выполняет optimistic update записи: сохранённая версия должна
// совпасть с expectedVersion, успех увеличивает версию ровно на единицу.
func (r *productRepository) Update(p domain.Product, expectedVersion uint64) (domain.Product, error) {
	return r.store.OptimisticUpdate(p.ID, p, expectedVersion)
}

func (r *productRepository) Delete(id uint64) bool {
	return r.store.Delete(id)
}

var _ domain.ProductRepository = (*productRepository)(nil)
