// Пакет catalog реализует управление товарами: создание с валидацией,
// чтение, обновление и удаление под защитой ожидаемой версии записи
// (семантика If-Match вышележащего транспорта).
package catalog

import (
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// Service — бизнес-логика каталога поверх репозитория товаров.
type Service struct {
	products domain.ProductRepository
	logger   *log.Entry
}

// NewService создаёт сервис каталога.
func NewService(products domain.ProductRepository, logger *log.Entry) *Service {
	if logger == nil {
		logger = log.WithField("component", "catalog")
	}
	return &Service{products: products, logger: logger}
}

// Create валидирует и сохраняет новый товар. Версию и идентификатор
// назначает хранилище.
func (s *Service) Create(p domain.Product) (domain.Product, error) {
	if errs := p.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	created, err := s.products.Insert(p)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": created.ID,
		"name":       created.Name,
	}).Info("product created")
	return created, nil
}

// Get возвращает товар по идентификатору.
func (s *Service) Get(id uint64) (domain.Product, error) {
	return s.products.Get(id)
}

// List возвращает все товары, отсортированные по id.
func (s *Service) List() ([]domain.Product, error) {
	return s.products.List()
}

// Update меняет имя и цену товара, не трогая остаток. expectedVersion
// должна совпасть с текущей версией записи, иначе ErrVersionConflict.
func (s *Service) Update(id uint64, name string, price decimal.Decimal, expectedVersion uint64) (domain.Product, error) {
	existing, err := s.products.Get(id)
	if err != nil {
		return domain.Product{}, err
	}
	if existing.Version != expectedVersion {
		return domain.Product{}, domain.ErrVersionConflict
	}

	updated := existing
	updated.Name = name
	updated.Price = price
	if errs := updated.ValidateInvariants(); len(errs) > 0 {
		return domain.Product{}, errs[0]
	}

	stored, err := s.products.Update(updated, expectedVersion)
	if err != nil {
		return domain.Product{}, err
	}

	s.logger.WithFields(log.Fields{
		"product_id": stored.ID,
		"version":    stored.Version,
	}).Info("product updated")
	return stored, nil
}

// Delete удаляет товар, если expectedVersion совпадает с текущей версией.
func (s *Service) Delete(id, expectedVersion uint64) error {
	existing, err := s.products.Get(id)
	if err != nil {
		return err
	}
	if existing.Version != expectedVersion {
		return domain.ErrVersionConflict
	}

	if !s.products.Delete(id) {
		// Запись исчезла между проверкой и удалением.
		return domain.ErrProductNotFound
	}

	s.logger.WithField("product_id", id).Info("product deleted")
	return nil
}
