package app

import (
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/cache"
	"github.com/divyamds/OrdersDemo/internal/domain"
	"github.com/divyamds/OrdersDemo/internal/service/catalog"
	"github.com/divyamds/OrdersDemo/internal/service/checkout"
	"github.com/divyamds/OrdersDemo/internal/service/discount"
	"github.com/divyamds/OrdersDemo/internal/storage/memory"
)

// Dependencies содержит все зависимости приложения.
type Dependencies struct {
	Sequence     *memory.Sequence
	Customers    domain.CustomerRepository
	Products     domain.ProductRepository
	Orders       domain.OrderRepository
	OrderQueries *cache.OrderQueries
	Discounts    domain.DiscountService
	Checkout     *checkout.Workflow
	Catalog      *catalog.Service
	Logger       *log.Entry
}

// NewDependencies создаёт и связывает все зависимости приложения.
// Оформление заказов ходит в репозиторий заказов через кэширующий слой:
// вставки проходят насквозь, выборки мемоизируются.
func NewDependencies(cfg Config, logger *log.Entry) *Dependencies {
	if logger == nil {
		logger = log.WithField("component", "app")
	}

	var storeOptions []memory.StoreOption
	if cfg.SimulateLatency {
		// Демо-режим оригинального хранилища: 5–25 мс на операцию.
		storeOptions = append(storeOptions, memory.WithSimulatedLatency(simulatedLatencyMin, simulatedLatencyMax))
	}

	seq := memory.NewSequence()
	customers := memory.NewCustomerRepository(seq, storeOptions...)
	products := memory.NewProductRepository(seq, storeOptions...)
	orders := memory.NewOrderRepository(seq, storeOptions...)

	orderQueries := cache.NewOrderQueries(orders, cfg.QueryCacheTTL, logger.WithField("layer", "cache"))
	discounts := discount.NewClient(cfg.DiscountBaseURL, discount.WithLogger(logger.WithField("layer", "discount")))

	return &Dependencies{
		Sequence:     seq,
		Customers:    customers,
		Products:     products,
		Orders:       orders,
		OrderQueries: orderQueries,
		Discounts:    discounts,
		Checkout: checkout.NewWorkflow(
			customers,
			products,
			orderQueries,
			discounts,
			logger.WithField("layer", "checkout"),
		),
		Catalog: catalog.NewService(products, logger.WithField("layer", "catalog")),
		Logger:  logger,
	}
}
