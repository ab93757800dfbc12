// Консольный инструмент нагрузочной проверки оформления заказов:
// гоняет конкурентные запросы против in-memory хранилища и печатает
// распределение исходов (успех, конфликт остатков, нехватка стока).
package main

import (
	"context"
	"flag"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/app"
	"github.com/divyamds/OrdersDemo/internal/domain"
	"github.com/divyamds/OrdersDemo/internal/service/checkout"
	"github.com/divyamds/OrdersDemo/internal/service/discount"
)

type stats struct {
	succeeded         atomic.Int64
	conflicts         atomic.Int64
	insufficientStock atomic.Int64
	otherErrors       atomic.Int64
}

func main() {
	workers := flag.Int("workers", 8, "число конкурентных воркеров")
	orders := flag.Int("orders", 200, "общее число запросов на оформление")
	maxQty := flag.Int64("max-qty", 3, "максимальное количество в позиции")
	latency := flag.Bool("latency", false, "имитировать задержку хранилища")
	flag.Parse()

	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	logger := log.WithField("component", "loadtest")

	cfg := app.DefaultConfig()
	cfg.SimulateLatency = *latency

	deps := app.NewDependencies(cfg, logger)
	if err := deps.Seed(); err != nil {
		logger.WithError(err).Fatal("seed failed")
	}

	// Скидки в нагрузочном прогоне не нужны: внешний сервис заменён заглушкой.
	workflow := checkout.NewWorkflowWithoutMetrics(
		deps.Customers,
		deps.Products,
		deps.OrderQueries,
		discount.NewMockService(),
		logger,
	)

	customers, err := deps.Customers.List()
	if err != nil || len(customers) == 0 {
		logger.Fatal("no seeded customers")
	}
	products, err := deps.Products.List()
	if err != nil || len(products) == 0 {
		logger.Fatal("no seeded products")
	}

	requests := make(chan checkout.CreateOrderRequest)
	var st stats
	var wg sync.WaitGroup

	start := time.Now()
	for i := 0; i < *workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for req := range requests {
				_, err := workflow.CreateOrder(context.Background(), req)
				switch {
				case err == nil:
					st.succeeded.Add(1)
				case domain.IsConcurrentModification(err):
					st.conflicts.Add(1)
				case domain.IsInsufficientStock(err):
					st.insufficientStock.Add(1)
				default:
					st.otherErrors.Add(1)
				}
			}
		}()
	}

	for i := 0; i < *orders; i++ {
		product := products[rand.Intn(len(products))]
		requests <- checkout.CreateOrderRequest{
			CustomerID: customers[rand.Intn(len(customers))].ID,
			Lines: []checkout.CreateOrderLine{{
				ProductID: product.ID,
				Quantity:  1 + rand.Int63n(*maxQty),
			}},
		}
	}
	close(requests)
	wg.Wait()

	logger.WithFields(log.Fields{
		"duration":           time.Since(start).String(),
		"succeeded":          st.succeeded.Load(),
		"conflicts":          st.conflicts.Load(),
		"insufficient_stock": st.insufficientStock.Load(),
		"other_errors":       st.otherErrors.Load(),
	}).Info("нагрузочный прогон завершён")

	// Контрольная проверка: остатки никогда не уходят в минус.
	final, _ := deps.Products.List()
	for _, p := range final {
		if p.Stock < 0 {
			logger.WithField("product_id", p.ID).Error("negative stock detected")
		}
	}
}
