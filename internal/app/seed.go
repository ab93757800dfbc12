package app

import (
	"fmt"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// seedCustomers — фиксированный базовый набор покупателей.
var seedCustomers = []domain.Customer{
	{Name: "Alice", Email: "alice@example.com"},
	{Name: "Bob", Email: "bob@example.com"},
}

// seedProducts — фиксированный базовый набор товаров.
var seedProducts = []domain.Product{
	{Name: "Pen", Price: decimal.NewFromInt(10), Stock: 100},
	{Name: "Notebook", Price: decimal.NewFromInt(50), Stock: 50},
	{Name: "Backpack", Price: decimal.NewFromInt(900), Stock: 10},
	{Name: "Crayons", Price: decimal.NewFromInt(10), Stock: 20},
	{Name: "WaterBottle", Price: decimal.NewFromInt(150), Stock: 50},
	{Name: "TiffinBox", Price: decimal.NewFromInt(500), Stock: 10},
}

// Seed наполняет пустое хранилище базовыми данными. Перезапуск процесса
// сбрасывает последовательности и данные ровно к этому состоянию.
func (d *Dependencies) Seed() error {
	for _, c := range seedCustomers {
		if _, err := d.Customers.Insert(c); err != nil {
			return fmt.Errorf("seed customer %q: %w", c.Name, err)
		}
	}
	for _, p := range seedProducts {
		if _, err := d.Products.Insert(p); err != nil {
			return fmt.Errorf("seed product %q: %w", p.Name, err)
		}
	}

	d.Logger.WithFields(log.Fields{
		"customers": len(seedCustomers),
		"products":  len(seedProducts),
	}).Info("хранилище заполнено базовыми данными")
	return nil
}
