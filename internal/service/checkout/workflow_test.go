package checkout

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/domain"
	"github.com/divyamds/OrdersDemo/internal/service/discount"
	"github.com/divyamds/OrdersDemo/internal/storage/memory"
)

type fixture struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	discounts *discount.MockService

	customer domain.Customer
	pen      domain.Product
	backpack domain.Product
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	seq := memory.NewSequence()
	f := &fixture{
		customers: memory.NewCustomerRepository(seq),
		products:  memory.NewProductRepository(seq),
		orders:    memory.NewOrderRepository(seq),
		discounts: discount.NewMockService(),
	}

	var err error
	f.customer, err = f.customers.Insert(domain.Customer{Name: "Alice", Email: "alice@example.com"})
	if err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	f.pen, err = f.products.Insert(domain.Product{Name: "Pen", Price: decimal.NewFromInt(10), Stock: 100})
	if err != nil {
		t.Fatalf("seed pen: %v", err)
	}
	f.backpack, err = f.products.Insert(domain.Product{Name: "Backpack", Price: decimal.NewFromInt(900), Stock: 10})
	if err != nil {
		t.Fatalf("seed backpack: %v", err)
	}

	return f
}

func (f *fixture) workflow(t *testing.T) *Workflow {
	t.Helper()
	return NewWorkflowWithoutMetrics(
		f.customers, f.products, f.orders, f.discounts,
		log.New().WithField("test", t.Name()),
	)
}

func (f *fixture) productStock(t *testing.T, id uint64) (int64, uint64) {
	t.Helper()

	product, err := f.products.Get(id)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	return product.Stock, product.Version
}

func TestCreateOrder_Success(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	order, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.ID == 0 || order.Version != 1 {
		t.Fatalf("unexpected identity: id=%d version=%d", order.ID, order.Version)
	}
	if order.CustomerName != "Alice" {
		t.Fatalf("expected customer name snapshot, got %q", order.CustomerName)
	}
	if !order.Subtotal.Equal(decimal.NewFromInt(50)) || !order.Total.Equal(decimal.NewFromInt(50)) {
		t.Fatalf("expected subtotal/total 50, got %s/%s", order.Subtotal, order.Total)
	}
	if errs := order.ValidateInvariants(); len(errs) != 0 {
		t.Fatalf("stored order violates invariants: %v", errs)
	}

	stock, version := f.productStock(t, f.pen.ID)
	if stock != 95 {
		t.Fatalf("expected stock 95, got %d", stock)
	}
	if version != f.pen.Version+1 {
		t.Fatalf("expected version increment, got %d", version)
	}
	if f.discounts.Calls != 0 {
		t.Fatalf("blank discount code must not call the service, got %d calls", f.discounts.Calls)
	}
}

func TestCreateOrder_PriceSnapshot(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	order, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	// Цена в заказе — снимок на момент оформления.
	current, err := f.products.Get(f.pen.ID)
	if err != nil {
		t.Fatalf("get product: %v", err)
	}
	current.Price = decimal.NewFromInt(99)
	if _, err := f.products.Update(current, current.Version); err != nil {
		t.Fatalf("update price: %v", err)
	}

	stored, err := f.orders.Get(order.ID)
	if err != nil {
		t.Fatalf("get order: %v", err)
	}
	if !stored.Lines[0].UnitPrice.Equal(decimal.NewFromInt(10)) {
		t.Fatalf("expected snapshot price 10, got %s", stored.Lines[0].UnitPrice)
	}
}

func TestCreateOrder_DiscountApplied(t *testing.T) {
	f := newFixture(t)
	f.discounts.Percent = decimal.NewFromInt(10)
	w := f.workflow(t)

	order, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:   f.customer.ID,
		DiscountCode: "SAVE10",
		Lines:        []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 5}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if !order.DiscountApplied.Equal(decimal.NewFromInt(5)) {
		t.Fatalf("expected discount 5, got %s", order.DiscountApplied)
	}
	if !order.Total.Equal(decimal.NewFromInt(45)) {
		t.Fatalf("expected total 45, got %s", order.Total)
	}
	if f.discounts.Calls != 1 || f.discounts.LastCode != "SAVE10" {
		t.Fatalf("expected single discount lookup for SAVE10, got %d/%q", f.discounts.Calls, f.discounts.LastCode)
	}
}

func TestCreateOrder_DiscountRounding(t *testing.T) {
	f := newFixture(t)
	f.discounts.Percent = decimal.RequireFromString("7.5")
	w := f.workflow(t)

	// 10 * 7.5% = 0.75: скидка округляется до двух знаков и не ломает
	// равенство total = subtotal - discount.
	order, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID:   f.customer.ID,
		DiscountCode: "SAVE",
		Lines:        []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if !order.DiscountApplied.Equal(decimal.RequireFromString("0.75")) {
		t.Fatalf("expected discount 0.75, got %s", order.DiscountApplied)
	}
	if !order.Total.Equal(decimal.RequireFromString("9.25")) {
		t.Fatalf("expected total 9.25, got %s", order.Total)
	}
}

func TestCreateOrder_Validation(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	if _, err := w.CreateOrder(context.Background(), CreateOrderRequest{CustomerID: f.customer.ID}); !errors.Is(err, domain.ErrLinesRequired) {
		t.Fatalf("expected ErrLinesRequired, got %v", err)
	}

	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 0}},
	})
	if !errors.Is(err, domain.ErrQuantityInvalid) {
		t.Fatalf("expected ErrQuantityInvalid, got %v", err)
	}
}

func TestCreateOrder_UnknownCustomer(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: 999,
		Lines:      []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrCustomerNotFound) {
		t.Fatalf("expected ErrCustomerNotFound, got %v", err)
	}

	// Остатки не тронуты.
	stock, _ := f.productStock(t, f.pen.ID)
	if stock != 100 {
		t.Fatalf("expected untouched stock 100, got %d", stock)
	}
}

func TestCreateOrder_UnknownProduct(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: 999, Quantity: 1}},
	})
	if !errors.Is(err, domain.ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound, got %v", err)
	}
}

func TestCreateOrder_InsufficientStock(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: f.backpack.ID, Quantity: 11}},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	var stockErr *domain.InsufficientStockError
	if !errors.As(err, &stockErr) {
		t.Fatalf("expected *InsufficientStockError, got %T", err)
	}
	if stockErr.Requested != 11 || stockErr.Available != 10 {
		t.Fatalf("unexpected detail: %+v", stockErr)
	}
}

func TestCreateOrder_CompensatesEarlierLines(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	// Первая позиция проходит, вторая запрашивает больше остатка:
	// списание по первой должно быть возвращено.
	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines: []CreateOrderLine{
			{ProductID: f.pen.ID, Quantity: 5},
			{ProductID: f.backpack.ID, Quantity: 11},
		},
	})
	if !domain.IsInsufficientStock(err) {
		t.Fatalf("expected insufficient stock error, got %v", err)
	}

	penStock, _ := f.productStock(t, f.pen.ID)
	if penStock != 100 {
		t.Fatalf("expected pen stock restored to 100, got %d", penStock)
	}
	backpackStock, _ := f.productStock(t, f.backpack.ID)
	if backpackStock != 10 {
		t.Fatalf("expected backpack stock untouched 10, got %d", backpackStock)
	}
}

// conflictingProducts подсовывает конфликт версий на failOn-м вызове Update
// (нумерация с единицы), остальные вызовы делегирует реальному репозиторию.
type conflictingProducts struct {
	domain.ProductRepository

	mu     sync.Mutex
	failOn int
	calls  int
}

func (r *conflictingProducts) Update(p domain.Product, expectedVersion uint64) (domain.Product, error) {
	r.mu.Lock()
	r.calls++
	fail := r.calls == r.failOn
	r.mu.Unlock()

	if fail {
		return domain.Product{}, domain.ErrVersionConflict
	}
	return r.ProductRepository.Update(p, expectedVersion)
}

func TestCreateOrder_ConflictIsNotRetried(t *testing.T) {
	f := newFixture(t)
	products := &conflictingProducts{ProductRepository: f.products, failOn: 1}
	w := NewWorkflowWithoutMetrics(f.customers, products, f.orders, f.discounts,
		log.New().WithField("test", t.Name()))

	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 1}},
	})
	if !domain.IsConcurrentModification(err) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	// Проигравший ничего не списал.
	stock, _ := f.productStock(t, f.pen.ID)
	if stock != 100 {
		t.Fatalf("expected untouched stock 100, got %d", stock)
	}
}

func TestCreateOrder_ConflictOnSecondLineCompensatesFirst(t *testing.T) {
	f := newFixture(t)

	// Конфликт на втором товаре: списание по первому возвращается
	// компенсацией; её собственный Update уже проходит.
	failing := &conflictingProducts{ProductRepository: f.products, failOn: 2}
	w := NewWorkflowWithoutMetrics(f.customers, failing, f.orders, f.discounts,
		log.New().WithField("test", t.Name()))

	_, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines: []CreateOrderLine{
			{ProductID: f.pen.ID, Quantity: 5},
			{ProductID: f.backpack.ID, Quantity: 1},
		},
	})
	if !domain.IsConcurrentModification(err) {
		t.Fatalf("expected ErrConcurrentModification, got %v", err)
	}

	penStock, _ := f.productStock(t, f.pen.ID)
	if penStock != 100 {
		t.Fatalf("expected pen stock restored to 100, got %d", penStock)
	}
}

func TestCreateOrder_DateIsDateOnly(t *testing.T) {
	f := newFixture(t)
	w := f.workflow(t)

	order, err := w.CreateOrder(context.Background(), CreateOrderRequest{
		CustomerID: f.customer.ID,
		Lines:      []CreateOrderLine{{ProductID: f.pen.ID, Quantity: 1}},
	})
	if err != nil {
		t.Fatalf("create order: %v", err)
	}

	if order.Date.Hour() != 0 || order.Date.Minute() != 0 || order.Date.Second() != 0 {
		t.Fatalf("expected date truncated to midnight, got %v", order.Date)
	}
	if order.Date.Location() != time.UTC {
		t.Fatalf("expected UTC date, got %v", order.Date.Location())
	}
}
