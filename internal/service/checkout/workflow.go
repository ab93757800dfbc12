// Пакет checkout реализует оформление заказа как последовательность
// операций над хранилищем без общей блокировки: проверка покупателя,
// построчное резервирование остатков через optimistic update, поиск
// скидки, расчёт сумм и сохранение заказа. Частично применённые списания
// явно компенсируются при любом последующем отказе.
package checkout

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/domain"
	"github.com/divyamds/OrdersDemo/internal/metrics"
)

const (
	// Параметры повторов компенсирующего возврата остатков.
	compensateMaxAttempts = 5
	compensateBaseDelay   = 5 * time.Millisecond
)

var hundred = decimal.NewFromInt(100)

// CreateOrderLine — запрошенная позиция заказа.
type CreateOrderLine struct {
	ProductID uint64
	Quantity  int64
}

// CreateOrderRequest — входные данные оформления заказа.
type CreateOrderRequest struct {
	CustomerID   uint64
	DiscountCode string
	Lines        []CreateOrderLine
}

// Workflow координирует оформление заказа поверх репозиториев и границы
// сервиса скидок.
type Workflow struct {
	customers domain.CustomerRepository
	products  domain.ProductRepository
	orders    domain.OrderRepository
	discounts domain.DiscountService
	logger    *log.Entry
	metrics   *metrics.CheckoutMetrics
	now       func() time.Time
}

// NewWorkflow создаёт рабочий экземпляр с метриками в реестре по умолчанию.
func NewWorkflow(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	discounts domain.DiscountService,
	logger *log.Entry,
) *Workflow {
	w := newWorkflow(customers, products, orders, discounts, logger)
	w.metrics = metrics.NewCheckoutMetrics()
	return w
}

// NewWorkflowWithoutMetrics создаёт workflow без метрик (для тестов).
func NewWorkflowWithoutMetrics(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	discounts domain.DiscountService,
	logger *log.Entry,
) *Workflow {
	return newWorkflow(customers, products, orders, discounts, logger)
}

func newWorkflow(
	customers domain.CustomerRepository,
	products domain.ProductRepository,
	orders domain.OrderRepository,
	discounts domain.DiscountService,
	logger *log.Entry,
) *Workflow {
	if logger == nil {
		logger = log.New().WithField("component", "checkout")
	}
	return &Workflow{
		customers: customers,
		products:  products,
		orders:    orders,
		discounts: discounts,
		logger:    logger,
		now:       time.Now,
	}
}

// appliedLine фиксирует уже применённое списание для компенсации.
type appliedLine struct {
	productID uint64
	quantity  int64
}

// CreateOrder оформляет заказ. Конфликт версий при списании остатков не
// повторяется автоматически: гонка за последние единицы товара — легальный,
// видимый пользователю отказ. Все ранее применённые списания при этом
// компенсируются до возврата ошибки.
func (w *Workflow) CreateOrder(ctx context.Context, req CreateOrderRequest) (domain.Order, error) {
	start := time.Now()
	if w.metrics != nil {
		w.metrics.RecordCheckoutStarted()
	}
	defer func() {
		if w.metrics != nil {
			w.metrics.RecordCheckoutDuration(time.Since(start))
		}
	}()

	logger := w.logger.WithFields(log.Fields{
		"request_id":  uuid.NewString(),
		"customer_id": req.CustomerID,
	})

	if len(req.Lines) == 0 {
		w.recordFailure("validation")
		return domain.Order{}, domain.ErrLinesRequired
	}
	for _, line := range req.Lines {
		if line.Quantity <= 0 {
			w.recordFailure("validation")
			return domain.Order{}, domain.ErrQuantityInvalid
		}
	}

	customer, err := w.customers.Get(req.CustomerID)
	if err != nil {
		logger.WithError(err).Warn("checkout rejected: unknown customer")
		w.recordFailure("customer_not_found")
		return domain.Order{}, domain.ErrCustomerNotFound
	}

	applied := make([]appliedLine, 0, len(req.Lines))
	lines := make([]domain.OrderLine, 0, len(req.Lines))
	subtotal := decimal.Zero

	for _, line := range req.Lines {
		product, err := w.products.Get(line.ProductID)
		if err != nil {
			w.compensate(logger, applied)
			logger.WithField("product_id", line.ProductID).Warn("checkout rejected: unknown product")
			w.recordFailure("product_not_found")
			return domain.Order{}, domain.ErrProductNotFound
		}

		if line.Quantity > product.Stock {
			w.compensate(logger, applied)
			logger.WithFields(log.Fields{
				"product_id": product.ID,
				"requested":  line.Quantity,
				"available":  product.Stock,
			}).Warn("checkout rejected: insufficient stock")
			w.recordFailure("insufficient_stock")
			return domain.Order{}, &domain.InsufficientStockError{
				ProductID:   product.ID,
				ProductName: product.Name,
				Requested:   line.Quantity,
				Available:   product.Stock,
			}
		}

		// Цена снимается до списания и не пересчитывается позже.
		decremented := product
		decremented.Stock -= line.Quantity

		if _, err := w.products.Update(decremented, product.Version); err != nil {
			w.compensate(logger, applied)
			if domain.IsVersionConflict(err) {
				logger.WithField("product_id", product.ID).Warn("checkout lost stock race")
				w.recordFailure("concurrent_modification")
				return domain.Order{}, domain.ErrConcurrentModification
			}
			// Товар исчез между чтением и списанием.
			logger.WithError(err).WithField("product_id", product.ID).Warn("checkout rejected: product vanished")
			w.recordFailure("product_not_found")
			return domain.Order{}, domain.ErrProductNotFound
		}

		applied = append(applied, appliedLine{productID: product.ID, quantity: line.Quantity})
		lines = append(lines, domain.OrderLine{
			ProductID: product.ID,
			Quantity:  line.Quantity,
			UnitPrice: product.Price,
		})
		subtotal = subtotal.Add(product.Price.Mul(decimal.NewFromInt(line.Quantity)))
	}

	discountPercent := decimal.Zero
	if strings.TrimSpace(req.DiscountCode) != "" {
		// Сбой или отмена поиска скидки никогда не срывает оформление.
		discountPercent = w.discounts.GetDiscount(ctx, req.DiscountCode)
	}
	discountApplied := subtotal.Mul(discountPercent).Div(hundred).Round(domain.CurrencyScale)
	total := subtotal.Sub(discountApplied)

	order := domain.Order{
		CustomerID:      customer.ID,
		CustomerName:    customer.Name,
		Date:            dateOnly(w.now().UTC()),
		Subtotal:        subtotal,
		DiscountApplied: discountApplied,
		Total:           total,
		Lines:           lines,
	}

	stored, err := w.orders.Insert(order)
	if err != nil {
		w.compensate(logger, applied)
		w.recordFailure("persist")
		return domain.Order{}, err
	}

	if w.metrics != nil {
		w.metrics.RecordCheckoutSucceeded()
	}
	logger.WithFields(log.Fields{
		"order_id": stored.ID,
		"total":    stored.Total.String(),
	}).Info("order created")
	return stored, nil
}

// compensate возвращает остатки по уже применённым списаниям в обратном
// порядке. Ошибки компенсации логируются и учитываются в метриках, но не
// подменяют исходную причину отказа.
func (w *Workflow) compensate(logger *log.Entry, applied []appliedLine) {
	for i := len(applied) - 1; i >= 0; i-- {
		line := applied[i]
		if err := w.restock(line.productID, line.quantity); err != nil {
			if w.metrics != nil {
				w.metrics.RecordCompensationFailed()
			}
			logger.WithError(err).WithFields(log.Fields{
				"product_id": line.productID,
				"quantity":   line.quantity,
			}).Error("compensating stock increment failed")
			continue
		}
		if w.metrics != nil {
			w.metrics.RecordCompensation()
		}
		logger.WithFields(log.Fields{
			"product_id": line.productID,
			"quantity":   line.quantity,
		}).Debug("stock decrement compensated")
	}
}

// restock возвращает qty единиц товара, перечитывая запись и повторяя
// CAS с коротким backoff при конфликте версий.
func (w *Workflow) restock(productID uint64, qty int64) error {
	delay := compensateBaseDelay
	for attempt := 0; attempt < compensateMaxAttempts; attempt++ {
		product, err := w.products.Get(productID)
		if err != nil {
			// Товар удалён во время компенсации — возвращать некуда.
			return err
		}

		restored := product
		restored.Stock += qty

		_, err = w.products.Update(restored, product.Version)
		if err == nil {
			return nil
		}
		if !domain.IsVersionConflict(err) {
			return err
		}

		time.Sleep(delay)
		delay *= 2
	}
	return domain.ErrVersionConflict
}

func (w *Workflow) recordFailure(reason string) {
	if w.metrics != nil {
		w.metrics.RecordCheckoutFailed(reason)
	}
}

// dateOnly усекает момент времени до даты (полночь UTC).
func dateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
