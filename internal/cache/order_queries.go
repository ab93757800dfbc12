package cache

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// DefaultQueryTTL — срок жизни закэшированной страницы выборки.
const DefaultQueryTTL = time.Minute

var (
	queryCacheHitsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_query_cache_hits_total",
		Help: "Total number of order query results served from cache.",
	})
	queryCacheMissesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_query_cache_misses_total",
		Help: "Total number of order queries that fell through to the repository.",
	})
)

// queryPage — закэшированная страница вместе с общим числом совпадений.
type queryPage struct {
	items []domain.Order
	total int
}

// OrderQueries оборачивает репозиторий заказов мемоизацией Query по полному
// набору параметров. Вставки кэш не инвалидируют: страница живёт не дольше
// TTL, корректностью владеет репозиторий.
type OrderQueries struct {
	repo   domain.OrderRepository
	pages  *TTLCache[queryPage]
	ttl    time.Duration
	logger *log.Entry
}

// NewOrderQueries создаёт кэширующую обёртку. ttl <= 0 выключает кэш:
// каждая выборка уходит в репозиторий.
func NewOrderQueries(repo domain.OrderRepository, ttl time.Duration, logger *log.Entry) *OrderQueries {
	if logger == nil {
		logger = log.WithField("component", "order-query-cache")
	}
	return &OrderQueries{
		repo:   repo,
		pages:  NewTTLCache[queryPage](),
		ttl:    ttl,
		logger: logger,
	}
}

// Insert передаёт заказ репозиторию без изменений кэша.
func (c *OrderQueries) Insert(o domain.Order) (domain.Order, error) {
	return c.repo.Insert(o)
}

// Get читает заказ напрямую из репозитория.
func (c *OrderQueries) Get(id uint64) (domain.Order, error) {
	return c.repo.Get(id)
}

// Query отдаёт страницу из кэша, если она ещё жива, иначе спрашивает
// репозиторий и запоминает результат.
func (c *OrderQueries) Query(q domain.OrderQuery) ([]domain.Order, int, error) {
	if c.ttl <= 0 {
		return c.repo.Query(q)
	}

	key := queryKey(q)
	if page, ok := c.pages.Get(key); ok {
		queryCacheHitsTotal.Inc()
		c.logger.WithField("key", key).Debug("order query served from cache")
		return clonePage(page.items), page.total, nil
	}

	items, total, err := c.repo.Query(q)
	if err != nil {
		return nil, 0, err
	}

	queryCacheMissesTotal.Inc()
	c.pages.Set(key, queryPage{items: clonePage(items), total: total}, c.ttl)
	return items, total, nil
}

// Pages открывает нижележащий кэш страницам воркеру очистки.
func (c *OrderQueries) Pages() *TTLCache[queryPage] {
	return c.pages
}

// queryKey детерминированно кодирует полный набор параметров выборки.
// Границы дат кодируются с полной точностью time.Time: репозиторий
// фильтрует именно так, и две выборки, различающиеся только временем
// суток, обязаны жить под разными ключами.
func queryKey(q domain.OrderQuery) string {
	customer := "-"
	if q.CustomerID != nil {
		customer = fmt.Sprintf("%d", *q.CustomerID)
	}
	from, to := "-", "-"
	if q.From != nil {
		from = q.From.UTC().Format(time.RFC3339Nano)
	}
	if q.To != nil {
		to = q.To.UTC().Format(time.RFC3339Nano)
	}
	return fmt.Sprintf("orders-%s-%s-%s-%d-%d", customer, from, to, q.Page, q.PageSize)
}

// clonePage копирует заказы, чтобы вызывающие не делили память с кэшем.
func clonePage(items []domain.Order) []domain.Order {
	out := make([]domain.Order, len(items))
	for i, o := range items {
		out[i] = o.Clone()
	}
	return out
}

var _ domain.OrderRepository = (*OrderQueries)(nil)
