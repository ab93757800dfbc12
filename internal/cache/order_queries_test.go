package cache

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// countingRepo считает обращения к Query поверх реального ответа.
type countingRepo struct {
	queries int
	items   []domain.Order
}

func (r *countingRepo) Insert(o domain.Order) (domain.Order, error) {
	r.items = append(r.items, o)
	return o, nil
}

func (r *countingRepo) Get(id uint64) (domain.Order, error) {
	for _, o := range r.items {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (r *countingRepo) Query(domain.OrderQuery) ([]domain.Order, int, error) {
	r.queries++
	out := make([]domain.Order, len(r.items))
	for i, o := range r.items {
		out[i] = o.Clone()
	}
	return out, len(out), nil
}

func cachedOrder(id uint64) domain.Order {
	price := decimal.NewFromInt(10)
	return domain.Order{
		ID:         id,
		CustomerID: 1,
		Date:       time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		Subtotal:   price,
		Total:      price,
		Lines:      []domain.OrderLine{{ProductID: 1, Quantity: 1, UnitPrice: price}},
		Version:    1,
	}
}

func TestOrderQueries_CachesRepeatedQuery(t *testing.T) {
	repo := &countingRepo{items: []domain.Order{cachedOrder(1)}}
	cached := NewOrderQueries(repo, time.Minute, nil)

	q := domain.OrderQuery{Page: 1, PageSize: 10}

	first, total, err := cached.Query(q)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	second, total2, err := cached.Query(q)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	if repo.queries != 1 {
		t.Fatalf("expected single repository hit, got %d", repo.queries)
	}
	if len(first) != len(second) || total != total2 {
		t.Fatalf("cached result differs: %d/%d vs %d/%d", len(first), total, len(second), total2)
	}
}

func TestOrderQueries_DistinctParamsMiss(t *testing.T) {
	repo := &countingRepo{items: []domain.Order{cachedOrder(1)}}
	cached := NewOrderQueries(repo, time.Minute, nil)

	customer := uint64(1)
	queries := []domain.OrderQuery{
		{Page: 1, PageSize: 10},
		{Page: 2, PageSize: 10},
		{Page: 1, PageSize: 5},
		{CustomerID: &customer, Page: 1, PageSize: 10},
	}
	for _, q := range queries {
		if _, _, err := cached.Query(q); err != nil {
			t.Fatalf("query failed: %v", err)
		}
	}

	if repo.queries != len(queries) {
		t.Fatalf("expected %d repository hits, got %d", len(queries), repo.queries)
	}
}

func TestOrderQueries_DisabledTTLBypassesCache(t *testing.T) {
	repo := &countingRepo{items: []domain.Order{cachedOrder(1)}}
	cached := NewOrderQueries(repo, 0, nil)

	q := domain.OrderQuery{Page: 1, PageSize: 10}
	for i := 0; i < 3; i++ {
		if _, _, err := cached.Query(q); err != nil {
			t.Fatalf("query failed: %v", err)
		}
	}

	if repo.queries != 3 {
		t.Fatalf("expected cache bypass, got %d repository hits", repo.queries)
	}
}

func TestOrderQueries_ServedCopiesAreIndependent(t *testing.T) {
	repo := &countingRepo{items: []domain.Order{cachedOrder(1)}}
	cached := NewOrderQueries(repo, time.Minute, nil)

	q := domain.OrderQuery{Page: 1, PageSize: 10}
	first, _, err := cached.Query(q)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}

	// Мутация выданной страницы не должна испортить кэш.
	first[0].Lines[0].Quantity = 999
	first[0].CustomerName = "mutated"

	second, _, err := cached.Query(q)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if second[0].Lines[0].Quantity == 999 || second[0].CustomerName == "mutated" {
		t.Fatal("served page shares memory with cache")
	}
}

func TestQueryKey(t *testing.T) {
	customer := uint64(7)
	from := time.Date(2026, time.March, 1, 10, 30, 0, 0, time.UTC)
	to := time.Date(2026, time.March, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		q    domain.OrderQuery
		want string
	}{
		{
			name: "all filters",
			q:    domain.OrderQuery{CustomerID: &customer, From: &from, To: &to, Page: 2, PageSize: 10},
			want: "orders-7-2026-03-01T10:30:00Z-2026-03-05T00:00:00Z-2-10",
		},
		{
			name: "no filters",
			q:    domain.OrderQuery{Page: 1, PageSize: 20},
			want: "orders-------1-20",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := queryKey(tt.q); got != tt.want {
				t.Errorf("queryKey() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestQueryKey_TimeOfDayDistinguished(t *testing.T) {
	// Репозиторий фильтрует с точностью time.Time, поэтому границы,
	// различающиеся только временем суток, не должны делить один ключ.
	midnight := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)
	noon := time.Date(2026, time.March, 1, 12, 0, 0, 0, time.UTC)

	a := queryKey(domain.OrderQuery{From: &midnight, Page: 1, PageSize: 10})
	b := queryKey(domain.OrderQuery{From: &noon, Page: 1, PageSize: 10})
	if a == b {
		t.Fatalf("expected distinct keys for distinct bounds, both %q", a)
	}

	c := queryKey(domain.OrderQuery{To: &midnight, Page: 1, PageSize: 10})
	d := queryKey(domain.OrderQuery{To: &noon, Page: 1, PageSize: 10})
	if c == d {
		t.Fatalf("expected distinct keys for distinct bounds, both %q", c)
	}
}

func TestOrderQueries_TimeOfDayBoundsDoNotCollide(t *testing.T) {
	// Заказ датирован полуночью. Выборка от полуночи его видит, выборка
	// от полудня — нет; кэш первой не должен обслуживать вторую.
	order := cachedOrder(1)
	order.Date = time.Date(2026, time.August, 28, 0, 0, 0, 0, time.UTC)
	repo := &timeFilteringRepo{items: []domain.Order{order}}
	cached := NewOrderQueries(repo, time.Minute, nil)

	midnight := order.Date
	noon := order.Date.Add(12 * time.Hour)

	_, total, err := cached.Query(domain.OrderQuery{From: &midnight, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if total != 1 {
		t.Fatalf("expected midnight bound to match the order, got total %d", total)
	}

	_, total, err = cached.Query(domain.OrderQuery{From: &noon, Page: 1, PageSize: 10})
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if total != 0 {
		t.Fatalf("expected noon bound to miss the order, got total %d", total)
	}
}

// timeFilteringRepo применяет фильтр From с полной точностью, как настоящий
// репозиторий заказов.
type timeFilteringRepo struct {
	items []domain.Order
}

func (r *timeFilteringRepo) Insert(o domain.Order) (domain.Order, error) {
	r.items = append(r.items, o)
	return o, nil
}

func (r *timeFilteringRepo) Get(id uint64) (domain.Order, error) {
	for _, o := range r.items {
		if o.ID == id {
			return o.Clone(), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (r *timeFilteringRepo) Query(q domain.OrderQuery) ([]domain.Order, int, error) {
	matched := make([]domain.Order, 0)
	for _, o := range r.items {
		if q.From != nil && o.Date.Before(*q.From) {
			continue
		}
		if q.To != nil && o.Date.After(*q.To) {
			continue
		}
		matched = append(matched, o.Clone())
	}
	return matched, len(matched), nil
}
