package discount

import (
	"context"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

// MockService — конфигурируемая заглушка DiscountService для тестов.
type MockService struct {
	mu sync.Mutex

	// Percent возвращается для любого непустого кода.
	Percent decimal.Decimal

	Calls    int
	LastCode string
}

// NewMockService возвращает mock с нулевой скидкой по умолчанию.
func NewMockService() *MockService {
	return &MockService{}
}

// GetDiscount возвращает настроенный процент и считает вызовы.
// Пустой код, как и у настоящего клиента, даёт 0 без учёта вызова.
func (m *MockService) GetDiscount(_ context.Context, code string) decimal.Decimal {
	if code == "" {
		return decimal.Zero
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.Calls++
	m.LastCode = code
	return clampPercent(m.Percent)
}

var _ domain.DiscountService = (*MockService)(nil)
