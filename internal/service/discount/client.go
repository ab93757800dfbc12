// Пакет discount реализует границу внешнего сервиса скидок.
// Любой сбой транспорта, разбора ответа или отмены контекста разрешается
// в нулевую скидку: поиск скидки никогда не срывает оформление заказа.
package discount

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/domain"
)

const defaultTimeout = 3 * time.Second

var maxPercent = decimal.NewFromInt(100)

// discountDTO — элемент ответа внешнего сервиса.
type discountDTO struct {
	Code    string          `json:"code"`
	Percent decimal.Decimal `json:"percent"`
}

// Client запрашивает список скидок по HTTP и ищет совпадение кода без
// учёта регистра.
type Client struct {
	httpClient *http.Client
	baseURL    string
	logger     *log.Entry
}

// Option настраивает клиент скидок.
type Option func(*Client)

// WithHTTPClient подменяет HTTP-клиент (в тестах — httptest server client).
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithLogger задаёт logger клиента.
func WithLogger(logger *log.Entry) Option {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewClient создаёт клиент с таймаутом по умолчанию.
func NewClient(baseURL string, options ...Option) *Client {
	c := &Client{
		httpClient: &http.Client{Timeout: defaultTimeout},
		baseURL:    strings.TrimRight(baseURL, "/"),
		logger:     log.WithField("component", "discount-client"),
	}
	for _, option := range options {
		option(c)
	}
	return c
}

// GetDiscount возвращает процент скидки в [0, 100] для кода code.
// Пустой код не ходит в сеть; любая ошибка — это скидка 0.
func (c *Client) GetDiscount(ctx context.Context, code string) decimal.Decimal {
	if strings.TrimSpace(code) == "" {
		return decimal.Zero
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/discounts", nil)
	if err != nil {
		c.logger.WithError(err).Warn("building discount request failed")
		return decimal.Zero
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("code", code).Warn("discount lookup failed, applying zero discount")
		return decimal.Zero
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		c.logger.WithField("status", resp.StatusCode).Warn("discount service returned non-200, applying zero discount")
		return decimal.Zero
	}

	var discounts []discountDTO
	if err := json.NewDecoder(resp.Body).Decode(&discounts); err != nil {
		c.logger.WithError(err).Warn("decoding discounts failed, applying zero discount")
		return decimal.Zero
	}

	for _, d := range discounts {
		if strings.EqualFold(d.Code, code) {
			return clampPercent(d.Percent)
		}
	}
	return decimal.Zero
}

var _ domain.DiscountService = (*Client)(nil)

// clampPercent приводит процент к допустимому диапазону [0, 100].
func clampPercent(p decimal.Decimal) decimal.Decimal {
	if p.IsNegative() {
		return decimal.Zero
	}
	if p.GreaterThan(maxPercent) {
		return maxPercent
	}
	return p
}
