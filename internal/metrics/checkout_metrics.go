package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// CheckoutMetrics содержит метрики оформления заказов.
type CheckoutMetrics struct {
	// Счётчики исходов
	checkoutStarted   prometheus.Counter
	checkoutSucceeded prometheus.Counter
	checkoutFailed    *prometheus.CounterVec

	// Компенсации списаний остатков
	compensations       prometheus.Counter
	compensationsFailed prometheus.Counter

	// Гистограмма времени оформления
	checkoutDuration prometheus.Histogram
}

// NewCheckoutMetrics создаёт метрики в реестре по умолчанию.
func NewCheckoutMetrics() *CheckoutMetrics {
	return NewCheckoutMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

// NewCheckoutMetricsWithRegisterer создаёт метрики в явно заданном реестре
// (в тестах — отдельный Registry, чтобы не делить состояние).
func NewCheckoutMetricsWithRegisterer(registerer prometheus.Registerer) *CheckoutMetrics {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &CheckoutMetrics{
		checkoutStarted: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_checkout_started_total",
			Help: "Total number of order creation attempts",
		}),
		checkoutSucceeded: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_checkout_succeeded_total",
			Help: "Total number of orders created successfully",
		}),
		checkoutFailed: registerCounterVec(registerer, prometheus.CounterOpts{
			Name: "orders_checkout_failed_total",
			Help: "Total number of failed order creation attempts grouped by reason",
		}, []string{"reason"}),
		compensations: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_checkout_compensations_total",
			Help: "Total number of compensating stock increments applied",
		}),
		compensationsFailed: registerCounter(registerer, prometheus.CounterOpts{
			Name: "orders_checkout_compensation_failed_total",
			Help: "Total number of compensating stock increments that could not be applied",
		}),
		checkoutDuration: registerHistogram(registerer, prometheus.HistogramOpts{
			Name:    "orders_checkout_duration_seconds",
			Help:    "Duration of order creation in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
}

func registerCounter(registerer prometheus.Registerer, opts prometheus.CounterOpts) prometheus.Counter {
	collector := prometheus.NewCounter(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Counter)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter %q: %v", opts.Name, err))
	}
	return collector
}

func registerCounterVec(registerer prometheus.Registerer, opts prometheus.CounterOpts, labels []string) *prometheus.CounterVec {
	collector := prometheus.NewCounterVec(opts, labels)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(*prometheus.CounterVec)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register counter vec %q: %v", opts.Name, err))
	}
	return collector
}

func registerHistogram(registerer prometheus.Registerer, opts prometheus.HistogramOpts) prometheus.Histogram {
	collector := prometheus.NewHistogram(opts)
	if err := registerer.Register(collector); err != nil {
		if alreadyRegistered, ok := err.(prometheus.AlreadyRegisteredError); ok {
			existing, ok := alreadyRegistered.ExistingCollector.(prometheus.Histogram)
			if !ok {
				panic(fmt.Sprintf("collector %q already registered with unexpected type", opts.Name))
			}
			return existing
		}
		panic(fmt.Sprintf("register histogram %q: %v", opts.Name, err))
	}
	return collector
}

// RecordCheckoutStarted увеличивает счётчик попыток оформления.
func (m *CheckoutMetrics) RecordCheckoutStarted() {
	m.checkoutStarted.Inc()
}

// RecordCheckoutSucceeded увеличивает счётчик успешных оформлений.
func (m *CheckoutMetrics) RecordCheckoutSucceeded() {
	m.checkoutSucceeded.Inc()
}

// RecordCheckoutFailed увеличивает счётчик отказов с указанием причины.
func (m *CheckoutMetrics) RecordCheckoutFailed(reason string) {
	m.checkoutFailed.WithLabelValues(reason).Inc()
}

// RecordCompensation увеличивает счётчик применённых компенсаций.
func (m *CheckoutMetrics) RecordCompensation() {
	m.compensations.Inc()
}

// RecordCompensationFailed увеличивает счётчик неудавшихся компенсаций.
func (m *CheckoutMetrics) RecordCompensationFailed() {
	m.compensationsFailed.Inc()
}

// RecordCheckoutDuration записывает время оформления заказа.
func (m *CheckoutMetrics) RecordCheckoutDuration(duration time.Duration) {
	m.checkoutDuration.Observe(duration.Seconds())
}
