package cache

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	log "github.com/sirupsen/logrus"
)

const (
	defaultCleanupInterval  = time.Minute
	defaultCleanupBatchSize = 256
)

var (
	cacheCleanupRunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_query_cache_cleanup_runs_total",
		Help: "Total number of query cache cleanup runs.",
	})
	cacheCleanupDeletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "orders_query_cache_cleanup_deleted_total",
		Help: "Total number of expired query cache entries evicted.",
	})
	cacheCleanupLastDeleted = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "orders_query_cache_cleanup_last_deleted",
		Help: "Number of entries evicted during the last cleanup run.",
	})
)

// Expirable — минимальный контракт кэша для воркера очистки.
type Expirable interface {
	DeleteExpired(before time.Time, limit int) int
}

// CleanupOptions задаёт параметры воркера очистки кэша выборок.
type CleanupOptions struct {
	Logger    *log.Entry
	Interval  time.Duration
	BatchSize int
}

// CleanupOption настраивает CleanupWorker.
type CleanupOption func(*CleanupOptions)

// WithLogger задаёт logger для воркера.
func WithLogger(logger *log.Entry) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Logger = logger
	}
}

// WithInterval задаёт интервал между циклами очистки.
func WithInterval(interval time.Duration) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.Interval = interval
	}
}

// WithBatchSize задаёт размер порции для одного вытеснения.
func WithBatchSize(batchSize int) CleanupOption {
	return func(opts *CleanupOptions) {
		opts.BatchSize = batchSize
	}
}

// CleanupWorker периодически вытесняет просроченные записи кэша, чтобы
// промахнувшиеся ключи не копились между обращениями.
type CleanupWorker struct {
	cache     Expirable
	logger    *log.Entry
	interval  time.Duration
	batchSize int
}

// NewCleanupWorker создаёт воркер очистки кэша выборок.
func NewCleanupWorker(cache Expirable, options ...CleanupOption) *CleanupWorker {
	opts := CleanupOptions{
		Interval:  defaultCleanupInterval,
		BatchSize: defaultCleanupBatchSize,
	}
	for _, option := range options {
		option(&opts)
	}

	logger := opts.Logger
	if logger == nil {
		logger = log.WithField("component", "query-cache-cleanup-worker")
	}

	if opts.Interval <= 0 {
		opts.Interval = defaultCleanupInterval
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = defaultCleanupBatchSize
	}

	return &CleanupWorker{
		cache:     cache,
		logger:    logger,
		interval:  opts.Interval,
		batchSize: opts.BatchSize,
	}
}

// Run запускает периодическую очистку до отмены ctx.
func (w *CleanupWorker) Run(ctx context.Context) {
	if w.cache == nil {
		w.logger.Warn("query cache cleanup worker is disabled: cache is nil")
		return
	}

	w.cleanup(time.Now().UTC())

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.cleanup(time.Now().UTC())
		}
	}
}

func (w *CleanupWorker) cleanup(before time.Time) {
	deleted := w.DeleteExpired(before)

	cacheCleanupRunsTotal.Inc()
	cacheCleanupLastDeleted.Set(float64(deleted))
	if deleted > 0 {
		w.logger.WithField("deleted", deleted).Debug("query cache cleanup completed")
	}
}

// DeleteExpired вытесняет все записи, истёкшие не позже before, порциями
// batchSize и возвращает общее число удалённых.
func (w *CleanupWorker) DeleteExpired(before time.Time) int {
	if before.IsZero() {
		before = time.Now().UTC()
	}

	totalDeleted := 0
	for {
		deleted := w.cache.DeleteExpired(before, w.batchSize)
		totalDeleted += deleted
		if deleted > 0 {
			cacheCleanupDeletedTotal.Add(float64(deleted))
		}
		if deleted < w.batchSize {
			break
		}
	}

	return totalDeleted
}
