package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/cache"
	healthcheck "github.com/divyamds/OrdersDemo/internal/health"
	"github.com/divyamds/OrdersDemo/internal/version"
)

const (
	simulatedLatencyMin = 5 * time.Millisecond
	simulatedLatencyMax = 25 * time.Millisecond
)

// Config описывает минимальные настройки запуска приложения.
type Config struct {
	MetricsAddr     string
	DiscountBaseURL string
	QueryCacheTTL   time.Duration
	SimulateLatency bool
}

// DefaultConfig возвращает базовые настройки сервиса.
func DefaultConfig() Config {
	return Config{
		MetricsAddr:     ":9090",
		DiscountBaseURL: "http://localhost:8085",
		QueryCacheTTL:   cache.DefaultQueryTTL,
	}
}

// Run собирает зависимости, заполняет хранилище базовыми данными и
// обслуживает метрики и health-probes до отмены ctx. Транспортный слой
// (маршрутизация, авторизация) подключается снаружи поверх Dependencies.
func Run(ctx context.Context, cfg Config) error {
	logger := log.WithField("component", "app")

	deps := NewDependencies(cfg, logger)
	if err := deps.Seed(); err != nil {
		return err
	}

	cleanup := cache.NewCleanupWorker(
		deps.OrderQueries.Pages(),
		cache.WithLogger(logger.WithField("component", "query-cache-cleanup-worker")),
	)
	go cleanup.Run(ctx)

	healthHandler := healthcheck.NewHandler(version.GetVersion())
	healthHandler.RegisterChecker("storage", healthcheck.NewSimpleChecker("storage", func() error {
		products, err := deps.Products.List()
		if err != nil {
			return err
		}
		if len(products) == 0 {
			return errors.New("seeded products missing")
		}
		return nil
	}))

	metricsSrv := startMetricsServer(ctx, cfg.MetricsAddr, logger, healthHandler)

	<-ctx.Done()
	logger.Info("получен сигнал остановки, останавливаем сервис")
	shutdownHTTP(metricsSrv, logger)
	return ctx.Err()
}

// startMetricsServer запускает HTTP-обработчик /metrics для Prometheus.
func startMetricsServer(ctx context.Context, addr string, logger *log.Entry, healthHandler http.Handler) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/healthz", healthHandler)
	mux.HandleFunc("/livez", healthcheck.LivenessHandler)

	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		logger.Infof("метрики доступны по адресу %s/metrics", addr)
		logger.Infof("health checks: %s/healthz, %s/livez", addr, addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Warn("metrics server failed")
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownHTTP(srv, logger)
	}()

	return srv
}

// shutdownHTTP аккуратно останавливает HTTP-сервер.
func shutdownHTTP(srv *http.Server, logger *log.Entry) {
	if srv == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Warn("metrics shutdown with error")
	}
}
