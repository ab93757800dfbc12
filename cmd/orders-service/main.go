package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/divyamds/OrdersDemo/internal/app"
)

// setupLogger настраивает формат и уровень логирования для сервиса.
func setupLogger() {
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
	log.SetLevel(log.InfoLevel)
}

// readConfig формирует конфигурацию приложения, позволяя переопределить
// настройки через переменные окружения.
func readConfig() app.Config {
	cfg := app.DefaultConfig()
	if v := os.Getenv("ORDERS_METRICS_ADDR"); v != "" {
		cfg.MetricsAddr = v
	}
	if v := os.Getenv("ORDERS_DISCOUNT_URL"); v != "" {
		cfg.DiscountBaseURL = v
	}
	if v := os.Getenv("ORDERS_QUERY_CACHE_TTL"); v != "" {
		if ttl, err := time.ParseDuration(v); err == nil {
			cfg.QueryCacheTTL = ttl
		}
	}
	if v := os.Getenv("ORDERS_SIMULATE_LATENCY"); v != "" {
		if simulate, err := strconv.ParseBool(v); err == nil {
			cfg.SimulateLatency = simulate
		}
	}
	return cfg
}

func main() {
	setupLogger()
	cfg := readConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.WithFields(log.Fields{
		"metrics_addr": cfg.MetricsAddr,
		"discount_url": cfg.DiscountBaseURL,
	}).Info("запускаем orders-service")

	if err := app.Run(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		log.WithError(err).Fatal("приложение завершилось с ошибкой")
	}

	log.Info("orders-service остановлен")
}
