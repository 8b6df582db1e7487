package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/physiome/admin-api/internal/config"
	"github.com/physiome/admin-api/pkg/logger"
	"github.com/physiome/admin-api/pkg/messaging/redis"
	"github.com/physiome/admin-api/pkg/metrics"
	"github.com/physiome/admin-api/pkg/worker"
)

const healthAddr = ":8081"

func setupHealthCheck(log *logger.Logger, broker *redis.RedisBroker, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/live", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := broker.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))

	srv := &http.Server{Addr: healthAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "Health check server failed")
		}
	}()
	return srv
}

func main() {
	// Load config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	hostname, err := os.Hostname()
	if err != nil {
		hostname = "unknown"
	}
	log := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.App.LogLevel),
		JSON:  cfg.App.IsProduction(),
	}).WithFields(map[string]interface{}{"worker_id": hostname})
	log.SetGlobal()

	if cfg.Redis.URL == "" {
		log.Fatal(errors.New("redis.url is empty"), "Delivery reports are not published without Redis")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Initialize Redis broker
	broker, err := redis.NewRedisBroker(ctx, redis.Config{
		URL:      cfg.Redis.URL,
		PoolSize: cfg.Redis.PoolSize,
	}, log.Zerolog())
	if err != nil {
		log.Fatal(err, "Failed to create Redis broker")
	}
	defer broker.Close()

	reg := prometheus.NewRegistry()
	m := metrics.NewMetrics(reg, "physiome")

	// Setup health check endpoints
	health := setupHealthCheck(log, broker, reg)
	defer health.Close()

	// Handle shutdown signals
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info("Shutting down...")
		cancel()
	}()

	if err := worker.NewDeliveryMonitor(broker, log, m).Start(ctx); err != nil {
		log.Error(err, "Delivery monitor stopped")
	}
}
