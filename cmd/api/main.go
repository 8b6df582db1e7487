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
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/time/rate"

	"github.com/physiome/admin-api/internal/config"
	"github.com/physiome/admin-api/internal/email"
	adminHandler "github.com/physiome/admin-api/internal/handler/admin"
	appointmentHandler "github.com/physiome/admin-api/internal/handler/appointment"
	"github.com/physiome/admin-api/internal/handler/health"
	notificationHandler "github.com/physiome/admin-api/internal/handler/notification"
	promHandler "github.com/physiome/admin-api/internal/handler/prometheus"
	"github.com/physiome/admin-api/internal/middleware"
	"github.com/physiome/admin-api/internal/repository"
	"github.com/physiome/admin-api/internal/repository/cache"
	"github.com/physiome/admin-api/internal/repository/driver"
	"github.com/physiome/admin-api/internal/router"
	adminService "github.com/physiome/admin-api/internal/service/admin"
	appointmentService "github.com/physiome/admin-api/internal/service/appointment"
	authService "github.com/physiome/admin-api/internal/service/auth"
	notificationService "github.com/physiome/admin-api/internal/service/notification"
	"github.com/physiome/admin-api/pkg/auth"
	"github.com/physiome/admin-api/pkg/circuitbreaker"
	"github.com/physiome/admin-api/pkg/logger"
	"github.com/physiome/admin-api/pkg/messaging"
	"github.com/physiome/admin-api/pkg/messaging/redis"
	"github.com/physiome/admin-api/pkg/metrics"
	"github.com/physiome/admin-api/pkg/validator"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(&logger.Config{
		Level: logger.ParseLevel(cfg.App.LogLevel),
		JSON:  cfg.App.IsProduction(),
	})
	log.SetGlobal()

	ctx := context.Background()

	// Initialize metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewMetrics(reg, "physiome")

	// Initialize database
	store, err := driver.Open(ctx, cfg)
	if err != nil {
		log.Fatal(err, "failed to connect to database", "driver", cfg.Database.Driver)
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error(err, "failed to close database")
		}
	}()
	users := cache.NewUserRepository(store.Users, cfg.Cache.UserTTL, m.CacheLookups)

	checks := map[string]repository.Pinger{"database": store.Pinger}

	// Initialize notification pipeline
	transport := email.NewSMTPTransport(cfg.Mail, validator.New())
	renderer, err := notificationService.NewRenderer(notificationService.RendererConfig{
		From:        cfg.Mail.From,
		FrontendURL: cfg.App.FrontendURL,
	})
	if err != nil {
		log.Fatal(err, "failed to parse email templates")
	}

	opts := []notificationService.Option{
		notificationService.WithMetrics(m),
		notificationService.WithLogger(log),
	}
	if cfg.Redis.URL != "" {
		broker, err := redis.NewRedisBroker(ctx, redis.Config{
			URL:      cfg.Redis.URL,
			PoolSize: cfg.Redis.PoolSize,
		}, log.Zerolog())
		if err != nil {
			log.Fatal(err, "failed to connect to Redis")
		}
		defer broker.Close()
		opts = append(opts, notificationService.WithPublisher(messaging.NewBreakerPublisher(
			broker, circuitbreaker.NewCircuitBreaker(circuitbreaker.Settings{Name: "redis"}),
		)))
		checks["redis"] = broker
	}
	notifier := notificationService.NewService(
		notificationService.Config{From: cfg.Mail.From, Environment: cfg.App.Environment},
		transport, renderer, opts...,
	)

	if cfg.Mail.User == "" || cfg.Mail.Pass == "" {
		log.Warn("MAIL_USER or MAIL_PASS not set, outbound email will fail")
	}

	// Initialize services
	jwtSvc := auth.NewJWTService(cfg.JWT.Secret, 0)
	authSvc := authService.NewService(users, jwtSvc)
	adminSvc := adminService.NewService(users, store.Profiles, log)
	appointmentSvc := appointmentService.NewService(store.Appointments, users, notifier, log)

	// Setup router
	r := router.NewRouter(
		middleware.NewAuthMiddleware(authSvc),
		health.NewHandler(checks),
		promHandler.New(reg, m),
		router.RouterConfig{
			RateLimit:    rate.Limit(cfg.RateLimit.RPS),
			RateBurst:    cfg.RateLimit.Burst,
			AllowOrigins: cfg.CORS.AllowOrigins,
			MaxBodySize:  middleware.DefaultMaxBodySize,
			Production:   cfg.App.IsProduction(),
		},
		adminHandler.NewHandler(adminSvc),
		appointmentHandler.NewHandler(appointmentSvc),
		notificationHandler.NewHandler(notifier, email.Masked(cfg.Mail, cfg.App.Environment)),
	)
	r.Setup()

	// Create server
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:           r.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
		WriteTimeout:      cfg.Server.Timeout(),
	}

	go func() {
		log.Info("server listening", "port", cfg.Server.Port, "environment", cfg.App.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err, "failed to start server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error(err, "server forced to shutdown")
		return
	}

	log.Info("server exited properly")
}
