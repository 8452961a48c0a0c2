package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/sione-id/backoffice-backend/api/routes"
	"github.com/sione-id/backoffice-backend/internal/auth"
	"github.com/sione-id/backoffice-backend/internal/catalog"
	"github.com/sione-id/backoffice-backend/internal/customers"
	"github.com/sione-id/backoffice-backend/internal/lending"
	"github.com/sione-id/backoffice-backend/internal/notifications"
	"github.com/sione-id/backoffice-backend/internal/requests"
	"github.com/sione-id/backoffice-backend/internal/users"
	"github.com/sione-id/backoffice-backend/pkg/config"
	"github.com/sione-id/backoffice-backend/pkg/db"
	"github.com/sione-id/backoffice-backend/pkg/logger"
	"github.com/sione-id/backoffice-backend/pkg/metrics"
	"github.com/sione-id/backoffice-backend/pkg/redis"
	"github.com/sione-id/backoffice-backend/pkg/sequence"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)
	dispatchMetrics := metrics.NewDispatchMetrics(registry)

	gormDB := dbClient.DB()
	seq := sequence.NewGenerator()

	notificationsRepo := notifications.NewRepository(gormDB)
	dispatcher, err := notifications.NewDispatcher(
		notificationsRepo,
		[]notifications.Sender{
			notifications.NewEmailSender(cfg.Notify, logg),
			notifications.NewWhatsAppSender(cfg.Notify, logg),
		},
		logg,
		dispatchMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create notification dispatcher", err)
		os.Exit(1)
	}

	notificationsService, err := notifications.NewService(notificationsRepo, dispatcher, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to create notifications service", err)
		os.Exit(1)
	}

	lendingService, err := lending.NewService(lending.NewRepository(gormDB), dbClient, seq)
	if err != nil {
		logg.Error(context.Background(), "failed to create lending service", err)
		os.Exit(1)
	}

	catalogService, err := catalog.NewService(catalog.NewRepository(gormDB), dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create catalog service", err)
		os.Exit(1)
	}

	customersService, err := customers.NewService(customers.NewRepository(gormDB))
	if err != nil {
		logg.Error(context.Background(), "failed to create customers service", err)
		os.Exit(1)
	}

	requestsService, err := requests.NewService(requests.NewRepository(gormDB), dbClient, seq, notificationsService)
	if err != nil {
		logg.Error(context.Background(), "failed to create requests service", err)
		os.Exit(1)
	}

	usersRepo := users.NewRepository(gormDB)
	usersService, err := users.NewService(usersRepo)
	if err != nil {
		logg.Error(context.Background(), "failed to create users service", err)
		os.Exit(1)
	}

	authService, err := auth.NewService(usersRepo, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create auth service", err)
		os.Exit(1)
	}

	addr := ":" + cfg.App.Port
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(routes.Deps{
			Config:        cfg,
			Logger:        logg,
			DB:            dbClient,
			Redis:         redisClient,
			Gatherer:      registry,
			HTTPMetrics:   httpMetrics,
			Auth:          authService,
			Lending:       lendingService,
			Catalog:       catalogService,
			Customers:     customersService,
			Requests:      requestsService,
			Users:         usersService,
			Notifications: notificationsService,
		}),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}
