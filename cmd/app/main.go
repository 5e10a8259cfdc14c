package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Puneet-Vishnoi/order-book/config"
	"github.com/Puneet-Vishnoi/order-book/db/postgres"
	"github.com/Puneet-Vishnoi/order-book/db/postgres/providers"
	"github.com/Puneet-Vishnoi/order-book/metrics"
	"github.com/Puneet-Vishnoi/order-book/repository"
	"github.com/Puneet-Vishnoi/order-book/routes"
	"github.com/Puneet-Vishnoi/order-book/service"
	"github.com/Puneet-Vishnoi/order-book/utils"
)

func main() {
	envPath := flag.String("env", ".env", "path to the .env file")
	flag.Parse()

	// 1. Config & logger
	cfg, err := config.Load(*envPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := utils.NewLogger(cfg.LogLevel)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 2. Order store
	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to open order store", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() {
		if err := store.Close(); err != nil {
			logger.Error("error closing order store", zap.Error(err))
		}
	}()

	// 3. Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(registry)

	// 4. Services
	orderSrv := service.NewOrderService(store, logger, m)
	categorySrv := service.NewCategoryService(store, logger)

	// 5. Gin Router & Handlers
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	routes.RegisterRoutes(router, orderSrv, categorySrv, registry, logger)

	handler := http.Handler(router)
	if len(cfg.CORSAllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
			AllowedHeaders: []string{"Content-Type", "Authorization", "X-Request-ID"},
			ExposedHeaders: []string{"Location", "X-Request-ID"},
		}).Handler(router)
	}

	// 6. Run REST API
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: handler,
	}

	go func() {
		logger.Info("order book REST API running", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("failed to start server", zap.Error(err))
		}
	}()

	// 7. Wait for OS signal, then shut down gracefully
	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", zap.Error(err))
		return
	}
	logger.Info("gracefully shutdown")
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (repository.Store, error) {
	switch cfg.StoreDriver {
	case config.DriverPebble:
		if err := os.MkdirAll(cfg.PebblePath, 0o755); err != nil {
			return nil, err
		}
		logger.Info("using pebble order store", zap.String("path", cfg.PebblePath))
		return repository.OpenPebbleStore(cfg.PebblePath, nil)

	case config.DriverPostgres:
		db, err := postgres.ConnectDB(ctx, cfg.Postgres, logger)
		if err != nil {
			return nil, err
		}
		if cfg.Postgres.InitSchema {
			if err := db.InitSchema(ctx); err != nil {
				db.Stop()
				return nil, err
			}
		}
		dbHelper, err := providers.NewDbProvider(db.PostgresClient)
		if err != nil {
			db.Stop()
			return nil, err
		}
		return repository.NewPostgresStore(dbHelper), nil
	}
	return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
}
