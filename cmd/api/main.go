// cmd/api/main.go
package main

import (
	"context"
	"errors"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/vardan-naturals/storefront/internal/config"
	"github.com/vardan-naturals/storefront/internal/domain/cart"
	"github.com/vardan-naturals/storefront/internal/domain/pricing"
	"github.com/vardan-naturals/storefront/internal/infrastructure/database/postgres"
	"github.com/vardan-naturals/storefront/internal/infrastructure/database/redis"
	"github.com/vardan-naturals/storefront/internal/interfaces/http"
	"github.com/vardan-naturals/storefront/internal/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logr := logger.New(cfg.Logging)
	logr.Infof("🚀 Starting %s v%s in %s mode", cfg.App.Name, cfg.App.Version, cfg.App.Environment)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	deps := http.Dependencies{
		Config: cfg,
		Logger: logr,
		Health: map[string]http.HealthCheck{},
	}

	// Cart storage
	switch cfg.Storage.Driver {
	case config.StorageRedis:
		redisClient, err := redis.NewConnection(cfg, logr)
		if err != nil {
			logr.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redisClient.Close()

		deps.Storage = redis.NewCartStorage(redisClient, cfg.Storage.SessionTTL)
		deps.Redis = redisClient.GetClient()
		deps.Health["redis"] = redisClient.Health

	case config.StoragePostgres:
		db, err := postgres.NewConnection(cfg, logr)
		if err != nil {
			logr.WithError(err).Fatal("Failed to connect to database")
		}
		defer db.Close()

		migration := postgres.NewMigration(db.GetDB(), logr)
		if err := migration.RunAutoMigrations(); err != nil {
			logr.WithError(err).Fatal("Database migration failed")
		}
		if err := migration.CreateIndexes(); err != nil {
			logr.WithError(err).Warn("Index creation failed")
		}

		storage := postgres.NewCartStorage(db.GetDB())
		go purgeStaleCarts(ctx, storage, cfg.Storage.SessionTTL, logr)

		deps.Storage = storage
		deps.Health["database"] = db.Health

	default:
		logr.Warn("Using in-memory cart storage, carts are lost on restart")
		deps.Storage = cart.NewMemoryStorage()
	}

	// Price table
	prices, err := pricing.LoadTable(cfg.Catalog.PricesFile)
	if err != nil {
		logr.WithError(err).WithField("path", cfg.Catalog.PricesFile).Error("Failed to load price table, starting empty")
		prices = pricing.NewTable()
	} else {
		logr.WithField("products", prices.Len()).Info("📦 Price table loaded")
	}
	deps.Prices = prices

	go func() {
		watcher := pricing.NewWatcher(cfg.Catalog.PricesFile, prices, logr)
		if err := watcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.WithError(err).Warn("Price file watcher stopped")
		}
	}()

	if cfg.Catalog.SaleFile != "" {
		sale, err := pricing.LoadSaleConfig(cfg.Catalog.SaleFile)
		if err != nil {
			logr.WithError(err).Warn("Failed to load sale config, sale badges disabled")
		} else {
			deps.Sale = sale
		}
	}

	for name, check := range deps.Health {
		if err := check(); err != nil {
			logr.WithError(err).Fatalf("%s health check failed", name)
		}
	}

	logr.Info("✅ All systems operational!")

	// Create and start HTTP server
	server := http.NewServer(deps)

	go func() {
		if err := server.Start(); err != nil {
			logr.WithError(err).Fatal("Failed to start HTTP server")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	<-ctx.Done()

	logr.Info("👋 Shutting down gracefully...")

	// Give server 30 seconds to shutdown gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Stop(shutdownCtx); err != nil {
		logr.WithError(err).Error("Failed to shutdown HTTP server gracefully")
	}

	logr.Info("✅ Server shutdown completed")
}

// purgeStaleCarts drops carts untouched for longer than ttl, once an hour
func purgeStaleCarts(ctx context.Context, storage *postgres.CartStorage, ttl time.Duration, logr logrus.FieldLogger) {
	if ttl <= 0 {
		return
	}

	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		removed, err := storage.PurgeOlderThan(ctx, time.Now().Add(-ttl))
		if err != nil {
			logr.WithError(err).Warn("Failed to purge stale carts")
		} else if removed > 0 {
			logr.WithField("removed", removed).Info("Purged stale carts")
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
