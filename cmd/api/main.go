package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/kraxel-io/kraxel-api/interfaces/http/rest"
	"github.com/kraxel-io/kraxel-api/interfaces/http/rest/handlers"
	"github.com/kraxel-io/kraxel-api/internal/cache"
	"github.com/kraxel-io/kraxel-api/internal/config"
	"github.com/kraxel-io/kraxel-api/internal/db"
	"github.com/kraxel-io/kraxel-api/internal/repository"
)

func main() {
	// A .env file is optional; real deployments set the environment
	// directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logger, err := newLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	chainPool, err := db.NewPool(ctx, cfg.ChainDB.DSN(), db.PoolConfig(cfg.Pool), logger)
	if err != nil {
		logger.Fatal("Failed to connect to chain database", zap.Error(err))
	}
	defer chainPool.Close()

	pricesPool, err := db.NewPool(ctx, cfg.PricesDB.DSN(), db.PoolConfig(cfg.Pool), logger)
	if err != nil {
		logger.Fatal("Failed to connect to prices database", zap.Error(err))
	}
	defer pricesPool.Close()

	// One process-wide cache fronts both databases.
	store := cache.New(cfg.Cache.MaxSize, cfg.Cache.TTL, logger)
	chainExec := db.NewExecutor(chainPool.Run, store, cfg.Cache.TTL, logger)
	pricesExec := db.NewExecutor(pricesPool.Run, store, cfg.Cache.TTL, logger)

	router := rest.NewRouter(
		handlers.NewTransactionHandler(repository.NewTransactionRepository(chainExec, logger), logger),
		handlers.NewTokenHandler(repository.NewTokenRepository(chainExec, logger), logger),
		handlers.NewSwapHandler(repository.NewSwapRepository(chainExec, logger), logger),
		handlers.NewPriceHandler(repository.NewPriceRepository(pricesExec, logger), logger),
		handlers.NewAdminHandler(store, logger),
		cfg.CORSOrigins,
		cfg.SlowRequestThreshold,
		logger,
	)

	srv := &http.Server{
		Addr:         cfg.ServerAddress,
		Handler:      router.Setup(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server",
			zap.String("address", cfg.ServerAddress),
			zap.String("environment", cfg.Environment),
		)

		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Server failed to start", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	logger.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(ctx, 30*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", zap.Error(err))
	}

	logger.Info("Server stopped")
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	var zcfg zap.Config
	if cfg.IsDevelopment() {
		zcfg = zap.NewDevelopmentConfig()
	} else {
		zcfg = zap.NewProductionConfig()
	}

	if level, err := zapcore.ParseLevel(cfg.LogLevel); err == nil {
		zcfg.Level = zap.NewAtomicLevelAt(level)
	}

	return zcfg.Build()
}
