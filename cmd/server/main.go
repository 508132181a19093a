// Command spendwise-server starts the Spendwise REST API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spendwise/api/internal/cache"
	"github.com/spendwise/api/internal/config"
	"github.com/spendwise/api/internal/limiter"
	"github.com/spendwise/api/internal/migrate"
	"github.com/spendwise/api/internal/repository/postgres"
	httpserver "github.com/spendwise/api/internal/server/http"
	"github.com/spendwise/api/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and starts the HTTP server.
func main() {
	logger, _ := zap.NewProduction()
	defer func() { _ = logger.Sync() }()

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config", zap.Error(err))
	}
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("port", cfg.Port),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := migrate.Up(ctx, cfg.DatabaseDSN); err != nil {
		logger.Fatal("migrate up", zap.Error(err))
	}

	// DB pool
	pool, err := pgxpool.New(ctx, cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("pgxpool.New", zap.Error(err))
	}
	defer pool.Close()

	// Repositories
	db := &postgres.DB{Pool: pool}
	userRepo := postgres.NewUserRepo(db)
	categoryRepo := postgres.NewCategoryRepo(db)
	expenseRepo := postgres.NewExpenseRepo(db)
	budgetRepo := postgres.NewBudgetRepo(db)
	auditRepo := postgres.NewAuditRepo(db)

	lim := limiter.NewPG(pool, cfg.LimiterWindow, cfg.LimiterMaxFails, cfg.LimiterBlockFor)

	// Metrics cache is optional; the server runs uncached without redis.
	var metrics *cache.Metrics
	if cfg.RedisAddr != "" {
		client, err := cache.Connect(ctx, cfg.RedisAddr)
		if err != nil {
			logger.Warn("redis unavailable, metrics cache disabled", zap.Error(err))
		} else {
			defer func() { _ = client.Close() }()
			metrics = cache.NewMetrics(client, cache.DefaultTTL)
		}
	}

	// Services
	authSvc := service.NewAuthService(userRepo, []byte(cfg.JWTKey), cfg.AccessTTL, cfg.RefreshTTL, lim)
	categorySvc := service.NewCategoryService(categoryRepo, expenseRepo, budgetRepo, userRepo)
	expenseSvc := service.NewExpenseService(expenseRepo, categoryRepo, budgetRepo, userRepo, auditRepo)
	budgetSvc := service.NewBudgetService(budgetRepo, categoryRepo, expenseRepo, userRepo, metrics)

	app := httpserver.New(authSvc, authSvc, categorySvc, expenseSvc, budgetSvc, db, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           app.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	// Wait for stop
	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("shutdown", zap.Error(err))
		}
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", zap.Error(err))
			os.Exit(1)
		}
	}

	logger.Info("shutdown complete")
}
