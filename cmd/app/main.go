package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexivanou/sportslocations/internal/api"
	"github.com/alexivanou/sportslocations/internal/cache"
	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/database"
	"github.com/alexivanou/sportslocations/internal/repository"
	"github.com/alexivanou/sportslocations/internal/service"
	"github.com/alexivanou/sportslocations/internal/stats"
	"github.com/alexivanou/sportslocations/internal/upstream"
	"go.uber.org/zap"
)

const (
	// purgeInterval is how often expired cache entries and idle rate limiters are dropped
	purgeInterval = 10 * time.Minute
	// limiterIdleTTL is how long an unused per-client limiter is kept
	limiterIdleTTL = 30 * time.Minute
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	db, err := database.Connect(ctx, cfg.DB)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatal("Failed to ping database", zap.Error(err))
	}
	logger.Info("Connected to database", zap.String("type", string(cfg.DB.Type)))

	if err := database.Migrate(db, cfg.DB, "migrations"); err != nil {
		logger.Fatal("Failed to run migrations", zap.Error(err))
	}

	repos := repository.NewRepositories(db, cfg.DB.Type)

	searchCache, err := cache.New(ctx, cfg.Cache, db, cfg.DB.Type, logger)
	if err != nil {
		logger.Fatal("Failed to initialize search cache", zap.Error(err))
	}

	upstreamClient := upstream.NewClient(cfg.Upstream, cfg.Locale.Allowed)
	logger.Info("Using upstream search backend",
		zap.String("url", cfg.Upstream.URL),
		zap.String("root_field", upstreamClient.RootField()),
	)

	svc := service.NewService(
		service.NewLocationSearch(upstreamClient, searchCache, cfg, logger),
		service.NewLayouts(repos.Layout, cfg.Selection, logger),
	)
	statsCollector := stats.NewCollector(db, cfg)

	var limiter *api.IPRateLimiter
	if cfg.Server.RateLimitRPS > 0 {
		limiter = api.NewIPRateLimiter(cfg.Server, logger)
	}
	go purge(ctx, searchCache, limiter, logger)

	router := api.NewRouter(svc, statsCollector, limiter, logger)

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logger.Info("Shutting down server...")
	stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Fatal("Server forced to shutdown", zap.Error(err))
	}

	if closer, ok := searchCache.(interface{ Close() error }); ok {
		if err := closer.Close(); err != nil {
			logger.Warn("Failed to close search cache", zap.Error(err))
		}
	}

	logger.Info("Server exited")
}

// purge periodically drops expired entries from cache backends that keep
// them and forgets rate limiters of clients that went quiet
func purge(ctx context.Context, c cache.Cache, limiter *api.IPRateLimiter, logger *zap.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		switch backend := c.(type) {
		case *cache.Memory:
			if n := backend.Purge(); n > 0 {
				logger.Debug("Purged expired cache entries", zap.Int("count", n))
			}
		case *cache.Database:
			n, err := backend.Purge(ctx)
			if err != nil {
				logger.Warn("Failed to purge cache", zap.Error(err))
			} else if n > 0 {
				logger.Debug("Purged expired cache entries", zap.Int64("count", n))
			}
		}
		// redis expires keys itself

		if limiter != nil {
			if n := limiter.Evict(limiterIdleTTL); n > 0 {
				logger.Debug("Evicted idle rate limiters", zap.Int("count", n))
			}
		}
	}
}
