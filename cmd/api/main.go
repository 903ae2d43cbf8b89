// API entrypoint: loads configuration, wires dependencies and serves HTTP.
package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/httpapi"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/results"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/voting"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/domain"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/clock"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/config"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/health"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/logger"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/migrations"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/ratelimit"
	postgresstorage "github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/storage/postgres"
	redisstorage "github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/storage/redis"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("invalid configuration", "err", err)
	}

	// The GORM connection is shared across the whole lifecycle so the pool
	// and the readiness probe see the same state.
	db, err := postgresstorage.Open(ctx, cfg.PostgresDSN())
	if err != nil {
		logger.Fatal("postgres connection failed", "err", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		logger.Fatal("could not unwrap sql.DB", "err", err)
	}
	defer sqlDB.Close()

	if cfg.AutoMigrate {
		// Automatic migrations only run when enabled, to avoid surprises in
		// production.
		if err := migrations.Run(db); err != nil {
			logger.Fatal("automatic migration failed", "err", err)
		}
	}

	// Redis backs live counters, the recompute queue and the rate limiter.
	redisClient, err := redisstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connection failed", "err", err)
	}
	defer redisClient.Close()

	store := postgresstorage.NewStore(db)
	counters := redisstorage.NewCounter(redisClient, cfg.CounterKeyPrefix)
	queue := redisstorage.NewRecomputeQueue(redisClient, cfg.RecomputeQueueKey)
	aggregator := results.NewAggregator()
	clockSystem := clock.NewSystemClock()

	var guard domain.FraudGuard = ratelimit.NewNoop()
	if cfg.RateLimitEnabled {
		window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second
		guard = ratelimit.NewRedisLimiter(redisClient, cfg.RateLimitMaxActions, window, cfg.RateLimitKeyPrefix)
	}

	service := voting.NewService(
		store,
		aggregator,
		counters,
		queue,
		guard,
		clockSystem,
		nil,
	)

	mux := http.NewServeMux()
	checker := health.NewChecker(sqlDB, redisClient)

	// The same mux serves the API, the readiness probe and the Prometheus
	// scrape endpoint.
	api := httpapi.New(service, logger.L(), cfg.ResultsToken)
	api.Register(mux)
	mux.HandleFunc("/readyz", checker.ReadyHandler())
	mux.Handle("/metrics", promhttp.Handler())

	logger.Info("api listening", "addr", cfg.HTTPAddress)
	if err := http.ListenAndServe(cfg.HTTPAddress, mux); err != nil {
		logger.Fatal("http server error", "err", err)
	}
}
