// Asynchronous worker that drains the recompute queue and rebuilds vote
// summaries, keeping its own metrics endpoint up while it runs.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/results"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/app/worker"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/config"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/health"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/logger"
	"github.com/dsiemon2/Voting-NewAndImproved-sub003/internal/platform/migrations"
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

	// The worker shares the API's GORM setup so both run against the same
	// schema and migration history.
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
		if err := migrations.Run(db); err != nil {
			logger.Fatal("automatic migration failed", "err", err)
		}
	}

	redisClient, err := redisstorage.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		logger.Fatal("redis connection failed", "err", err)
	}
	defer redisClient.Close()

	queue := redisstorage.NewRecomputeQueue(redisClient, cfg.RecomputeQueueKey)
	checker := health.NewChecker(sqlDB, redisClient)

	if cfg.WorkerMetricsAddress != "" {
		go func() {
			// Metrics stay reachable while the main goroutine blocks on the
			// queue.
			mux := http.NewServeMux()
			mux.Handle("/metrics", promhttp.Handler())
			mux.HandleFunc("/readyz", checker.ReadyHandler())
			logger.Info("worker metrics listening", "addr", cfg.WorkerMetricsAddress)
			if err := http.ListenAndServe(cfg.WorkerMetricsAddress, mux); err != nil {
				logger.Error("worker metrics server error", "err", err)
			}
		}()
	}

	store := postgresstorage.NewStore(db)
	processor := worker.NewRecomputeProcessor(store, results.NewAggregator())

	logger.Info("worker started, waiting for recompute requests")
	err = queue.Consume(ctx, func(ctx context.Context, eventID uint) error {
		// Failures are logged and swallowed so one bad event does not stall
		// the queue. The next vote for that event republishes the rebuild.
		if err := processor.Process(ctx, eventID); err != nil {
			logger.Error("recompute failed", "event", eventID, "err", err)
		}
		return nil
	})

	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		logger.Fatal("worker stopped with error", "err", err)
	}

	logger.Info("worker stopped")
}
