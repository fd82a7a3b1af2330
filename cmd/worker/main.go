package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/campuslf/lostfound-api/internal/config"
	"github.com/campuslf/lostfound-api/internal/domain/item"
	"github.com/campuslf/lostfound-api/internal/domain/notification"
	"github.com/campuslf/lostfound-api/internal/pkg/database"
	"github.com/campuslf/lostfound-api/internal/pkg/logger"
	"github.com/campuslf/lostfound-api/internal/pkg/search"
)

const (
	cleanupInterval = time.Hour
	resyncInterval  = 6 * time.Hour
)

// Indexer rebuilds the search index of found items
type Indexer interface {
	ResyncIndex(ctx context.Context) (int, error)
}

func main() {
	cfg := config.Load()
	logger.Init(logger.Config{
		Level:       cfg.LogLevel,
		Environment: cfg.Env,
		Service:     "lostfound-worker",
	})

	log.Info().Msg("Starting worker")

	db, err := database.NewPostgres(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to PostgreSQL")
	}
	defer database.ClosePostgres(db)

	rdb, err := database.NewRedis(cfg.RedisURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer database.CloseRedis(rdb)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGTERM, syscall.SIGINT)
	go func() {
		<-sigChan
		log.Info().Msg("Shutdown signal received")
		cancel()
	}()

	cleanup := notification.NewCleanupJob(notification.NewRepository(db), cfg.NotificationRetentionDays)
	go cleanup.Start(ctx, cleanupInterval)

	if !cfg.SearchEnabled() {
		log.Info().Msg("Search disabled, index resync not scheduled")
		<-ctx.Done()
		log.Info().Msg("worker stopped")
		return
	}

	// photos are never touched by a resync
	items := item.NewService(item.NewRepository(db), search.NewMeiliIndex(cfg.MeiliHost, cfg.MeiliAPIKey), nil, nil)

	wake := make(chan struct{}, 1)
	go subscribeWakeups(ctx, rdb, wake)

	runResync(ctx, items, resyncInterval, wake)
	log.Info().Msg("worker stopped")
}

// runResync resyncs on start, on every tick and whenever a wake-up arrives
func runResync(ctx context.Context, indexer Indexer, interval time.Duration, wake <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		start := time.Now()
		count, err := indexer.ResyncIndex(ctx)
		if err != nil {
			log.Error().Err(err).Int("indexed", count).Msg("Index resync failed")
		} else {
			log.Info().Int("indexed", count).Dur("took", time.Since(start)).Msg("Index resync done")
		}

		select {
		case <-ctx.Done():
			return
		case <-wake:
		case <-ticker.C:
		}
	}
}

func subscribeWakeups(ctx context.Context, rdb *redis.Client, wake chan<- struct{}) {
	sub := rdb.Subscribe(ctx, item.ResyncChannel)
	defer func() { _ = sub.Close() }()

	for {
		select {
		case <-ctx.Done():
			return
		case <-sub.Channel():
			// non-blocking wake-up
			select {
			case wake <- struct{}{}:
			default:
			}
		}
	}
}
