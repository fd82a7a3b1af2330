package database

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

// ErrRedisNotConfigured is returned when REDIS_URL is empty.
// Refresh tokens, rate limits and realtime fan-out all live in Redis.
var ErrRedisNotConfigured = errors.New("redis url is not configured")

const (
	pingAttempts = 5
	pingTimeout  = 5 * time.Second
)

// pingBackoff is the wait before the n-th retry; a var so tests can shorten it
var pingBackoff = func(n int) time.Duration { return time.Duration(n) * time.Second }

// waitReady pings until the backend answers. Compose setups start the API
// before Postgres and Redis accept connections.
func waitReady(name string, ping func(ctx context.Context) error) error {
	var err error
	for attempt := 1; attempt <= pingAttempts; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
		err = ping(ctx)
		cancel()
		if err == nil {
			log.Info().Str("backend", name).Int("attempt", attempt).Msg("Backend ready")
			return nil
		}
		if attempt < pingAttempts {
			log.Warn().Err(err).Str("backend", name).Int("attempt", attempt).Msg("Backend not ready, retrying")
			time.Sleep(pingBackoff(attempt))
		}
	}
	return err
}

// NewPostgres opens the pool and waits for the server
func NewPostgres(databaseURL string) (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", databaseURL)
	if err != nil {
		return nil, err
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(time.Minute)

	if err := waitReady("postgres", db.PingContext); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

// NewRedis creates the client and waits for the server
func NewRedis(redisURL string) (*redis.Client, error) {
	if redisURL == "" {
		return nil, ErrRedisNotConfigured
	}

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}
	opt.PoolSize = 30
	opt.MinIdleConns = 5
	opt.DialTimeout = 5 * time.Second
	opt.ReadTimeout = 3 * time.Second
	opt.WriteTimeout = 3 * time.Second

	client := redis.NewClient(opt)
	if err := waitReady("redis", func(ctx context.Context) error { return client.Ping(ctx).Err() }); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// ClosePostgres closes the pool
func ClosePostgres(db *sqlx.DB) {
	if db != nil {
		closeLogged("postgres", db)
	}
}

// CloseRedis closes the client
func CloseRedis(client *redis.Client) {
	if client != nil {
		closeLogged("redis", client)
	}
}

func closeLogged(name string, c io.Closer) {
	if err := c.Close(); err != nil {
		log.Error().Err(err).Str("backend", name).Msg("Error closing connection")
		return
	}
	log.Info().Str("backend", name).Msg("Connection closed")
}
