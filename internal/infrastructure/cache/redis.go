package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tidemarkhq/tidemark/internal/infrastructure/logging"
)

const (
	// forecastKeyPrefix namespaces cached forecast payloads per scheme.
	forecastKeyPrefix = "tidemark:forecast:"

	// DefaultForecastTTL bounds how stale a cached forecast can get.
	DefaultForecastTTL = 60 * time.Second

	// default connection timeout
	defaultConnectTimeout = 10 * time.Second
)

var ErrRedisNotConnected = errors.New("redis not connected")

// RedisConfig holds configuration for Redis connection.
type RedisConfig struct {
	URL string
}

// RedisClient wraps the go-redis client with forecast caching operations.
// the cache is strictly best-effort; postgres holds the source of truth.
type RedisClient struct {
	client *redis.Client
	ttl    time.Duration
	logger *logging.Logger
}

// NewRedisClient creates a new Redis client from the config.
// returns nil if the URL is empty (redis disabled).
func NewRedisClient(cfg RedisConfig, logger *logging.Logger) (*RedisClient, error) {
	if cfg.URL == "" {
		logger.Info("redis disabled: no REDIS_URL configured")
		return nil, nil
	}

	opts, err := redis.ParseURL(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parsing redis url: %w", err)
	}

	opts.DialTimeout = defaultConnectTimeout
	opts.ReadTimeout = 3 * time.Second
	opts.WriteTimeout = 3 * time.Second
	opts.PoolSize = 100
	opts.MinIdleConns = 10

	client := redis.NewClient(opts)

	rc := &RedisClient{
		client: client,
		ttl:    DefaultForecastTTL,
		logger: logger.WithComponent("redis"),
	}

	return rc, nil
}

// WithTTL overrides the forecast cache TTL.
func (r *RedisClient) WithTTL(ttl time.Duration) *RedisClient {
	r.ttl = ttl
	return r
}

// Connect tests the connection to Redis.
func (r *RedisClient) Connect(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	ctx, cancel := context.WithTimeout(ctx, defaultConnectTimeout)
	defer cancel()

	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}

	r.logger.Info("redis connected")
	return nil
}

// Close closes the Redis connection.
func (r *RedisClient) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

// HealthCheck verifies Redis is responding.
func (r *RedisClient) HealthCheck(ctx context.Context) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	return r.client.Ping(ctx).Err()
}
