package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/tidemarkhq/tidemark/internal/application"
)

// StoreForecast caches the forecast payload for a scheme with the
// configured TTL. implements application.ForecastCache.
func (r *RedisClient) StoreForecast(ctx context.Context, scheme string, forecast *application.ForecastOutput) error {
	if r.client == nil {
		return ErrRedisNotConnected
	}

	payload, err := json.Marshal(forecast)
	if err != nil {
		return fmt.Errorf("marshaling forecast: %w", err)
	}

	if err := r.client.Set(ctx, forecastKeyPrefix+scheme, payload, r.ttl).Err(); err != nil {
		return fmt.Errorf("set failed: %w", err)
	}

	r.logger.Debug("forecast cached",
		"scheme", scheme,
		"ttl", r.ttl.String(),
	)
	return nil
}

// LoadForecast reads a cached forecast. a miss returns (nil, nil) so the
// caller falls through to a fresh computation.
func (r *RedisClient) LoadForecast(ctx context.Context, scheme string) (*application.ForecastOutput, error) {
	if r.client == nil {
		return nil, ErrRedisNotConnected
	}

	payload, err := r.client.Get(ctx, forecastKeyPrefix+scheme).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get failed: %w", err)
	}

	var forecast application.ForecastOutput
	if err := json.Unmarshal(payload, &forecast); err != nil {
		// stale or corrupt payload, treat as a miss
		r.logger.Warn("dropping unreadable cached forecast",
			"scheme", scheme,
			"error", err.Error(),
		)
		return nil, nil
	}
	return &forecast, nil
}
