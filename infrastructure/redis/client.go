// Package redis builds go-redis clients with a verified connection.
package redis

import (
	"context"
	"errors"
	"fmt"

	infracontext "github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/context"
	"github.com/jonesrussell/north-cloud/complaint-priority/infrastructure/retry"
	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration.
type Config struct {
	Address  string
	Password string
	DB       int
}

// ErrEmptyAddress is returned when no Redis address is configured.
var ErrEmptyAddress = errors.New("redis address is required")

// NewClient connects to Redis and pings it, retrying transient failures.
func NewClient(ctx context.Context, cfg Config) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyAddress
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	err := retry.Retry(ctx, retry.DefaultConfig(), func() error {
		pingCtx, cancel := infracontext.WithPingTimeout(ctx)
		defer cancel()
		return client.Ping(pingCtx).Err()
	})
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", cfg.Address, err)
	}

	return client, nil
}
