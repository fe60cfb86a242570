// Package redis provides the Redis-backed cache used by the dashboard.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/vulnreport/api/internal/config"
	"github.com/vulnreport/api/pkg/logger"
)

// Client wraps the go-redis client with connection management.
type Client struct {
	client *redis.Client
	logger *logger.Logger
}

// New creates a Redis client and verifies the connection.
func New(cfg *config.RedisConfig, log *logger.Logger) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("redis config is required")
	}
	if log == nil {
		return nil, errors.New("logger is required")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	log.Info("redis connected", "addr", cfg.Addr, "db", cfg.DB)

	return &Client{client: client, logger: log}, nil
}

// Close closes the Redis connection.
func (c *Client) Close() error {
	return c.client.Close()
}

// Ping checks if Redis is reachable; used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
