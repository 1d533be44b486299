// Package redis opens the Redis connection that backs session storage.
package redis

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/digitalghar/storefront/config"
	"github.com/digitalghar/storefront/pkg/logger"
	"github.com/redis/go-redis/v9"
)

const (
	dialTimeout = 5 * time.Second
	pingTimeout = 5 * time.Second
)

// Options maps the session store settings onto a go-redis client.
func Options(cfg *config.RedisConfig) *redis.Options {
	return &redis.Options{
		Addr:        net.JoinHostPort(cfg.Host, cfg.Port),
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: dialTimeout,
	}
}

// Connect dials the session store and checks it answers before any cart is
// written to it. The caller owns the returned client.
func Connect(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	opts := Options(cfg)
	fields := map[string]interface{}{
		"addr": opts.Addr,
		"db":   opts.DB,
	}
	logger.Info("Connecting to session store", fields)

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		logger.Error("Session store is unreachable", err, fields)
		return nil, fmt.Errorf("session store %s: %w", opts.Addr, err)
	}

	logger.Info("Session store ready", fields)
	return client, nil
}
