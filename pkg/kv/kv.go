// Package kv provides the shared key-value cache used for catalog results and
// task correlation.
package kv

import (
	"context"
	"errors"
	"fmt"
	"time"
)

const (
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

var ErrUnknownDriver = errors.New("unknown cache driver")

// Cache is a TTL key-value store. Get reports a missing or expired key as
// found=false with a nil error; errors mean the store itself failed.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Driver   string   `yaml:"driver"`
	Addrs    []string `yaml:"addrs"`
	Password string   `yaml:"password"`
	DB       int      `yaml:"db"`
	PoolSize int      `yaml:"pool_size"`
}

// Connect opens the driver named by cfg.Driver and verifies connectivity.
func Connect(ctx context.Context, cfg Config) (Cache, error) {
	if len(cfg.Addrs) == 0 {
		return nil, errors.New("cache addrs is required")
	}

	switch cfg.Driver {
	case "", DriverRedis:
		return ConnectRedis(ctx, cfg)
	case DriverValkey:
		return ConnectValkey(ctx, cfg)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownDriver, cfg.Driver)
	}
}
