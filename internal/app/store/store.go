/*
Package store is the durable key-value adapter every other component reads and
writes through.

A Store knows nothing about the values it holds. Backends are chosen at startup:
an embedded pebble database on disk (the default), an in-process map, a Redis
namespace, or a single Postgres table. All of them are last-write-wins with no
locking across processes.
*/
package store

import (
	"context"
	"fmt"

	"portalsync/internal/configs"
	"portalsync/internal/pkg/logx"
)

// Store is the raw key-value contract.
type Store interface {
	// Get returns the stored bytes for key, or ok=false when the key is absent.
	Get(ctx context.Context, key string) (value []byte, ok bool, err error)

	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key string, value []byte) error

	// Remove deletes key. Removing an absent key is not an error.
	Remove(ctx context.Context, key string) error

	// Close releases the backend.
	Close() error
}

// New opens the backend selected by cfg.StoreBackend.
func New(ctx context.Context, cfg *configs.AppConfig) (Store, error) {
	logx.Info("Opening durable store", "backend", cfg.StoreBackend)

	switch cfg.StoreBackend {
	case configs.BackendMemory:
		return NewMemory(), nil
	case configs.BackendPebble:
		return OpenPebble(cfg.StorePath, nil)
	case configs.BackendRedis:
		return OpenRedis(ctx, RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
	case configs.BackendPostgres:
		return OpenPostgres(ctx, cfg.DatabaseDSN)
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.StoreBackend)
	}
}
