package cache

import (
	"context"
	"errors"
	"time"
)

// ErrStoreClosed is returned by stores used after Close or before initialisation.
var ErrStoreClosed = errors.New("cache: store not initialised")

// Store represents a shared cache interface used across the application.
type Store interface {
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Delete(ctx context.Context, keys ...string) error
	Ping(ctx context.Context) error
}
