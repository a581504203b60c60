package domain

import (
	"context"
	"time"
)

type ConfigRepository interface {
	// Write paths
	// Insert stores a new row; it is a no-op when the row already exists.
	Insert(ctx context.Context, c ProviderConfig) error
	// CompareAndSwap writes c only if the stored updated_at still equals prev.
	// It reports false when another writer got there first.
	CompareAndSwap(ctx context.Context, c ProviderConfig, prev time.Time) (bool, error)

	// Read paths
	Get(ctx context.Context, hotelID int64, d Domain) (ProviderConfig, error)
	ListHotels(ctx context.Context, d Domain) ([]int64, error)
}

type Cache interface {
	Get(ctx context.Context, key string, dst any) (bool, error)
	Set(ctx context.Context, key string, v any, ttlSec int) error
	Del(ctx context.Context, key string) error
}
