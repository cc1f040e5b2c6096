package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	gocache "github.com/patrickmn/go-cache"

	appErrors "github.com/ShotGuy/gmit-betlehem-oesapa-barat-app-sub002/pkg/errors"
)

// MemoryCacheRepository is the single-instance cache backend. Values are kept
// JSON-encoded so callers see the same copy semantics as the Redis backend.
type MemoryCacheRepository struct {
	cache *gocache.Cache
}

// NewMemoryCacheRepository builds an in-process cache with the given default TTL.
func NewMemoryCacheRepository(defaultTTL time.Duration) *MemoryCacheRepository {
	if defaultTTL <= 0 {
		defaultTTL = 30 * time.Second
	}
	return &MemoryCacheRepository{cache: gocache.New(defaultTTL, 2*defaultTTL)}
}

// Get decodes the cached value into dest or returns ErrCacheMiss.
func (r *MemoryCacheRepository) Get(_ context.Context, key string, dest interface{}) error {
	raw, ok := r.cache.Get(key)
	if !ok {
		return appErrors.ErrCacheMiss
	}
	payload, ok := raw.([]byte)
	if !ok {
		r.cache.Delete(key)
		return appErrors.ErrCacheMiss
	}
	if err := json.Unmarshal(payload, dest); err != nil {
		return fmt.Errorf("unmarshal cache value for %s: %w", key, err)
	}
	return nil
}

// Set stores value under key for ttl.
func (r *MemoryCacheRepository) Set(_ context.Context, key string, value interface{}, ttl time.Duration) error {
	payload, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("marshal cache value for %s: %w", key, err)
	}
	if ttl <= 0 {
		ttl = gocache.DefaultExpiration
	}
	r.cache.Set(key, payload, ttl)
	return nil
}
