package service

import (
	"context"

	"go.uber.org/zap"
)

const memberAreaKeyPrefix = "member-area:"

type memberAreaSource interface {
	ResolveArea(ctx context.Context, memberID string) (string, error)
}

// CachedAreaResolver memoises member to area lookups for a short TTL. Entries
// may lag a household move by up to the TTL, so it only serves routing data
// such as the area tag on document events; visibility checks read the
// membership tables directly.
type CachedAreaResolver struct {
	source memberAreaSource
	cache  *CacheService
	logger *zap.Logger
}

// NewCachedAreaResolver wraps source with cache. A nil or disabled cache
// passes every lookup through.
func NewCachedAreaResolver(source memberAreaSource, cache *CacheService, logger *zap.Logger) *CachedAreaResolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CachedAreaResolver{source: source, cache: cache, logger: logger}
}

// ResolveArea returns the area of memberID. Lookup errors from the source,
// including sql.ErrNoRows for unknown members, are returned unchanged.
func (r *CachedAreaResolver) ResolveArea(ctx context.Context, memberID string) (string, error) {
	key := memberAreaKeyPrefix + memberID
	var areaID string
	if hit, err := r.cache.Get(ctx, key, &areaID); err == nil && hit && areaID != "" {
		return areaID, nil
	}

	areaID, err := r.source.ResolveArea(ctx, memberID)
	if err != nil {
		return "", err
	}
	if err := r.cache.Set(ctx, key, areaID, 0); err != nil {
		r.logger.Debug("member area not cached", zap.String("member_id", memberID), zap.Error(err))
	}
	return areaID, nil
}
