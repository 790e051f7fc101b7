package redis

import (
	"context"

	"github.com/JaoharRaihan/WorkIn-sub001/internal/application/query"
)

// ProgressCache keeps read-side DTOs hot. The write pipeline invalidates a
// key's entries after every save, so a hit is at most TTL-stale and never
// older than the last recorded activity.
type ProgressCache struct {
	cache *Cache
}

// NewProgressCache creates a new ProgressCache.
func NewProgressCache(cache *Cache) *ProgressCache {
	return &ProgressCache{cache: cache}
}

// GetProgress returns a cached progress summary, or ErrCacheMiss.
func (p *ProgressCache) GetProgress(ctx context.Context, userID, roadmapID string) (*query.ProgressDTO, error) {
	var dto query.ProgressDTO
	if err := p.cache.Get(ctx, ProgressKey(userID, roadmapID), &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// SetProgress caches a progress summary.
func (p *ProgressCache) SetProgress(ctx context.Context, dto *query.ProgressDTO) error {
	if dto == nil {
		return nil
	}
	return p.cache.Set(ctx, ProgressKey(dto.UserID, dto.RoadmapID), dto, TTLProgressCache)
}

// GetHeatmap returns a cached heatmap window, or ErrCacheMiss.
func (p *ProgressCache) GetHeatmap(ctx context.Context, userID, roadmapID string, windowDays int) (*query.HeatmapDTO, error) {
	var dto query.HeatmapDTO
	if err := p.cache.Get(ctx, HeatmapKey(userID, roadmapID, windowDays), &dto); err != nil {
		return nil, err
	}
	return &dto, nil
}

// SetHeatmap caches a heatmap window.
func (p *ProgressCache) SetHeatmap(ctx context.Context, dto *query.HeatmapDTO, windowDays int) error {
	if dto == nil {
		return nil
	}
	return p.cache.Set(ctx, HeatmapKey(dto.UserID, dto.RoadmapID, windowDays), dto, TTLHeatmapCache)
}

// Invalidate drops every cached view of one progress key.
func (p *ProgressCache) Invalidate(ctx context.Context, userID, roadmapID string) error {
	if err := p.cache.Delete(ctx, ProgressKey(userID, roadmapID)); err != nil {
		return err
	}
	return p.cache.DeleteByPattern(ctx, PrefixHeatmap+userID+":"+roadmapID+":*")
}

// InvalidateAll clears all cached progress views.
func (p *ProgressCache) InvalidateAll(ctx context.Context) error {
	if err := p.cache.DeleteByPattern(ctx, PrefixProgress+"*"); err != nil {
		return err
	}
	return p.cache.DeleteByPattern(ctx, PrefixHeatmap+"*")
}
