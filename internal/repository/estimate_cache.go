package repository

import (
	"context"
	"errors"
	"time"

	"RegimeShift/internal/domain/models"
	domrepo "RegimeShift/internal/domain/repository"
	"RegimeShift/pkg/cache"
)

// EstimateCache stores point estimates in a pkg/cache backend (memory, redis or layered).
type EstimateCache struct {
	c   cache.Service
	ttl time.Duration
}

func NewEstimateCache(c cache.Service, ttl time.Duration) *EstimateCache {
	return &EstimateCache{c: c, ttl: ttl}
}

func estimateKey(key string) string {
	return cache.GenerateKey("estimate", cache.HashKey(key))
}

func (e *EstimateCache) Get(ctx context.Context, key string) (*models.PointEstimate, bool, error) {
	var est models.PointEstimate
	if err := e.c.Get(ctx, estimateKey(key), &est); err != nil {
		if errors.Is(err, cache.ErrCacheMiss) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &est, true, nil
}

func (e *EstimateCache) Set(ctx context.Context, key string, est *models.PointEstimate) error {
	return e.c.Set(ctx, estimateKey(key), est, e.ttl)
}

func (e *EstimateCache) Close() error { return e.c.Close() }

var _ domrepo.EstimateCache = (*EstimateCache)(nil)
