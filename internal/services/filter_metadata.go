package services

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"

	"royalbid/internal/metrics"
	"royalbid/internal/models"
	"royalbid/internal/repositories"
)

const filterKeyPrefix = "filters:"

// MetadataCache stores filter metadata between requests.
type MetadataCache interface {
	Get(ctx context.Context, key string, dest interface{}) (bool, error)
	Set(ctx context.Context, key string, value interface{}) error
	DeletePattern(ctx context.Context, pattern string) error
}

// FilterMetadata serves per-variant filter metadata, optionally through a
// cache. Concurrent misses for a variant share one computation.
type FilterMetadata struct {
	repo  repositories.ProductRepository
	cache MetadataCache
	log   logrus.FieldLogger
	sf    singleflight.Group
}

// NewFilterMetadata creates a FilterMetadata. cache may be nil.
func NewFilterMetadata(repo repositories.ProductRepository, cache MetadataCache, log logrus.FieldLogger) *FilterMetadata {
	return &FilterMetadata{repo: repo, cache: cache, log: log}
}

// Get returns the filter metadata of the active variant partition.
func (f *FilterMetadata) Get(ctx context.Context, variant models.AuctionType) (models.FilterOptions, error) {
	key := filterKeyPrefix + string(variant)
	if f.cache == nil {
		return f.repo.FilterOptions(ctx, variant)
	}

	var cached models.FilterOptions
	hit, err := f.cache.Get(ctx, key, &cached)
	switch {
	case err != nil:
		metrics.RecordFilterCache("error")
		f.log.WithError(err).WithField("key", key).Warn("filter cache read failed")
	case hit:
		metrics.RecordFilterCache("hit")
		return cached, nil
	default:
		metrics.RecordFilterCache("miss")
	}

	// shared by every waiter, so it must not end with the first caller's request
	shared := context.WithoutCancel(ctx)
	v, err, _ := f.sf.Do(key, func() (interface{}, error) {
		opts, err := f.repo.FilterOptions(shared, variant)
		if err != nil {
			return nil, err
		}
		if err := f.cache.Set(shared, key, opts); err != nil {
			f.log.WithError(err).WithField("key", key).Warn("filter cache write failed")
		}
		return opts, nil
	})
	if err != nil {
		return models.FilterOptions{}, fmt.Errorf("failed to compute filter metadata: %w", err)
	}
	return v.(models.FilterOptions), nil
}

// Invalidate drops every cached variant after a catalog write.
func (f *FilterMetadata) Invalidate(ctx context.Context) {
	if f.cache == nil {
		return
	}
	if err := f.cache.DeletePattern(ctx, filterKeyPrefix+"*"); err != nil {
		f.log.WithError(err).Warn("filter cache invalidation failed")
	}
}
