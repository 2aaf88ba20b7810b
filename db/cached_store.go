package db

import (
	"context"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"sciencefair-registration/models"
)

// CachedStore serves teachers and fair metadata from redis, refreshing from
// the wrapped Store after TTL. Cache failures fall through to the Store.
// Results that come with ErrUsingDefaults are passed on uncached.
type CachedStore struct {
	Store
	redis *RedisService
	ttl   time.Duration
	group singleflight.Group
}

// NewCachedStore wraps inner with a redis lookup cache.
func NewCachedStore(inner Store, rs *RedisService, ttl time.Duration) *CachedStore {
	return &CachedStore{Store: inner, redis: rs, ttl: ttl}
}

func (c *CachedStore) GetTeachers(ctx context.Context) ([]models.Teacher, error) {
	v, err, _ := c.group.Do(teachersCacheKey, func() (interface{}, error) {
		var teachers []models.Teacher
		if ok := c.load(ctx, teachersCacheKey, &teachers); ok {
			return teachers, nil
		}
		teachers, err := c.Store.GetTeachers(ctx)
		if err != nil {
			return teachers, err
		}
		c.save(ctx, teachersCacheKey, teachers)
		return teachers, nil
	})
	teachers, _ := v.([]models.Teacher)
	return teachers, err
}

func (c *CachedStore) GetFairMetadata(ctx context.Context) (models.FairMetadata, error) {
	v, err, _ := c.group.Do(metadataCacheKey, func() (interface{}, error) {
		var meta models.FairMetadata
		if ok := c.load(ctx, metadataCacheKey, &meta); ok {
			return meta, nil
		}
		meta, err := c.Store.GetFairMetadata(ctx)
		if err != nil {
			return meta, err
		}
		c.save(ctx, metadataCacheKey, meta)
		return meta, nil
	})
	meta, _ := v.(models.FairMetadata)
	return meta, err
}

func (c *CachedStore) load(ctx context.Context, key string, dst interface{}) bool {
	ok, err := c.redis.getJSON(ctx, key, dst)
	if err != nil {
		c.redis.Logger.Warn("lookup cache read failed", zap.String("key", key), zap.Error(err))
		return false
	}
	return ok
}

func (c *CachedStore) save(ctx context.Context, key string, v interface{}) {
	if err := c.redis.setJSON(ctx, key, v, c.ttl); err != nil {
		c.redis.Logger.Warn("lookup cache write failed", zap.String("key", key), zap.Error(err))
	}
}
