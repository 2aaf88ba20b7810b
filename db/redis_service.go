package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

const (
	fallbackCounterKey = "project_id_fallback"
	teachersCacheKey   = "cache:teachers"
	metadataCacheKey   = "cache:metadata"
)

// RedisService holds the shared redis state: the fallback project id counter
// and the lookup cache.
type RedisService struct {
	Client *redis.Client
	Prefix string
	Logger *zap.Logger
}

// NewRedisService creates a new RedisService; keys are namespaced under prefix.
func NewRedisService(client *redis.Client, prefix string, logger *zap.Logger) *RedisService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisService{
		Client: client,
		Prefix: prefix,
		Logger: logger,
	}
}

func (s *RedisService) key(name string) string {
	return s.Prefix + name
}

// Next implements Counter. The counter is seeded so that its first value is
// FirstProjectID, then shared by every process using the same redis.
func (s *RedisService) Next(ctx context.Context) (int, error) {
	key := s.key(fallbackCounterKey)
	pipe := s.Client.Pipeline()
	pipe.SetNX(ctx, key, FirstProjectID-1, 0)
	incr := pipe.Incr(ctx, key)
	if _, err := pipe.Exec(ctx); err != nil {
		s.Logger.Error("incrementing fallback counter failed", zap.String("key", key), zap.Error(err))
		return 0, fmt.Errorf("failed to increment %s: %w", key, err)
	}
	return int(incr.Val()), nil
}

// getJSON loads key into dst. A missing key reports false with no error.
func (s *RedisService) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := s.Client.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get %s from redis: %w", key, err)
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, fmt.Errorf("failed to decode cached %s: %w", key, err)
	}
	return true, nil
}

func (s *RedisService) setJSON(ctx context.Context, key string, v interface{}, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if err := s.Client.Set(ctx, s.key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("failed to set %s in redis: %w", key, err)
	}
	return nil
}

// InitializeRedisClient creates and tests a Redis client connection
func InitializeRedisClient(ctx context.Context, addr, password string, db int, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("could not connect to redis at %s: %w", addr, err)
	}

	if logger != nil {
		logger.Info("connected to redis", zap.String("addr", addr), zap.Int("db", db))
	}
	return rdb, nil
}
