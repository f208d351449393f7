// Package cache keeps derived read models in Redis.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"github.com/heartmarshall/memorycare-backend/internal/config"
	"github.com/heartmarshall/memorycare-backend/internal/domain"
)

const baselineKeyPrefix = "memorycare:baseline:"

// NewRedisClient creates a client from config.
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
}

// BaselineCache stores each patient's baseline session detail.
// Only present baselines are cached; a miss always falls through to the
// database.
type BaselineCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewBaselineCache wraps client with entries that expire after ttl.
func NewBaselineCache(client *redis.Client, ttl time.Duration) *BaselineCache {
	return &BaselineCache{client: client, ttl: ttl}
}

func baselineKey(patientID uuid.UUID) string {
	return baselineKeyPrefix + patientID.String()
}

// Get returns the cached baseline. ok is false on a miss.
func (c *BaselineCache) Get(ctx context.Context, patientID uuid.UUID) (*domain.SessionDetail, bool, error) {
	data, err := c.client.Get(ctx, baselineKey(patientID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("baseline cache get %s: %w", patientID, err)
	}

	var detail domain.SessionDetail
	if err := json.Unmarshal(data, &detail); err != nil {
		// A corrupt entry is treated as a miss and overwritten on the next Set.
		return nil, false, nil
	}
	return &detail, true, nil
}

// Set stores the baseline of a patient.
func (c *BaselineCache) Set(ctx context.Context, patientID uuid.UUID, detail *domain.SessionDetail) error {
	data, err := json.Marshal(detail)
	if err != nil {
		return fmt.Errorf("baseline cache encode %s: %w", patientID, err)
	}
	if err := c.client.Set(ctx, baselineKey(patientID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("baseline cache set %s: %w", patientID, err)
	}
	return nil
}

// Invalidate drops the cached baseline of a patient.
func (c *BaselineCache) Invalidate(ctx context.Context, patientID uuid.UUID) error {
	if err := c.client.Del(ctx, baselineKey(patientID)).Err(); err != nil {
		return fmt.Errorf("baseline cache invalidate %s: %w", patientID, err)
	}
	return nil
}

// Ping checks connectivity; used by the readiness probe.
func (c *BaselineCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}
