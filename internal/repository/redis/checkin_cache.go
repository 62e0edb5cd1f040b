package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eventticketing/internal/domain"
)

const checkInKeyPrefix = "checkin:"

// CheckInCache is a Redis-backed domain.CheckInCache. Records are written with
// SETNX, so the first admitted record for a key is the one every reader sees.
type CheckInCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewCheckInCache(client *redis.Client, ttl time.Duration) *CheckInCache {
	return &CheckInCache{client: client, ttl: ttl}
}

func (c *CheckInCache) Get(ctx context.Context, key domain.CheckInKey) (*domain.CheckInRecord, error) {
	raw, err := c.client.Get(ctx, checkInKeyPrefix+key.String()).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get cached check-in: %w", err)
	}
	var rec domain.CheckInRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return nil, fmt.Errorf("decode cached check-in: %w", err)
	}
	return &rec, nil
}

func (c *CheckInCache) Put(ctx context.Context, rec *domain.CheckInRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("encode check-in: %w", err)
	}
	return c.client.SetNX(ctx, checkInKeyPrefix+rec.Key().String(), raw, c.ttl).Err()
}

// NoopCheckInCache always misses. Used when Redis is not configured.
type NoopCheckInCache struct{}

func (NoopCheckInCache) Get(context.Context, domain.CheckInKey) (*domain.CheckInRecord, error) {
	return nil, domain.ErrNotFound
}

func (NoopCheckInCache) Put(context.Context, *domain.CheckInRecord) error { return nil }
