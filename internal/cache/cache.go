// Package cache is an optional Redis cache for availability listings.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"barberbot/internal/model"
)

// AvailabilityCache caches ListAvailableSlots results per (date, barber,
// service) key. A nil client makes every operation a pass-through, so callers
// never branch on whether Redis is configured.
type AvailabilityCache struct {
	client *redis.Client
	ttl    time.Duration
}

// New creates a cache over the given client. client may be nil.
func New(client *redis.Client, ttl time.Duration) *AvailabilityCache {
	return &AvailabilityCache{client: client, ttl: ttl}
}

func (c *AvailabilityCache) enabled() bool {
	return c != nil && c.client != nil && c.ttl > 0
}

func listKey(date string, barberID, serviceID int64) string {
	return fmt.Sprintf("slots:%s:%d:%d", date, barberID, serviceID)
}

// GetSlots returns a cached listing, with ok=false on miss or any Redis error.
func (c *AvailabilityCache) GetSlots(ctx context.Context, date string, barberID, serviceID int64) ([]model.TimeSlot, bool) {
	if !c.enabled() {
		return nil, false
	}
	val, err := c.client.Get(ctx, listKey(date, barberID, serviceID)).Result()
	if err != nil {
		return nil, false
	}
	var result []model.TimeSlot
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		return nil, false
	}
	return result, true
}

// PutSlots stores a listing. Errors are dropped: the cache is best-effort.
func (c *AvailabilityCache) PutSlots(ctx context.Context, date string, barberID, serviceID int64, result []model.TimeSlot) {
	if !c.enabled() {
		return
	}
	data, err := json.Marshal(result)
	if err != nil {
		return
	}
	_ = c.client.Set(ctx, listKey(date, barberID, serviceID), data, c.ttl).Err()
}

// InvalidateDate drops every cached listing for a date. Called after any
// reserve or cancel touching the date.
func (c *AvailabilityCache) InvalidateDate(ctx context.Context, date string) {
	if !c.enabled() {
		return
	}
	iter := c.client.Scan(ctx, 0, fmt.Sprintf("slots:%s:*", date), 100).Iterator()
	var keys []string
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if len(keys) > 0 {
		_ = c.client.Del(ctx, keys...).Err()
	}
}
