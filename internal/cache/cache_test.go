package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"barberbot/internal/model"
)

func newTestCache(t *testing.T) *AvailabilityCache {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return New(client, time.Minute)
}

func TestCacheRoundTrip(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	_, ok := c.GetSlots(ctx, "2025-07-01", 1, 0)
	assert.False(t, ok)

	want := []model.TimeSlot{
		{ID: 1, BarberID: 1, Date: "2025-07-01", TimeSlot: "10:00-10:30", IsAvailable: true},
		{ID: 2, BarberID: 1, Date: "2025-07-01", TimeSlot: "10:30-11:00", IsAvailable: true},
	}
	c.PutSlots(ctx, "2025-07-01", 1, 0, want)

	got, ok := c.GetSlots(ctx, "2025-07-01", 1, 0)
	require.True(t, ok)
	assert.Equal(t, want, got)

	// Different key does not collide.
	_, ok = c.GetSlots(ctx, "2025-07-01", 2, 0)
	assert.False(t, ok)
}

func TestCacheInvalidateDate(t *testing.T) {
	c := newTestCache(t)
	ctx := context.Background()

	slotsA := []model.TimeSlot{{ID: 1, BarberID: 1, Date: "2025-07-01", TimeSlot: "10:00-10:30", IsAvailable: true}}
	slotsB := []model.TimeSlot{{ID: 9, BarberID: 2, Date: "2025-07-02", TimeSlot: "11:00-11:30", IsAvailable: true}}
	c.PutSlots(ctx, "2025-07-01", 1, 0, slotsA)
	c.PutSlots(ctx, "2025-07-01", 1, 5, slotsA)
	c.PutSlots(ctx, "2025-07-02", 2, 0, slotsB)

	c.InvalidateDate(ctx, "2025-07-01")

	_, ok := c.GetSlots(ctx, "2025-07-01", 1, 0)
	assert.False(t, ok)
	_, ok = c.GetSlots(ctx, "2025-07-01", 1, 5)
	assert.False(t, ok)

	// Other dates survive.
	got, ok := c.GetSlots(ctx, "2025-07-02", 2, 0)
	require.True(t, ok)
	assert.Equal(t, slotsB, got)
}

func TestCacheDisabled(t *testing.T) {
	ctx := context.Background()
	var c *AvailabilityCache

	// Nil cache and nil client are both safe pass-throughs.
	_, ok := c.GetSlots(ctx, "2025-07-01", 1, 0)
	assert.False(t, ok)
	c.PutSlots(ctx, "2025-07-01", 1, 0, nil)
	c.InvalidateDate(ctx, "2025-07-01")

	c = New(nil, time.Minute)
	_, ok = c.GetSlots(ctx, "2025-07-01", 1, 0)
	assert.False(t, ok)
}
