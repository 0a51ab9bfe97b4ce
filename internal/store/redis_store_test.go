package store

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sellwatch/internal/models"
)

func newRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisSeenHistory(t *testing.T) {
	_, client := newRedis(t)
	h := NewRedisSeenHistory(client, "test:seen:")
	ctx := context.Background()

	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	first := []SeenEntry{
		{ID: "1", Link: "https://shop.test/items/1", Name: "one", FirstSeen: t0},
		{ID: "2", Link: "https://shop.test/items/2", Name: "two", FirstSeen: t0.Add(time.Minute)},
	}
	require.NoError(t, h.Add(ctx, "mens", first))
	// re-adding keeps the original first-seen time
	require.NoError(t, h.Add(ctx, "mens", []SeenEntry{
		{ID: "1", Link: "https://shop.test/items/1", Name: "one again", FirstSeen: t0.Add(time.Hour)},
		{ID: "3", Link: "https://shop.test/items/3", Name: "three", FirstSeen: t0.Add(2 * time.Minute)},
	}))

	seen, err := h.Seen(ctx, []string{"1", "9", "3"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true, false, true}, seen)

	recent, err := h.Recent(ctx, "mens", 2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "3", recent[0].ID)
	assert.Equal(t, "2", recent[1].ID)

	all, err := h.Recent(ctx, "mens", 10)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "one", all[2].Name)
	assert.True(t, all[2].FirstSeen.Equal(t0))

	require.NoError(t, h.Prune(ctx, "mens", "https://shop.test/items/3"))
	recent, err = h.Recent(ctx, "mens", 10)
	require.NoError(t, err)
	assert.Len(t, recent, 2)

	// identifiers survive pruning
	seen, err = h.Seen(ctx, []string{"3"})
	require.NoError(t, err)
	assert.Equal(t, []bool{true}, seen)

	other, err := h.Recent(ctx, "womens", 10)
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRedisClaimSold(t *testing.T) {
	_, client := newRedis(t)
	h := NewRedisSeenHistory(client, "test:seen:")
	ctx := context.Background()

	ok, err := h.ClaimSold(ctx, "42")
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = h.ClaimSold(ctx, "42")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = h.ClaimSold(ctx, "43")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRedisStatusStore(t *testing.T) {
	mr, client := newRedis(t)
	s := NewRedisStatusStore(client, "test:status:", time.Hour)
	ctx := context.Background()

	_, ok, err := s.GetStatus(ctx, "mens")
	require.NoError(t, err)
	assert.False(t, ok)

	status := models.BatchStatus{Category: "mens", BatchID: "mens-1", State: models.BatchStateTracking, Size: 30, Sold: 2}
	require.NoError(t, s.SetStatus(ctx, status))

	got, ok, err := s.GetStatus(ctx, "mens")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, status.BatchID, got.BatchID)
	assert.Equal(t, 2, got.Sold)
	assert.Equal(t, time.Hour, mr.TTL("test:status:mens"))

	assert.False(t, got.UpdatedAt.IsZero())
	require.NoError(t, s.SetStatus(ctx, models.BatchStatus{Category: "shoes", State: models.BatchStateFailed, Error: "collect shoes: boom"}))
	require.NoError(t, mr.Set("test:status:kids", "{not json"))

	all, err := s.ListStatuses(ctx, []string{"shoes", "kids", "womens", "mens"})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "shoes", all[0].Category)
	assert.Equal(t, "mens", all[1].Category)

	_, _, err = s.GetStatus(ctx, "kids")
	assert.Error(t, err)
	assert.Error(t, s.SetStatus(ctx, models.BatchStatus{}))

	mr.FastForward(2 * time.Hour)
	_, ok, err = s.GetStatus(ctx, "mens")
	require.NoError(t, err)
	assert.False(t, ok)
}
