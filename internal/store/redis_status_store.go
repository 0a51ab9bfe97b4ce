package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"sellwatch/internal/models"
)

// RedisStatusStore keeps one JSON document per category, expiring after ttl
// (zero keeps it forever).
type RedisStatusStore struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisStatusStore initializes a Redis-backed StatusStore.
func NewRedisStatusStore(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisStatusStore {
	return &RedisStatusStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
		now:    time.Now,
	}
}

func (s *RedisStatusStore) key(category string) string {
	return s.prefix + category
}

// SetStatus stamps UpdatedAt and overwrites the category's status.
func (s *RedisStatusStore) SetStatus(ctx context.Context, status models.BatchStatus) error {
	if status.Category == "" {
		return errors.New("set status: empty category")
	}
	status.UpdatedAt = s.now().UTC()
	payload, err := json.Marshal(status)
	if err != nil {
		return err
	}
	if err := s.client.Set(ctx, s.key(status.Category), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("set status %s: %w", status.Category, err)
	}
	return nil
}

func (s *RedisStatusStore) GetStatus(ctx context.Context, category string) (models.BatchStatus, bool, error) {
	val, err := s.client.Get(ctx, s.key(category)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.BatchStatus{}, false, nil
	}
	if err != nil {
		return models.BatchStatus{}, false, fmt.Errorf("get status %s: %w", category, err)
	}
	var status models.BatchStatus
	if err := json.Unmarshal(val, &status); err != nil {
		return models.BatchStatus{}, false, fmt.Errorf("decode status %s: %w", category, err)
	}
	return status, true, nil
}

// ListStatuses fetches all categories in one round trip. Missing or
// undecodable entries are left out.
func (s *RedisStatusStore) ListStatuses(ctx context.Context, categories []string) ([]models.BatchStatus, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	keys := make([]string, len(categories))
	for i, name := range categories {
		keys[i] = s.key(name)
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}
	out := make([]models.BatchStatus, 0, len(vals))
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue
		}
		var status models.BatchStatus
		if json.Unmarshal([]byte(raw), &status) != nil {
			continue
		}
		out = append(out, status)
	}
	return out, nil
}
