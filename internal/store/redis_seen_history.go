package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisSeenHistory keeps identifiers in a set and each category's recent
// links in a sorted set scored by first-seen time, with entry payloads in a hash.
type RedisSeenHistory struct {
	client redis.UniversalClient
	prefix string
}

// NewRedisSeenHistory initializes a Redis-backed SeenHistory.
func NewRedisSeenHistory(client redis.UniversalClient, prefix string) *RedisSeenHistory {
	return &RedisSeenHistory{client: client, prefix: prefix}
}

func (s *RedisSeenHistory) idsKey() string {
	return s.prefix + "ids"
}

func (s *RedisSeenHistory) recentKey(category string) string {
	return s.prefix + "recent:" + category
}

func (s *RedisSeenHistory) metaKey(category string) string {
	return s.prefix + "meta:" + category
}

func (s *RedisSeenHistory) soldKey() string {
	return s.prefix + "sold"
}

// ClaimSold adds id to the sold set; only the call that adds it wins.
func (s *RedisSeenHistory) ClaimSold(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return true, nil
	}
	added, err := s.client.SAdd(ctx, s.soldKey(), id).Result()
	if err != nil {
		return false, fmt.Errorf("claim sold %s: %w", id, err)
	}
	return added == 1, nil
}

func (s *RedisSeenHistory) Add(ctx context.Context, category string, entries []SeenEntry) error {
	if len(entries) == 0 {
		return nil
	}
	ids := make([]interface{}, 0, len(entries))
	members := make([]redis.Z, 0, len(entries))
	meta := make(map[string]interface{}, len(entries))
	for _, e := range entries {
		payload, err := json.Marshal(e)
		if err != nil {
			return err
		}
		ids = append(ids, e.ID)
		members = append(members, redis.Z{Score: float64(e.FirstSeen.UnixMilli()), Member: e.Link})
		meta[e.Link] = payload
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.SAdd(ctx, s.idsKey(), ids...)
		pipe.ZAddNX(ctx, s.recentKey(category), members...)
		for link, payload := range meta {
			pipe.HSetNX(ctx, s.metaKey(category), link, payload)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add seen entries: %w", err)
	}
	return nil
}

func (s *RedisSeenHistory) Seen(ctx context.Context, ids []string) ([]bool, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	members := make([]interface{}, len(ids))
	for i, id := range ids {
		members[i] = id
	}
	return s.client.SMIsMember(ctx, s.idsKey(), members...).Result()
}

func (s *RedisSeenHistory) Recent(ctx context.Context, category string, n int) ([]SeenEntry, error) {
	if n <= 0 {
		return nil, nil
	}
	links, err := s.client.ZRevRange(ctx, s.recentKey(category), 0, int64(n-1)).Result()
	if err != nil {
		return nil, err
	}
	if len(links) == 0 {
		return nil, nil
	}
	payloads, err := s.client.HMGet(ctx, s.metaKey(category), links...).Result()
	if err != nil {
		return nil, err
	}
	entries := make([]SeenEntry, 0, len(links))
	for i, raw := range payloads {
		str, ok := raw.(string)
		if !ok {
			entries = append(entries, SeenEntry{Link: links[i]})
			continue
		}
		var e SeenEntry
		if err := json.Unmarshal([]byte(str), &e); err != nil {
			return nil, fmt.Errorf("decode seen entry %s: %w", links[i], err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (s *RedisSeenHistory) Prune(ctx context.Context, category string, links ...string) error {
	if len(links) == 0 {
		return nil
	}
	members := make([]interface{}, len(links))
	for i, l := range links {
		members[i] = l
	}
	_, err := s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.ZRem(ctx, s.recentKey(category), members...)
		pipe.HDel(ctx, s.metaKey(category), links...)
		return nil
	})
	return err
}
