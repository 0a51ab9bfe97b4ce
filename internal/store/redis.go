package store

import "github.com/redis/go-redis/v9"

// NewRedisClient returns a client shared by the Redis-backed stores.
func NewRedisClient(addr string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr})
}
