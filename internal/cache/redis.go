package cache

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	redis "github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

const redisKeyPrefix = "pdfsearch:"

// Redis backs the cache with a shared redis instance so multiple processes
// (CLI runs, the GUI shell) can reuse each other's work.
type Redis struct {
	client *redis.Client

	hits   atomic.Uint64
	misses atomic.Uint64
}

var _ Cache = (*Redis)(nil)

func NewRedis(addr string) (*Redis, error) {
	if addr == "" {
		addr = "localhost:6379"
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: "", // No password set
		DB:       0,  // Use default DB
		Protocol: 2,  // Connection protocol
	})

	return &Redis{client: client}, nil
}

func (r *Redis) Get(ctx context.Context, key string) ([]byte, bool) {
	res := r.client.Get(ctx, redisKeyPrefix+key)
	if res.Err() != nil {
		if !errors.Is(res.Err(), redis.Nil) {
			logrus.Warnf("redis get %s: %v", key, res.Err())
		}
		r.misses.Add(1)
		return nil, false
	}
	buf, err := res.Bytes()
	if err != nil {
		r.misses.Add(1)
		return nil, false
	}
	r.hits.Add(1)
	return buf, true
}

func (r *Redis) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if ttl <= 0 {
		ttl = time.Hour
	}
	return r.client.Set(ctx, redisKeyPrefix+key, value, ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, key string) error {
	return r.client.Del(ctx, redisKeyPrefix+key).Err()
}

func (r *Redis) InvalidateDocument(ctx context.Context, pdfID uint) error {
	return r.deleteByPattern(ctx, redisKeyPrefix+documentPrefix(pdfID)+"*")
}

func (r *Redis) Purge(ctx context.Context) error {
	return r.deleteByPattern(ctx, redisKeyPrefix+"*")
}

func (r *Redis) deleteByPattern(ctx context.Context, pattern string) error {
	iter := r.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := r.client.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *Redis) Stats() Stats {
	return Stats{
		Hits:   r.hits.Load(),
		Misses: r.misses.Load(),
	}
}

func (r *Redis) Close() error {
	return r.client.Close()
}
