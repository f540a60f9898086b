package follow

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// CountKind selects which of a user's counts is cached
type CountKind string

const (
	Followers CountKind = "followers"
	Followees CountKind = "followees"
)

// CountCache stores follower and followee counts between writes. Entries are
// keyed by a per-alias generation: Invalidate bumps it, so a Set carrying the
// generation from an earlier Get cannot resurrect a count computed before the
// write.
type CountCache interface {
	Get(ctx context.Context, kind CountKind, alias string) (n, gen int64, ok bool, err error)
	Set(ctx context.Context, kind CountKind, alias string, gen, n int64) error
	Invalidate(ctx context.Context, aliases ...string) error
}

type redisCountCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisCountCache caches counts in Redis for ttl
func NewRedisCountCache(client *redis.Client, ttl time.Duration) CountCache {
	return &redisCountCache{client: client, ttl: ttl}
}

func genKey(alias string) string {
	return fmt.Sprintf("follow:count:gen:%s", alias)
}

func countKey(kind CountKind, alias string, gen int64) string {
	return fmt.Sprintf("follow:count:%s:%s:%d", kind, alias, gen)
}

func (c *redisCountCache) generation(ctx context.Context, alias string) (int64, error) {
	v, err := c.client.Get(ctx, genKey(alias)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

func (c *redisCountCache) Get(ctx context.Context, kind CountKind, alias string) (int64, int64, bool, error) {
	gen, err := c.generation(ctx, alias)
	if err != nil {
		return 0, 0, false, err
	}

	v, err := c.client.Get(ctx, countKey(kind, alias, gen)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, gen, false, nil
	}
	if err != nil {
		return 0, gen, false, err
	}

	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, gen, false, nil
	}
	return n, gen, true, nil
}

func (c *redisCountCache) Set(ctx context.Context, kind CountKind, alias string, gen, n int64) error {
	return c.client.Set(ctx, countKey(kind, alias, gen), strconv.FormatInt(n, 10), c.ttl).Err()
}

// Invalidate bumps each alias's generation. The generation key outlives any
// count written under an older one.
func (c *redisCountCache) Invalidate(ctx context.Context, aliases ...string) error {
	if len(aliases) == 0 {
		return nil
	}

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, a := range aliases {
			pipe.Incr(ctx, genKey(a))
			pipe.Expire(ctx, genKey(a), 2*c.ttl+time.Hour)
		}
		return nil
	})
	return err
}
