// Package cache redis 读穿缓存；redis 故障时退化为直接回源。
package cache

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// Loader 读穿缓存的最小接口
type Loader interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error)
	Del(ctx context.Context, keys ...string) error
}

var lookupsTotal = prometheus.NewCounterVec(
	prometheus.CounterOpts{Name: "kapp_cache_lookups_total", Help: "Cache lookups by result (hit, miss, error)"},
	[]string{"result"},
)

func init() { prometheus.MustRegister(lookupsTotal) }

type Cache struct {
	RDB    *redis.Client
	Prefix string
	sf     singleflight.Group
}

func New(addr, pass string, db int) *Cache {
	return &Cache{
		RDB:    redis.NewClient(&redis.Options{Addr: addr, Password: pass, DB: db}),
		Prefix: "kapp:",
	}
}

func (c *Cache) Ping(ctx context.Context) error { return c.RDB.Ping(ctx).Err() }

func (c *Cache) Close() error { return c.RDB.Close() }

func (c *Cache) GetOrLoad(ctx context.Context, key string, ttl time.Duration, load func(context.Context) ([]byte, error)) ([]byte, error) {
	key = c.Prefix + key
	b, err := c.RDB.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		lookupsTotal.WithLabelValues("hit").Inc()
		return b, nil
	case errors.Is(err, redis.Nil):
		lookupsTotal.WithLabelValues("miss").Inc()
	default:
		lookupsTotal.WithLabelValues("error").Inc()
	}

	// 合并并发回源；回源不随单个调用方取消，调用方自己可以提前放弃
	ch := c.sf.DoChan(key, func() (any, error) {
		lctx := context.WithoutCancel(ctx)
		b, err := load(lctx)
		if err != nil {
			return nil, err
		}
		_ = c.RDB.Set(lctx, key, b, ttl).Err()
		return b, nil
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case r := <-ch:
		if r.Err != nil {
			return nil, r.Err
		}
		return r.Val.([]byte), nil
	}
}

func (c *Cache) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = c.Prefix + k
	}
	return c.RDB.Del(ctx, full...).Err()
}
