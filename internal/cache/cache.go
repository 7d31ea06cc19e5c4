// Package cache 为聚合类读接口（热门话题、推荐、统计）提供短 TTL 的 Redis 缓存。
//
// 失效不做 key 扫描：每个命名空间有一个代数计数器，写路径 INCR 计数器，
// 旧代的 key 自然不再命中，随 TTL 过期。
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/logger"
)

type Namespace string

const (
	NamespaceFollow  Namespace = "follow"
	NamespaceHashtag Namespace = "hashtag"
)

const keyPrefix = "sg"

// Cache 为 nil 时所有方法直接透传到加载函数
type Cache struct {
	client *redis.Client
	ttl    time.Duration

	hits   atomic.Int64
	misses atomic.Int64
}

func New(client *redis.Client, ttl time.Duration) *Cache {
	if client == nil {
		return nil
	}
	if ttl <= 0 {
		ttl = 60 * time.Second
	}
	return &Cache{client: client, ttl: ttl}
}

// Fetch 读缓存，未命中时调用 load 并回写。Redis 故障只降级为直接加载。
func Fetch[T any](ctx context.Context, c *Cache, ns Namespace, key string, load func(context.Context) (T, error)) (T, error) {
	if c == nil {
		return load(ctx)
	}

	fullKey, err := c.key(ctx, ns, key)
	if err != nil {
		logger.Debug("cache generation lookup failed", zap.String("ns", string(ns)), zap.Error(err))
		return load(ctx)
	}

	if data, err := c.client.Get(ctx, fullKey).Bytes(); err == nil {
		var out T
		if uErr := json.Unmarshal(data, &out); uErr == nil {
			c.hits.Add(1)
			return out, nil
		}
	} else if !errors.Is(err, redis.Nil) {
		logger.Debug("cache get failed", zap.String("key", fullKey), zap.Error(err))
	}

	c.misses.Add(1)
	val, err := load(ctx)
	if err != nil {
		return val, err
	}
	if payload, err := json.Marshal(val); err == nil {
		_ = c.client.Set(ctx, fullKey, payload, c.ttl).Err()
	}
	return val, nil
}

// Invalidate 使命名空间下所有 key 失效
func (c *Cache) Invalidate(ctx context.Context, ns Namespace) {
	if c == nil {
		return
	}
	if err := c.client.Incr(ctx, genKey(ns)).Err(); err != nil {
		logger.Warn("cache invalidate failed", zap.String("ns", string(ns)), zap.Error(err))
	}
}

func (c *Cache) key(ctx context.Context, ns Namespace, key string) (string, error) {
	gen, err := c.client.Get(ctx, genKey(ns)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		return "", err
	}
	return fmt.Sprintf("%s:%s:g%d:%s", keyPrefix, ns, gen, key), nil
}

func genKey(ns Namespace) string { return fmt.Sprintf("%s:gen:%s", keyPrefix, ns) }

// Stats 命中统计
type Stats struct {
	Hits   int64
	Misses int64
}

func (c *Cache) Stats() Stats {
	if c == nil {
		return Stats{}
	}
	return Stats{Hits: c.hits.Load(), Misses: c.misses.Load()}
}

// ResetStats clears recorded hit/miss counters.
func (c *Cache) ResetStats() {
	if c == nil {
		return
	}
	c.hits.Store(0)
	c.misses.Store(0)
}
