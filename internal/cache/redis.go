package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"sentiment-desk/internal/dashboard"

	"github.com/charmbracelet/log"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

var (
	newRedisClient = func(opts *redis.Options) *redis.Client {
		return redis.NewClient(opts)
	}
	pingRedis = func(ctx context.Context, client *redis.Client) error {
		return client.Ping(ctx).Err()
	}
	parseRedisURL = redis.ParseURL
)

// InitRedis connects to addr, which may be host:port or a redis:// URL.
func InitRedis(ctx context.Context, addr string) (*redis.Client, error) {
	addr = strings.TrimSpace(addr)
	if addr == "" {
		addr = "localhost:6379"
	}

	opts := &redis.Options{Addr: addr}
	if strings.HasPrefix(addr, "redis://") || strings.HasPrefix(addr, "rediss://") {
		parsed, err := parseRedisURL(addr)
		if err != nil {
			return nil, fmt.Errorf("parse REDIS_URL: %w", err)
		}
		opts = parsed
	}

	client := newRedisClient(opts)
	if err := pingRedis(ctx, client); err != nil {
		client.Close()
		return nil, fmt.Errorf("connect to redis: %w", err)
	}
	log.Info("connected to redis", "addr", opts.Addr)
	return client, nil
}

// KV is the subset of the redis client used by ViewCache.
type KV interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// ViewCache stores rendered dashboard views keyed by ticker and the
// modification times of the artifacts they were built from, so a new
// pipeline run invalidates them implicitly.
type ViewCache struct {
	client KV
	ttl    time.Duration
	tracer trace.Tracer
}

func NewViewCache(client KV, ttl time.Duration, tracer trace.Tracer) *ViewCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ViewCache{client: client, ttl: ttl, tracer: tracer}
}

func ViewKey(ticker string, pricesMod, sentimentMod time.Time) string {
	return fmt.Sprintf("dashboard:%s:%d:%d", strings.ToUpper(ticker), pricesMod.UnixNano(), sentimentMod.UnixNano())
}

// Get returns the cached view for key. Misses and cache errors both report ok=false.
func (c *ViewCache) Get(ctx context.Context, key string) (*dashboard.View, bool) {
	if c == nil || c.client == nil {
		return nil, false
	}
	ctx, span := c.tracer.Start(ctx, "cache.get-view")
	defer span.End()

	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			log.Warn("dashboard cache read failed", "key", key, "err", err)
		}
		span.SetAttributes(attribute.Bool("cache.hit", false))
		return nil, false
	}

	var v dashboard.View
	if err := json.Unmarshal(raw, &v); err != nil {
		log.Warn("dashboard cache entry corrupt", "key", key, "err", err)
		return nil, false
	}
	span.SetAttributes(attribute.Bool("cache.hit", true))
	return &v, true
}

func (c *ViewCache) Set(ctx context.Context, key string, v *dashboard.View) {
	if c == nil || c.client == nil || v == nil {
		return
	}
	ctx, span := c.tracer.Start(ctx, "cache.set-view")
	defer span.End()

	raw, err := json.Marshal(v)
	if err != nil {
		log.Warn("dashboard cache encode failed", "key", key, "err", err)
		return
	}
	if err := c.client.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		log.Warn("dashboard cache write failed", "key", key, "err", err)
	}
}
