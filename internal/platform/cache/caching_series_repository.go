// Package cache provides caching implementations for repository interfaces.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"spx_backend/internal/feature/series/domain/entity"
	"spx_backend/internal/feature/series/store"
)

const (
	defaultTTL       = 5 * time.Minute
	defaultNamespace = "series"
)

// CachingSeriesRepository decorates a store.Backend with Redis read-through
// caching. Cached reads are keyed by kind, generation and limit. Every replace
// bumps the kind's generation so reads cached before it are never served again;
// old generations expire with the TTL.
type CachingSeriesRepository struct {
	inner     store.Backend
	rdb       *redis.Client
	ttl       time.Duration
	namespace string
}

var _ store.Backend = (*CachingSeriesRepository)(nil)

// NewCachingSeriesRepository decorates inner with Redis caching.
// If ttl is 0, it defaults to 5 minutes. If namespace is empty, it uses "series".
// A nil rdb disables caching.
func NewCachingSeriesRepository(rdb *redis.Client, ttl time.Duration, inner store.Backend, namespace string) *CachingSeriesRepository {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	if namespace == "" {
		namespace = defaultNamespace
	}
	return &CachingSeriesRepository{
		inner:     inner,
		rdb:       rdb,
		ttl:       ttl,
		namespace: namespace,
	}
}

// ReplaceDaily replaces the daily collection and retires its cached reads.
func (c *CachingSeriesRepository) ReplaceDaily(ctx context.Context, records []entity.DailyRecord) error {
	return c.replace(ctx, entity.KindDaily, func(ctx context.Context) error {
		return c.inner.ReplaceDaily(ctx, records)
	})
}

// ReplaceMonthly replaces the monthly collection and retires its cached reads.
func (c *CachingSeriesRepository) ReplaceMonthly(ctx context.Context, records []entity.MonthlyRecord) error {
	return c.replace(ctx, entity.KindMonthly, func(ctx context.Context) error {
		return c.inner.ReplaceMonthly(ctx, records)
	})
}

// replace bumps the generation before and after the inner replace.
// The first bump must succeed: otherwise reads cached under the current
// generation would outlive the replace, so nothing is replaced.
// The second bump retires reads another process cached while the replace ran.
func (c *CachingSeriesRepository) replace(ctx context.Context, kind entity.Kind, run func(ctx context.Context) error) error {
	if c.rdb == nil {
		return run(ctx)
	}
	if err := c.rdb.Incr(ctx, c.genKey(kind)).Err(); err != nil {
		return fmt.Errorf("retire cached %s reads: %w", kind, err)
	}
	if err := run(ctx); err != nil {
		return err
	}
	if err := c.rdb.Incr(ctx, c.genKey(kind)).Err(); err != nil {
		slog.Warn("cache generation bump after replace failed", "kind", kind, "error", err)
	}
	return nil
}

// FindDaily checks the cache first then falls back to the inner backend.
func (c *CachingSeriesRepository) FindDaily(ctx context.Context, limit int) ([]entity.DailyRecord, error) {
	return readThrough(ctx, c, entity.KindDaily, limit, c.inner.FindDaily)
}

// FindMonthly checks the cache first then falls back to the inner backend.
func (c *CachingSeriesRepository) FindMonthly(ctx context.Context, limit int) ([]entity.MonthlyRecord, error) {
	return readThrough(ctx, c, entity.KindMonthly, limit, c.inner.FindMonthly)
}

func readThrough[T any](
	ctx context.Context,
	c *CachingSeriesRepository,
	kind entity.Kind,
	limit int,
	load func(ctx context.Context, limit int) ([]T, error),
) ([]T, error) {
	// Bypass cache if Redis is not configured
	if c.rdb == nil {
		return load(ctx, limit)
	}

	// 世代が読めない場合はキャッシュを使わない
	gen, err := c.generation(ctx, kind)
	if err != nil {
		slog.Warn("cache generation unavailable, reading backend", "kind", kind, "error", err)
		return load(ctx, limit)
	}
	key := c.cacheKey(kind, gen, limit)

	// 1) Check cache
	if b, err := c.rdb.Get(ctx, key).Bytes(); err == nil && len(b) > 0 {
		var out []T
		if err := json.Unmarshal(b, &out); err == nil {
			return out, nil
		}
		// Delete corrupted cache entry
		_ = c.rdb.Del(ctx, key).Err()
	}

	// 2) Fallback to backend
	out, err := load(ctx, limit)
	if err != nil {
		return nil, err
	}

	// 3) Store in cache (best effort)
	if b, err := json.Marshal(out); err == nil {
		_ = c.rdb.Set(ctx, key, b, c.ttl).Err()
	}
	return out, nil
}

// generation returns the current generation of kind; a missing counter is 0.
func (c *CachingSeriesRepository) generation(ctx context.Context, kind entity.Kind) (int64, error) {
	gen, err := c.rdb.Get(ctx, c.genKey(kind)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return gen, err
}

// genKey is the counter bumped on every replace of kind.
func (c *CachingSeriesRepository) genKey(kind entity.Kind) string {
	return fmt.Sprintf("%s:%s:gen", c.namespace, kind)
}

// cacheKey generates a cache key for a specific query.
func (c *CachingSeriesRepository) cacheKey(kind entity.Kind, gen int64, limit int) string {
	if limit < 0 {
		limit = 0
	}
	return fmt.Sprintf("%s:%s:g%d:%d", c.namespace, kind, gen, limit)
}
