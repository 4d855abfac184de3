package bookclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKeyPrefix = "bookreview:book:exists:"

// CacheKey returns the Redis key holding a positive answer for bookID.
func CacheKey(bookID int64) string {
	return fmt.Sprintf("%s%d", cacheKeyPrefix, bookID)
}

// CachedChecker remembers books that were found for a short TTL. Misses and
// failures always go to the wrapped checker, so a newly created book is
// never reported absent from cache. Redis failures are logged and bypassed.
type CachedChecker struct {
	next   Checker
	client redis.UniversalClient
	ttl    time.Duration
	logger *slog.Logger
}

// NewCachedChecker wraps next with a Redis cache.
func NewCachedChecker(next Checker, client redis.UniversalClient, ttl time.Duration, logger *slog.Logger) *CachedChecker {
	return &CachedChecker{
		next:   next,
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Exists implements Checker.
func (c *CachedChecker) Exists(ctx context.Context, bookID int64) (bool, error) {
	key := CacheKey(bookID)

	err := c.client.Get(ctx, key).Err()
	switch {
	case err == nil:
		return true, nil
	case !errors.Is(err, redis.Nil):
		c.logger.WarnContext(ctx, "book cache read failed",
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
	}

	found, err := c.next.Exists(ctx, bookID)
	if err != nil || !found {
		return found, err
	}

	if err := c.client.Set(ctx, key, "1", c.ttl).Err(); err != nil {
		c.logger.WarnContext(ctx, "book cache write failed",
			slog.Int64("book_id", bookID),
			slog.String("error", err.Error()),
		)
	}
	return true, nil
}

// Evict drops the cached answer for bookID.
func (c *CachedChecker) Evict(ctx context.Context, bookID int64) error {
	if err := c.client.Del(ctx, CacheKey(bookID)).Err(); err != nil {
		return fmt.Errorf("evict book %d from cache: %w", bookID, err)
	}
	return nil
}
