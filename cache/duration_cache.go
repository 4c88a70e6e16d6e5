package cache

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"

	"Tracksmith/core/timeline"
	"Tracksmith/logger"
)

const durationKeyPrefix = "tracksmith:duration:"

// DurationCache remembers probed durations in Redis. Entries are keyed by
// path, size and modification time, so an engine edit that rewrites a file
// misses the cache.
type DurationCache struct {
	client redis.Cmdable
	next   timeline.DurationProber
	ttl    time.Duration
}

func NewDurationCache(client redis.Cmdable, next timeline.DurationProber, ttl time.Duration) *DurationCache {
	return &DurationCache{client: client, next: next, ttl: ttl}
}

// DurationKey returns the cache key for a file with the given identity.
func DurationKey(path string, size int64, modTime time.Time) string {
	sum := sha1.Sum([]byte(fmt.Sprintf("%s|%d|%d", path, size, modTime.UnixNano())))
	return durationKeyPrefix + hex.EncodeToString(sum[:])
}

func (c *DurationCache) ProbeDuration(ctx context.Context, path string) (float64, error) {
	info, err := os.Stat(path)
	if err != nil {
		return c.next.ProbeDuration(ctx, path)
	}
	key := DurationKey(path, info.Size(), info.ModTime())

	val, err := c.client.Get(ctx, key).Result()
	switch {
	case err == nil:
		if secs, perr := strconv.ParseFloat(val, 64); perr == nil {
			return secs, nil
		}
	case !errors.Is(err, redis.Nil):
		logger.Warn("duration cache read failed", logger.String("path", path), logger.ErrorField(err))
	}

	secs, err := c.next.ProbeDuration(ctx, path)
	if err != nil {
		return 0, err
	}
	if err := c.client.Set(ctx, key, strconv.FormatFloat(secs, 'f', -1, 64), c.ttl).Err(); err != nil {
		logger.Warn("duration cache write failed", logger.String("path", path), logger.ErrorField(err))
	}
	return secs, nil
}
