package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"basket-optimizer/internal/common/logger"
	"basket-optimizer/internal/models"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "basket:prefs:"

// CachedRepository puts a Redis read-through cache in front of another
// Repository. Redis failures are logged and served from the backing store.
type CachedRepository struct {
	next   Repository
	rdb    redis.Cmdable
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(next Repository, rdb redis.Cmdable, ttl time.Duration, log logger.Logger) *CachedRepository {
	return &CachedRepository{
		next:   next,
		rdb:    rdb,
		ttl:    ttl,
		logger: log.WithFields(map[string]interface{}{"component": "preferences-cache"}),
	}
}

func cacheKey(userID string) string {
	return keyPrefix + userID
}

func (c *CachedRepository) Get(ctx context.Context, userID string) (models.Preference, error) {
	key := cacheKey(userID)

	data, err := c.rdb.Get(ctx, key).Bytes()
	switch {
	case err == nil:
		var prefs models.Preference
		if jsonErr := json.Unmarshal(data, &prefs); jsonErr == nil {
			return prefs, nil
		}
		c.logger.Warn("discarding corrupt cache entry", map[string]interface{}{"key": key})
	case !errors.Is(err, redis.Nil):
		c.logger.Warn("cache read failed", map[string]interface{}{"key": key, "error": err.Error()})
	}

	prefs, err := c.next.Get(ctx, userID)
	if err != nil {
		return nil, err
	}

	encoded, err := json.Marshal(prefs)
	if err == nil {
		err = c.rdb.Set(ctx, key, string(encoded), c.ttl).Err()
	}
	if err != nil {
		c.logger.Warn("cache write failed", map[string]interface{}{"key": key, "error": err.Error()})
	}
	return prefs, nil
}

// Invalidate drops the cached preferences of userID.
func (c *CachedRepository) Invalidate(ctx context.Context, userID string) error {
	return c.rdb.Del(ctx, cacheKey(userID)).Err()
}
