package redis

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/repository/cache"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	rdb *redis.Client
}

func NewCache(rdb *redis.Client) *Cache {
	return &Cache{rdb: rdb}
}

func (c *Cache) Get(ctx context.Context, userID int64) (domain.Preference, error) {
	key := cache.PreferenceKey(userID)
	val, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return domain.Preference{}, cache.ErrKeyNotFound
		}
		return domain.Preference{}, fmt.Errorf("failed to get preference from redis %w", err)
	}

	var pref domain.Preference
	if err := json.Unmarshal([]byte(val), &pref); err != nil {
		return domain.Preference{}, fmt.Errorf("failed to unmarshal preference data %w", err)
	}
	return pref, nil
}

func (c *Cache) Set(ctx context.Context, pref domain.Preference) error {
	key := cache.PreferenceKey(pref.UserID)
	data, err := json.Marshal(pref)
	if err != nil {
		return fmt.Errorf("failed to marshal preference data %w", err)
	}
	if err := c.rdb.Set(ctx, key, data, cache.DefaultExpiredTime).Err(); err != nil {
		return fmt.Errorf("failed to set preference in redis %w", err)
	}
	return nil
}

func (c *Cache) Del(ctx context.Context, userID int64) error {
	return c.rdb.Del(ctx, cache.PreferenceKey(userID)).Err()
}
