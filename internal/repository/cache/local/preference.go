package local

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/repository/cache"
	"github.com/gotomicro/ego/core/elog"
	ca "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"
)

const defaultTimeout = 3 * time.Second

// Cache is the in-process tier in front of the redis preference cache. Other
// replicas' writes reach it through redis keyspace notifications, so reads
// here can be slightly stale but never older than the redis TTL.
type Cache struct {
	rdb    *redis.Client
	logger *elog.Component
	c      *ca.Cache
}

func NewCache(rdb *redis.Client, c *ca.Cache) *Cache {
	return &Cache{
		rdb:    rdb,
		logger: elog.DefaultLogger,
		c:      c,
	}
}

func (l *Cache) Get(_ context.Context, userID int64) (domain.Preference, error) {
	v, ok := l.c.Get(cache.PreferenceKey(userID))
	if !ok {
		return domain.Preference{}, cache.ErrKeyNotFound
	}
	return v.(domain.Preference), nil
}

func (l *Cache) Set(_ context.Context, pref domain.Preference) error {
	l.c.Set(cache.PreferenceKey(pref.UserID), pref, cache.DefaultExpiredTime)
	return nil
}

func (l *Cache) Del(_ context.Context, userID int64) error {
	l.c.Delete(cache.PreferenceKey(userID))
	return nil
}

// StartInvalidationLoop subscribes to keyspace notifications for preference
// keys and mirrors remote writes into the local tier. Requires
// notify-keyspace-events to include K and g/$ on the redis server. Blocks
// until ctx is cancelled; run it in a goroutine.
func (l *Cache) StartInvalidationLoop(ctx context.Context) {
	pubsub := l.rdb.PSubscribe(ctx, "__keyspace@*__:"+cache.PreferencePrefix+":*")
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Channel is "__keyspace@<db>__:<key>", payload is the event name.
			const parts = 2
			split := strings.SplitN(msg.Channel, ":", parts)
			if len(split) < parts {
				l.logger.Warn("unexpected keyspace notification channel",
					elog.String("channel", msg.Channel))
				continue
			}
			key := split[1]
			handleCtx, cancel := context.WithTimeout(ctx, defaultTimeout)
			l.handleChange(handleCtx, key, msg.Payload)
			cancel()
		}
	}
}

func (l *Cache) handleChange(ctx context.Context, key, event string) {
	switch event {
	case "set":
		res := l.rdb.Get(ctx, key)
		if res.Err() != nil {
			// The key may already be gone again; drop our copy.
			l.c.Delete(key)
			return
		}
		var pref domain.Preference
		if err := json.Unmarshal([]byte(res.Val()), &pref); err != nil {
			l.logger.Error("failed to unmarshal preference from notification",
				elog.String("key", key), elog.FieldErr(err))
			l.c.Delete(key)
			return
		}
		l.c.Set(key, pref, cache.DefaultExpiredTime)
	case "del", "expired":
		l.c.Delete(key)
	}
}
