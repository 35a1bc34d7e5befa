package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/pkg/errors"
)

const (
	PreferencePrefix   = "notification:pref"
	DefaultExpiredTime = 30 * time.Minute
)

var ErrKeyNotFound = errors.New("cache key not found")

type PreferenceCache interface {
	Get(ctx context.Context, userID int64) (domain.Preference, error)
	Set(ctx context.Context, pref domain.Preference) error
	Del(ctx context.Context, userID int64) error
}

func PreferenceKey(userID int64) string {
	return fmt.Sprintf("%s:%d", PreferencePrefix, userID)
}
