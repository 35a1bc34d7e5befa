package channel

import (
	"context"

	"github.com/fahaniecares/notification-delivery/internal/domain"
)

// inAppChannel has no transport: the persisted notification row is what the
// portal renders, so accepting is a no-op.
type inAppChannel struct{}

func NewInAppChannel() Channel {
	return inAppChannel{}
}

func (inAppChannel) Name() domain.Channel {
	return domain.ChannelInApp
}

func (inAppChannel) Send(_ context.Context, _ domain.Notification) (bool, error) {
	return true, nil
}
