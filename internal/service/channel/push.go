package channel

import (
	"context"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/gotomicro/ego/core/elog"
)

// pushChannel reports acceptance without a real push gateway behind it.
// TODO: wire an FCM sender once device tokens are collected by the portal.
type pushChannel struct {
	logger *elog.Component
}

func NewPushChannel() Channel {
	return &pushChannel{logger: elog.DefaultLogger}
}

func (c *pushChannel) Name() domain.Channel {
	return domain.ChannelPush
}

func (c *pushChannel) Send(_ context.Context, n domain.Notification) (bool, error) {
	c.logger.Info("push accepted without gateway",
		elog.Any("notificationID", n.ID),
		elog.Int64("userID", n.UserID))
	return true, nil
}
