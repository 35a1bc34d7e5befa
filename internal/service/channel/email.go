package channel

import (
	"context"
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/pkg/htmlx"
	"github.com/fahaniecares/notification-delivery/internal/pkg/mailer"
	"github.com/fahaniecares/notification-delivery/internal/pkg/ratelimit"
	tmplsvc "github.com/fahaniecares/notification-delivery/internal/service/template"
	"github.com/gotomicro/ego/core/elog"
)

const emailLimitKey = "email"

type emailChannel struct {
	mailer    mailer.Mailer
	templates tmplsvc.Service
	limiter   ratelimit.Limiter
	logger    *elog.Component
}

// NewEmailChannel builds the SMTP transport. The limiter guards the upstream
// relay; when it cannot be consulted the send proceeds.
func NewEmailChannel(m mailer.Mailer, templates tmplsvc.Service, limiter ratelimit.Limiter) Channel {
	return &emailChannel{
		mailer:    m,
		templates: templates,
		limiter:   limiter,
		logger:    elog.DefaultLogger,
	}
}

func (c *emailChannel) Name() domain.Channel {
	return domain.ChannelEmail
}

func (c *emailChannel) Send(ctx context.Context, n domain.Notification) (bool, error) {
	if n.Recipient.Email == "" {
		c.logger.Warn("recipient has no email address",
			elog.Any("notificationID", n.ID),
			elog.Int64("userID", n.UserID))
		return false, fmt.Errorf("%w: user %d", errs.ErrNoEmailAddress, n.UserID)
	}

	limited, err := c.limiter.Limit(ctx, emailLimitKey)
	if err != nil {
		c.logger.Warn("email rate limiter unavailable", elog.FieldErr(err))
	} else if limited {
		return false, fmt.Errorf("%w: key %q", errs.ErrEmailRateLimited, emailLimitKey)
	}

	html, err := c.templates.Render(n)
	if err != nil {
		return false, err
	}

	msg := mailer.Message{
		To:      n.Recipient.Email,
		Subject: n.Title,
		HTML:    html,
		Text:    htmlx.Strip(html),
	}
	if err := c.mailer.Send(ctx, msg); err != nil {
		return false, fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}
	return true, nil
}
