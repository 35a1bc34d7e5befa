package channel

import (
	"context"
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/service/channel/sms/client"
	"github.com/gotomicro/ego/core/elog"
)

type SMSConfig struct {
	SignName   string `yaml:"signName" json:"signName"`
	TemplateID string `yaml:"templateId" json:"templateId"`
	// ParamKey is the template placeholder receiving the message text: a
	// named variable for Aliyun templates, a 1-based index for Tencent.
	ParamKey string `yaml:"paramKey" json:"paramKey"`
}

type smsChannel struct {
	client client.Client
	cfg    SMSConfig
	logger *elog.Component
}

// NewSMSChannel builds the SMS transport. A nil client is the supported
// unconfigured state: every send fails with ErrSMSNotConfigured and the
// failure lands in the delivery log instead of the caller.
func NewSMSChannel(cli client.Client, cfg SMSConfig) Channel {
	if cfg.ParamKey == "" {
		cfg.ParamKey = "content"
	}
	return &smsChannel{
		client: cli,
		cfg:    cfg,
		logger: elog.DefaultLogger,
	}
}

func (c *smsChannel) Name() domain.Channel {
	return domain.ChannelSMS
}

func (c *smsChannel) Send(ctx context.Context, n domain.Notification) (bool, error) {
	if c.client == nil {
		return false, fmt.Errorf("%w: no gateway client", errs.ErrSMSNotConfigured)
	}
	if n.Recipient.Phone == "" {
		c.logger.Warn("recipient has no phone number",
			elog.Any("notificationID", n.ID),
			elog.Int64("userID", n.UserID))
		return false, fmt.Errorf("%w: user %d", errs.ErrNoPhoneNumber, n.UserID)
	}
	if err := ctx.Err(); err != nil {
		return false, err
	}

	resp, err := c.client.Send(client.SendReq{
		PhoneNumbers:  []string{n.Recipient.Phone},
		SignName:      c.cfg.SignName,
		TemplateID:    c.cfg.TemplateID,
		TemplateParam: map[string]string{c.cfg.ParamKey: n.Message},
	})
	if err != nil {
		return false, fmt.Errorf("%w: %w", errs.ErrSendNotificationFailed, err)
	}

	status, ok := resp.PhoneNumbers[n.Recipient.Phone]
	if !ok && len(resp.PhoneNumbers) == 1 {
		// Vendors differ on number normalization in responses; a
		// single-recipient response is ours.
		for _, st := range resp.PhoneNumbers {
			status, ok = st, true
		}
	}
	if !ok || status.Code != client.OK {
		return false, fmt.Errorf("%w: code = %q, message = %q",
			errs.ErrSendNotificationFailed, status.Code, status.Message)
	}
	return true, nil
}
