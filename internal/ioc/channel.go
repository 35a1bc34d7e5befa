package ioc

import (
	"github.com/fahaniecares/notification-delivery/internal/pkg/mailer"
	"github.com/fahaniecares/notification-delivery/internal/pkg/ratelimit"
	"github.com/fahaniecares/notification-delivery/internal/service/channel"
	"github.com/fahaniecares/notification-delivery/internal/service/channel/sms/client"
	tmplsvc "github.com/fahaniecares/notification-delivery/internal/service/template"
)

// InitChannels registers every transport behind the dispatcher, each wrapped
// with metrics and tracing.
func InitChannels(
	m mailer.Mailer,
	templates tmplsvc.Service,
	limiter ratelimit.Limiter,
	smsClient client.Client,
	smsCfg channel.SMSConfig,
) channel.Sender {
	instrument := func(c channel.Channel) channel.Channel {
		return channel.NewMetricsChannel(channel.NewTracingChannel(c))
	}
	return channel.NewDispatcher(
		instrument(channel.NewEmailChannel(m, templates, limiter)),
		instrument(channel.NewSMSChannel(smsClient, smsCfg)),
		instrument(channel.NewPushChannel()),
		instrument(channel.NewInAppChannel()),
	)
}
