package channel

import (
	"context"
	"testing"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/service/channel/sms/client"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSMSClient struct {
	req  client.SendReq
	resp client.SendResp
	err  error
}

func (s *stubSMSClient) Send(req client.SendReq) (client.SendResp, error) {
	s.req = req
	return s.resp, s.err
}

func smsNotification() domain.Notification {
	return domain.Notification{
		ID:     42,
		UserID: 7,
		Recipient: domain.Recipient{
			ID:    7,
			Phone: "+639171234567",
		},
		Type:     domain.TypeStatusChange,
		Title:    "Referral update",
		Message:  "Your referral status changed.",
		Priority: domain.PriorityHigh,
	}
}

func TestSMSChannel_Send_Unconfigured(t *testing.T) {
	t.Parallel()

	ch := NewSMSChannel(nil, SMSConfig{})

	accepted, err := ch.Send(context.Background(), smsNotification())
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrSMSNotConfigured)
}

func TestSMSChannel_Send_NoPhone(t *testing.T) {
	t.Parallel()

	cli := &stubSMSClient{}
	ch := NewSMSChannel(cli, SMSConfig{})

	n := smsNotification()
	n.Recipient.Phone = ""

	accepted, err := ch.Send(context.Background(), n)
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrNoPhoneNumber)
	assert.Empty(t, cli.req.PhoneNumbers)
}

func TestSMSChannel_Send(t *testing.T) {
	t.Parallel()

	cli := &stubSMSClient{
		resp: client.SendResp{
			RequestID: "req-1",
			PhoneNumbers: map[string]client.SendRespStatus{
				"+639171234567": {Code: client.OK, Message: "send success"},
			},
		},
	}
	ch := NewSMSChannel(cli, SMSConfig{
		SignName:   "FahanieCares",
		TemplateID: "SMS_12345",
	})

	accepted, err := ch.Send(context.Background(), smsNotification())
	require.NoError(t, err)
	assert.True(t, accepted)

	assert.Equal(t, []string{"+639171234567"}, cli.req.PhoneNumbers)
	assert.Equal(t, "FahanieCares", cli.req.SignName)
	assert.Equal(t, "SMS_12345", cli.req.TemplateID)
	assert.Equal(t, map[string]string{"content": "Your referral status changed."}, cli.req.TemplateParam)
}

func TestSMSChannel_Send_NormalizedNumberInResponse(t *testing.T) {
	t.Parallel()

	// Vendor response keyed by a re-formatted number still settles a
	// single-recipient send.
	cli := &stubSMSClient{
		resp: client.SendResp{
			PhoneNumbers: map[string]client.SendRespStatus{
				"639171234567": {Code: client.OK},
			},
		},
	}
	ch := NewSMSChannel(cli, SMSConfig{})

	accepted, err := ch.Send(context.Background(), smsNotification())
	require.NoError(t, err)
	assert.True(t, accepted)
}

func TestSMSChannel_Send_VendorReject(t *testing.T) {
	t.Parallel()

	cli := &stubSMSClient{
		resp: client.SendResp{
			PhoneNumbers: map[string]client.SendRespStatus{
				"+639171234567": {Code: "isv.BUSINESS_LIMIT_CONTROL", Message: "flow control"},
			},
		},
	}
	ch := NewSMSChannel(cli, SMSConfig{})

	accepted, err := ch.Send(context.Background(), smsNotification())
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
	assert.ErrorContains(t, err, "BUSINESS_LIMIT_CONTROL")
}

func TestSMSChannel_Send_ClientError(t *testing.T) {
	t.Parallel()

	cli := &stubSMSClient{err: errors.New("gateway timeout")}
	ch := NewSMSChannel(cli, SMSConfig{})

	accepted, err := ch.Send(context.Background(), smsNotification())
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
}
