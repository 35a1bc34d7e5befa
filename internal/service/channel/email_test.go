package channel

import (
	"context"
	"testing"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/pkg/mailer"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubMailer struct {
	sent []mailer.Message
	err  error
}

func (s *stubMailer) Send(_ context.Context, msg mailer.Message) error {
	if s.err != nil {
		return s.err
	}
	s.sent = append(s.sent, msg)
	return nil
}

type stubTemplates struct {
	html string
	err  error
}

func (s stubTemplates) Render(_ domain.Notification) (string, error) {
	return s.html, s.err
}

type stubLimiter struct {
	limited bool
	err     error
}

func (s stubLimiter) Limit(_ context.Context, _ string) (bool, error) {
	return s.limited, s.err
}

func emailNotification() domain.Notification {
	return domain.Notification{
		ID:     42,
		UserID: 7,
		Recipient: domain.Recipient{
			ID:    7,
			Name:  "Maria Santos",
			Email: "maria@example.com",
		},
		Type:     domain.TypeStatusChange,
		Title:    "Referral update",
		Message:  "Your referral status changed.",
		Priority: domain.PriorityNormal,
	}
}

func TestEmailChannel_Send(t *testing.T) {
	t.Parallel()

	m := &stubMailer{}
	ch := NewEmailChannel(m, stubTemplates{html: "<p>Hello <b>Maria</b></p>"}, stubLimiter{})

	accepted, err := ch.Send(context.Background(), emailNotification())
	require.NoError(t, err)
	assert.True(t, accepted)

	require.Len(t, m.sent, 1)
	msg := m.sent[0]
	assert.Equal(t, "maria@example.com", msg.To)
	assert.Equal(t, "Referral update", msg.Subject)
	assert.Equal(t, "<p>Hello <b>Maria</b></p>", msg.HTML)
	assert.Equal(t, "Hello Maria", msg.Text)
}

func TestEmailChannel_Send_NoAddress(t *testing.T) {
	t.Parallel()

	m := &stubMailer{}
	ch := NewEmailChannel(m, stubTemplates{html: "<p>x</p>"}, stubLimiter{})

	n := emailNotification()
	n.Recipient.Email = ""

	accepted, err := ch.Send(context.Background(), n)
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrNoEmailAddress)
	assert.Empty(t, m.sent)
}

func TestEmailChannel_Send_RateLimited(t *testing.T) {
	t.Parallel()

	m := &stubMailer{}
	ch := NewEmailChannel(m, stubTemplates{html: "<p>x</p>"}, stubLimiter{limited: true})

	accepted, err := ch.Send(context.Background(), emailNotification())
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrEmailRateLimited)
	assert.Empty(t, m.sent)
}

func TestEmailChannel_Send_LimiterUnavailable(t *testing.T) {
	t.Parallel()

	// A broken limiter must not block delivery.
	m := &stubMailer{}
	ch := NewEmailChannel(m, stubTemplates{html: "<p>x</p>"},
		stubLimiter{err: errors.New("redis down")})

	accepted, err := ch.Send(context.Background(), emailNotification())
	require.NoError(t, err)
	assert.True(t, accepted)
	assert.Len(t, m.sent, 1)
}

func TestEmailChannel_Send_RenderError(t *testing.T) {
	t.Parallel()

	m := &stubMailer{}
	ch := NewEmailChannel(m, stubTemplates{err: errs.ErrTemplateNotFound}, stubLimiter{})

	accepted, err := ch.Send(context.Background(), emailNotification())
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrTemplateNotFound)
	assert.Empty(t, m.sent)
}

func TestEmailChannel_Send_TransportError(t *testing.T) {
	t.Parallel()

	m := &stubMailer{err: errors.New("connection refused")}
	ch := NewEmailChannel(m, stubTemplates{html: "<p>x</p>"}, stubLimiter{})

	accepted, err := ch.Send(context.Background(), emailNotification())
	assert.False(t, accepted)
	assert.ErrorIs(t, err, errs.ErrSendNotificationFailed)
}
