//go:build e2e

package integration

import (
	"context"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ego-component/egorm"
	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/ioc"
	mailermocks "github.com/fahaniecares/notification-delivery/internal/pkg/mailer/mocks"
	deliveryioc "github.com/fahaniecares/notification-delivery/internal/test/integration/ioc/delivery"
	testioc "github.com/fahaniecares/notification-delivery/internal/test/ioc"
	"github.com/gotomicro/ego/core/econf"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
	"gopkg.in/yaml.v2"
)

// userIDSeq hands out user IDs unique across the whole test binary so suites
// sharing one database never see each other's rows.
var userIDSeq atomic.Int64

func init() {
	userIDSeq.Store(time.Now().Unix() * 1000)
}

func nextUserID() int64 {
	return userIDSeq.Add(1)
}

func loadConfig(t *testing.T) {
	dir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	f, err := os.Open(dir + "/../../../config/config.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := econf.LoadFromReader(f, yaml.Unmarshal); err != nil {
		t.Fatal(err)
	}
}

func TestDeliveryFlowSuite(t *testing.T) {
	suite.Run(t, new(DeliveryFlowTestSuite))
}

type DeliveryFlowTestSuite struct {
	suite.Suite
	db  *egorm.Component
	app *ioc.App
}

func (s *DeliveryFlowTestSuite) SetupSuite() {
	loadConfig(s.T())
	s.db = testioc.InitDBAndTables()

	ctrl := gomock.NewController(s.T())
	mockMailer := mailermocks.NewMockMailer(ctrl)
	mockMailer.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).AnyTimes()

	app, err := deliveryioc.Init(mockMailer, nil)
	s.Require().NoError(err)
	s.app = app
}

func (s *DeliveryFlowTestSuite) sendRequest(userID int64) domain.SendRequest {
	return domain.SendRequest{
		Recipient: domain.Recipient{
			ID:    userID,
			Email: "maria@example.com",
			Name:  "Maria",
		},
		Type:    domain.TypeStatusChange,
		Title:   "Referral update",
		Message: "Your referral moved to processing.",
	}
}

func (s *DeliveryFlowTestSuite) TestSendDeliversOnDefaultChannels() {
	t := s.T()
	ctx := context.Background()
	userID := nextUserID()

	resp, err := s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)
	s.False(resp.Suppressed)
	s.NotZero(resp.Notification.ID)

	stored, err := s.app.NotificationSvc.GetByID(ctx, resp.Notification.ID, userID)
	s.Require().NoError(err)
	for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelInApp, domain.ChannelPush} {
		s.True(stored.AttemptedOn(ch), "channel %s not attempted", ch)
		s.True(stored.DeliveredOn(ch), "channel %s not delivered", ch)
	}
	s.False(stored.AttemptedOn(domain.ChannelSMS), "SMS is off by default")

	entries, err := s.app.NotificationSvc.DeliveryHistory(ctx, resp.Notification.ID, userID)
	s.Require().NoError(err)
	s.Len(entries, 3)
	for _, e := range entries {
		s.Equal(domain.DeliveryStatusDelivered, e.Status)
		s.Empty(e.Error)
		t.Logf("delivery log: channel=%s status=%s", e.Channel, e.Status)
	}
}

func (s *DeliveryFlowTestSuite) TestSuppressedTypeLeavesNoTrace() {
	ctx := context.Background()
	userID := nextUserID()

	_, err := s.app.PreferenceSvc.SetTypeEnabled(ctx, userID, domain.TypeStatusChange, false)
	s.Require().NoError(err)

	resp, err := s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)
	s.True(resp.Suppressed)
	s.Zero(resp.Notification.ID)

	var count int64
	err = s.db.WithContext(ctx).
		Table("notifications").
		Where("user_id = ?", userID).
		Count(&count).Error
	s.Require().NoError(err)
	s.Zero(count, "suppression must not persist a notification row")
}

func (s *DeliveryFlowTestSuite) TestPreferenceRowCreatedLazilyOnce() {
	ctx := context.Background()
	userID := nextUserID()

	var before int64
	err := s.db.WithContext(ctx).
		Table("user_notification_preferences").
		Where("user_id = ?", userID).
		Count(&before).Error
	s.Require().NoError(err)
	s.Zero(before)

	_, err = s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)
	_, err = s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)

	var after int64
	err = s.db.WithContext(ctx).
		Table("user_notification_preferences").
		Where("user_id = ?", userID).
		Count(&after).Error
	s.Require().NoError(err)
	s.Equal(int64(1), after)
}

func (s *DeliveryFlowTestSuite) TestQuietHoursDeferExternalChannels() {
	ctx := context.Background()
	userID := nextUserID()

	pref, err := s.app.PreferenceSvc.GetOrCreate(ctx, userID)
	s.Require().NoError(err)
	now := time.Now().UTC()
	pref.QuietHoursStart = now.Add(-time.Hour).Format("15:04")
	pref.QuietHoursEnd = now.Add(time.Hour).Format("15:04")
	pref.Timezone = "UTC"
	_, err = s.app.PreferenceSvc.Update(ctx, pref)
	s.Require().NoError(err)

	resp, err := s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)

	stored, err := s.app.NotificationSvc.GetByID(ctx, resp.Notification.ID, userID)
	s.Require().NoError(err)
	s.True(stored.DeliveredOn(domain.ChannelInApp), "in-app ignores quiet hours")
	s.False(stored.AttemptedOn(domain.ChannelEmail), "email must wait for the window to end")
	s.False(stored.AttemptedOn(domain.ChannelPush), "push must wait for the window to end")

	var items []struct {
		Channel     string
		ScheduledAt int64
		Processed   bool
	}
	err = s.db.WithContext(ctx).
		Table("notification_retry_queue").
		Where("notification_id = ?", resp.Notification.ID).
		Find(&items).Error
	s.Require().NoError(err)
	s.Len(items, 2)
	for _, item := range items {
		s.False(item.Processed)
		s.Greater(item.ScheduledAt, now.UnixMilli(), "deferred item must wait until quiet hours end")
	}
}

func (s *DeliveryFlowTestSuite) TestUrgentBypassesQuietHours() {
	ctx := context.Background()
	userID := nextUserID()

	pref, err := s.app.PreferenceSvc.GetOrCreate(ctx, userID)
	s.Require().NoError(err)
	now := time.Now().UTC()
	pref.QuietHoursStart = now.Add(-time.Hour).Format("15:04")
	pref.QuietHoursEnd = now.Add(time.Hour).Format("15:04")
	pref.Timezone = "UTC"
	_, err = s.app.PreferenceSvc.Update(ctx, pref)
	s.Require().NoError(err)

	req := s.sendRequest(userID)
	req.Priority = domain.PriorityUrgent
	resp, err := s.app.SendSvc.SendNotification(ctx, req)
	s.Require().NoError(err)

	stored, err := s.app.NotificationSvc.GetByID(ctx, resp.Notification.ID, userID)
	s.Require().NoError(err)
	for _, ch := range []domain.Channel{domain.ChannelEmail, domain.ChannelInApp, domain.ChannelPush} {
		s.True(stored.DeliveredOn(ch), "urgent send must not defer %s", ch)
	}

	var queued int64
	err = s.db.WithContext(ctx).
		Table("notification_retry_queue").
		Where("notification_id = ?", resp.Notification.ID).
		Count(&queued).Error
	s.Require().NoError(err)
	s.Zero(queued)
}

func (s *DeliveryFlowTestSuite) TestMarkReadIsIdempotent() {
	ctx := context.Background()
	userID := nextUserID()

	resp, err := s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)
	id := resp.Notification.ID

	s.Require().NoError(s.app.NotificationSvc.MarkRead(ctx, id, userID))
	first, err := s.app.NotificationSvc.GetByID(ctx, id, userID)
	s.Require().NoError(err)
	s.True(first.Read)
	s.False(first.ReadAt.IsZero())

	time.Sleep(5 * time.Millisecond)
	s.Require().NoError(s.app.NotificationSvc.MarkRead(ctx, id, userID))
	second, err := s.app.NotificationSvc.GetByID(ctx, id, userID)
	s.Require().NoError(err)
	s.Equal(first.ReadAt.UnixMilli(), second.ReadAt.UnixMilli(), "second mark must not move ReadAt")
}

func (s *DeliveryFlowTestSuite) TestListAndUnreadCount() {
	ctx := context.Background()
	userID := nextUserID()

	first, err := s.app.SendSvc.SendNotification(ctx, s.sendRequest(userID))
	s.Require().NoError(err)
	req := s.sendRequest(userID)
	req.Type = domain.TypeComment
	req.Title = "New comment"
	_, err = s.app.SendSvc.SendNotification(ctx, req)
	s.Require().NoError(err)

	all, err := s.app.NotificationSvc.List(ctx, userID, domain.NotificationQuery{})
	s.Require().NoError(err)
	s.Len(all, 2)

	comments, err := s.app.NotificationSvc.List(ctx, userID, domain.NotificationQuery{
		Types: []domain.NotificationType{domain.TypeComment},
	})
	s.Require().NoError(err)
	s.Len(comments, 1)
	s.Equal(domain.TypeComment, comments[0].Type)

	s.Require().NoError(s.app.NotificationSvc.MarkRead(ctx, first.Notification.ID, userID))
	unread, err := s.app.NotificationSvc.UnreadCount(ctx, userID)
	s.Require().NoError(err)
	s.Equal(int64(1), unread)
}
