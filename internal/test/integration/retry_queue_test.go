//go:build e2e

package integration

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ego-component/egorm"
	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/ioc"
	mailermocks "github.com/fahaniecares/notification-delivery/internal/pkg/mailer/mocks"
	deliveryioc "github.com/fahaniecares/notification-delivery/internal/test/integration/ioc/delivery"
	testioc "github.com/fahaniecares/notification-delivery/internal/test/ioc"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"
)

func TestRetryQueueSuite(t *testing.T) {
	suite.Run(t, new(RetryQueueTestSuite))
}

// RetryQueueTestSuite drains the durable queue against real MySQL with an
// SMTP mock that always refuses, so every email pass fails the same way.
type RetryQueueTestSuite struct {
	suite.Suite
	db  *egorm.Component
	app *ioc.App
}

func (s *RetryQueueTestSuite) SetupSuite() {
	loadConfig(s.T())
	s.db = testioc.InitDBAndTables()

	ctrl := gomock.NewController(s.T())
	mockMailer := mailermocks.NewMockMailer(ctrl)
	mockMailer.EXPECT().
		Send(gomock.Any(), gomock.Any()).
		Return(errors.New("smtp: connection refused")).
		AnyTimes()

	app, err := deliveryioc.Init(mockMailer, nil)
	s.Require().NoError(err)
	s.app = app
}

func (s *RetryQueueTestSuite) seedNotification(userID int64) domain.Notification {
	n, err := s.app.NotificationRepo.Create(context.Background(), domain.Notification{
		ID:     uint64(nextUserID()),
		UserID: userID,
		Recipient: domain.Recipient{
			ID:    userID,
			Email: "maria@example.com",
		},
		Type:     domain.TypeStatusChange,
		Title:    "Referral update",
		Message:  "Your referral moved to processing.",
		Priority: domain.PriorityNormal,
	})
	s.Require().NoError(err)
	return n
}

// rewind pulls a queue item's schedule into the past so the next drain pass
// selects it without waiting out the backoff.
func (s *RetryQueueTestSuite) rewind(itemID int64) {
	err := s.db.WithContext(context.Background()).
		Table("notification_retry_queue").
		Where("id = ?", itemID).
		Update("scheduled_at", time.Now().Add(-time.Minute).UnixMilli()).Error
	s.Require().NoError(err)
}

func (s *RetryQueueTestSuite) TestDrainDeliversDueItem() {
	ctx := context.Background()
	userID := nextUserID()
	n := s.seedNotification(userID)

	item, err := s.app.RetryQueueSvc.Enqueue(ctx, n, domain.ChannelInApp, time.Time{}, 10)
	s.Require().NoError(err)
	s.False(item.Processed)

	_, err = s.app.RetryQueueSvc.ProcessQueue(ctx, nil)
	s.Require().NoError(err)

	settled, err := s.app.RetryQueueRepo.GetByID(ctx, item.ID)
	s.Require().NoError(err)
	s.True(settled.Processed)
	s.False(settled.ProcessedAt.IsZero())
	s.Zero(settled.RetryCount)

	stored, err := s.app.NotificationRepo.GetByID(ctx, n.ID)
	s.Require().NoError(err)
	s.True(stored.DeliveredOn(domain.ChannelInApp))

	entries, err := s.app.DeliveryLogRepo.ListByNotification(ctx, n.ID)
	s.Require().NoError(err)
	var delivered int
	for _, e := range entries {
		if e.Status == domain.DeliveryStatusDelivered {
			delivered++
		}
	}
	s.Equal(1, delivered)
}

func (s *RetryQueueTestSuite) TestFailedItemBacksOffThenExhausts() {
	ctx := context.Background()
	userID := nextUserID()
	n := s.seedNotification(userID)

	item, err := s.app.RetryQueueSvc.Enqueue(ctx, n, domain.ChannelEmail, time.Time{}, 10)
	s.Require().NoError(err)
	s.Equal(3, item.MaxRetries)

	// First failing pass reschedules with backoff.
	_, err = s.app.RetryQueueSvc.ProcessQueue(ctx, nil)
	s.Require().NoError(err)
	after, err := s.app.RetryQueueRepo.GetByID(ctx, item.ID)
	s.Require().NoError(err)
	s.False(after.Processed)
	s.Equal(1, after.RetryCount)
	s.Contains(after.LastError, "connection refused")
	s.True(after.ScheduledAt.After(time.Now()), "reschedule must apply backoff, not re-drain immediately")

	// Two more failing passes exhaust the budget.
	for pass := 0; pass < 2; pass++ {
		s.rewind(item.ID)
		_, err = s.app.RetryQueueSvc.ProcessQueue(ctx, nil)
		s.Require().NoError(err)
	}

	exhausted, err := s.app.RetryQueueRepo.GetByID(ctx, item.ID)
	s.Require().NoError(err)
	s.True(exhausted.Processed, "exhausted item must settle")
	s.Equal(3, exhausted.RetryCount)
	s.NotEmpty(exhausted.LastError)

	stored, err := s.app.NotificationRepo.GetByID(ctx, n.ID)
	s.Require().NoError(err)
	s.True(stored.AttemptedOn(domain.ChannelEmail))
	s.False(stored.DeliveredOn(domain.ChannelEmail))
}

func (s *RetryQueueTestSuite) TestSettledItemIsNeverReprocessed() {
	ctx := context.Background()
	userID := nextUserID()
	n := s.seedNotification(userID)

	item, err := s.app.RetryQueueSvc.Enqueue(ctx, n, domain.ChannelInApp, time.Time{}, 10)
	s.Require().NoError(err)

	_, err = s.app.RetryQueueSvc.ProcessQueue(ctx, nil)
	s.Require().NoError(err)

	settled, err := s.app.RetryQueueRepo.GetByID(ctx, item.ID)
	s.Require().NoError(err)
	s.True(settled.Processed)
	firstProcessedAt := settled.ProcessedAt

	// Force it due again; the processed flag must keep it out of selection.
	s.rewind(item.ID)
	_, err = s.app.RetryQueueSvc.ProcessQueue(ctx, nil)
	s.Require().NoError(err)

	again, err := s.app.RetryQueueRepo.GetByID(ctx, item.ID)
	s.Require().NoError(err)
	s.Equal(firstProcessedAt.UnixMilli(), again.ProcessedAt.UnixMilli())
	s.Equal(settled.RetryCount, again.RetryCount)
}
