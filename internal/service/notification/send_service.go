package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/repository"
	"github.com/fahaniecares/notification-delivery/internal/service/channel"
	"github.com/fahaniecares/notification-delivery/internal/service/preference"
	"github.com/fahaniecares/notification-delivery/internal/service/retry"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/sony/sonyflake"
)

// SendService creates notifications and fans them out over the recipient's
// channels.
//
//go:generate mockgen -source=./send_service.go -destination=./mocks/send_service.mock.go -package=notificationmocks -typed SendService
type SendService interface {
	// SendNotification runs one notification through the full pipeline:
	// preference checks, persistence, per-channel delivery, audit trail.
	// A suppressed send returns Suppressed=true with nil error and leaves
	// no trace in storage.
	SendNotification(ctx context.Context, req domain.SendRequest) (domain.SendResponse, error)
	// SendBulkNotification applies SendNotification per request. One
	// recipient's failure or suppression never affects the others.
	SendBulkNotification(ctx context.Context, reqs []domain.SendRequest) (domain.BatchSendResponse, error)
}

type sendService struct {
	repo          repository.NotificationRepository
	logRepo       repository.DeliveryLogRepository
	preferenceSvc preference.Service
	queueSvc      retry.QueueService
	sender        channel.Sender
	idGenerator   *sonyflake.Sonyflake
	logger        *elog.Component
}

func NewSendService(
	repo repository.NotificationRepository,
	logRepo repository.DeliveryLogRepository,
	preferenceSvc preference.Service,
	queueSvc retry.QueueService,
	sender channel.Sender,
	idGenerator *sonyflake.Sonyflake,
) SendService {
	return &sendService{
		repo:          repo,
		logRepo:       logRepo,
		preferenceSvc: preferenceSvc,
		queueSvc:      queueSvc,
		sender:        sender,
		idGenerator:   idGenerator,
		logger:        elog.DefaultLogger,
	}
}

func (s *sendService) SendNotification(ctx context.Context, req domain.SendRequest) (domain.SendResponse, error) {
	if req.Priority == "" {
		req.Priority = domain.PriorityNormal
	}
	if err := req.Validate(); err != nil {
		return domain.SendResponse{}, err
	}

	pref, err := s.preferenceSvc.GetOrCreate(ctx, req.Recipient.ID)
	if err != nil {
		return domain.SendResponse{}, fmt.Errorf("%w: loading preferences: %w", errs.ErrSendNotificationFailed, err)
	}
	// A disabled type suppresses the send before any row is written.
	if !pref.TypeEnabled(req.Type) {
		return domain.SendResponse{Suppressed: true}, nil
	}

	// An explicit channel list overrides the preference toggles.
	channels := req.Channels
	if len(channels) == 0 {
		channels = pref.EnabledChannels()
	}

	id, err := s.idGenerator.NextID()
	if err != nil {
		return domain.SendResponse{}, fmt.Errorf("%w: %w", errs.ErrIDGenerationFailed, err)
	}

	created, err := s.repo.Create(ctx, domain.Notification{
		ID:        id,
		UserID:    req.Recipient.ID,
		Recipient: req.Recipient,
		Type:      req.Type,
		Title:     req.Title,
		Message:   req.Message,
		Priority:  req.Priority,
		Related:   req.Related,
		Data:      req.Data,
		ExpiresAt: req.ExpiresAt,
	})
	if err != nil {
		return domain.SendResponse{}, fmt.Errorf("%w: %w", errs.ErrCreateNotificationFailed, err)
	}
	// Presentation hints live on the request only; queued redeliveries fall
	// back to the type-based template convention.
	created.TemplateName = req.TemplateName
	created.TemplateContext = req.TemplateContext

	if err := s.deliver(ctx, &created, pref, channels); err != nil {
		return domain.SendResponse{}, err
	}
	return domain.SendResponse{Notification: created}, nil
}

func (s *sendService) SendBulkNotification(ctx context.Context, reqs []domain.SendRequest) (domain.BatchSendResponse, error) {
	resp := domain.BatchSendResponse{
		Notifications: make([]domain.Notification, 0, len(reqs)),
	}
	if len(reqs) == 0 {
		return resp, fmt.Errorf("%w: empty request list", errs.ErrInvalidParameter)
	}
	var merr error
	for i := range reqs {
		one, err := s.SendNotification(ctx, reqs[i])
		if err != nil {
			merr = multierror.Append(merr, fmt.Errorf("recipient %d: %w", reqs[i].Recipient.ID, err))
			continue
		}
		if one.Suppressed {
			continue
		}
		resp.Notifications = append(resp.Notifications, one.Notification)
	}
	return resp, merr
}

// deliver runs the per-channel attempts and persists the final delivery
// state. During the recipient's quiet hours, external channels are queued for
// the end of the window instead of sent; in-app stays immediate and urgent
// notifications bypass the window entirely.
func (s *sendService) deliver(ctx context.Context, n *domain.Notification, pref domain.Preference, channels []domain.Channel) error {
	now := time.Now()
	deferExternal := pref.InQuietHours(now) && n.Priority != domain.PriorityUrgent
	var resumeAt time.Time
	if deferExternal {
		resumeAt = pref.QuietHoursEndTime(now)
	}

	for _, ch := range channels {
		if deferExternal && ch != domain.ChannelInApp {
			if _, err := s.queueSvc.Enqueue(ctx, *n, ch, resumeAt, n.Priority.QueueWeight()); err != nil {
				return fmt.Errorf("%w: deferring %s delivery: %w", errs.ErrSendNotificationFailed, ch, err)
			}
			continue
		}
		if err := s.attempt(ctx, n, ch); err != nil {
			return err
		}
	}
	if err := s.repo.UpdateDeliveryState(ctx, *n); err != nil {
		return fmt.Errorf("%w: persisting delivery state: %w", errs.ErrSendNotificationFailed, err)
	}
	return nil
}

// attempt dispatches one channel and appends the audit entry. Transport
// failures are recorded and swallowed so the remaining channels still run;
// only audit-trail write failures propagate.
func (s *sendService) attempt(ctx context.Context, n *domain.Notification, ch domain.Channel) error {
	n.MarkAttempted(ch)
	accepted, err := s.sender.Send(ctx, ch, *n)
	now := time.Now()
	if err == nil && accepted {
		n.MarkDelivered(ch)
		if _, logErr := s.logRepo.Append(ctx, domain.DeliveryLogEntry{
			NotificationID: n.ID,
			Channel:        ch,
			Status:         domain.DeliveryStatusDelivered,
			SentAt:         now,
			DeliveredAt:    now,
		}); logErr != nil {
			return fmt.Errorf("%w: recording delivery: %w", errs.ErrSendNotificationFailed, logErr)
		}
		return nil
	}

	errText := failureText(accepted, err)
	s.logger.Warn("channel delivery failed",
		elog.Any("notification", n.ID),
		elog.String("channel", ch.String()),
		elog.String("err", errText))
	if _, logErr := s.logRepo.Append(ctx, domain.DeliveryLogEntry{
		NotificationID: n.ID,
		Channel:        ch,
		Status:         domain.DeliveryStatusFailed,
		Error:          errText,
		FailedAt:       now,
	}); logErr != nil {
		return fmt.Errorf("%w: recording failure: %w", errs.ErrSendNotificationFailed, logErr)
	}
	return nil
}

func failureText(accepted bool, err error) string {
	if err != nil {
		return err.Error()
	}
	if !accepted {
		return "delivery rejected by channel"
	}
	return ""
}
