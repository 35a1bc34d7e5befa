package retry

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	retrypkg "github.com/fahaniecares/notification-delivery/internal/pkg/retry"
	"github.com/fahaniecares/notification-delivery/internal/repository"
	"github.com/fahaniecares/notification-delivery/internal/service/channel"
	"github.com/gotomicro/ego/core/elog"
	"github.com/hashicorp/go-multierror"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"
)

const (
	defaultBatchSize   = 50
	defaultConcurrency = 8

	outcomeSucceeded   = "succeeded"
	outcomeRescheduled = "rescheduled"
	outcomeExhausted   = "exhausted"
	outcomeSkipped     = "skipped"
	outcomeError       = "error"
)

var drainCounter = prometheus.NewCounterVec(
	prometheus.CounterOpts{
		Name: "notification_retry_drain_items_total",
		Help: "Retry queue items drained, by channel and outcome.",
	},
	[]string{"channel", "outcome"},
)

func init() {
	prometheus.MustRegister(drainCounter)
}

// ProcessStats summarizes one drain pass. Selected counts the items picked
// up; the remaining fields partition how each selected item was settled.
type ProcessStats struct {
	Selected    int
	Succeeded   int
	Rescheduled int
	Exhausted   int
	Skipped     int
}

type QueueService interface {
	// Enqueue schedules one channel delivery for later. A zero scheduledAt
	// means "due now". Every enqueue also appends a PENDING audit entry.
	Enqueue(ctx context.Context, n domain.Notification, ch domain.Channel, scheduledAt time.Time, priority int) (domain.RetryQueueItem, error)
	// ProcessQueue drains one batch of due items, highest priority first.
	// A nil channel drains every channel. Item failures are settled on the
	// item itself and never abort the pass; infrastructure errors come back
	// aggregated.
	ProcessQueue(ctx context.Context, ch *domain.Channel) (ProcessStats, error)
}

type queueService struct {
	queueRepo        repository.RetryQueueRepository
	notificationRepo repository.NotificationRepository
	logRepo          repository.DeliveryLogRepository
	sender           channel.Sender
	backoff          retrypkg.Config
	batchSize        int
	concurrency      int
	logger           *elog.Component
}

func NewQueueService(
	queueRepo repository.RetryQueueRepository,
	notificationRepo repository.NotificationRepository,
	logRepo repository.DeliveryLogRepository,
	sender channel.Sender,
	backoff retrypkg.Config,
	batchSize, concurrency int,
) QueueService {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}
	return &queueService{
		queueRepo:        queueRepo,
		notificationRepo: notificationRepo,
		logRepo:          logRepo,
		sender:           sender,
		backoff:          backoff,
		batchSize:        batchSize,
		concurrency:      concurrency,
		logger:           elog.DefaultLogger,
	}
}

func (s *queueService) Enqueue(ctx context.Context, n domain.Notification, ch domain.Channel, scheduledAt time.Time, priority int) (domain.RetryQueueItem, error) {
	if !ch.IsValid() {
		return domain.RetryQueueItem{}, fmt.Errorf("%w: %q", errs.ErrUnknownChannel, ch)
	}
	if scheduledAt.IsZero() {
		scheduledAt = time.Now()
	}
	item, err := s.queueRepo.Create(ctx, domain.RetryQueueItem{
		NotificationID: n.ID,
		Channel:        ch,
		Priority:       priority,
		ScheduledAt:    scheduledAt,
	})
	if err != nil {
		return domain.RetryQueueItem{}, fmt.Errorf("enqueueing delivery: %w", err)
	}
	if _, err := s.logRepo.Append(ctx, domain.DeliveryLogEntry{
		NotificationID: n.ID,
		Channel:        ch,
		Status:         domain.DeliveryStatusPending,
	}); err != nil {
		return domain.RetryQueueItem{}, fmt.Errorf("recording pending delivery: %w", err)
	}
	return item, nil
}

func (s *queueService) ProcessQueue(ctx context.Context, ch *domain.Channel) (ProcessStats, error) {
	items, err := s.queueRepo.FindDue(ctx, ch, s.batchSize)
	if err != nil {
		return ProcessStats{}, fmt.Errorf("selecting due retry items: %w", err)
	}
	stats := ProcessStats{Selected: len(items)}
	if len(items) == 0 {
		return stats, nil
	}

	var (
		mu   sync.Mutex
		merr error
		eg   errgroup.Group
	)
	eg.SetLimit(s.concurrency)
	for idx := range items {
		item := items[idx]
		eg.Go(func() error {
			outcome, itemErr := s.processItem(ctx, item)
			drainCounter.WithLabelValues(item.Channel.String(), outcome).Inc()

			mu.Lock()
			defer mu.Unlock()
			switch outcome {
			case outcomeSucceeded:
				stats.Succeeded++
			case outcomeRescheduled:
				stats.Rescheduled++
			case outcomeExhausted:
				stats.Exhausted++
			case outcomeSkipped:
				stats.Skipped++
			}
			if itemErr != nil {
				merr = multierror.Append(merr, fmt.Errorf("item %d: %w", item.ID, itemErr))
			}
			return nil
		})
	}
	_ = eg.Wait()
	return stats, merr
}

func (s *queueService) processItem(ctx context.Context, item domain.RetryQueueItem) (string, error) {
	n, err := s.notificationRepo.GetByID(ctx, item.NotificationID)
	switch {
	case errors.Is(err, errs.ErrNotificationNotFound):
		// Orphaned item: nothing left to deliver, settle it for good.
		return s.settleTerminal(ctx, item, item.RetryCount, "notification deleted")
	case err != nil:
		// Leave the item due; the next pass picks it up again.
		return outcomeError, fmt.Errorf("loading notification %d: %w", item.NotificationID, err)
	}

	accepted, sendErr := s.sender.Send(ctx, item.Channel, n)
	if sendErr == nil && accepted {
		return s.settleSucceeded(ctx, item, n)
	}
	return s.settleFailed(ctx, item, n, failureText(accepted, sendErr))
}

func (s *queueService) settleSucceeded(ctx context.Context, item domain.RetryQueueItem, n domain.Notification) (string, error) {
	err := s.queueRepo.MarkSucceeded(ctx, item.ID)
	if errors.Is(err, errs.ErrQueueItemProcessed) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeError, fmt.Errorf("marking item succeeded: %w", err)
	}
	now := time.Now()
	if _, err := s.logRepo.Append(ctx, domain.DeliveryLogEntry{
		NotificationID: n.ID,
		Channel:        item.Channel,
		Status:         domain.DeliveryStatusDelivered,
		SentAt:         now,
		DeliveredAt:    now,
	}); err != nil {
		return outcomeSucceeded, fmt.Errorf("recording delivery: %w", err)
	}
	n.MarkDelivered(item.Channel)
	if err := s.notificationRepo.UpdateDeliveryState(ctx, n); err != nil {
		return outcomeSucceeded, fmt.Errorf("updating delivery state: %w", err)
	}
	return outcomeSucceeded, nil
}

func (s *queueService) settleFailed(ctx context.Context, item domain.RetryQueueItem, n domain.Notification, errText string) (string, error) {
	s.logger.Warn("queued delivery failed",
		elog.Int64("item", item.ID),
		elog.Any("notification", item.NotificationID),
		elog.String("channel", item.Channel.String()),
		elog.String("err", errText))

	if _, err := s.logRepo.Append(ctx, domain.DeliveryLogEntry{
		NotificationID: n.ID,
		Channel:        item.Channel,
		Status:         domain.DeliveryStatusFailed,
		Error:          errText,
		FailedAt:       time.Now(),
	}); err != nil {
		return outcomeError, fmt.Errorf("recording failure: %w", err)
	}
	n.MarkAttempted(item.Channel)
	if err := s.notificationRepo.UpdateDeliveryState(ctx, n); err != nil {
		return outcomeError, fmt.Errorf("updating delivery state: %w", err)
	}

	next := item.RetryCount + 1
	if next >= item.MaxRetries {
		return s.settleTerminal(ctx, item, next, errText)
	}
	scheduledAt := time.Now().Add(s.backoff.DelayForAttempt(item.RetryCount))
	err := s.queueRepo.MarkFailedRescheduled(ctx, item.ID, next, errText, scheduledAt.UnixMilli())
	if errors.Is(err, errs.ErrQueueItemProcessed) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeError, fmt.Errorf("rescheduling item: %w", err)
	}
	return outcomeRescheduled, nil
}

func (s *queueService) settleTerminal(ctx context.Context, item domain.RetryQueueItem, retryCount int, lastError string) (string, error) {
	err := s.queueRepo.MarkFailedTerminal(ctx, item.ID, retryCount, lastError)
	if errors.Is(err, errs.ErrQueueItemProcessed) {
		return outcomeSkipped, nil
	}
	if err != nil {
		return outcomeError, fmt.Errorf("settling exhausted item: %w", err)
	}
	return outcomeExhausted, nil
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
