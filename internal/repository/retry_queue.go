package repository

import (
	"context"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

type RetryQueueRepository interface {
	Create(ctx context.Context, item domain.RetryQueueItem) (domain.RetryQueueItem, error)
	GetByID(ctx context.Context, id int64) (domain.RetryQueueItem, error)
	// FindDue returns unprocessed items whose scheduled time has passed,
	// highest priority first, then oldest scheduled. A nil channel matches
	// every channel.
	FindDue(ctx context.Context, channel *domain.Channel, limit int) ([]domain.RetryQueueItem, error)
	MarkSucceeded(ctx context.Context, id int64) error
	// MarkFailedTerminal settles an item whose retry budget is exhausted.
	MarkFailedTerminal(ctx context.Context, id int64, retryCount int, lastError string) error
	// MarkFailedRescheduled bumps the retry count and pushes the item back
	// into the queue at the given time.
	MarkFailedRescheduled(ctx context.Context, id int64, retryCount int, lastError string, scheduledAt int64) error
}

type retryQueueRepository struct {
	dao dao.RetryQueueDAO
}

func NewRetryQueueRepository(d dao.RetryQueueDAO) RetryQueueRepository {
	return &retryQueueRepository{dao: d}
}

func (r *retryQueueRepository) Create(ctx context.Context, item domain.RetryQueueItem) (domain.RetryQueueItem, error) {
	maxRetries := item.MaxRetries
	if maxRetries <= 0 {
		maxRetries = domain.DefaultMaxRetries
	}
	ent, err := r.dao.Create(ctx, dao.RetryQueueItem{
		NotificationID: item.NotificationID,
		Channel:        item.Channel.String(),
		Priority:       item.Priority,
		ScheduledAt:    unixMilliOrZero(item.ScheduledAt),
		RetryCount:     int32(item.RetryCount),
		MaxRetries:     int32(maxRetries),
		LastError:      item.LastError,
	})
	if err != nil {
		return domain.RetryQueueItem{}, err
	}
	return r.toDomain(ent), nil
}

func (r *retryQueueRepository) GetByID(ctx context.Context, id int64) (domain.RetryQueueItem, error) {
	ent, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.RetryQueueItem{}, err
	}
	return r.toDomain(ent), nil
}

func (r *retryQueueRepository) FindDue(ctx context.Context, channel *domain.Channel, limit int) ([]domain.RetryQueueItem, error) {
	var ch string
	if channel != nil {
		ch = channel.String()
	}
	ents, err := r.dao.FindDue(ctx, ch, nowMilli(), limit)
	if err != nil {
		return nil, err
	}
	return slice.Map(ents, func(_ int, ent dao.RetryQueueItem) domain.RetryQueueItem {
		return r.toDomain(ent)
	}), nil
}

func (r *retryQueueRepository) MarkSucceeded(ctx context.Context, id int64) error {
	return r.dao.MarkSucceeded(ctx, id)
}

func (r *retryQueueRepository) MarkFailedTerminal(ctx context.Context, id int64, retryCount int, lastError string) error {
	return r.dao.MarkFailedTerminal(ctx, id, int32(retryCount), lastError)
}

func (r *retryQueueRepository) MarkFailedRescheduled(ctx context.Context, id int64, retryCount int, lastError string, scheduledAt int64) error {
	return r.dao.MarkFailedRescheduled(ctx, id, int32(retryCount), lastError, scheduledAt)
}

func (r *retryQueueRepository) toDomain(ent dao.RetryQueueItem) domain.RetryQueueItem {
	return domain.RetryQueueItem{
		ID:             ent.ID,
		NotificationID: ent.NotificationID,
		Channel:        domain.Channel(ent.Channel),
		Priority:       ent.Priority,
		ScheduledAt:    timeOrZero(ent.ScheduledAt),
		Processed:      ent.Processed,
		ProcessedAt:    timeOrZero(ent.ProcessedAt),
		RetryCount:     int(ent.RetryCount),
		MaxRetries:     int(ent.MaxRetries),
		LastError:      ent.LastError,
		CreatedAt:      timeOrZero(ent.Ctime),
		UpdatedAt:      timeOrZero(ent.Utime),
	}
}
