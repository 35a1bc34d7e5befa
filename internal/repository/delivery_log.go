package repository

import (
	"context"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
)

type DeliveryLogRepository interface {
	// Append records one delivery attempt outcome. Entries are never updated;
	// a retried channel gets a fresh entry per attempt.
	Append(ctx context.Context, entry domain.DeliveryLogEntry) (domain.DeliveryLogEntry, error)
	ListByNotification(ctx context.Context, notificationID uint64) ([]domain.DeliveryLogEntry, error)
}

type deliveryLogRepository struct {
	dao dao.DeliveryLogDAO
}

func NewDeliveryLogRepository(d dao.DeliveryLogDAO) DeliveryLogRepository {
	return &deliveryLogRepository{dao: d}
}

func (r *deliveryLogRepository) Append(ctx context.Context, entry domain.DeliveryLogEntry) (domain.DeliveryLogEntry, error) {
	ent, err := r.dao.Create(ctx, dao.DeliveryLog{
		NotificationID: entry.NotificationID,
		Channel:        entry.Channel.String(),
		Status:         string(entry.Status),
		ErrorMessage:   entry.Error,
		SentAt:         unixMilliOrZero(entry.SentAt),
		DeliveredAt:    unixMilliOrZero(entry.DeliveredAt),
		FailedAt:       unixMilliOrZero(entry.FailedAt),
	})
	if err != nil {
		return domain.DeliveryLogEntry{}, err
	}
	return r.toDomain(ent), nil
}

func (r *deliveryLogRepository) ListByNotification(ctx context.Context, notificationID uint64) ([]domain.DeliveryLogEntry, error) {
	ents, err := r.dao.ListByNotification(ctx, notificationID)
	if err != nil {
		return nil, err
	}
	return slice.Map(ents, func(_ int, ent dao.DeliveryLog) domain.DeliveryLogEntry {
		return r.toDomain(ent)
	}), nil
}

func (r *deliveryLogRepository) toDomain(ent dao.DeliveryLog) domain.DeliveryLogEntry {
	return domain.DeliveryLogEntry{
		ID:             ent.ID,
		NotificationID: ent.NotificationID,
		Channel:        domain.Channel(ent.Channel),
		Status:         domain.DeliveryStatus(ent.Status),
		Error:          ent.ErrorMessage,
		SentAt:         timeOrZero(ent.SentAt),
		DeliveredAt:    timeOrZero(ent.DeliveredAt),
		FailedAt:       timeOrZero(ent.FailedAt),
		CreatedAt:      timeOrZero(ent.Ctime),
	}
}
