package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	pkgdao "github.com/fahaniecares/notification-delivery/internal/pkg/dao"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	"github.com/ecodeclub/ekit/slice"
	"github.com/gotomicro/ego/core/elog"
)

type NotificationRepository interface {
	Create(ctx context.Context, n domain.Notification) (domain.Notification, error)
	GetByID(ctx context.Context, id uint64) (domain.Notification, error)
	GetByIDAndUser(ctx context.Context, id uint64, userID int64) (domain.Notification, error)
	MarkRead(ctx context.Context, id uint64, userID int64) error
	List(ctx context.Context, userID int64, q domain.NotificationQuery) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id uint64, userID int64) error
	// UpdateDeliveryState persists the attempted/delivered channel sets.
	UpdateDeliveryState(ctx context.Context, n domain.Notification) error
}

type notificationRepository struct {
	dao    dao.NotificationDAO
	logger *elog.Component
}

func NewNotificationRepository(d dao.NotificationDAO) NotificationRepository {
	return &notificationRepository{
		dao:    d,
		logger: elog.DefaultLogger,
	}
}

func (r *notificationRepository) Create(ctx context.Context, n domain.Notification) (domain.Notification, error) {
	ent, err := r.dao.Create(ctx, r.toEntity(n))
	if err != nil {
		return domain.Notification{}, err
	}
	return r.toDomain(ent), nil
}

func (r *notificationRepository) GetByID(ctx context.Context, id uint64) (domain.Notification, error) {
	ent, err := r.dao.GetByID(ctx, id)
	if err != nil {
		return domain.Notification{}, err
	}
	return r.toDomain(ent), nil
}

func (r *notificationRepository) GetByIDAndUser(ctx context.Context, id uint64, userID int64) (domain.Notification, error) {
	ent, err := r.dao.GetByIDAndUser(ctx, id, userID)
	if err != nil {
		return domain.Notification{}, err
	}
	return r.toDomain(ent), nil
}

func (r *notificationRepository) MarkRead(ctx context.Context, id uint64, userID int64) error {
	return r.dao.MarkRead(ctx, id, userID)
}

func (r *notificationRepository) List(ctx context.Context, userID int64, q domain.NotificationQuery) ([]domain.Notification, error) {
	ents, err := r.dao.List(ctx, userID, dao.ListQuery{
		Types: slice.Map(q.Types, func(_ int, t domain.NotificationType) string {
			return t.String()
		}),
		Read: q.Read,
		Priorities: slice.Map(q.Priorities, func(_ int, p domain.Priority) string {
			return p.String()
		}),
		CreatedAfter:   unixMilliOrZero(q.CreatedAfter),
		CreatedBefore:  unixMilliOrZero(q.CreatedBefore),
		IncludeExpired: q.IncludeExpired,
		Limit:          q.Limit,
		Offset:         q.Offset,
	})
	if err != nil {
		return nil, err
	}
	return slice.Map(ents, func(_ int, ent dao.Notification) domain.Notification {
		return r.toDomain(ent)
	}), nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	return r.dao.CountUnread(ctx, userID)
}

func (r *notificationRepository) Delete(ctx context.Context, id uint64, userID int64) error {
	return r.dao.Delete(ctx, id, userID)
}

func (r *notificationRepository) UpdateDeliveryState(ctx context.Context, n domain.Notification) error {
	return r.dao.UpdateDeliveryState(ctx, n.ID,
		marshalChannels(n.ChannelsAttempted),
		marshalChannels(n.ChannelsDelivered))
}

func (r *notificationRepository) toEntity(n domain.Notification) dao.Notification {
	recipient, _ := json.Marshal(n.Recipient)
	ent := dao.Notification{
		ID:                n.ID,
		UserID:            n.UserID,
		Recipient:         pkgdao.JSON(recipient),
		NotificationType:  n.Type.String(),
		Title:             n.Title,
		Message:           n.Message,
		Priority:          n.Priority.String(),
		Data:              marshalData(n.Data),
		Read:              n.Read,
		ReadAt:            unixMilliOrZero(n.ReadAt),
		ChannelsAttempted: marshalChannels(n.ChannelsAttempted),
		ChannelsDelivered: marshalChannels(n.ChannelsDelivered),
		ExpiresAt:         unixMilliOrZero(n.ExpiresAt),
	}
	if n.Related != nil {
		ent.RelatedObjectType = n.Related.Type
		ent.RelatedObjectID = n.Related.ID
	}
	return ent
}

func (r *notificationRepository) toDomain(ent dao.Notification) domain.Notification {
	var recipient domain.Recipient
	if len(ent.Recipient) > 0 {
		if err := json.Unmarshal(ent.Recipient, &recipient); err != nil {
			r.logger.Warn("corrupt recipient snapshot",
				elog.Any("id", ent.ID), elog.FieldErr(err))
		}
	}
	var data map[string]any
	if len(ent.Data) > 0 {
		_ = json.Unmarshal(ent.Data, &data)
	}
	n := domain.Notification{
		ID:                ent.ID,
		UserID:            ent.UserID,
		Recipient:         recipient,
		Type:              domain.NotificationType(ent.NotificationType),
		Title:             ent.Title,
		Message:           ent.Message,
		Priority:          domain.Priority(ent.Priority),
		Data:              data,
		Read:              ent.Read,
		ReadAt:            timeOrZero(ent.ReadAt),
		ChannelsAttempted: unmarshalChannels(ent.ChannelsAttempted),
		ChannelsDelivered: unmarshalChannels(ent.ChannelsDelivered),
		CreatedAt:         timeOrZero(ent.Ctime),
		ExpiresAt:         timeOrZero(ent.ExpiresAt),
	}
	if ent.RelatedObjectType != "" || ent.RelatedObjectID != 0 {
		n.Related = &domain.RelatedObject{
			Type: ent.RelatedObjectType,
			ID:   ent.RelatedObjectID,
		}
	}
	return n
}

func marshalChannels(chs []domain.Channel) pkgdao.JSON {
	if len(chs) == 0 {
		return nil
	}
	data, _ := json.Marshal(chs)
	return pkgdao.JSON(data)
}

func unmarshalChannels(data pkgdao.JSON) []domain.Channel {
	if len(data) == 0 {
		return nil
	}
	var chs []domain.Channel
	_ = json.Unmarshal(data, &chs)
	return chs
}

func marshalData(data map[string]any) pkgdao.JSON {
	if len(data) == 0 {
		return nil
	}
	out, _ := json.Marshal(data)
	return pkgdao.JSON(out)
}

func unixMilliOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}

func nowMilli() int64 {
	return time.Now().UnixMilli()
}

func timeOrZero(ms int64) time.Time {
	if ms == 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}
