package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/pkg/dao"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type NotificationDAO interface {
	Create(ctx context.Context, data Notification) (Notification, error)
	GetByID(ctx context.Context, id uint64) (Notification, error)
	// GetByIDAndUser scopes the fetch to the owning user.
	GetByIDAndUser(ctx context.Context, id uint64, userID int64) (Notification, error)
	// MarkRead flips is_read once; calling it again is a no-op that still
	// succeeds. Unknown id or wrong owner returns errs.ErrNotificationNotFound.
	MarkRead(ctx context.Context, id uint64, userID int64) error
	List(ctx context.Context, userID int64, q ListQuery) ([]Notification, error)
	CountUnread(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id uint64, userID int64) error
	// UpdateDeliveryState rewrites the attempted/delivered channel sets.
	UpdateDeliveryState(ctx context.Context, id uint64, attempted, delivered dao.JSON) error
}

// ListQuery narrows List. Zero values mean "no filter".
type ListQuery struct {
	Types          []string
	Read           *bool
	Priorities     []string
	CreatedAfter   int64 // UnixMilli
	CreatedBefore  int64 // UnixMilli
	IncludeExpired bool
	Limit          int
	Offset         int
}

// Notification is one delivered (or deliverable) message to one user.
type Notification struct {
	ID                uint64   `gorm:"primaryKey;comment:'snowflake id'"`
	UserID            int64    `gorm:"type:BIGINT;NOT NULL;index:idx_user_read,priority:1;comment:'portal user id'"`
	Recipient         dao.JSON `gorm:"type:JSON;NOT NULL;comment:'recipient snapshot for deferred delivery'"`
	NotificationType  string   `gorm:"type:VARCHAR(32);NOT NULL;comment:'status_change, comment, ...'"`
	Title             string   `gorm:"type:VARCHAR(256);NOT NULL"`
	Message           string   `gorm:"type:TEXT;NOT NULL"`
	Priority          string   `gorm:"type:ENUM('low','normal','high','urgent');NOT NULL;DEFAULT:'normal'"`
	RelatedObjectType string   `gorm:"type:VARCHAR(64);comment:'weak reference, no FK'"`
	RelatedObjectID   int64    `gorm:"type:BIGINT;comment:'weak reference, no FK'"`
	Data              dao.JSON `gorm:"type:JSON;comment:'caller payload'"`
	Read              bool     `gorm:"column:is_read;NOT NULL;DEFAULT:false;index:idx_user_read,priority:2"`
	ReadAt            int64    `gorm:"comment:'unix-milli, 0 when unread'"`
	ChannelsAttempted dao.JSON `gorm:"type:JSON;comment:'channel name array'"`
	ChannelsDelivered dao.JSON `gorm:"type:JSON;comment:'channel name array, subset of attempted'"`
	ExpiresAt         int64    `gorm:"comment:'unix-milli, 0 means never; display-only'"`
	Ctime             int64    `gorm:"index:idx_ctime"`
	Utime             int64
}

func (Notification) TableName() string {
	return "notifications"
}

type notificationDAO struct {
	db *egorm.Component
}

func NewNotificationDAO(db *egorm.Component) NotificationDAO {
	return &notificationDAO{db: db}
}

func (d *notificationDAO) Create(ctx context.Context, data Notification) (Notification, error) {
	now := time.Now().UnixMilli()
	data.Ctime, data.Utime = now, now
	if err := d.db.WithContext(ctx).Create(&data).Error; err != nil {
		return Notification{}, fmt.Errorf("%w: %w", errs.ErrCreateNotificationFailed, err)
	}
	return data, nil
}

func (d *notificationDAO) GetByID(ctx context.Context, id uint64) (Notification, error) {
	var n Notification
	err := d.db.WithContext(ctx).First(&n, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Notification{}, fmt.Errorf("%w: id=%d", errs.ErrNotificationNotFound, id)
		}
		return Notification{}, err
	}
	return n, nil
}

func (d *notificationDAO) GetByIDAndUser(ctx context.Context, id uint64, userID int64) (Notification, error) {
	var n Notification
	err := d.db.WithContext(ctx).Where("id = ? AND user_id = ?", id, userID).First(&n).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Notification{}, fmt.Errorf("%w: id=%d user_id=%d", errs.ErrNotificationNotFound, id, userID)
		}
		return Notification{}, err
	}
	return n, nil
}

func (d *notificationDAO) MarkRead(ctx context.Context, id uint64, userID int64) error {
	now := time.Now().UnixMilli()
	res := d.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ? AND is_read = ?", id, userID, false).
		Updates(map[string]any{
			"is_read": true,
			"read_at": now,
			"utime":   now,
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected > 0 {
		return nil
	}
	// Zero rows: either the row is already read (fine) or it does not belong
	// to this user (not found).
	var cnt int64
	if err := d.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ? AND user_id = ?", id, userID).Count(&cnt).Error; err != nil {
		return err
	}
	if cnt == 0 {
		return fmt.Errorf("%w: id=%d user_id=%d", errs.ErrNotificationNotFound, id, userID)
	}
	return nil
}

func (d *notificationDAO) List(ctx context.Context, userID int64, q ListQuery) ([]Notification, error) {
	tx := d.db.WithContext(ctx).Model(&Notification{}).Where("user_id = ?", userID)
	if len(q.Types) > 0 {
		tx = tx.Where("notification_type IN ?", q.Types)
	}
	if q.Read != nil {
		tx = tx.Where("is_read = ?", *q.Read)
	}
	if len(q.Priorities) > 0 {
		tx = tx.Where("priority IN ?", q.Priorities)
	}
	if q.CreatedAfter > 0 {
		tx = tx.Where("ctime >= ?", q.CreatedAfter)
	}
	if q.CreatedBefore > 0 {
		tx = tx.Where("ctime <= ?", q.CreatedBefore)
	}
	if !q.IncludeExpired {
		tx = tx.Where("expires_at = 0 OR expires_at > ?", time.Now().UnixMilli())
	}
	if q.Limit > 0 {
		tx = tx.Limit(q.Limit)
	}
	if q.Offset > 0 {
		tx = tx.Offset(q.Offset)
	}
	var res []Notification
	err := tx.Order("ctime DESC, id DESC").Find(&res).Error
	return res, err
}

func (d *notificationDAO) CountUnread(ctx context.Context, userID int64) (int64, error) {
	var cnt int64
	err := d.db.WithContext(ctx).Model(&Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Where("expires_at = 0 OR expires_at > ?", time.Now().UnixMilli()).
		Count(&cnt).Error
	return cnt, err
}

func (d *notificationDAO) Delete(ctx context.Context, id uint64, userID int64) error {
	res := d.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		Delete(&Notification{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d user_id=%d", errs.ErrNotificationNotFound, id, userID)
	}
	return nil
}

func (d *notificationDAO) UpdateDeliveryState(ctx context.Context, id uint64, attempted, delivered dao.JSON) error {
	return d.db.WithContext(ctx).Model(&Notification{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"channels_attempted": attempted,
			"channels_delivered": delivered,
			"utime":              time.Now().UnixMilli(),
		}).Error
}
