package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/ego-component/egorm"
	"gorm.io/gorm"
)

type RetryQueueDAO interface {
	Create(ctx context.Context, item RetryQueueItem) (RetryQueueItem, error)
	GetByID(ctx context.Context, id int64) (RetryQueueItem, error)
	// FindDue returns unprocessed items scheduled at or before now, highest
	// priority first, oldest schedule first within a priority. Empty channel
	// means all channels.
	FindDue(ctx context.Context, channel string, now int64, limit int) ([]RetryQueueItem, error)
	// The three Mark methods guard on processed = 0 so a row settles exactly
	// once; a raced row returns errs.ErrQueueItemProcessed.
	MarkSucceeded(ctx context.Context, id int64) error
	MarkFailedTerminal(ctx context.Context, id int64, retryCount int32, lastError string) error
	MarkFailedRescheduled(ctx context.Context, id int64, retryCount int32, lastError string, scheduledAt int64) error
}

// RetryQueueItem is one pending (or settled) redelivery of one notification
// on one channel.
type RetryQueueItem struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	NotificationID uint64 `gorm:"NOT NULL;index:idx_notification_channel,priority:1"`
	Channel        string `gorm:"type:ENUM('EMAIL','IN_APP','PUSH','SMS');NOT NULL;index:idx_notification_channel,priority:2"`
	Priority       int    `gorm:"type:INT;NOT NULL;DEFAULT:0;comment:'higher drains first'"`
	ScheduledAt    int64  `gorm:"NOT NULL;index:idx_due,priority:2;comment:'unix-milli'"`
	Processed      bool   `gorm:"NOT NULL;DEFAULT:false;index:idx_due,priority:1"`
	ProcessedAt    int64  `gorm:"comment:'unix-milli, 0 when pending'"`
	RetryCount     int32  `gorm:"type:INT;NOT NULL;DEFAULT:0"`
	MaxRetries     int32  `gorm:"type:INT;NOT NULL;DEFAULT:3"`
	LastError      string `gorm:"type:TEXT"`
	Ctime          int64
	Utime          int64
}

func (RetryQueueItem) TableName() string {
	return "notification_retry_queue"
}

type retryQueueDAO struct {
	db *egorm.Component
}

func NewRetryQueueDAO(db *egorm.Component) RetryQueueDAO {
	return &retryQueueDAO{db: db}
}

func (d *retryQueueDAO) Create(ctx context.Context, item RetryQueueItem) (RetryQueueItem, error) {
	now := time.Now().UnixMilli()
	item.Ctime, item.Utime = now, now
	if err := d.db.WithContext(ctx).Create(&item).Error; err != nil {
		return RetryQueueItem{}, err
	}
	return item, nil
}

func (d *retryQueueDAO) GetByID(ctx context.Context, id int64) (RetryQueueItem, error) {
	var item RetryQueueItem
	err := d.db.WithContext(ctx).First(&item, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return RetryQueueItem{}, fmt.Errorf("%w: id=%d", errs.ErrQueueItemNotFound, id)
		}
		return RetryQueueItem{}, err
	}
	return item, nil
}

func (d *retryQueueDAO) FindDue(ctx context.Context, channel string, now int64, limit int) ([]RetryQueueItem, error) {
	tx := d.db.WithContext(ctx).
		Where("processed = ? AND scheduled_at <= ?", false, now)
	if channel != "" {
		tx = tx.Where("channel = ?", channel)
	}
	var items []RetryQueueItem
	err := tx.Order("priority DESC, scheduled_at ASC").
		Limit(limit).
		Find(&items).Error
	return items, err
}

func (d *retryQueueDAO) MarkSucceeded(ctx context.Context, id int64) error {
	now := time.Now().UnixMilli()
	res := d.db.WithContext(ctx).Model(&RetryQueueItem{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": now,
			"utime":        now,
		})
	return d.settled(res, id)
}

func (d *retryQueueDAO) MarkFailedTerminal(ctx context.Context, id int64, retryCount int32, lastError string) error {
	now := time.Now().UnixMilli()
	res := d.db.WithContext(ctx).Model(&RetryQueueItem{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"processed":    true,
			"processed_at": now,
			"retry_count":  retryCount,
			"last_error":   lastError,
			"utime":        now,
		})
	return d.settled(res, id)
}

func (d *retryQueueDAO) MarkFailedRescheduled(ctx context.Context, id int64, retryCount int32, lastError string, scheduledAt int64) error {
	res := d.db.WithContext(ctx).Model(&RetryQueueItem{}).
		Where("id = ? AND processed = ?", id, false).
		Updates(map[string]any{
			"retry_count":  retryCount,
			"last_error":   lastError,
			"scheduled_at": scheduledAt,
			"utime":        time.Now().UnixMilli(),
		})
	return d.settled(res, id)
}

func (d *retryQueueDAO) settled(res *gorm.DB, id int64) error {
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: id=%d", errs.ErrQueueItemProcessed, id)
	}
	return nil
}
