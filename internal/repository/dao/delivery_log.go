package dao

import (
	"context"
	"time"

	"github.com/ego-component/egorm"
)

// DeliveryLogDAO is append-only: entries are evidence of delivery attempts
// and are never updated or deleted.
type DeliveryLogDAO interface {
	Create(ctx context.Context, entry DeliveryLog) (DeliveryLog, error)
	ListByNotification(ctx context.Context, notificationID uint64) ([]DeliveryLog, error)
}

// DeliveryLog records one delivery attempt on one channel.
type DeliveryLog struct {
	ID             int64  `gorm:"primaryKey;autoIncrement"`
	NotificationID uint64 `gorm:"NOT NULL;index:idx_notification_id"`
	Channel        string `gorm:"type:ENUM('EMAIL','IN_APP','PUSH','SMS');NOT NULL"`
	Status         string `gorm:"type:ENUM('PENDING','SENT','DELIVERED','FAILED','BOUNCED');NOT NULL;DEFAULT:'PENDING'"`
	ErrorMessage   string `gorm:"type:TEXT"`
	SentAt         int64  `gorm:"comment:'unix-milli, 0 when unset'"`
	DeliveredAt    int64  `gorm:"comment:'unix-milli, 0 when unset'"`
	FailedAt       int64  `gorm:"comment:'unix-milli, 0 when unset'"`
	Ctime          int64
	Utime          int64
}

func (DeliveryLog) TableName() string {
	return "notification_delivery_logs"
}

type deliveryLogDAO struct {
	db *egorm.Component
}

func NewDeliveryLogDAO(db *egorm.Component) DeliveryLogDAO {
	return &deliveryLogDAO{db: db}
}

func (d *deliveryLogDAO) Create(ctx context.Context, entry DeliveryLog) (DeliveryLog, error) {
	now := time.Now().UnixMilli()
	entry.Ctime, entry.Utime = now, now
	if err := d.db.WithContext(ctx).Create(&entry).Error; err != nil {
		return DeliveryLog{}, err
	}
	return entry, nil
}

func (d *deliveryLogDAO) ListByNotification(ctx context.Context, notificationID uint64) ([]DeliveryLog, error) {
	var entries []DeliveryLog
	err := d.db.WithContext(ctx).
		Where("notification_id = ?", notificationID).
		Order("id ASC").
		Find(&entries).Error
	return entries, err
}
