package dao

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/pkg/dao"
	"github.com/ego-component/egorm"
	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

type PreferenceDAO interface {
	// Create inserts the row for a user. A duplicate user_id returns
	// errs.ErrPreferenceDuplicate so the caller can re-read the winner.
	Create(ctx context.Context, pref Preference) (Preference, error)
	FindByUserID(ctx context.Context, userID int64) (Preference, error)
	// Update rewrites every mutable field of the user's row.
	Update(ctx context.Context, pref Preference) (Preference, error)
	// UpdateTypePreferences rewrites only the per-type override map.
	UpdateTypePreferences(ctx context.Context, userID int64, prefs dao.JSON) error
}

// Preference holds one user's delivery settings.
type Preference struct {
	ID              int64    `gorm:"primaryKey;autoIncrement"`
	UserID          int64    `gorm:"type:BIGINT;NOT NULL;uniqueIndex:uniq_user_id;comment:'portal user id'"`
	EmailEnabled    bool     `gorm:"NOT NULL;DEFAULT:true"`
	InAppEnabled    bool     `gorm:"column:in_app_enabled;NOT NULL;DEFAULT:true"`
	PushEnabled     bool     `gorm:"NOT NULL;DEFAULT:true"`
	SMSEnabled      bool     `gorm:"column:sms_enabled;NOT NULL;DEFAULT:false"`
	TypePreferences dao.JSON `gorm:"type:JSON;comment:'per-type overrides, absent key means enabled'"`
	DigestFrequency string   `gorm:"type:ENUM('immediate','hourly','daily','weekly');NOT NULL;DEFAULT:'immediate'"`
	QuietHoursStart string   `gorm:"type:VARCHAR(5);comment:'HH:MM local'"`
	QuietHoursEnd   string   `gorm:"type:VARCHAR(5);comment:'HH:MM local'"`
	Timezone        string   `gorm:"type:VARCHAR(64);comment:'IANA name, empty means UTC'"`
	Ctime           int64
	Utime           int64
}

func (Preference) TableName() string {
	return "user_notification_preferences"
}

type preferenceDAO struct {
	db *egorm.Component
}

func NewPreferenceDAO(db *egorm.Component) PreferenceDAO {
	return &preferenceDAO{db: db}
}

func (d *preferenceDAO) Create(ctx context.Context, pref Preference) (Preference, error) {
	now := time.Now().UnixMilli()
	pref.Ctime, pref.Utime = now, now
	err := d.db.WithContext(ctx).Create(&pref).Error
	if err != nil {
		if isUniqueConstraintError(err) {
			return Preference{}, fmt.Errorf("%w: user_id=%d", errs.ErrPreferenceDuplicate, pref.UserID)
		}
		return Preference{}, err
	}
	return pref, nil
}

func (d *preferenceDAO) FindByUserID(ctx context.Context, userID int64) (Preference, error) {
	var pref Preference
	err := d.db.WithContext(ctx).Where("user_id = ?", userID).First(&pref).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return Preference{}, fmt.Errorf("%w: user_id=%d", errs.ErrPreferenceNotFound, userID)
		}
		return Preference{}, err
	}
	return pref, nil
}

func (d *preferenceDAO) Update(ctx context.Context, pref Preference) (Preference, error) {
	now := time.Now().UnixMilli()
	res := d.db.WithContext(ctx).Model(&Preference{}).
		Where("user_id = ?", pref.UserID).
		Updates(map[string]any{
			"email_enabled":     pref.EmailEnabled,
			"in_app_enabled":    pref.InAppEnabled,
			"push_enabled":      pref.PushEnabled,
			"sms_enabled":       pref.SMSEnabled,
			"type_preferences":  pref.TypePreferences,
			"digest_frequency":  pref.DigestFrequency,
			"quiet_hours_start": pref.QuietHoursStart,
			"quiet_hours_end":   pref.QuietHoursEnd,
			"timezone":          pref.Timezone,
			"utime":             now,
		})
	if res.Error != nil {
		return Preference{}, res.Error
	}
	// Re-read so callers see the stored row (ID, timestamps); this also
	// distinguishes a genuinely missing row from a no-op update.
	return d.FindByUserID(ctx, pref.UserID)
}

func (d *preferenceDAO) UpdateTypePreferences(ctx context.Context, userID int64, prefs dao.JSON) error {
	res := d.db.WithContext(ctx).Model(&Preference{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{
			"type_preferences": prefs,
			"utime":            time.Now().UnixMilli(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var cnt int64
		if err := d.db.WithContext(ctx).Model(&Preference{}).
			Where("user_id = ?", userID).Count(&cnt).Error; err != nil {
			return err
		}
		if cnt == 0 {
			return fmt.Errorf("%w: user_id=%d", errs.ErrPreferenceNotFound, userID)
		}
	}
	return nil
}

// isUniqueConstraintError reports whether err is a MySQL duplicate-key error.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	me := new(mysql.MySQLError)
	if ok := errors.As(err, &me); ok {
		const uniqueIndexErrNo uint16 = 1062
		return me.Number == uniqueIndexErrNo
	}
	return false
}
