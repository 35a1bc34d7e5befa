package repository

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	pkgdao "github.com/fahaniecares/notification-delivery/internal/pkg/dao"
	"github.com/fahaniecares/notification-delivery/internal/repository/cache"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	"github.com/gotomicro/ego/core/elog"
)

// PreferenceRepository persists per-user delivery settings behind a
// local-then-redis read-through cache.
type PreferenceRepository interface {
	// GetOrCreate returns the user's preference row, creating it with the
	// system defaults on first touch. Concurrent first touches converge on
	// the single row behind the user_id unique index.
	GetOrCreate(ctx context.Context, userID int64) (domain.Preference, error)
	// Update rewrites every mutable field.
	Update(ctx context.Context, pref domain.Preference) (domain.Preference, error)
	// SaveTypePreferences persists only the per-type override map of pref.
	SaveTypePreferences(ctx context.Context, pref domain.Preference) error
}

type preferenceRepository struct {
	dao    dao.PreferenceDAO
	local  cache.PreferenceCache
	redis  cache.PreferenceCache
	logger *elog.Component
}

func NewPreferenceRepository(d dao.PreferenceDAO, local, redis cache.PreferenceCache) PreferenceRepository {
	return &preferenceRepository{
		dao:    d,
		local:  local,
		redis:  redis,
		logger: elog.DefaultLogger,
	}
}

func (r *preferenceRepository) GetOrCreate(ctx context.Context, userID int64) (domain.Preference, error) {
	if pref, err := r.local.Get(ctx, userID); err == nil {
		return pref, nil
	}
	if pref, err := r.redis.Get(ctx, userID); err == nil {
		r.setCache(ctx, r.local, pref)
		return pref, nil
	} else if !errors.Is(err, cache.ErrKeyNotFound) {
		// Degrade to the database on cache infrastructure failures.
		r.logger.Warn("preference redis cache read failed",
			elog.Int64("userID", userID), elog.FieldErr(err))
	}

	ent, err := r.dao.FindByUserID(ctx, userID)
	switch {
	case err == nil:
		pref := r.toDomain(ent)
		r.refreshCaches(ctx, pref)
		return pref, nil
	case errors.Is(err, errs.ErrPreferenceNotFound):
		return r.createDefault(ctx, userID)
	default:
		return domain.Preference{}, err
	}
}

func (r *preferenceRepository) createDefault(ctx context.Context, userID int64) (domain.Preference, error) {
	ent, err := r.dao.Create(ctx, r.toEntity(domain.DefaultPreference(userID)))
	if err != nil {
		if errors.Is(err, errs.ErrPreferenceDuplicate) {
			// Lost the creation race; the winner's row is the one row.
			ent, err = r.dao.FindByUserID(ctx, userID)
			if err != nil {
				return domain.Preference{}, err
			}
		} else {
			return domain.Preference{}, err
		}
	}
	pref := r.toDomain(ent)
	r.refreshCaches(ctx, pref)
	return pref, nil
}

func (r *preferenceRepository) Update(ctx context.Context, pref domain.Preference) (domain.Preference, error) {
	ent, err := r.dao.Update(ctx, r.toEntity(pref))
	if err != nil {
		return domain.Preference{}, err
	}
	updated := r.toDomain(ent)
	r.refreshCaches(ctx, updated)
	return updated, nil
}

func (r *preferenceRepository) SaveTypePreferences(ctx context.Context, pref domain.Preference) error {
	data, err := marshalTypePreferences(pref.TypePreferences)
	if err != nil {
		return err
	}
	if err := r.dao.UpdateTypePreferences(ctx, pref.UserID, data); err != nil {
		return err
	}
	r.refreshCaches(ctx, pref)
	return nil
}

func (r *preferenceRepository) refreshCaches(ctx context.Context, pref domain.Preference) {
	r.setCache(ctx, r.redis, pref)
	r.setCache(ctx, r.local, pref)
}

func (r *preferenceRepository) setCache(ctx context.Context, c cache.PreferenceCache, pref domain.Preference) {
	if err := c.Set(ctx, pref); err != nil {
		r.logger.Warn("preference cache write failed",
			elog.Int64("userID", pref.UserID), elog.FieldErr(err))
	}
}

func (r *preferenceRepository) toEntity(pref domain.Preference) dao.Preference {
	types, _ := marshalTypePreferences(pref.TypePreferences)
	return dao.Preference{
		UserID:          pref.UserID,
		EmailEnabled:    pref.EmailEnabled,
		InAppEnabled:    pref.InAppEnabled,
		PushEnabled:     pref.PushEnabled,
		SMSEnabled:      pref.SMSEnabled,
		TypePreferences: types,
		DigestFrequency: pref.DigestFrequency.String(),
		QuietHoursStart: pref.QuietHoursStart,
		QuietHoursEnd:   pref.QuietHoursEnd,
		Timezone:        pref.Timezone,
	}
}

func (r *preferenceRepository) toDomain(ent dao.Preference) domain.Preference {
	var types map[domain.NotificationType]bool
	if len(ent.TypePreferences) > 0 {
		if err := json.Unmarshal(ent.TypePreferences, &types); err != nil {
			r.logger.Warn("corrupt type preference map, treating as empty",
				elog.Int64("userID", ent.UserID), elog.FieldErr(err))
			types = nil
		}
	}
	return domain.Preference{
		ID:              ent.ID,
		UserID:          ent.UserID,
		EmailEnabled:    ent.EmailEnabled,
		InAppEnabled:    ent.InAppEnabled,
		PushEnabled:     ent.PushEnabled,
		SMSEnabled:      ent.SMSEnabled,
		TypePreferences: types,
		DigestFrequency: domain.DigestFrequency(ent.DigestFrequency),
		QuietHoursStart: ent.QuietHoursStart,
		QuietHoursEnd:   ent.QuietHoursEnd,
		Timezone:        ent.Timezone,
		CreatedAt:       timeOrZero(ent.Ctime),
		UpdatedAt:       timeOrZero(ent.Utime),
	}
}

func marshalTypePreferences(types map[domain.NotificationType]bool) (pkgdao.JSON, error) {
	if len(types) == 0 {
		return nil, nil
	}
	data, err := json.Marshal(types)
	if err != nil {
		return nil, err
	}
	return pkgdao.JSON(data), nil
}
