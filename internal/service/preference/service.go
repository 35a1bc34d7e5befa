package preference

import (
	"context"
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/repository"
)

// Service is the mutation and lookup surface for per-user notification
// preferences. Rows are created lazily with system defaults on first touch.
type Service interface {
	GetOrCreate(ctx context.Context, userID int64) (domain.Preference, error)
	Update(ctx context.Context, pref domain.Preference) (domain.Preference, error)
	SetTypeEnabled(ctx context.Context, userID int64, t domain.NotificationType, enabled bool) (domain.Preference, error)
}

type service struct {
	repo repository.PreferenceRepository
}

func NewService(repo repository.PreferenceRepository) Service {
	return &service{repo: repo}
}

func (s *service) GetOrCreate(ctx context.Context, userID int64) (domain.Preference, error) {
	if userID <= 0 {
		return domain.Preference{}, fmt.Errorf("%w: userID = %d", errs.ErrInvalidParameter, userID)
	}
	return s.repo.GetOrCreate(ctx, userID)
}

func (s *service) Update(ctx context.Context, pref domain.Preference) (domain.Preference, error) {
	if err := pref.Validate(); err != nil {
		return domain.Preference{}, err
	}
	return s.repo.Update(ctx, pref)
}

func (s *service) SetTypeEnabled(ctx context.Context, userID int64, t domain.NotificationType, enabled bool) (domain.Preference, error) {
	if !t.IsValid() {
		return domain.Preference{}, fmt.Errorf("%w: %q", errs.ErrUnknownNotificationType, t)
	}
	pref, err := s.GetOrCreate(ctx, userID)
	if err != nil {
		return domain.Preference{}, err
	}
	pref.SetTypeEnabled(t, enabled)
	if err := s.repo.SaveTypePreferences(ctx, pref); err != nil {
		return domain.Preference{}, err
	}
	return pref, nil
}
