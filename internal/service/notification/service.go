package notification

import (
	"context"
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/repository"
)

const defaultListLimit = 50

// Service is the user-facing read surface over stored notifications. Every
// operation is scoped to the owning user; another user's rows are
// indistinguishable from absent ones.
//
//go:generate mockgen -source=./service.go -destination=./mocks/service.mock.go -package=notificationmocks -typed Service
type Service interface {
	GetByID(ctx context.Context, id uint64, userID int64) (domain.Notification, error)
	// MarkRead flags the notification read. Marking an already-read
	// notification is a no-op, not an error.
	MarkRead(ctx context.Context, id uint64, userID int64) error
	// List returns the user's notifications, newest first. Expired rows are
	// excluded unless the query opts in.
	List(ctx context.Context, userID int64, q domain.NotificationQuery) ([]domain.Notification, error)
	UnreadCount(ctx context.Context, userID int64) (int64, error)
	Delete(ctx context.Context, id uint64, userID int64) error
	// DeliveryHistory returns the per-channel audit trail for one
	// notification the user owns.
	DeliveryHistory(ctx context.Context, id uint64, userID int64) ([]domain.DeliveryLogEntry, error)
}

type service struct {
	repo    repository.NotificationRepository
	logRepo repository.DeliveryLogRepository
}

func NewService(repo repository.NotificationRepository, logRepo repository.DeliveryLogRepository) Service {
	return &service{repo: repo, logRepo: logRepo}
}

func (s *service) GetByID(ctx context.Context, id uint64, userID int64) (domain.Notification, error) {
	if userID <= 0 {
		return domain.Notification{}, fmt.Errorf("%w: userID = %d", errs.ErrInvalidParameter, userID)
	}
	return s.repo.GetByIDAndUser(ctx, id, userID)
}

func (s *service) MarkRead(ctx context.Context, id uint64, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: userID = %d", errs.ErrInvalidParameter, userID)
	}
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *service) List(ctx context.Context, userID int64, q domain.NotificationQuery) ([]domain.Notification, error) {
	if userID <= 0 {
		return nil, fmt.Errorf("%w: userID = %d", errs.ErrInvalidParameter, userID)
	}
	for _, t := range q.Types {
		if !t.IsValid() {
			return nil, fmt.Errorf("%w: %q", errs.ErrUnknownNotificationType, t)
		}
	}
	if q.Limit <= 0 {
		q.Limit = defaultListLimit
	}
	return s.repo.List(ctx, userID, q)
}

func (s *service) UnreadCount(ctx context.Context, userID int64) (int64, error) {
	if userID <= 0 {
		return 0, fmt.Errorf("%w: userID = %d", errs.ErrInvalidParameter, userID)
	}
	return s.repo.UnreadCount(ctx, userID)
}

func (s *service) Delete(ctx context.Context, id uint64, userID int64) error {
	if userID <= 0 {
		return fmt.Errorf("%w: userID = %d", errs.ErrInvalidParameter, userID)
	}
	return s.repo.Delete(ctx, id, userID)
}

func (s *service) DeliveryHistory(ctx context.Context, id uint64, userID int64) ([]domain.DeliveryLogEntry, error) {
	// Ownership gate first; the log table itself is not user-scoped.
	if _, err := s.GetByID(ctx, id, userID); err != nil {
		return nil, err
	}
	return s.logRepo.ListByNotification(ctx, id)
}
