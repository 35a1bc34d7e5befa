package ioc

import (
	"context"

	"github.com/fahaniecares/notification-delivery/internal/repository"
	notificationsvc "github.com/fahaniecares/notification-delivery/internal/service/notification"
	preferencesvc "github.com/fahaniecares/notification-delivery/internal/service/preference"
	retrysvc "github.com/fahaniecares/notification-delivery/internal/service/retry"
)

// App bundles everything the delivery process runs: the long-lived loops
// plus the service and repository surfaces integration tests poke at.
type App struct {
	Tasks []Task

	NotificationSvc notificationsvc.Service
	SendSvc         notificationsvc.SendService
	PreferenceSvc   preferencesvc.Service
	RetryQueueSvc   retrysvc.QueueService

	NotificationRepo repository.NotificationRepository
	PreferenceRepo   repository.PreferenceRepository
	DeliveryLogRepo  repository.DeliveryLogRepository
	RetryQueueRepo   repository.RetryQueueRepository
}

func (a *App) StartTasks(ctx context.Context) {
	for _, t := range a.Tasks {
		go func(t Task) {
			t.Start(ctx)
		}(t)
	}
}
