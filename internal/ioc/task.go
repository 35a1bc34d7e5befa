package ioc

import (
	"context"

	evtnotification "github.com/fahaniecares/notification-delivery/internal/event/notification"
	"github.com/fahaniecares/notification-delivery/internal/repository/cache/local"
	"github.com/fahaniecares/notification-delivery/internal/service/retry"
)

// Task is a long-running background loop owned by the app. Start blocks
// until ctx is cancelled.
type Task interface {
	Start(ctx context.Context)
}

type taskFunc func(ctx context.Context)

func (f taskFunc) Start(ctx context.Context) { f(ctx) }

func InitTasks(
	t1 *retry.DrainTask,
	t2 *evtnotification.EventConsumer,
	localCache *local.Cache,
) []Task {
	return []Task{
		t1,
		t2,
		taskFunc(localCache.StartInvalidationLoop),
	}
}
