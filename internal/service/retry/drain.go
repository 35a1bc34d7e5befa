package retry

import (
	"context"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/pkg/loopjob"
	"github.com/gotomicro/ego/core/elog"
	"github.com/meoying/dlock-go"
)

const (
	drainLockKey     = "notification_retry_queue_drain"
	defaultEmptyWait = 10 * time.Second
)

// DrainTask repeatedly drains the retry queue. The distributed lock keeps a
// single drainer across the cluster; the processed flag on each item is the
// second line against double delivery.
type DrainTask struct {
	dclient   dlock.Client
	svc       QueueService
	logger    *elog.Component
	batchSize int
	emptyWait time.Duration
}

func NewDrainTask(dclient dlock.Client, svc QueueService, batchSize int, emptyWait time.Duration) *DrainTask {
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	if emptyWait <= 0 {
		emptyWait = defaultEmptyWait
	}
	return &DrainTask{
		dclient:   dclient,
		svc:       svc,
		logger:    elog.DefaultLogger,
		batchSize: batchSize,
		emptyWait: emptyWait,
	}
}

func (t *DrainTask) Start(ctx context.Context) {
	lj := loopjob.NewInfiniteLoop(t.dclient, t.drainOnce, drainLockKey)
	lj.Run(ctx)
}

func (t *DrainTask) drainOnce(ctx context.Context) error {
	stats, err := t.svc.ProcessQueue(ctx, nil)
	if stats.Selected > 0 {
		t.logger.Info("retry drain pass",
			elog.Any("selected", stats.Selected),
			elog.Any("succeeded", stats.Succeeded),
			elog.Any("rescheduled", stats.Rescheduled),
			elog.Any("exhausted", stats.Exhausted),
			elog.Any("skipped", stats.Skipped))
	}
	// An underfull batch means the queue is (nearly) drained.
	if stats.Selected < t.batchSize {
		time.Sleep(t.emptyWait)
	}
	return err
}
