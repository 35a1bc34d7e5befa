package ioc

import (
	"time"

	retrypkg "github.com/fahaniecares/notification-delivery/internal/pkg/retry"
	"github.com/fahaniecares/notification-delivery/internal/repository"
	"github.com/fahaniecares/notification-delivery/internal/service/channel"
	retrysvc "github.com/fahaniecares/notification-delivery/internal/service/retry"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
)

func InitRetryQueueService(
	queueRepo repository.RetryQueueRepository,
	notificationRepo repository.NotificationRepository,
	logRepo repository.DeliveryLogRepository,
	sender channel.Sender,
) retrysvc.QueueService {
	type Config struct {
		BatchSize   int             `yaml:"batchSize"`
		Concurrency int             `yaml:"concurrency"`
		Backoff     retrypkg.Config `yaml:"backoff"`
	}
	var cfg Config
	err := econf.UnmarshalKey("retryQueue", &cfg)
	if err != nil {
		panic(err)
	}
	if err := cfg.Backoff.Validate(); err != nil {
		panic(err)
	}
	return retrysvc.NewQueueService(queueRepo, notificationRepo, logRepo, sender,
		cfg.Backoff, cfg.BatchSize, cfg.Concurrency)
}

func InitDrainTask(dclient dlock.Client, svc retrysvc.QueueService) *retrysvc.DrainTask {
	type Config struct {
		BatchSize int           `yaml:"batchSize"`
		EmptyWait time.Duration `yaml:"emptyWait"`
	}
	var cfg Config
	err := econf.UnmarshalKey("retryQueue.drain", &cfg)
	if err != nil {
		panic(err)
	}
	return retrysvc.NewDrainTask(dclient, svc, cfg.BatchSize, cfg.EmptyWait)
}
