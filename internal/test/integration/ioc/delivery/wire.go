//go:build wireinject

package delivery

import (
	evtnotification "github.com/fahaniecares/notification-delivery/internal/event/notification"
	"github.com/fahaniecares/notification-delivery/internal/ioc"
	"github.com/fahaniecares/notification-delivery/internal/pkg/mailer"
	"github.com/fahaniecares/notification-delivery/internal/repository"
	"github.com/fahaniecares/notification-delivery/internal/repository/cache/local"
	rediscache "github.com/fahaniecares/notification-delivery/internal/repository/cache/redis"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	"github.com/fahaniecares/notification-delivery/internal/service/channel/sms/client"
	notificationsvc "github.com/fahaniecares/notification-delivery/internal/service/notification"
	preferencesvc "github.com/fahaniecares/notification-delivery/internal/service/preference"
	tmplsvc "github.com/fahaniecares/notification-delivery/internal/service/template"
	testioc "github.com/fahaniecares/notification-delivery/internal/test/ioc"
	"github.com/google/wire"
)

// Init assembles the full delivery app against the docker compose
// infrastructure. The outbound mail and SMS transports are injected so
// suites can substitute mocks.
func Init(m mailer.Mailer, smsClient client.Client) (*ioc.App, error) {
	wire.Build(
		testioc.InitDBAndTables,

		ioc.InitRedisClient,
		ioc.InitDistributedLock,
		ioc.InitIDGenerator,
		ioc.InitGoCache,
		ioc.InitIdempotencyService,
		ioc.InitKafkaConsumer,
		ioc.InitEmailRateLimiter,
		ioc.InitSMSConfig,
		ioc.InitChannels,
		ioc.InitRetryQueueService,
		ioc.InitDrainTask,
		ioc.InitTasks,

		local.NewCache,
		rediscache.NewCache,
		newPreferenceRepository,
		dao.NewPreferenceDAO,
		preferencesvc.NewService,

		notificationsvc.NewService,
		notificationsvc.NewSendService,
		repository.NewNotificationRepository,
		dao.NewNotificationDAO,
		repository.NewDeliveryLogRepository,
		dao.NewDeliveryLogDAO,

		repository.NewRetryQueueRepository,
		dao.NewRetryQueueDAO,

		tmplsvc.NewService,
		evtnotification.NewEventConsumer,

		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App), nil
}

func newPreferenceRepository(
	d dao.PreferenceDAO,
	localCache *local.Cache,
	redisCache *rediscache.Cache,
) repository.PreferenceRepository {
	return repository.NewPreferenceRepository(d, localCache, redisCache)
}
