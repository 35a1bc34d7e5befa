//go:build wireinject

package ioc

import (
	evtnotification "github.com/fahaniecares/notification-delivery/internal/event/notification"
	"github.com/fahaniecares/notification-delivery/internal/ioc"
	"github.com/fahaniecares/notification-delivery/internal/repository"
	"github.com/fahaniecares/notification-delivery/internal/repository/cache/local"
	rediscache "github.com/fahaniecares/notification-delivery/internal/repository/cache/redis"
	"github.com/fahaniecares/notification-delivery/internal/repository/dao"
	notificationsvc "github.com/fahaniecares/notification-delivery/internal/service/notification"
	preferencesvc "github.com/fahaniecares/notification-delivery/internal/service/preference"
	tmplsvc "github.com/fahaniecares/notification-delivery/internal/service/template"
	"github.com/google/wire"
)

var (
	BaseSet = wire.NewSet(
		ioc.InitDB,
		ioc.InitRedisClient,
		ioc.InitDistributedLock,
		ioc.InitIDGenerator,
		ioc.InitGoCache,
		ioc.InitIdempotencyService,
		ioc.InitKafkaConsumer,

		local.NewCache,
		rediscache.NewCache,
	)
	preferenceSvcSet = wire.NewSet(
		preferencesvc.NewService,
		newPreferenceRepository,
		dao.NewPreferenceDAO,
	)
	notificationSvcSet = wire.NewSet(
		notificationsvc.NewService,
		notificationsvc.NewSendService,
		repository.NewNotificationRepository,
		dao.NewNotificationDAO,
		repository.NewDeliveryLogRepository,
		dao.NewDeliveryLogDAO,
	)
	channelSet = wire.NewSet(
		ioc.InitChannels,
		ioc.InitMailer,
		ioc.InitEmailRateLimiter,
		ioc.InitSMSClient,
		ioc.InitSMSConfig,
		tmplsvc.NewService,
	)
	retrySvcSet = wire.NewSet(
		ioc.InitRetryQueueService,
		ioc.InitDrainTask,
		repository.NewRetryQueueRepository,
		dao.NewRetryQueueDAO,
	)
	eventSet = wire.NewSet(
		evtnotification.NewEventConsumer,
	)
)

// newPreferenceRepository pins the concrete cache tiers to the repository's
// interface parameters; wire cannot tell two arguments of the same interface
// type apart.
func newPreferenceRepository(
	d dao.PreferenceDAO,
	localCache *local.Cache,
	redisCache *rediscache.Cache,
) repository.PreferenceRepository {
	return repository.NewPreferenceRepository(d, localCache, redisCache)
}

func InitApp() (*ioc.App, error) {
	wire.Build(
		BaseSet,

		preferenceSvcSet,
		notificationSvcSet,
		channelSet,
		retrySvcSet,
		eventSet,

		ioc.InitTasks,
		wire.Struct(new(ioc.App), "*"),
	)
	return new(ioc.App), nil
}
