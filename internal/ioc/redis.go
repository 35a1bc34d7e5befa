package ioc

import (
	"github.com/fahaniecares/notification-delivery/internal/pkg/idempotent"
	redishook "github.com/fahaniecares/notification-delivery/internal/pkg/redis/metrics"
	"github.com/gotomicro/ego/core/econf"
	"github.com/meoying/dlock-go"
	dlockRedis "github.com/meoying/dlock-go/redis"
	"github.com/redis/go-redis/v9"
)

func InitRedisClient() *redis.Client {
	type Config struct {
		Addr string `yaml:"addr"`
	}
	var cfg Config
	err := econf.UnmarshalKey("redis", &cfg)
	if err != nil {
		panic(err)
	}
	cmd := redis.NewClient(&redis.Options{
		Addr: cfg.Addr,
	})
	cmd = redishook.WithMetrics(cmd)
	return cmd
}

func InitDistributedLock(redisClient *redis.Client) dlock.Client {
	return dlockRedis.NewClient(redisClient)
}

func InitIdempotencyService(redisClient *redis.Client) idempotent.IdempotencyService {
	type Config struct {
		FilterName string  `yaml:"filterName"`
		Capacity   uint64  `yaml:"capacity"`
		ErrorRate  float64 `yaml:"errorRate"`
	}
	var cfg Config
	err := econf.UnmarshalKey("idempotency", &cfg)
	if err != nil {
		panic(err)
	}
	return idempotent.NewBloomService(redisClient, cfg.FilterName, cfg.Capacity, cfg.ErrorRate)
}
