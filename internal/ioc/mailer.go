package ioc

import (
	"time"

	"github.com/fahaniecares/notification-delivery/internal/pkg/mailer"
	"github.com/fahaniecares/notification-delivery/internal/pkg/ratelimit"
	"github.com/gotomicro/ego/core/econf"
	"github.com/redis/go-redis/v9"
)

func InitMailer() mailer.Mailer {
	var cfg mailer.Config
	err := econf.UnmarshalKey("email.smtp", &cfg)
	if err != nil {
		panic(err)
	}
	return mailer.NewSMTP(cfg)
}

// InitEmailRateLimiter caps outbound SMTP traffic across all instances so a
// notification storm cannot get the sender address blacklisted.
func InitEmailRateLimiter(redisClient *redis.Client) ratelimit.Limiter {
	type Config struct {
		Interval time.Duration `yaml:"interval"`
		Rate     int           `yaml:"rate"`
	}
	var cfg Config
	err := econf.UnmarshalKey("email.rateLimit", &cfg)
	if err != nil {
		panic(err)
	}
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Rate <= 0 {
		cfg.Rate = 100
	}
	return ratelimit.NewRedisSlidingWindowLimiter(redisClient, cfg.Interval, cfg.Rate)
}
