package ioc

import (
	"time"

	"github.com/gotomicro/ego/core/econf"
	ca "github.com/patrickmn/go-cache"
)

const (
	defaultExpiration      = 10 * time.Minute
	defaultCleanupInterval = 15 * time.Minute
)

// InitGoCache builds the process-local cache shared by the preference local
// tier and the template renderer. Keys are namespaced by prefix.
func InitGoCache() *ca.Cache {
	type Config struct {
		Expiration      time.Duration `yaml:"expiration"`
		CleanupInterval time.Duration `yaml:"cleanupInterval"`
	}
	var cfg Config
	err := econf.UnmarshalKey("cache.local", &cfg)
	if err != nil {
		panic(err)
	}
	if cfg.Expiration <= 0 {
		cfg.Expiration = defaultExpiration
	}
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = defaultCleanupInterval
	}
	return ca.New(cfg.Expiration, cfg.CleanupInterval)
}
