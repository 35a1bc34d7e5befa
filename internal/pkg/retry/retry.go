package retry

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/ecodeclub/ekit/retry"
)

const (
	typeFixed       = "fixed"
	typeExponential = "exponential"

	jitterRatio = 0.25
)

// Config selects a retry policy. Intervals are milliseconds so the struct can
// be unmarshalled straight from config files.
type Config struct {
	Type               string                    `yaml:"type" json:"type"`
	FixedInterval      *FixedIntervalConfig      `yaml:"fixedInterval" json:"fixedInterval"`
	ExponentialBackoff *ExponentialBackoffConfig `yaml:"exponentialBackoff" json:"exponentialBackoff"`
}

type FixedIntervalConfig struct {
	MaxRetries int32 `yaml:"maxRetries" json:"maxRetries"`
	Interval   int   `yaml:"interval" json:"interval"`
}

type ExponentialBackoffConfig struct {
	InitialInterval int   `yaml:"initialInterval" json:"initialInterval"`
	MaxInterval     int   `yaml:"maxInterval" json:"maxInterval"`
	MaxRetries      int32 `yaml:"maxRetries" json:"maxRetries"`
}

// NewRetry builds a stateful strategy for call-site retry loops.
func NewRetry(cfg Config) (retry.Strategy, error) {
	switch cfg.Type {
	case typeFixed:
		return retry.NewFixedIntervalRetryStrategy(msToDuration(cfg.FixedInterval.Interval), cfg.FixedInterval.MaxRetries)
	case typeExponential:
		return retry.NewExponentialBackoffRetryStrategy(msToDuration(cfg.ExponentialBackoff.InitialInterval), msToDuration(cfg.ExponentialBackoff.MaxInterval), cfg.ExponentialBackoff.MaxRetries)
	default:
		return nil, fmt.Errorf("unknown retry type: %s", cfg.Type)
	}
}

// DelayForAttempt returns the wait before retry number attempt (0-based),
// for schedulers that persist the next execution time instead of sleeping.
// Exponential delays double per attempt up to MaxInterval; both policies get
// +-25% jitter so queued retries do not stampede.
func (c Config) DelayForAttempt(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	var base time.Duration
	switch c.Type {
	case typeFixed:
		base = msToDuration(c.FixedInterval.Interval)
	case typeExponential:
		base = msToDuration(c.ExponentialBackoff.InitialInterval)
		maxd := msToDuration(c.ExponentialBackoff.MaxInterval)
		const maxShift = 31
		if attempt > maxShift {
			attempt = maxShift
		}
		base <<= attempt
		// A large shift can overflow into the negatives; clamp that too.
		if base <= 0 || (maxd > 0 && base > maxd) {
			base = maxd
		}
	default:
		return 0
	}
	return jitter(base)
}

func (c Config) Validate() error {
	switch c.Type {
	case typeFixed:
		if c.FixedInterval == nil || c.FixedInterval.Interval <= 0 {
			return fmt.Errorf("fixed retry requires a positive interval")
		}
	case typeExponential:
		if c.ExponentialBackoff == nil || c.ExponentialBackoff.InitialInterval <= 0 {
			return fmt.Errorf("exponential retry requires a positive initial interval")
		}
		if c.ExponentialBackoff.MaxInterval < c.ExponentialBackoff.InitialInterval {
			return fmt.Errorf("exponential retry max interval below initial interval")
		}
	default:
		return fmt.Errorf("unknown retry type: %s", c.Type)
	}
	return nil
}

func jitter(d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	span := int64(float64(d) * jitterRatio)
	if span == 0 {
		return d
	}
	return d + time.Duration(rand.Int63n(2*span)-span)
}

func msToDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
