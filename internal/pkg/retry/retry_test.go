package retry

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetry(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "fixed",
			cfg: Config{
				Type: "fixed",
				FixedInterval: &FixedIntervalConfig{
					MaxRetries: 3,
					Interval:   1000,
				},
			},
		},
		{
			name: "exponential",
			cfg: Config{
				Type: "exponential",
				ExponentialBackoff: &ExponentialBackoffConfig{
					InitialInterval: 1000,
					MaxInterval:     10000,
					MaxRetries:      5,
				},
			},
		},
		{
			name:    "unknown type",
			cfg:     Config{Type: "linear"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			strategy, err := NewRetry(tt.cfg)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.NotNil(t, strategy)
		})
	}
}

func TestConfig_DelayForAttempt(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Type: "exponential",
		ExponentialBackoff: &ExponentialBackoffConfig{
			InitialInterval: 60_000,
			MaxInterval:     1_800_000,
			MaxRetries:      3,
		},
	}

	tests := []struct {
		name    string
		attempt int
		want    time.Duration
	}{
		{name: "first", attempt: 0, want: time.Minute},
		{name: "second", attempt: 1, want: 2 * time.Minute},
		{name: "third", attempt: 2, want: 4 * time.Minute},
		{name: "capped", attempt: 10, want: 30 * time.Minute},
		{name: "negative treated as first", attempt: -1, want: time.Minute},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := cfg.DelayForAttempt(tt.attempt)
			// Jitter keeps the delay within 25% of the base.
			assert.GreaterOrEqual(t, got, time.Duration(float64(tt.want)*0.75))
			assert.LessOrEqual(t, got, time.Duration(float64(tt.want)*1.25))
		})
	}
}

func TestConfig_DelayForAttempt_Fixed(t *testing.T) {
	t.Parallel()

	cfg := Config{
		Type: "fixed",
		FixedInterval: &FixedIntervalConfig{
			MaxRetries: 3,
			Interval:   5000,
		},
	}
	for attempt := 0; attempt < 4; attempt++ {
		got := cfg.DelayForAttempt(attempt)
		assert.GreaterOrEqual(t, got, 3750*time.Millisecond)
		assert.LessOrEqual(t, got, 6250*time.Millisecond)
	}
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{
			name: "valid exponential",
			cfg: Config{
				Type: "exponential",
				ExponentialBackoff: &ExponentialBackoffConfig{
					InitialInterval: 1000,
					MaxInterval:     2000,
					MaxRetries:      3,
				},
			},
		},
		{
			name: "max below initial",
			cfg: Config{
				Type: "exponential",
				ExponentialBackoff: &ExponentialBackoffConfig{
					InitialInterval: 2000,
					MaxInterval:     1000,
					MaxRetries:      3,
				},
			},
			wantErr: true,
		},
		{
			name:    "missing fixed settings",
			cfg:     Config{Type: "fixed"},
			wantErr: true,
		},
		{
			name:    "unknown",
			cfg:     Config{Type: "bogus"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			assert.NoError(t, err)
		})
	}
}
