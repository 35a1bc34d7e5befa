package metrics

import (
	"context"
	"errors"
	"net"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
)

var (
	commandCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_redis_commands_total",
			Help: "Total number of Redis commands executed",
		},
		[]string{"command", "status"},
	)

	commandDuration = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "notification_redis_command_duration_seconds",
			Help:       "Redis command execution time in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
		},
		[]string{"command"},
	)

	pipelineCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_redis_pipeline_commands_total",
			Help: "Total number of Redis pipeline executions",
		},
		[]string{"status"},
	)

	pipelineCommandsCounter = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notification_redis_pipeline_command_count_total",
			Help: "Total number of commands in Redis pipelines",
		},
	)

	pipelineDuration = prometheus.NewSummary(
		prometheus.SummaryOpts{
			Name:       "notification_redis_pipeline_duration_seconds",
			Help:       "Redis pipeline execution time in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
		},
	)

	connectionCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_redis_connections_total",
			Help: "Total number of Redis connections created",
		},
		[]string{"status"},
	)
)

func init() {
	prometheus.MustRegister(
		commandCounter,
		commandDuration,
		pipelineCounter,
		pipelineCommandsCounter,
		pipelineDuration,
		connectionCounter,
	)
}

// Hook implements redis.Hook and records metrics for every Redis operation.
type Hook struct{}

func NewMetricsHook() *Hook {
	return &Hook{}
}

func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) error {
		cmdName := cmd.Name()
		startTime := time.Now()

		err := next(ctx, cmd)

		commandDuration.WithLabelValues(cmdName).Observe(time.Since(startTime).Seconds())

		const (
			successStatus = "success"
			errorStatus   = "error"
		)
		// redis.Nil is a miss, not a failure.
		status := successStatus
		if err != nil && !errors.Is(err, redis.Nil) {
			status = errorStatus
		}
		commandCounter.WithLabelValues(cmdName, status).Inc()

		return err
	}
}

func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) error {
		if len(cmds) == 0 {
			return next(ctx, cmds)
		}

		startTime := time.Now()
		err := next(ctx, cmds)

		pipelineDuration.Observe(time.Since(startTime).Seconds())
		pipelineCommandsCounter.Add(float64(len(cmds)))

		const (
			successStr = "success"
			errorStr   = "error"
		)
		status := successStr
		for _, cmd := range cmds {
			if cmdErr := cmd.Err(); cmdErr != nil && !errors.Is(cmdErr, redis.Nil) {
				status = errorStr
				break
			}
		}
		if status == successStr && err != nil {
			status = errorStr
		}
		pipelineCounter.WithLabelValues(status).Inc()

		return err
	}
}

func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := next(ctx, network, addr)

		status := "success"
		if err != nil {
			status = "error"
		}
		connectionCounter.WithLabelValues(status).Inc()

		return conn, err
	}
}

// WithMetrics attaches the metrics hook to a Redis client.
func WithMetrics(client *redis.Client) *redis.Client {
	client.AddHook(NewMetricsHook())
	return client
}
