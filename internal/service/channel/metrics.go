package channel

import (
	"context"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	sendDurationSummary = prometheus.NewSummaryVec(
		prometheus.SummaryOpts{
			Name:       "notification_channel_send_duration_seconds",
			Help:       "Channel send duration in seconds.",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.95: 0.005, 0.99: 0.001},
			MaxAge:     time.Minute * 5,
		},
		[]string{"channel", "outcome"},
	)

	sendCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notification_channel_send_total",
			Help: "Channel sends by outcome.",
		},
		[]string{"channel", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(sendDurationSummary, sendCounter)
}

// metricsChannel decorates a Channel with send counters and latency.
type metricsChannel struct {
	next Channel
}

func NewMetricsChannel(next Channel) Channel {
	return &metricsChannel{next: next}
}

func (c *metricsChannel) Name() domain.Channel {
	return c.next.Name()
}

func (c *metricsChannel) Send(ctx context.Context, n domain.Notification) (bool, error) {
	start := time.Now()
	accepted, err := c.next.Send(ctx, n)
	outcome := outcomeLabel(accepted, err)
	name := c.next.Name().String()

	sendCounter.WithLabelValues(name, outcome).Inc()
	sendDurationSummary.WithLabelValues(name, outcome).Observe(time.Since(start).Seconds())
	return accepted, err
}

func outcomeLabel(accepted bool, err error) string {
	switch {
	case err != nil:
		return "failed"
	case !accepted:
		return "rejected"
	default:
		return "accepted"
	}
}
