package ioc

import (
	"strings"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/fahaniecares/notification-delivery/internal/pkg/mqx"
	"github.com/gotomicro/ego/core/econf"
)

// InitKafkaConsumer builds the consumer for the notification event topic.
// Auto-commit stays off: the event loop commits after handling so a crash
// replays the message instead of losing it.
func InitKafkaConsumer() mqx.Consumer {
	type Config struct {
		Addrs   []string `yaml:"addrs"`
		GroupID string   `yaml:"groupId"`
	}
	var cfg Config
	err := econf.UnmarshalKey("kafka", &cfg)
	if err != nil {
		panic(err)
	}
	consumer, err := kafka.NewConsumer(&kafka.ConfigMap{
		"bootstrap.servers":  strings.Join(cfg.Addrs, ","),
		"group.id":           cfg.GroupID,
		"auto.offset.reset":  "earliest",
		"enable.auto.commit": false,
	})
	if err != nil {
		panic(err)
	}
	return consumer
}
