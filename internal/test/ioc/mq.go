package ioc

import (
	"context"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	evtnotification "github.com/fahaniecares/notification-delivery/internal/event/notification"
)

// InitTopic creates the notification event topic on the local broker.
// Existing topics are fine; anything else panics the suite early.
func InitTopic() {
	initTopic(kafka.TopicSpecification{
		Topic:         evtnotification.EventName,
		NumPartitions: 1,
	})
}

func InitProducer(id string) *kafka.Producer {
	config := &kafka.ConfigMap{
		"bootstrap.servers": "localhost:9092",
		"client.id":         id,
	}
	producer, err := kafka.NewProducer(config)
	if err != nil {
		panic(fmt.Sprintf("creating test producer: %v", err))
	}
	return producer
}

func initTopic(topics ...kafka.TopicSpecification) {
	adminClient, err := kafka.NewAdminClient(&kafka.ConfigMap{
		"bootstrap.servers": "127.0.0.1:9092",
	})
	if err != nil {
		panic(fmt.Sprintf("connecting kafka admin client: %v", err))
	}
	defer adminClient.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	results, err := adminClient.CreateTopics(ctx, topics)
	if err != nil {
		panic(fmt.Sprintf("creating topics: %v", err))
	}
	for _, result := range results {
		if result.Error.Code() != kafka.ErrNoError && result.Error.Code() != kafka.ErrTopicAlreadyExists {
			panic(fmt.Sprintf("creating topic %s: %v", result.Topic, result.Error))
		}
	}
}
