package notification

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/confluentinc/confluent-kafka-go/v2/kafka"
	"github.com/fahaniecares/notification-delivery/internal/errs"
	"github.com/fahaniecares/notification-delivery/internal/pkg/idempotent"
	"github.com/fahaniecares/notification-delivery/internal/pkg/mqx"
	notificationsvc "github.com/fahaniecares/notification-delivery/internal/service/notification"
	"github.com/gotomicro/ego/core/elog"
)

const readTimeout = time.Second

// EventConsumer feeds send requests from Kafka into the delivery pipeline.
// Offsets commit only after a message is settled, so processing is
// at-least-once; the bloom filter keeps broker redeliveries from
// double-sending.
type EventConsumer struct {
	svc         notificationsvc.SendService
	consumer    mqx.Consumer
	idempotency idempotent.IdempotencyService
	logger      *elog.Component
}

func NewEventConsumer(
	svc notificationsvc.SendService,
	consumer mqx.Consumer,
	idempotency idempotent.IdempotencyService,
) (*EventConsumer, error) {
	if err := consumer.SubscribeTopics([]string{EventName}, nil); err != nil {
		return nil, err
	}
	return &EventConsumer{
		svc:         svc,
		consumer:    consumer,
		idempotency: idempotency,
		logger:      elog.DefaultLogger,
	}, nil
}

func (c *EventConsumer) Start(ctx context.Context) {
	go func() {
		for {
			if ctx.Err() != nil {
				return
			}
			if err := c.Consume(ctx); err != nil {
				c.logger.Error("failed to consume notification event", elog.FieldErr(err))
			}
		}
	}()
}

// Consume handles at most one message. A nil error means the message was
// settled (handled, duplicate, or poison) or the poll timed out; a non-nil
// error leaves the offset uncommitted for redelivery.
func (c *EventConsumer) Consume(ctx context.Context) error {
	msg, err := c.consumer.ReadMessage(readTimeout)
	if err != nil {
		var kErr kafka.Error
		if errors.As(err, &kErr) && kErr.Code() == kafka.ErrTimedOut {
			return nil
		}
		return fmt.Errorf("reading message: %w", err)
	}

	var evt Event
	if err := json.Unmarshal(msg.Value, &evt); err != nil {
		// Poison pill: park it and move on.
		c.logger.Warn("dropping malformed notification event",
			elog.FieldErr(err),
			elog.String("partition", msg.TopicPartition.String()))
		return c.commit(msg)
	}

	key := evt.Key
	if key == "" {
		key = string(msg.Key)
	}
	if key != "" {
		seen, err := c.idempotency.Seen(ctx, key)
		if err != nil {
			// Dedupe is best effort; at-least-once holds without it.
			c.logger.Warn("idempotency check failed",
				elog.FieldErr(err), elog.String("key", key))
		} else if seen {
			return c.commit(msg)
		}
	}

	_, err = c.svc.SendNotification(ctx, evt.Request)
	switch {
	case err == nil:
	case errors.Is(err, errs.ErrInvalidParameter),
		errors.Is(err, errs.ErrUnknownNotificationType),
		errors.Is(err, errs.ErrUnknownChannel):
		// A bad payload never becomes good; skip it instead of looping.
		c.logger.Warn("dropping undeliverable notification event",
			elog.FieldErr(err), elog.String("key", key))
	default:
		return fmt.Errorf("handling notification event: %w", err)
	}

	if key != "" {
		if _, err := c.idempotency.FirstTime(ctx, key); err != nil {
			c.logger.Warn("idempotency mark failed",
				elog.FieldErr(err), elog.String("key", key))
		}
	}
	return c.commit(msg)
}

func (c *EventConsumer) commit(msg *kafka.Message) error {
	if _, err := c.consumer.CommitMessage(msg); err != nil {
		return fmt.Errorf("committing offset: %w", err)
	}
	return nil
}

func (c *EventConsumer) Close() error {
	return c.consumer.Close()
}
