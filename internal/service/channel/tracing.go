package channel

import (
	"context"
	"strconv"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracingChannel decorates a Channel with an otel span per send.
type tracingChannel struct {
	next   Channel
	tracer trace.Tracer
}

func NewTracingChannel(next Channel) Channel {
	return &tracingChannel{
		next:   next,
		tracer: otel.Tracer("notification-delivery/channel"),
	}
}

func (c *tracingChannel) Name() domain.Channel {
	return c.next.Name()
}

func (c *tracingChannel) Send(ctx context.Context, n domain.Notification) (bool, error) {
	ctx, span := c.tracer.Start(ctx, "Channel.Send",
		trace.WithAttributes(
			attribute.String("notification.id", strconv.FormatUint(n.ID, 10)),
			attribute.String("notification.type", n.Type.String()),
			attribute.String("notification.channel", c.next.Name().String()),
		))
	defer span.End()

	accepted, err := c.next.Send(ctx, n)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetAttributes(attribute.Bool("notification.accepted", accepted))
	}
	return accepted, err
}
