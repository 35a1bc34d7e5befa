package channel

import (
	"context"
	"fmt"

	"github.com/fahaniecares/notification-delivery/internal/domain"
	"github.com/fahaniecares/notification-delivery/internal/errs"
)

// Sender is the dispatch surface send flows depend on.
type Sender interface {
	Send(ctx context.Context, ch domain.Channel, n domain.Notification) (bool, error)
}

var _ Sender = (*Dispatcher)(nil)

// Dispatcher routes a send to the registered transport. It is the single
// entry both the orchestrator and the queue drainer go through.
type Dispatcher struct {
	channels map[domain.Channel]Channel
}

func NewDispatcher(channels ...Channel) *Dispatcher {
	m := make(map[domain.Channel]Channel, len(channels))
	for _, ch := range channels {
		m[ch.Name()] = ch
	}
	return &Dispatcher{channels: m}
}

func (d *Dispatcher) Send(ctx context.Context, ch domain.Channel, n domain.Notification) (bool, error) {
	c, ok := d.channels[ch]
	if !ok {
		return false, fmt.Errorf("%w: %q", errs.ErrUnknownChannel, ch)
	}
	return c.Send(ctx, n)
}
