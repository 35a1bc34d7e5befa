package channel

import (
	"context"

	"github.com/fahaniecares/notification-delivery/internal/domain"
)

//go:generate mockgen -source=./channel.go -package=channelmocks -destination=./mocks/channel.mock.go -typed Channel

// Channel delivers one notification over one transport. The bool reports
// transport acceptance, not confirmed delivery. Errors carry detail for the
// delivery log; callers consume them and keep going.
type Channel interface {
	Name() domain.Channel
	Send(ctx context.Context, n domain.Notification) (bool, error)
}
