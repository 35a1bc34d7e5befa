package domain

import "time"

const DefaultMaxRetries = 3

// RetryQueueItem is one deferred or failed channel-delivery attempt awaiting
// reprocessing. Processed is monotonic: once true it never resets, whether
// the item succeeded or exhausted its retries.
type RetryQueueItem struct {
	ID             int64
	NotificationID uint64
	Channel        Channel
	// Priority orders draining: higher values drain first, ties broken by
	// older ScheduledAt.
	Priority    int
	ScheduledAt time.Time
	Processed   bool
	ProcessedAt time.Time
	RetryCount  int
	MaxRetries  int
	LastError   string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Exhausted reports whether one more failure would exceed the retry budget.
func (i *RetryQueueItem) Exhausted() bool {
	return i.RetryCount >= i.MaxRetries
}
