package domain

import "time"

// DeliveryStatus is the terminal-or-transitional state of one delivery
// attempt. SENT and BOUNCED are reserved for transports that confirm
// asynchronously; the wired transports record DELIVERED or FAILED, and
// queueing an attempt records PENDING.
type DeliveryStatus string

const (
	DeliveryStatusPending   DeliveryStatus = "PENDING"
	DeliveryStatusSent      DeliveryStatus = "SENT"
	DeliveryStatusDelivered DeliveryStatus = "DELIVERED"
	DeliveryStatusFailed    DeliveryStatus = "FAILED"
	DeliveryStatusBounced   DeliveryStatus = "BOUNCED"
)

// DeliveryLogEntry is one row of the append-only per-channel audit trail.
// Entries are created, never mutated; retries accumulate entries.
type DeliveryLogEntry struct {
	ID             int64
	NotificationID uint64
	Channel        Channel
	Status         DeliveryStatus
	Error          string
	SentAt         time.Time
	DeliveredAt    time.Time
	FailedAt       time.Time
	CreatedAt      time.Time
}
