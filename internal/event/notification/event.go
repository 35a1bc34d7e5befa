package notification

import "github.com/fahaniecares/notification-delivery/internal/domain"

const EventName = "notification_delivery_events"

// Event is the wire payload on the delivery topic. Key identifies the
// logical event across broker redeliveries; producers should derive it from
// the triggering domain action (e.g. "referral:123:status_change").
type Event struct {
	Key     string             `json:"key"`
	Request domain.SendRequest `json:"request"`
}
