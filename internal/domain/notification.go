package domain

import (
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/errs"
)

// Channel is a delivery medium for a notification.
type Channel string

const (
	ChannelEmail Channel = "EMAIL"
	ChannelInApp Channel = "IN_APP"
	ChannelPush  Channel = "PUSH"
	ChannelSMS   Channel = "SMS"
)

func (c Channel) IsValid() bool {
	switch c {
	case ChannelEmail, ChannelInApp, ChannelPush, ChannelSMS:
		return true
	default:
		return false
	}
}

func (c Channel) String() string {
	return string(c)
}

// AllChannels returns every known channel in a stable order.
func AllChannels() []Channel {
	return []Channel{ChannelEmail, ChannelInApp, ChannelPush, ChannelSMS}
}

// NotificationType is the categorical tag used for per-type opt-out and for
// resolving email templates. Values are lowercase because they key template
// file names and preference-map entries.
type NotificationType string

const (
	TypeStatusChange       NotificationType = "status_change"
	TypeComment            NotificationType = "comment"
	TypeDocumentUpload     NotificationType = "document_upload"
	TypeChapterEvent       NotificationType = "chapter_event"
	TypeServiceUpdate      NotificationType = "service_update"
	TypeSystemAnnouncement NotificationType = "system_announcement"
	TypeAccountUpdate      NotificationType = "account_update"
)

func (t NotificationType) IsValid() bool {
	switch t {
	case TypeStatusChange, TypeComment, TypeDocumentUpload, TypeChapterEvent,
		TypeServiceUpdate, TypeSystemAnnouncement, TypeAccountUpdate:
		return true
	default:
		return false
	}
}

func (t NotificationType) String() string {
	return string(t)
}

// Priority of a notification. Besides display it determines the numeric
// weight used to order the retry queue.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

func (p Priority) IsValid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	default:
		return false
	}
}

func (p Priority) String() string {
	return string(p)
}

// QueueWeight maps the priority onto the retry queue's numeric priority.
// Higher weights drain first. The gaps leave room for manual overrides.
func (p Priority) QueueWeight() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityHigh:
		return 20
	case PriorityUrgent:
		return 30
	default:
		return 10
	}
}

// RelatedObject is a weak reference to a domain object: a lookup key only.
// It carries no ownership and no cascade semantics; deleting the referenced
// object never touches the notification.
type RelatedObject struct {
	Type string `json:"type"`
	ID   int64  `json:"id"`
}

// Recipient is the resolvable identity supplied by the caller. Only ID is
// required; contact fields gate what the channel senders can do. A snapshot
// is stored on the notification so queued deliveries need no user lookup.
type Recipient struct {
	ID    int64  `json:"id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
	Phone string `json:"phone,omitempty"`
}

// Notification is the canonical record of a single notification event.
type Notification struct {
	ID                uint64
	UserID            int64
	Recipient         Recipient
	Type              NotificationType
	Title             string
	Message           string
	Priority          Priority
	Related           *RelatedObject
	Data              map[string]any
	Read              bool
	ReadAt            time.Time
	ChannelsAttempted []Channel
	ChannelsDelivered []Channel
	CreatedAt         time.Time
	ExpiresAt         time.Time

	// TemplateName and TemplateContext are per-request presentation hints for
	// the email sender. They are not persisted: a queued redelivery falls back
	// to the type-based template convention.
	TemplateName    string
	TemplateContext map[string]any
}

func (n *Notification) Validate() error {
	if n.UserID <= 0 {
		return fmt.Errorf("%w: UserID = %d", errs.ErrInvalidParameter, n.UserID)
	}
	if !n.Type.IsValid() {
		return fmt.Errorf("%w: %q", errs.ErrUnknownNotificationType, n.Type)
	}
	if n.Title == "" {
		return fmt.Errorf("%w: empty title", errs.ErrInvalidParameter)
	}
	if n.Message == "" {
		return fmt.Errorf("%w: empty message", errs.ErrInvalidParameter)
	}
	if !n.Priority.IsValid() {
		return fmt.Errorf("%w: Priority = %q", errs.ErrInvalidParameter, n.Priority)
	}
	return nil
}

// MarkAttempted records a delivery attempt on the channel. Idempotent.
func (n *Notification) MarkAttempted(ch Channel) {
	if !containsChannel(n.ChannelsAttempted, ch) {
		n.ChannelsAttempted = append(n.ChannelsAttempted, ch)
	}
}

// MarkDelivered records a successful delivery. It also records the attempt,
// so ChannelsDelivered stays a subset of ChannelsAttempted in every state.
func (n *Notification) MarkDelivered(ch Channel) {
	n.MarkAttempted(ch)
	if !containsChannel(n.ChannelsDelivered, ch) {
		n.ChannelsDelivered = append(n.ChannelsDelivered, ch)
	}
}

// DeliveredOn reports the per-channel sent flag.
func (n *Notification) DeliveredOn(ch Channel) bool {
	return containsChannel(n.ChannelsDelivered, ch)
}

func (n *Notification) AttemptedOn(ch Channel) bool {
	return containsChannel(n.ChannelsAttempted, ch)
}

// Expired reports whether the notification is past its expiry for display
// purposes. Expired notifications are filtered from reads, never deleted.
func (n *Notification) Expired(now time.Time) bool {
	return !n.ExpiresAt.IsZero() && now.After(n.ExpiresAt)
}

func containsChannel(chs []Channel, ch Channel) bool {
	for _, c := range chs {
		if c == ch {
			return true
		}
	}
	return false
}

// NotificationQuery filters the user-facing list operation. Zero values mean
// "no filter". Results are always newest first.
type NotificationQuery struct {
	Types          []NotificationType
	Read           *bool
	Priorities     []Priority
	CreatedAfter   time.Time
	CreatedBefore  time.Time
	IncludeExpired bool
	Limit          int
	Offset         int
}
