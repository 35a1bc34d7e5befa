package domain

import (
	"fmt"
	"time"

	"github.com/fahaniecares/notification-delivery/internal/errs"
)

// SendRequest carries everything a caller supplies to trigger one
// notification. Channels overrides the preference-derived channel set when
// non-nil; TemplateName overrides the type-based email template convention;
// TemplateContext is merged into the email render context.
type SendRequest struct {
	Recipient       Recipient
	Type            NotificationType
	Title           string
	Message         string
	Related         *RelatedObject
	Data            map[string]any
	Priority        Priority
	Channels        []Channel
	ExpiresAt       time.Time
	TemplateName    string
	TemplateContext map[string]any
}

func (r *SendRequest) Validate() error {
	if r.Recipient.ID <= 0 {
		return fmt.Errorf("%w: Recipient.ID = %d", errs.ErrInvalidParameter, r.Recipient.ID)
	}
	if !r.Type.IsValid() {
		return fmt.Errorf("%w: %q", errs.ErrUnknownNotificationType, r.Type)
	}
	if r.Title == "" {
		return fmt.Errorf("%w: empty title", errs.ErrInvalidParameter)
	}
	if r.Message == "" {
		return fmt.Errorf("%w: empty message", errs.ErrInvalidParameter)
	}
	if r.Priority != "" && !r.Priority.IsValid() {
		return fmt.Errorf("%w: Priority = %q", errs.ErrInvalidParameter, r.Priority)
	}
	for _, ch := range r.Channels {
		if !ch.IsValid() {
			return fmt.Errorf("%w: %q", errs.ErrUnknownChannel, ch)
		}
	}
	return nil
}

// SendResponse is the outcome of one send. Suppressed means the user has the
// type disabled: no notification exists and no rows were written.
type SendResponse struct {
	Notification Notification
	Suppressed   bool
}

// BatchSendResponse aggregates a bulk send. Notifications holds the
// non-suppressed results in request order; suppressed or failed recipients
// are simply absent.
type BatchSendResponse struct {
	Notifications []Notification
}
