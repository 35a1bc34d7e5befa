package errs

import (
	"errors"
)

// Shared error taxonomy. Configuration and persistence errors propagate to
// callers; transport errors stay inside the delivery layer and surface only
// through the delivery log.
var (
	ErrInvalidParameter        = errors.New("invalid parameter")
	ErrUnknownNotificationType = errors.New("unknown notification type")
	ErrUnknownChannel          = errors.New("unknown channel")

	ErrNotificationNotFound     = errors.New("notification not found")
	ErrCreateNotificationFailed = errors.New("failed to create notification")
	ErrSendNotificationFailed   = errors.New("failed to send notification")
	ErrIDGenerationFailed       = errors.New("notification id generation failed")

	ErrPreferenceNotFound  = errors.New("preference not found")
	ErrPreferenceDuplicate = errors.New("preference already exists for user")

	ErrQueueItemNotFound  = errors.New("retry queue item not found")
	ErrQueueItemProcessed = errors.New("retry queue item already processed")

	ErrNoEmailAddress   = errors.New("recipient has no email address")
	ErrNoPhoneNumber    = errors.New("recipient has no phone number")
	ErrSMSNotConfigured = errors.New("sms transport not configured")
	ErrEmailRateLimited = errors.New("email transport rate limited")
	ErrTemplateNotFound = errors.New("email template not found")
)
