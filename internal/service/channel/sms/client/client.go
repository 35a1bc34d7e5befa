// Package client narrows cloud SMS SDKs to the single call the SMS sender
// needs. Template management, audit status and the rest of the vendor
// surface stay out.
package client

import "errors"

const OK = "OK"

var (
	ErrInvalidParameter = errors.New("invalid sms parameter")
	ErrSendFailed       = errors.New("sms send failed")
)

type Client interface {
	Send(req SendReq) (SendResp, error)
}

type SendReq struct {
	PhoneNumbers  []string
	SignName      string
	TemplateID    string
	TemplateParam map[string]string
}

type SendResp struct {
	RequestID string
	// PhoneNumbers maps each number to its per-recipient outcome. Vendors
	// that only report an aggregate status repeat it per number.
	PhoneNumbers map[string]SendRespStatus
}

type SendRespStatus struct {
	Code    string
	Message string
}
