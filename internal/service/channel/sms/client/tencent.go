package client

import (
	"fmt"
	"sort"

	"github.com/alibabacloud-go/tea/tea"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common"
	"github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/common/profile"
	sms "github.com/tencentcloud/tencentcloud-sdk-go/tencentcloud/sms/v20210111"
)

var _ Client = (*TencentCloudSMS)(nil)

type TencentCloudSMS struct {
	client *sms.Client
	appID  string
}

func NewTencentCloudSMS(regionID, secretID, secretKey, appID string) (*TencentCloudSMS, error) {
	credential := common.NewCredential(secretID, secretKey)
	cpf := profile.NewClientProfile()
	cpf.HttpProfile.ReqTimeout = 10
	client, err := sms.NewClient(credential, regionID, cpf)
	if err != nil {
		return nil, err
	}
	return &TencentCloudSMS{client: client, appID: appID}, nil
}

func (t *TencentCloudSMS) Send(req SendReq) (SendResp, error) {
	if len(req.PhoneNumbers) == 0 {
		return SendResp{}, fmt.Errorf("%w: no phone numbers", ErrInvalidParameter)
	}

	request := sms.NewSendSmsRequest()
	request.PhoneNumberSet = common.StringPtrs(req.PhoneNumbers)
	request.SmsSdkAppId = common.StringPtr(t.appID)
	request.SignName = common.StringPtr(req.SignName)
	request.TemplateId = common.StringPtr(req.TemplateID)
	request.TemplateParamSet = common.StringPtrs(positionalParams(req.TemplateParam))

	response, err := t.client.SendSms(request)
	if err != nil {
		return SendResp{}, fmt.Errorf("%w: %w", ErrSendFailed, err)
	}
	if response.Response == nil {
		return SendResp{}, fmt.Errorf("%w: unexpected response body", ErrSendFailed)
	}

	result := SendResp{
		RequestID:    tea.StringValue(response.Response.RequestId),
		PhoneNumbers: make(map[string]SendRespStatus, len(response.Response.SendStatusSet)),
	}
	for _, status := range response.Response.SendStatusSet {
		if status == nil {
			continue
		}
		code := tea.StringValue(status.Code)
		// Vendor success code is "Ok"; normalize so callers compare one value.
		if code == "Ok" {
			code = OK
		}
		result.PhoneNumbers[tea.StringValue(status.PhoneNumber)] = SendRespStatus{
			Code:    code,
			Message: tea.StringValue(status.Message),
		}
	}
	return result, nil
}

// positionalParams flattens the named params into the vendor's positional
// set: keys are the 1-based placeholder indexes ("1", "2", ...).
func positionalParams(params map[string]string) []string {
	if len(params) == 0 {
		return nil
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]string, 0, len(keys))
	for _, k := range keys {
		out = append(out, params[k])
	}
	return out
}
