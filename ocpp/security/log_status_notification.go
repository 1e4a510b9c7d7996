package security

import (
	"reflect"

	"chargepoint/ocpp"
)

const LogStatusNotificationFeatureName = "LogStatusNotification"

type UploadLogStatus string

const (
	UploadLogStatusIdle               UploadLogStatus = "Idle"
	UploadLogStatusUploaded           UploadLogStatus = "Uploaded"
	UploadLogStatusUploadFailure      UploadLogStatus = "UploadFailure"
	UploadLogStatusUploading          UploadLogStatus = "Uploading"
)

type LogStatusNotificationRequest struct {
	Status    UploadLogStatus `json:"status" validate:"required,oneof=Idle Uploaded UploadFailure Uploading"`
	RequestId int             `json:"requestId,omitempty"`
}

func (r LogStatusNotificationRequest) GetFeatureName() string { return LogStatusNotificationFeatureName }

func NewLogStatusNotificationRequest(status UploadLogStatus, requestId int) *LogStatusNotificationRequest {
	return &LogStatusNotificationRequest{Status: status, RequestId: requestId}
}

type LogStatusNotificationResponse struct{}

func (c LogStatusNotificationResponse) GetFeatureName() string { return LogStatusNotificationFeatureName }

func NewLogStatusNotificationResponse() *LogStatusNotificationResponse {
	return &LogStatusNotificationResponse{}
}

type logStatusNotificationFeature struct{}

func (logStatusNotificationFeature) GetFeatureName() string { return LogStatusNotificationFeatureName }
func (logStatusNotificationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(LogStatusNotificationRequest{})
}
func (logStatusNotificationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(LogStatusNotificationResponse{})
}

func init() { ocpp.Supported.Register(logStatusNotificationFeature{}) }
