package firmware

import (
	"reflect"

	"chargepoint/ocpp"
)

const DiagnosticsStatusNotificationFeatureName = "DiagnosticsStatusNotification"

type DiagnosticsStatus string

const (
	DiagnosticsStatusIdle         DiagnosticsStatus = "Idle"
	DiagnosticsStatusUploaded     DiagnosticsStatus = "Uploaded"
	DiagnosticsStatusUploadFailed DiagnosticsStatus = "UploadFailed"
	DiagnosticsStatusUploading    DiagnosticsStatus = "Uploading"
)

type DiagnosticsStatusNotificationRequest struct {
	Status DiagnosticsStatus `json:"status" validate:"required,oneof=Idle Uploaded UploadFailed Uploading"`
}

func (r DiagnosticsStatusNotificationRequest) GetFeatureName() string {
	return DiagnosticsStatusNotificationFeatureName
}

func NewDiagnosticsStatusNotificationRequest(status DiagnosticsStatus) *DiagnosticsStatusNotificationRequest {
	return &DiagnosticsStatusNotificationRequest{Status: status}
}

type DiagnosticsStatusNotificationResponse struct{}

func (c DiagnosticsStatusNotificationResponse) GetFeatureName() string {
	return DiagnosticsStatusNotificationFeatureName
}

func NewDiagnosticsStatusNotificationResponse() *DiagnosticsStatusNotificationResponse {
	return &DiagnosticsStatusNotificationResponse{}
}

type diagnosticsStatusNotificationFeature struct{}

func (diagnosticsStatusNotificationFeature) GetFeatureName() string {
	return DiagnosticsStatusNotificationFeatureName
}
func (diagnosticsStatusNotificationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(DiagnosticsStatusNotificationRequest{})
}
func (diagnosticsStatusNotificationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(DiagnosticsStatusNotificationResponse{})
}

func init() { ocpp.Supported.Register(diagnosticsStatusNotificationFeature{}) }
