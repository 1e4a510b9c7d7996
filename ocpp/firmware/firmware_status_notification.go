package firmware

import (
	"reflect"

	"chargepoint/ocpp"
)

const FirmwareStatusNotificationFeatureName = "FirmwareStatusNotification"

type Status string

const (
	StatusDownloaded         Status = "Downloaded"
	StatusDownloadFailed     Status = "DownloadFailed"
	StatusDownloading        Status = "Downloading"
	StatusIdle               Status = "Idle"
	StatusInstallationFailed Status = "InstallationFailed"
	StatusInstalling         Status = "Installing"
	StatusInstalled          Status = "Installed"
)

type StatusNotificationRequest struct {
	Status Status `json:"status" validate:"required,oneof=Downloaded DownloadFailed Downloading Idle InstallationFailed Installing Installed"`
}

func (r StatusNotificationRequest) GetFeatureName() string { return FirmwareStatusNotificationFeatureName }

func NewStatusNotificationRequest(status Status) *StatusNotificationRequest {
	return &StatusNotificationRequest{Status: status}
}

type StatusNotificationResponse struct{}

func (c StatusNotificationResponse) GetFeatureName() string {
	return FirmwareStatusNotificationFeatureName
}

func NewStatusNotificationResponse() *StatusNotificationResponse {
	return &StatusNotificationResponse{}
}

type firmwareStatusNotificationFeature struct{}

func (firmwareStatusNotificationFeature) GetFeatureName() string {
	return FirmwareStatusNotificationFeatureName
}
func (firmwareStatusNotificationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(StatusNotificationRequest{})
}
func (firmwareStatusNotificationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(StatusNotificationResponse{})
}

func init() { ocpp.Supported.Register(firmwareStatusNotificationFeature{}) }
