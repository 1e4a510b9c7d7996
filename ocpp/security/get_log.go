package security

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const GetLogFeatureName = "GetLog"

type LogType string

const (
	LogTypeDiagnosticsLog  LogType = "DiagnosticsLog"
	LogTypeSecurityLog     LogType = "SecurityLog"
)

type LogParameters struct {
	RemoteLocation  string          `json:"remoteLocation" validate:"required,uri"`
	OldestTimestamp *types.DateTime `json:"oldestTimestamp,omitempty"`
	LatestTimestamp *types.DateTime `json:"latestTimestamp,omitempty"`
}

type GetLogRequest struct {
	LogType       LogType       `json:"logType" validate:"required,oneof=DiagnosticsLog SecurityLog"`
	RequestId     int           `json:"requestId"`
	Retries       *int          `json:"retries,omitempty" validate:"omitempty,gte=0"`
	RetryInterval *int          `json:"retryInterval,omitempty" validate:"omitempty,gte=0"`
	Log           LogParameters `json:"log" validate:"required"`
}

func (r GetLogRequest) GetFeatureName() string { return GetLogFeatureName }

type LogStatus string

const (
	LogStatusAccepted       LogStatus = "Accepted"
	LogStatusRejected       LogStatus = "Rejected"
	LogStatusAcceptedCanceled LogStatus = "AcceptedCanceled"
)

type GetLogResponse struct {
	Status   LogStatus `json:"status" validate:"required,oneof=Accepted Rejected AcceptedCanceled"`
	Filename string    `json:"filename,omitempty" validate:"omitempty,max=255"`
}

func (c GetLogResponse) GetFeatureName() string { return GetLogFeatureName }

func NewGetLogResponse(status LogStatus) *GetLogResponse {
	return &GetLogResponse{Status: status}
}

type getLogFeature struct{}

func (getLogFeature) GetFeatureName() string       { return GetLogFeatureName }
func (getLogFeature) GetRequestType() reflect.Type { return reflect.TypeOf(GetLogRequest{}) }
func (getLogFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(GetLogResponse{})
}

func init() { ocpp.Supported.Register(getLogFeature{}) }
