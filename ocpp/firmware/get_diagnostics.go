package firmware

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const GetDiagnosticsFeatureName = "GetDiagnostics"

type GetDiagnosticsRequest struct {
	Location      string          `json:"location" validate:"required,uri"`
	Retries       *int            `json:"retries,omitempty" validate:"omitempty,gte=0"`
	RetryInterval *int            `json:"retryInterval,omitempty" validate:"omitempty,gte=0"`
	StartTime     *types.DateTime `json:"startTime,omitempty"`
	StopTime      *types.DateTime `json:"stopTime,omitempty"`
}

func (r GetDiagnosticsRequest) GetFeatureName() string { return GetDiagnosticsFeatureName }

type GetDiagnosticsResponse struct {
	FileName string `json:"fileName,omitempty" validate:"omitempty,max=255"`
}

func (c GetDiagnosticsResponse) GetFeatureName() string { return GetDiagnosticsFeatureName }

func NewGetDiagnosticsResponse(fileName string) *GetDiagnosticsResponse {
	return &GetDiagnosticsResponse{FileName: fileName}
}

type getDiagnosticsFeature struct{}

func (getDiagnosticsFeature) GetFeatureName() string { return GetDiagnosticsFeatureName }
func (getDiagnosticsFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(GetDiagnosticsRequest{})
}
func (getDiagnosticsFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(GetDiagnosticsResponse{})
}

func init() { ocpp.Supported.Register(getDiagnosticsFeature{}) }
