package firmware

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const UpdateFirmwareFeatureName = "UpdateFirmware"

type UpdateFirmwareRequest struct {
	Location      string          `json:"location" validate:"required,uri"`
	Retries       *int            `json:"retries,omitempty" validate:"omitempty,gte=0"`
	RetrieveDate  *types.DateTime `json:"retrieveDate" validate:"required"`
	RetryInterval *int            `json:"retryInterval,omitempty" validate:"omitempty,gte=0"`
}

func (r UpdateFirmwareRequest) GetFeatureName() string { return UpdateFirmwareFeatureName }

type UpdateFirmwareResponse struct{}

func (c UpdateFirmwareResponse) GetFeatureName() string { return UpdateFirmwareFeatureName }

func NewUpdateFirmwareResponse() *UpdateFirmwareResponse { return &UpdateFirmwareResponse{} }

type updateFirmwareFeature struct{}

func (updateFirmwareFeature) GetFeatureName() string { return UpdateFirmwareFeatureName }
func (updateFirmwareFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(UpdateFirmwareRequest{})
}
func (updateFirmwareFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(UpdateFirmwareResponse{})
}

func init() { ocpp.Supported.Register(updateFirmwareFeature{}) }
