package smartcharging

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const SetChargingProfileFeatureName = "SetChargingProfile"

type SetChargingProfileRequest struct {
	ConnectorId     int                    `json:"connectorId" validate:"gte=0"`
	ChargingProfile *types.ChargingProfile `json:"csChargingProfiles" validate:"required"`
}

func (r SetChargingProfileRequest) GetFeatureName() string { return SetChargingProfileFeatureName }

func NewSetChargingProfileRequest(connectorId int, chargingProfile *types.ChargingProfile) *SetChargingProfileRequest {
	return &SetChargingProfileRequest{ConnectorId: connectorId, ChargingProfile: chargingProfile}
}

type ChargingProfileStatus string

const (
	ChargingProfileStatusAccepted      ChargingProfileStatus = "Accepted"
	ChargingProfileStatusRejected      ChargingProfileStatus = "Rejected"
	ChargingProfileStatusNotSupported  ChargingProfileStatus = "NotSupported"
)

type SetChargingProfileResponse struct {
	Status ChargingProfileStatus `json:"status" validate:"required,oneof=Accepted Rejected NotSupported"`
}

func (c SetChargingProfileResponse) GetFeatureName() string { return SetChargingProfileFeatureName }

func NewSetChargingProfileResponse(status ChargingProfileStatus) *SetChargingProfileResponse {
	return &SetChargingProfileResponse{Status: status}
}

type setChargingProfileFeature struct{}

func (setChargingProfileFeature) GetFeatureName() string { return SetChargingProfileFeatureName }
func (setChargingProfileFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(SetChargingProfileRequest{})
}
func (setChargingProfileFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(SetChargingProfileResponse{})
}

func init() { ocpp.Supported.Register(setChargingProfileFeature{}) }
