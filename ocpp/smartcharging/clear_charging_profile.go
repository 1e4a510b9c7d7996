// Package smartcharging implements the OCPP 1.6J Smart Charging
// Profile wire messages: SetChargingProfile, ClearChargingProfile and
// GetCompositeSchedule. The profile storage and composite-schedule
// math these messages drive live in the profiles package; this
// package only owns the envelope shapes.
package smartcharging

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const ClearChargingProfileFeatureName = "ClearChargingProfile"

type ClearChargingProfileRequest struct {
	Id                     *int                             `json:"id,omitempty"`
	ConnectorId            *int                             `json:"connectorId,omitempty" validate:"omitempty,gte=0"`
	ChargingProfilePurpose types.ChargingProfilePurposeType `json:"chargingProfilePurpose,omitempty"`
	StackLevel             *int                             `json:"stackLevel,omitempty" validate:"omitempty,gte=0"`
}

func (r ClearChargingProfileRequest) GetFeatureName() string { return ClearChargingProfileFeatureName }

func NewClearChargingProfileRequest() *ClearChargingProfileRequest {
	return &ClearChargingProfileRequest{}
}

type ClearChargingProfileStatus string

const (
	ClearChargingProfileStatusAccepted ClearChargingProfileStatus = "Accepted"
	ClearChargingProfileStatusUnknown  ClearChargingProfileStatus = "Unknown"
)

type ClearChargingProfileResponse struct {
	Status ClearChargingProfileStatus `json:"status" validate:"required,oneof=Accepted Unknown"`
}

func (c ClearChargingProfileResponse) GetFeatureName() string { return ClearChargingProfileFeatureName }

func NewClearChargingProfileResponse(status ClearChargingProfileStatus) *ClearChargingProfileResponse {
	return &ClearChargingProfileResponse{Status: status}
}

type clearChargingProfileFeature struct{}

func (clearChargingProfileFeature) GetFeatureName() string { return ClearChargingProfileFeatureName }
func (clearChargingProfileFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(ClearChargingProfileRequest{})
}
func (clearChargingProfileFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ClearChargingProfileResponse{})
}

func init() { ocpp.Supported.Register(clearChargingProfileFeature{}) }
