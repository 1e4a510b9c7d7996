package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const UnlockConnectorFeatureName = "UnlockConnector"

type UnlockConnectorRequest struct {
	ConnectorId int `json:"connectorId" validate:"gt=0"`
}

func (r UnlockConnectorRequest) GetFeatureName() string { return UnlockConnectorFeatureName }

type UnlockStatus string

const (
	UnlockStatusUnlocked     UnlockStatus = "Unlocked"
	UnlockStatusUnlockFailed UnlockStatus = "UnlockFailed"
	UnlockStatusNotSupported UnlockStatus = "NotSupported"
)

type UnlockConnectorResponse struct {
	Status UnlockStatus `json:"status" validate:"required,oneof=Unlocked UnlockFailed NotSupported"`
}

func (c UnlockConnectorResponse) GetFeatureName() string { return UnlockConnectorFeatureName }

func NewUnlockConnectorResponse(status UnlockStatus) *UnlockConnectorResponse {
	return &UnlockConnectorResponse{Status: status}
}

type unlockConnectorFeature struct{}

func (unlockConnectorFeature) GetFeatureName() string { return UnlockConnectorFeatureName }
func (unlockConnectorFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(UnlockConnectorRequest{})
}
func (unlockConnectorFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(UnlockConnectorResponse{})
}

func init() { ocpp.Supported.Register(unlockConnectorFeature{}) }
