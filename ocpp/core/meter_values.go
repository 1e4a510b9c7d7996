package core

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const MeterValuesFeatureName = "MeterValues"

type MeterValuesRequest struct {
	ConnectorId   int                `json:"connectorId" validate:"gte=0"`
	TransactionId *int               `json:"transactionId,omitempty"`
	MeterValue    []types.MeterValue `json:"meterValue" validate:"required,min=1,dive"`
}

func (r MeterValuesRequest) GetFeatureName() string { return MeterValuesFeatureName }

func NewMeterValuesRequest(connectorId int, meterValue []types.MeterValue) *MeterValuesRequest {
	return &MeterValuesRequest{ConnectorId: connectorId, MeterValue: meterValue}
}

type MeterValuesResponse struct{}

func (c MeterValuesResponse) GetFeatureName() string { return MeterValuesFeatureName }

func NewMeterValuesResponse() *MeterValuesResponse { return &MeterValuesResponse{} }

type meterValuesFeature struct{}

func (meterValuesFeature) GetFeatureName() string { return MeterValuesFeatureName }
func (meterValuesFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(MeterValuesRequest{})
}
func (meterValuesFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(MeterValuesResponse{})
}

func init() { ocpp.Supported.Register(meterValuesFeature{}) }
