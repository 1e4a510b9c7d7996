package smartcharging

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const GetCompositeScheduleFeatureName = "GetCompositeSchedule"

type GetCompositeScheduleRequest struct {
	ConnectorId      int                        `json:"connectorId" validate:"gte=0"`
	Duration         int                        `json:"duration" validate:"gte=0"`
	ChargingRateUnit types.ChargingRateUnitType `json:"chargingRateUnit,omitempty"`
}

func (r GetCompositeScheduleRequest) GetFeatureName() string { return GetCompositeScheduleFeatureName }

func NewGetCompositeScheduleRequest(connectorId int, duration int) *GetCompositeScheduleRequest {
	return &GetCompositeScheduleRequest{ConnectorId: connectorId, Duration: duration}
}

type GetCompositeScheduleStatus string

const (
	GetCompositeScheduleStatusAccepted GetCompositeScheduleStatus = "Accepted"
	GetCompositeScheduleStatusRejected GetCompositeScheduleStatus = "Rejected"
)

type GetCompositeScheduleResponse struct {
	Status           GetCompositeScheduleStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
	ConnectorId      *int                        `json:"connectorId,omitempty"`
	ScheduleStart    *types.DateTime             `json:"scheduleStart,omitempty"`
	ChargingSchedule *types.ChargingSchedule     `json:"chargingSchedule,omitempty"`
}

func (c GetCompositeScheduleResponse) GetFeatureName() string { return GetCompositeScheduleFeatureName }

func NewGetCompositeScheduleResponse(status GetCompositeScheduleStatus) *GetCompositeScheduleResponse {
	return &GetCompositeScheduleResponse{Status: status}
}

type getCompositeScheduleFeature struct{}

func (getCompositeScheduleFeature) GetFeatureName() string { return GetCompositeScheduleFeatureName }
func (getCompositeScheduleFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(GetCompositeScheduleRequest{})
}
func (getCompositeScheduleFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(GetCompositeScheduleResponse{})
}

func init() { ocpp.Supported.Register(getCompositeScheduleFeature{}) }
