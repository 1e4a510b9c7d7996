package core

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const HeartbeatFeatureName = "Heartbeat"

type HeartbeatRequest struct{}

func (r HeartbeatRequest) GetFeatureName() string { return HeartbeatFeatureName }

func NewHeartbeatRequest() *HeartbeatRequest { return &HeartbeatRequest{} }

type HeartbeatResponse struct {
	CurrentTime *types.DateTime `json:"currentTime" validate:"required"`
}

func (c HeartbeatResponse) GetFeatureName() string { return HeartbeatFeatureName }

func NewHeartbeatResponse(currentTime *types.DateTime) *HeartbeatResponse {
	return &HeartbeatResponse{CurrentTime: currentTime}
}

type heartbeatFeature struct{}

func (heartbeatFeature) GetFeatureName() string        { return HeartbeatFeatureName }
func (heartbeatFeature) GetRequestType() reflect.Type  { return reflect.TypeOf(HeartbeatRequest{}) }
func (heartbeatFeature) GetResponseType() reflect.Type { return reflect.TypeOf(HeartbeatResponse{}) }

func init() { ocpp.Supported.Register(heartbeatFeature{}) }
