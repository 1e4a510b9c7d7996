package localauth

import (
	"reflect"

	"chargepoint/ocpp"
)

const GetLocalListVersionFeatureName = "GetLocalListVersion"

type GetLocalListVersionRequest struct{}

func (r GetLocalListVersionRequest) GetFeatureName() string { return GetLocalListVersionFeatureName }

type GetLocalListVersionResponse struct {
	ListVersion int `json:"listVersion"`
}

func (c GetLocalListVersionResponse) GetFeatureName() string { return GetLocalListVersionFeatureName }

func NewGetLocalListVersionResponse(listVersion int) *GetLocalListVersionResponse {
	return &GetLocalListVersionResponse{ListVersion: listVersion}
}

type getLocalListVersionFeature struct{}

func (getLocalListVersionFeature) GetFeatureName() string { return GetLocalListVersionFeatureName }
func (getLocalListVersionFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(GetLocalListVersionRequest{})
}
func (getLocalListVersionFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(GetLocalListVersionResponse{})
}

func init() { ocpp.Supported.Register(getLocalListVersionFeature{}) }
