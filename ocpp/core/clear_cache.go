package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const ClearCacheFeatureName = "ClearCache"

type ClearCacheRequest struct{}

func (r ClearCacheRequest) GetFeatureName() string { return ClearCacheFeatureName }

type ClearCacheStatus string

const (
	ClearCacheStatusAccepted ClearCacheStatus = "Accepted"
	ClearCacheStatusRejected ClearCacheStatus = "Rejected"
)

type ClearCacheResponse struct {
	Status ClearCacheStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
}

func (c ClearCacheResponse) GetFeatureName() string { return ClearCacheFeatureName }

func NewClearCacheResponse(status ClearCacheStatus) *ClearCacheResponse {
	return &ClearCacheResponse{Status: status}
}

type clearCacheFeature struct{}

func (clearCacheFeature) GetFeatureName() string       { return ClearCacheFeatureName }
func (clearCacheFeature) GetRequestType() reflect.Type { return reflect.TypeOf(ClearCacheRequest{}) }
func (clearCacheFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ClearCacheResponse{})
}

func init() { ocpp.Supported.Register(clearCacheFeature{}) }
