package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const ResetFeatureName = "Reset"

type ResetType string

const (
	ResetTypeHard ResetType = "Hard"
	ResetTypeSoft ResetType = "Soft"
)

type ResetRequest struct {
	Type ResetType `json:"type" validate:"required,oneof=Hard Soft"`
}

func (r ResetRequest) GetFeatureName() string { return ResetFeatureName }

func NewResetRequest(resetType ResetType) *ResetRequest {
	return &ResetRequest{Type: resetType}
}

type ResetStatus string

const (
	ResetStatusAccepted ResetStatus = "Accepted"
	ResetStatusRejected ResetStatus = "Rejected"
)

type ResetResponse struct {
	Status ResetStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
}

func (c ResetResponse) GetFeatureName() string { return ResetFeatureName }

func NewResetResponse(status ResetStatus) *ResetResponse {
	return &ResetResponse{Status: status}
}

type resetFeature struct{}

func (resetFeature) GetFeatureName() string       { return ResetFeatureName }
func (resetFeature) GetRequestType() reflect.Type { return reflect.TypeOf(ResetRequest{}) }
func (resetFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ResetResponse{})
}

func init() { ocpp.Supported.Register(resetFeature{}) }
