package core

import (
	"reflect"

	"chargepoint/ocpp"
)

const ChangeAvailabilityFeatureName = "ChangeAvailability"

type AvailabilityType string

const (
	AvailabilityTypeInoperative AvailabilityType = "Inoperative"
	AvailabilityTypeOperative   AvailabilityType = "Operative"
)

// ChangeAvailabilityRequest.connectorId 0 addresses the whole charge
// point rather than a single connector, per OCPP 1.6J part 3.
type ChangeAvailabilityRequest struct {
	ConnectorId int              `json:"connectorId" validate:"gte=0"`
	Type        AvailabilityType `json:"type" validate:"required,oneof=Inoperative Operative"`
}

func (r ChangeAvailabilityRequest) GetFeatureName() string { return ChangeAvailabilityFeatureName }

type AvailabilityStatus string

const (
	AvailabilityStatusAccepted  AvailabilityStatus = "Accepted"
	AvailabilityStatusRejected  AvailabilityStatus = "Rejected"
	AvailabilityStatusScheduled AvailabilityStatus = "Scheduled"
)

type ChangeAvailabilityResponse struct {
	Status AvailabilityStatus `json:"status" validate:"required,oneof=Accepted Rejected Scheduled"`
}

func (c ChangeAvailabilityResponse) GetFeatureName() string { return ChangeAvailabilityFeatureName }

func NewChangeAvailabilityResponse(status AvailabilityStatus) *ChangeAvailabilityResponse {
	return &ChangeAvailabilityResponse{Status: status}
}

type changeAvailabilityFeature struct{}

func (changeAvailabilityFeature) GetFeatureName() string { return ChangeAvailabilityFeatureName }
func (changeAvailabilityFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(ChangeAvailabilityRequest{})
}
func (changeAvailabilityFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ChangeAvailabilityResponse{})
}

func init() { ocpp.Supported.Register(changeAvailabilityFeature{}) }
