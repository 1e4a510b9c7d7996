package reservation

import (
	"reflect"

	"chargepoint/ocpp"
)

const CancelReservationFeatureName = "CancelReservation"

type CancelReservationRequest struct {
	ReservationId int `json:"reservationId"`
}

func (r CancelReservationRequest) GetFeatureName() string { return CancelReservationFeatureName }

type CancelReservationStatus string

const (
	CancelReservationStatusAccepted CancelReservationStatus = "Accepted"
	CancelReservationStatusRejected CancelReservationStatus = "Rejected"
)

type CancelReservationResponse struct {
	Status CancelReservationStatus `json:"status" validate:"required,oneof=Accepted Rejected"`
}

func (c CancelReservationResponse) GetFeatureName() string { return CancelReservationFeatureName }

func NewCancelReservationResponse(status CancelReservationStatus) *CancelReservationResponse {
	return &CancelReservationResponse{Status: status}
}

type cancelReservationFeature struct{}

func (cancelReservationFeature) GetFeatureName() string { return CancelReservationFeatureName }
func (cancelReservationFeature) GetRequestType() reflect.Type {
	return reflect.TypeOf(CancelReservationRequest{})
}
func (cancelReservationFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(CancelReservationResponse{})
}

func init() { ocpp.Supported.Register(cancelReservationFeature{}) }
