// Package reservation implements the OCPP 1.6J Reservation Profile:
// ReserveNow and CancelReservation, letting the Central System hold a
// connector for a specific idTag ahead of time.
package reservation

import (
	"reflect"

	"chargepoint/ocpp"
	"chargepoint/ocpp/types"
)

const ReserveNowFeatureName = "ReserveNow"

type ReserveNowRequest struct {
	ConnectorId   int             `json:"connectorId" validate:"gte=0"`
	ExpiryDate    *types.DateTime `json:"expiryDate" validate:"required"`
	IdTag         string          `json:"idTag" validate:"required,max=20"`
	ParentIdTag   string          `json:"parentIdTag,omitempty" validate:"omitempty,max=20"`
	ReservationId int             `json:"reservationId"`
}

func (r ReserveNowRequest) GetFeatureName() string { return ReserveNowFeatureName }

type ReservationStatus string

const (
	ReservationStatusAccepted    ReservationStatus = "Accepted"
	ReservationStatusFaulted     ReservationStatus = "Faulted"
	ReservationStatusOccupied    ReservationStatus = "Occupied"
	ReservationStatusRejected    ReservationStatus = "Rejected"
	ReservationStatusUnavailable ReservationStatus = "Unavailable"
)

type ReserveNowResponse struct {
	Status ReservationStatus `json:"status" validate:"required,oneof=Accepted Faulted Occupied Rejected Unavailable"`
}

func (c ReserveNowResponse) GetFeatureName() string { return ReserveNowFeatureName }

func NewReserveNowResponse(status ReservationStatus) *ReserveNowResponse {
	return &ReserveNowResponse{Status: status}
}

type reserveNowFeature struct{}

func (reserveNowFeature) GetFeatureName() string       { return ReserveNowFeatureName }
func (reserveNowFeature) GetRequestType() reflect.Type { return reflect.TypeOf(ReserveNowRequest{}) }
func (reserveNowFeature) GetResponseType() reflect.Type {
	return reflect.TypeOf(ReserveNowResponse{})
}

func init() { ocpp.Supported.Register(reserveNowFeature{}) }
