// Handler bodies for the OCPP 1.6J Reservation Profile. Both actions
// short-circuit to the plain Rejected/connector-scoped status unless
// the host has opted in via EnableReservationProfile, per spec.md
// section 4.6's optional feature-profile gating.
package dispatcher

import (
	"context"

	"chargepoint/connector"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/reservation"
)

func (d *Dispatcher) handleReserveNow(ctx context.Context, req *reservation.ReserveNowRequest) (*reservation.ReserveNowResponse, *ocpp.CallError) {
	if !d.reservationProfile {
		return reservation.NewReserveNowResponse(reservation.ReservationStatusRejected), nil
	}
	c, ok := d.connectors[req.ConnectorId]
	if !ok {
		return reservation.NewReserveNowResponse(reservation.ReservationStatusRejected), nil
	}
	switch c.State() {
	case connector.Faulted:
		return reservation.NewReserveNowResponse(reservation.ReservationStatusFaulted), nil
	case connector.Unavailable:
		return reservation.NewReserveNowResponse(reservation.ReservationStatusUnavailable), nil
	case connector.Available:
	default:
		return reservation.NewReserveNowResponse(reservation.ReservationStatusOccupied), nil
	}

	if d.callbacks.ReserveNowCallback != nil {
		status := d.callbacks.ReserveNowCallback(ctx, req.ConnectorId, req.ReservationId, req.IdTag, req.ExpiryDate.Time)
		if status != "" {
			return reservation.NewReserveNowResponse(reservation.ReservationStatus(status)), nil
		}
	}
	c.Apply(connector.ReserveConnector, core.ErrorNoError)
	return reservation.NewReserveNowResponse(reservation.ReservationStatusAccepted), nil
}

func (d *Dispatcher) handleCancelReservation(ctx context.Context, req *reservation.CancelReservationRequest) (*reservation.CancelReservationResponse, *ocpp.CallError) {
	if !d.reservationProfile {
		return reservation.NewCancelReservationResponse(reservation.CancelReservationStatusRejected), nil
	}
	if d.callbacks.CancelReservationCallback == nil || !d.callbacks.CancelReservationCallback(req.ReservationId) {
		return reservation.NewCancelReservationResponse(reservation.CancelReservationStatusRejected), nil
	}
	for _, c := range d.connectors {
		if c.State() == connector.Reserved {
			c.Apply(connector.ReservationEnded, core.ErrorNoError)
		}
	}
	return reservation.NewCancelReservationResponse(reservation.CancelReservationStatusAccepted), nil
}
