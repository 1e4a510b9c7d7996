// Handler bodies for the Smart Charging Profile actions, delegating
// validation, storage and composite-schedule math to the profiles
// package per spec.md section 4.5.
package dispatcher

import (
	"context"
	"time"

	"chargepoint/ocpp"
	"chargepoint/ocpp/smartcharging"
	"chargepoint/ocpp/types"
	"chargepoint/profiles"
)

func (d *Dispatcher) handleSetChargingProfile(ctx context.Context, req *smartcharging.SetChargingProfileRequest) (*smartcharging.SetChargingProfileResponse, *ocpp.CallError) {
	if req.ConnectorId != 0 {
		if _, ok := d.connectors[req.ConnectorId]; !ok {
			return smartcharging.NewSetChargingProfileResponse(smartcharging.ChargingProfileStatusRejected), nil
		}
	}

	var active *profiles.ActiveTransaction
	if a, ok := d.tx.Active(req.ConnectorId); ok {
		if txId, hasTxId := a.TransactionId(); hasTxId {
			active = &profiles.ActiveTransaction{ConnectorId: req.ConnectorId, TransactionId: txId}
		}
	}

	if err := d.profiles.Validate(*req.ChargingProfile, req.ConnectorId, false, active); err != nil {
		d.log.Warn("rejecting charging profile: " + err.Error())
		return smartcharging.NewSetChargingProfileResponse(smartcharging.ChargingProfileStatusRejected), nil
	}
	d.profiles.Set(*req.ChargingProfile, req.ConnectorId)
	if d.callbacks.SignalSetChargingProfiles != nil {
		d.callbacks.SignalSetChargingProfiles()
	}
	return smartcharging.NewSetChargingProfileResponse(smartcharging.ChargingProfileStatusAccepted), nil
}

func (d *Dispatcher) handleGetCompositeSchedule(ctx context.Context, req *smartcharging.GetCompositeScheduleRequest) (*smartcharging.GetCompositeScheduleResponse, *ocpp.CallError) {
	if req.ConnectorId != 0 {
		if _, ok := d.connectors[req.ConnectorId]; !ok {
			return smartcharging.NewGetCompositeScheduleResponse(smartcharging.GetCompositeScheduleStatusRejected), nil
		}
	}
	unit := req.ChargingRateUnit
	if unit == "" {
		unit = types.ChargingRateUnitWatts
	}
	start := time.Now()
	end := start.Add(time.Duration(req.Duration) * time.Second)
	schedule := d.profiles.CompositeSchedule(req.ConnectorId, start, end, unit)

	resp := smartcharging.NewGetCompositeScheduleResponse(smartcharging.GetCompositeScheduleStatusAccepted)
	connectorId := req.ConnectorId
	resp.ConnectorId = &connectorId
	resp.ScheduleStart = schedule.StartSchedule
	resp.ChargingSchedule = &schedule
	return resp, nil
}

func (d *Dispatcher) handleClearChargingProfile(ctx context.Context, req *smartcharging.ClearChargingProfileRequest) (*smartcharging.ClearChargingProfileResponse, *ocpp.CallError) {
	criteria := profiles.ClearCriteria{
		Id:          req.Id,
		ConnectorId: req.ConnectorId,
		Purpose:     req.ChargingProfilePurpose,
		StackLevel:  req.StackLevel,
	}
	if d.profiles.Clear(criteria) == 0 {
		return smartcharging.NewClearChargingProfileResponse(smartcharging.ClearChargingProfileStatusUnknown), nil
	}
	return smartcharging.NewClearChargingProfileResponse(smartcharging.ClearChargingProfileStatusAccepted), nil
}
