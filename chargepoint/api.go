package chargepoint

import (
	"context"
	"fmt"
	"sort"
	"time"

	"chargepoint/connector"
	"chargepoint/dispatcher"
	"chargepoint/metrics/counters"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/firmware"
	"chargepoint/ocpp/security"
	"chargepoint/ocpp/types"
)

// OnSessionStarted records that a vehicle has been plugged in, moving
// the connector's state machine out of Available. It does not by
// itself start a Transaction: a Transaction needs an idTag and a
// meterStart reading that neither this call nor the loose
// "created on session_started" phrasing in the data model actually
// carries, so creation is deferred to OnTransactionStarted, called
// once authorization has cleared and a meter reading is in hand. This
// mirrors the distinction the teacher's own handlers draw between
// StartTransaction (wire message, carries idTag+meterStart) and the
// physical act of a cable being connected.
func (cp *ChargePoint) OnSessionStarted(connectorId int, sessionId string, reason string) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.UsageInitiated, core.ErrorNoError)
	}
}

// OnSessionStopped returns the connector toward Finishing once the
// cable is disconnected or the session otherwise ends at the physical
// layer, independent of whether a Transaction was ever started.
func (cp *ChargePoint) OnSessionStopped(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.TransactionStoppedAndUserActionRequired, core.ErrorNoError)
	}
}

// OnTransactionStarted is the actual trigger for StartTransaction: the
// host calls it once an idTag has cleared authorization (see
// AuthorizeIdToken) and a meterStart reading has been captured.
func (cp *ChargePoint) OnTransactionStarted(ctx context.Context, connectorId int, idTag string, meterStart int, reservationId *int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.StartCharging, core.ErrorNoError)
	}
	cp.tx.Start(ctx, connectorId, idTag, meterStart, reservationId)
	counters.CountTransaction(fmt.Sprintf("%d", connectorId))
}

// OnTransactionStopped is the actual trigger for StopTransaction.
func (cp *ChargePoint) OnTransactionStopped(ctx context.Context, connectorId int, meterStop int, reason core.Reason) {
	cp.tx.Stop(ctx, connectorId, meterStop, reason)
}

// OnMeterValues is the push side of the Transaction Manager's pull
// sampling: the host calls this whenever a fresh power meter reading
// is available, and the cached value is what sampleConnector hands
// the sampler on its next tick.
func (cp *ChargePoint) OnMeterValues(connectorId int, sample types.PowerMeterSample) {
	cp.mu.Lock()
	cp.latestPower[connectorId] = sample
	cp.mu.Unlock()
}

// OnMaxCurrentOffered records the EVSE's present current offer. It is
// purely informational in this runtime: nothing downstream currently
// consumes it, so there is nothing to update.
func (cp *ChargePoint) OnMaxCurrentOffered(connectorId int, amps float64) {}

// OnError reports a fault condition on a connector. The connector FSM
// transitions to Faulted and the resulting StatusNotification carries
// code instead of NoError.
func (cp *ChargePoint) OnError(connectorId int, code core.ChargePointErrorCode) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.FaultDetected, code)
	}
}

// OnErrorCleared returns a previously faulted connector to Available.
func (cp *ChargePoint) OnErrorCleared(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.ReturnToAvailable, core.ErrorNoError)
	}
}

// OnSuspendChargingEV reports the connector moved to SuspendedEV (the
// EV itself stopped drawing current, e.g. on its own charge curve).
func (cp *ChargePoint) OnSuspendChargingEV(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.PauseChargingEV, core.ErrorNoError)
	}
}

// OnSuspendChargingEVSE reports the connector moved to SuspendedEVSE
// (the EVSE withheld current, e.g. a smart-charging limit of zero).
func (cp *ChargePoint) OnSuspendChargingEVSE(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.PauseChargingEVSE, core.ErrorNoError)
	}
}

// OnResumeCharging reports current is flowing again after a
// suspension.
func (cp *ChargePoint) OnResumeCharging(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.StartCharging, core.ErrorNoError)
	}
}

// OnReservationStart marks a connector Reserved outside of a
// ReserveNow Call, e.g. a reservation configured locally at the
// charge point.
func (cp *ChargePoint) OnReservationStart(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.ReserveConnector, core.ErrorNoError)
	}
}

// OnReservationEnd releases a reservation back to Available.
func (cp *ChargePoint) OnReservationEnd(connectorId int) {
	if c, ok := cp.connectors[connectorId]; ok {
		c.Apply(connector.ReservationEnded, core.ErrorNoError)
	}
}

// OnLogStatusNotification reports progress of a GetLog upload,
// correlated to the GetLog Call's requestId.
func (cp *ChargePoint) OnLogStatusNotification(requestId int, status security.UploadLogStatus) {
	req := security.NewLogStatusNotificationRequest(status, requestId)
	_, _ = cp.q.EnqueueCall(req, false)
}

// OnFirmwareUpdateStatusNotification reports progress of a firmware
// update. requestId correlates the notification to the
// SignedUpdateFirmware Call that triggered it in the host's own
// bookkeeping; the wire message sent is the reqId-less
// FirmwareStatusNotification, since no signed variant carrying a
// requestId is implemented in this profile set (see DESIGN.md).
func (cp *ChargePoint) OnFirmwareUpdateStatusNotification(requestId int, status firmware.Status) {
	req := firmware.NewStatusNotificationRequest(status)
	_, _ = cp.q.EnqueueCall(req, false)
}

// OnDiagnosticsStatusNotification reports progress of a
// GetDiagnostics upload.
func (cp *ChargePoint) OnDiagnosticsStatusNotification(status firmware.DiagnosticsStatus) {
	req := firmware.NewDiagnosticsStatusNotificationRequest(status)
	_, _ = cp.q.EnqueueCall(req, false)
}

// OnSecurityEvent reports a security-relevant event, matching the
// outbound SecurityEventNotification a security event must raise.
func (cp *ChargePoint) OnSecurityEvent(eventType security.SecurityEventType) {
	req := security.NewSecurityEventNotificationRequest(eventType, types.NewDateTime(time.Now()))
	_, _ = cp.q.EnqueueCall(req, false)
	cp.alerts.SecurityEvent(eventType, "")
}

// AuthorizeIdToken resolves an idTag through the local list, the
// authorization cache, and finally an online Authorize Call, in that
// precedence order. The transport's current link state gates whether
// the offline policy flags apply.
func (cp *ChargePoint) AuthorizeIdToken(ctx context.Context, idTag string) *types.IdTagInfo {
	connected := cp.boot.AllowedToSend(core.AuthorizeFeatureName)
	localPreAuthorize := cp.configBool(dispatcher.KeyLocalPreAuthorize)
	localAuthorizeOffline := cp.configBool(dispatcher.KeyLocalAuthorizeOffline)
	allowOfflineTxForUnknownId := cp.configBool(dispatcher.KeyAllowOfflineTxForUnknownId)
	return cp.dispatch.AuthorizeIdToken(ctx, idTag, connected, localPreAuthorize, localAuthorizeOffline, allowOfflineTxForUnknownId)
}

// DataTransfer originates a vendor-specific DataTransfer Call, the
// one Core Profile message a charge point can send unprompted for a
// purpose the teacher's own Central-System-only role never required.
func (cp *ChargePoint) DataTransfer(ctx context.Context, vendorId, messageId string, data interface{}) (*core.DataTransferResponse, error) {
	req := core.NewDataTransferRequest(vendorId)
	req.MessageId = messageId
	req.Data = data
	_, await := cp.q.EnqueueCall(req, false)
	msg := <-await
	if msg.Offline {
		return nil, fmt.Errorf("data transfer: charge point is offline")
	}
	if msg.Err != nil {
		return nil, fmt.Errorf("data transfer rejected: %s: %s", msg.Err.ErrorCode, msg.Err.ErrorDescription)
	}
	resp, _ := msg.Response.(*core.DataTransferResponse)
	return resp, nil
}

// GetAllCompositeChargingSchedules returns the effective composite
// schedule for every connector over the next durationSec, combining
// the three profile stacks.
func (cp *ChargePoint) GetAllCompositeChargingSchedules(durationSec int) map[int]types.ChargingSchedule {
	out := make(map[int]types.ChargingSchedule)
	now := time.Now()
	end := now.Add(time.Duration(durationSec) * time.Second)
	for id := range cp.connectors {
		out[id] = cp.profiles.CompositeSchedule(id, now, end, types.ChargingRateUnitWatts)
	}
	return out
}

// ConnectorState exposes the current connector state for diagnostics
// surfaces such as the status API handler.
func (cp *ChargePoint) ConnectorState(id int) (connector.State, bool) {
	c, ok := cp.connectors[id]
	if !ok {
		return "", false
	}
	return c.State(), true
}

// ConnectorIds lists every connector id the runtime was configured
// with, including the aggregate connector 0, for diagnostics surfaces
// that enumerate connector state without reaching into internals.
func (cp *ChargePoint) ConnectorIds() []int {
	ids := make([]int, 0, len(cp.connectors))
	for id := range cp.connectors {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
