// Handler bodies for the Remote Trigger Profile and its Security
// Whitepaper extension. Both ask the charge point to resend a status
// message outside its normal schedule; this package can only honor
// the targets it owns a resend path for (boot, heartbeat, the
// per-connector status) and answers NotImplemented for the rest.
package dispatcher

import (
	"context"

	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/remotetrigger"
	"chargepoint/ocpp/security"
)

func (d *Dispatcher) handleTriggerMessage(ctx context.Context, req *remotetrigger.TriggerMessageRequest) (*remotetrigger.TriggerMessageResponse, *ocpp.CallError) {
	switch req.RequestedMessage {
	case remotetrigger.MessageTriggerBootNotification:
		go d.boot.TriggerBootNotification(ctx)
		return remotetrigger.NewTriggerMessageResponse(remotetrigger.TriggerMessageStatusAccepted), nil
	case remotetrigger.MessageTriggerHeartbeat:
		d.q.EnqueueCall(core.NewHeartbeatRequest(), false)
		return remotetrigger.NewTriggerMessageResponse(remotetrigger.TriggerMessageStatusAccepted), nil
	case remotetrigger.MessageTriggerStatusNotification:
		if !d.triggerStatusNotification(req.ConnectorId) {
			return remotetrigger.NewTriggerMessageResponse(remotetrigger.TriggerMessageStatusRejected), nil
		}
		return remotetrigger.NewTriggerMessageResponse(remotetrigger.TriggerMessageStatusAccepted), nil
	default:
		return remotetrigger.NewTriggerMessageResponse(remotetrigger.TriggerMessageStatusNotImplemented), nil
	}
}

func (d *Dispatcher) triggerStatusNotification(connectorId *int) bool {
	if connectorId == nil {
		for _, c := range d.connectors {
			c.TriggerNotify()
		}
		return true
	}
	c, ok := d.connectors[*connectorId]
	if !ok {
		return false
	}
	c.TriggerNotify()
	return true
}

func (d *Dispatcher) handleExtendedTriggerMessage(ctx context.Context, req *security.ExtendedTriggerMessageRequest) (*security.ExtendedTriggerMessageResponse, *ocpp.CallError) {
	switch req.RequestedMessage {
	case security.MessageTriggerExtBootNotification:
		go d.boot.TriggerBootNotification(ctx)
		return security.NewExtendedTriggerMessageResponse(security.TriggerMessageStatusAccepted), nil
	case security.MessageTriggerExtHeartbeat:
		d.q.EnqueueCall(core.NewHeartbeatRequest(), false)
		return security.NewExtendedTriggerMessageResponse(security.TriggerMessageStatusAccepted), nil
	case security.MessageTriggerExtStatusNotification:
		if !d.triggerStatusNotification(req.ConnectorId) {
			return security.NewExtendedTriggerMessageResponse(security.TriggerMessageStatusRejected), nil
		}
		return security.NewExtendedTriggerMessageResponse(security.TriggerMessageStatusAccepted), nil
	default:
		return security.NewExtendedTriggerMessageResponse(security.TriggerMessageStatusNotImplemented), nil
	}
}
