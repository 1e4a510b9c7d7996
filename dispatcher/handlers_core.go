// Handler bodies for the OCPP 1.6J Core Profile actions the Central
// System initiates against the charge point. Grounded on spec.md
// section 4.6's per-action rules plus the teacher's handlers.SystemHandler
// method shapes (handlers/handler.go), one exported method per action
// instead of one interface per message.
package dispatcher

import (
	"context"
	"fmt"
	"time"

	"chargepoint/connector"
	"chargepoint/internal/store"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/types"
)

// stopTransactionWait bounds how long Reset/UnlockConnector wait for
// the Transaction Manager to drop the active transactions on the
// affected connectors before proceeding anyway. A transaction is
// dropped as soon as its StopTransaction is queued; the wait does not
// cover the StopTransactionResponse.
const stopTransactionWait = 5 * time.Second

func (d *Dispatcher) handleChangeAvailability(ctx context.Context, req *core.ChangeAvailabilityRequest) (*core.ChangeAvailabilityResponse, *ocpp.CallError) {
	if req.ConnectorId != 0 {
		status := d.applyAvailability(ctx, req.ConnectorId, req.Type)
		return core.NewChangeAvailabilityResponse(status), nil
	}

	scheduled := false
	for id := range d.connectors {
		if id == 0 {
			continue
		}
		if d.applyAvailability(ctx, id, req.Type) == core.AvailabilityStatusScheduled {
			scheduled = true
		}
	}
	if scheduled {
		return core.NewChangeAvailabilityResponse(core.AvailabilityStatusScheduled), nil
	}
	return core.NewChangeAvailabilityResponse(core.AvailabilityStatusAccepted), nil
}

// applyAvailability changes a single connector's availability,
// deferring the change to changeAvailabilityQueue when a transaction
// is active on it, per spec.md section 4.6.
func (d *Dispatcher) applyAvailability(ctx context.Context, connectorId int, avType core.AvailabilityType) core.AvailabilityStatus {
	c, ok := d.connectors[connectorId]
	if !ok {
		return core.AvailabilityStatusRejected
	}
	if _, active := d.tx.Active(connectorId); active {
		d.mu.Lock()
		d.changeAvailabilityQueue[connectorId] = avType
		d.mu.Unlock()
		return core.AvailabilityStatusScheduled
	}

	_ = d.repo.UpsertConnectorAvailability(ctx, store.ConnectorAvailability{
		ConnectorId: connectorId, Operative: avType == core.AvailabilityTypeOperative,
	})
	if avType == core.AvailabilityTypeOperative {
		if d.callbacks.EnableEvse != nil {
			d.callbacks.EnableEvse(connectorId)
		}
		c.Apply(connector.BecomeAvailable, core.ErrorNoError)
	} else {
		if d.callbacks.DisableEvse != nil {
			d.callbacks.DisableEvse(connectorId)
		}
		c.Apply(connector.ChangeAvailabilityToUnavailable, core.ErrorNoError)
	}
	return core.AvailabilityStatusAccepted
}

func (d *Dispatcher) handleChangeConfiguration(ctx context.Context, req *core.ChangeConfigurationRequest) (*core.ChangeConfigurationResponse, *ocpp.CallError) {
	status := d.cfg.Set(req.Key, req.Value)
	if status == core.ConfigurationStatusAccepted {
		switch req.Key {
		case KeyConnectionTimeout:
			if d.callbacks.SetConnectionTimeout != nil {
				var seconds int
				if _, err := fmt.Sscanf(req.Value, "%d", &seconds); err == nil {
					d.callbacks.SetConnectionTimeout(seconds)
				}
			}
		case KeyHeartbeatInterval:
			var seconds int
			if _, err := fmt.Sscanf(req.Value, "%d", &seconds); err == nil {
				interval := time.Duration(seconds) * time.Second
				d.SetHeartbeatInterval(interval)
				if d.heartbeatRestart != nil {
					d.heartbeatRestart(interval)
				}
			}
		case KeyMeterValueSampleInterval:
			var seconds int
			if _, err := fmt.Sscanf(req.Value, "%d", &seconds); err == nil {
				d.tx.SetSampleInterval(time.Duration(seconds) * time.Second)
			}
		case KeyClockAlignedDataInterval:
			var seconds int
			if _, err := fmt.Sscanf(req.Value, "%d", &seconds); err == nil {
				d.tx.SetClockAlignedInterval(ctx, time.Duration(seconds)*time.Second)
			}
		case KeyTransactionMessageAttempts, KeyTransactionMessageRetryInterval:
			d.applyRetryPolicy()
		}
	}
	return core.NewChangeConfigurationResponse(status), nil
}

// applyRetryPolicy re-reads both transactional-queue retry keys and
// pushes the combined policy to the message queue, since queue.SetRetryPolicy
// takes attempts and interval together.
func (d *Dispatcher) applyRetryPolicy() {
	attempts := 0
	if e, ok := d.cfg.Get(KeyTransactionMessageAttempts); ok {
		fmt.Sscanf(e.Value, "%d", &attempts)
	}
	var seconds int
	if e, ok := d.cfg.Get(KeyTransactionMessageRetryInterval); ok {
		fmt.Sscanf(e.Value, "%d", &seconds)
	}
	d.q.SetRetryPolicy(attempts, time.Duration(seconds)*time.Second)
}

func (d *Dispatcher) handleClearCache(ctx context.Context, req *core.ClearCacheRequest) (*core.ClearCacheResponse, *ocpp.CallError) {
	if err := d.repo.ClearAuthCache(ctx); err != nil {
		return core.NewClearCacheResponse(core.ClearCacheStatusRejected), nil
	}
	return core.NewClearCacheResponse(core.ClearCacheStatusAccepted), nil
}

func (d *Dispatcher) handleDataTransfer(ctx context.Context, req *core.DataTransferRequest) (*core.DataTransferResponse, *ocpp.CallError) {
	d.mu.Lock()
	handler, ok := d.dataTransferCallbacks[dataTransferKey(req.VendorId, req.MessageId)]
	d.mu.Unlock()
	if !ok {
		return core.NewDataTransferResponse(core.DataTransferStatusUnknownVendorId), nil
	}
	return handler(ctx, req), nil
}

func (d *Dispatcher) handleGetConfiguration(ctx context.Context, req *core.GetConfigurationRequest) (*core.GetConfigurationResponse, *ocpp.CallError) {
	if len(req.Key) == 0 {
		all := d.cfg.All()
		keys := make([]core.ConfigurationKey, 0, len(all))
		for k, e := range all {
			value := e.Value
			keys = append(keys, core.ConfigurationKey{Key: k, Readonly: e.Readonly, Value: &value})
		}
		return core.NewGetConfigurationResponse(keys, nil), nil
	}

	var keys []core.ConfigurationKey
	var unknown []string
	for _, k := range req.Key {
		e, ok := d.cfg.Get(k)
		if !ok {
			unknown = append(unknown, k)
			continue
		}
		value := e.Value
		keys = append(keys, core.ConfigurationKey{Key: k, Readonly: e.Readonly, Value: &value})
	}
	return core.NewGetConfigurationResponse(keys, unknown), nil
}

func (d *Dispatcher) handleRemoteStartTransaction(ctx context.Context, req *core.RemoteStartTransactionRequest) (*core.RemoteStartTransactionResponse, *ocpp.CallError) {
	connectorId := 0
	if req.ConnectorId != nil {
		connectorId = *req.ConnectorId
		c, ok := d.connectors[connectorId]
		if !ok || c.State() != connector.Available {
			return core.NewRemoteStartTransactionResponse(types.RemoteStartStopStatusRejected), nil
		}
	}

	if req.ChargingProfile != nil {
		target := connectorId
		if target == 0 {
			return core.NewRemoteStartTransactionResponse(types.RemoteStartStopStatusRejected), nil
		}
		if err := d.profiles.Validate(*req.ChargingProfile, target, true, nil); err != nil {
			return core.NewRemoteStartTransactionResponse(types.RemoteStartStopStatusRejected), nil
		}
		d.profiles.Set(*req.ChargingProfile, target)
	}

	if d.callbacks.ProvideToken == nil {
		return core.NewRemoteStartTransactionResponse(types.RemoteStartStopStatusRejected), nil
	}
	connectorIds := []int{connectorId}
	if connectorId == 0 {
		connectorIds = d.availableConnectorIds()
	}
	prevalidated := true
	if e, ok := d.cfg.Get(KeyAuthorizeRemoteTxRequests); ok {
		prevalidated = e.Value != "true"
	}
	d.callbacks.ProvideToken(req.IdTag, connectorIds, prevalidated)
	return core.NewRemoteStartTransactionResponse(types.RemoteStartStopStatusAccepted), nil
}

func (d *Dispatcher) availableConnectorIds() []int {
	var ids []int
	for id, c := range d.connectors {
		if id != 0 && c.State() == connector.Available {
			ids = append(ids, id)
		}
	}
	return ids
}

func (d *Dispatcher) handleRemoteStopTransaction(ctx context.Context, req *core.RemoteStopTransactionRequest) (*core.RemoteStopTransactionResponse, *ocpp.CallError) {
	for id := range d.connectors {
		if id == 0 {
			continue
		}
		active, ok := d.tx.Active(id)
		if !ok {
			continue
		}
		txId, hasTxId := active.TransactionId()
		if !hasTxId || txId != req.TransactionId {
			continue
		}
		if d.callbacks.StopTransactionCallback == nil || !d.callbacks.StopTransactionCallback(id, core.ReasonRemote) {
			return core.NewRemoteStopTransactionResponse(types.RemoteStartStopStatusRejected), nil
		}
		return core.NewRemoteStopTransactionResponse(types.RemoteStartStopStatusAccepted), nil
	}
	return core.NewRemoteStopTransactionResponse(types.RemoteStartStopStatusRejected), nil
}

// handleReset stops every active transaction with the reset's own
// reason before invoking ResetCallback, per spec.md section 4.6: the
// charge point does not simply drop sessions on the floor when asked
// to restart.
func (d *Dispatcher) handleReset(ctx context.Context, req *core.ResetRequest) (*core.ResetResponse, *ocpp.CallError) {
	if d.callbacks.IsResetAllowed != nil && !d.callbacks.IsResetAllowed(req.Type) {
		return core.NewResetResponse(core.ResetStatusRejected), nil
	}

	reason := core.ReasonHardReset
	if req.Type == core.ResetTypeSoft {
		reason = core.ReasonSoftReset
	}

	go func() {
		d.stopActiveTransactions(reason)
		if d.callbacks.ResetCallback != nil {
			d.callbacks.ResetCallback(req.Type)
		}
	}()
	return core.NewResetResponse(core.ResetStatusAccepted), nil
}

// handleUnlockConnector stops an active transaction on the connector
// with reason UnlockCommand before unlocking it, per spec.md section
// 4.4's reason-mapping table.
func (d *Dispatcher) handleUnlockConnector(ctx context.Context, req *core.UnlockConnectorRequest) (*core.UnlockConnectorResponse, *ocpp.CallError) {
	if _, ok := d.connectors[req.ConnectorId]; !ok {
		return core.NewUnlockConnectorResponse(core.UnlockStatusNotSupported), nil
	}
	if d.callbacks.UnlockConnectorCallback == nil {
		return core.NewUnlockConnectorResponse(core.UnlockStatusNotSupported), nil
	}

	if _, active := d.tx.Active(req.ConnectorId); active {
		d.stopTransactionsOn([]int{req.ConnectorId}, core.ReasonUnlockCommand)
	}

	if d.callbacks.UnlockConnectorCallback(req.ConnectorId) {
		return core.NewUnlockConnectorResponse(core.UnlockStatusUnlocked), nil
	}
	return core.NewUnlockConnectorResponse(core.UnlockStatusUnlockFailed), nil
}

// stopActiveTransactions collects every connector with an in-flight
// transaction and stops it with reason.
func (d *Dispatcher) stopActiveTransactions(reason core.Reason) {
	var ids []int
	for id := range d.connectors {
		if id == 0 {
			continue
		}
		if _, active := d.tx.Active(id); active {
			ids = append(ids, id)
		}
	}
	d.stopTransactionsOn(ids, reason)
}

// stopTransactionsOn fires StopTransactionCallback for each connector
// then waits up to stopTransactionWait for the Transaction Manager to
// clear them, that is until each StopTransaction has been queued; it
// does not wait for the StopTransactionResponses.
func (d *Dispatcher) stopTransactionsOn(ids []int, reason core.Reason) {
	if len(ids) == 0 {
		return
	}
	if d.callbacks.StopTransactionCallback != nil {
		for _, id := range ids {
			d.callbacks.StopTransactionCallback(id, reason)
		}
	}
	d.awaitTransactionsCleared(ids)
}

func (d *Dispatcher) awaitTransactionsCleared(ids []int) {
	deadline := time.After(stopTransactionWait)
	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-deadline:
			return
		case <-ticker.C:
			cleared := true
			for _, id := range ids {
				if _, active := d.tx.Active(id); active {
					cleared = false
					break
				}
			}
			if cleared {
				return
			}
		}
	}
}
