// Package dispatcher implements spec.md section 4.6: the single
// inbound entry point for OCPP-J frames, connection-state and
// allowed-to-send gating, the per-action handler table, and the
// idTag authorize flow. Grounded on the teacher's handlers.SystemHandler
// (handlers/handler.go) plus internal/handlers/message.go's
// frame-classify-then-route shape; generalized from "one interface
// method per inbound CS->CP call already answered elsewhere" into an
// actual router, since the teacher never had to route CS-initiated
// CALLs (it only ever decoded CALLs the CS itself received from a
// charge point).
package dispatcher

import (
	"context"
	"fmt"
	"sync"
	"time"

	"chargepoint/boot"
	"chargepoint/connector"
	"chargepoint/internal/logx"
	"chargepoint/internal/store"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/firmware"
	"chargepoint/ocpp/localauth"
	"chargepoint/ocpp/remotetrigger"
	"chargepoint/ocpp/reservation"
	"chargepoint/ocpp/security"
	"chargepoint/ocpp/smartcharging"
	"chargepoint/ocpp/types"
	"chargepoint/profiles"
	"chargepoint/queue"
	"chargepoint/transaction"
)

// ResultSender writes an outbound CALLRESULT/CALLERROR answering a
// CS-initiated CALL. transport.Transport satisfies this; tests use a
// fake.
type ResultSender interface {
	SendResult(ctx context.Context, result *ocpp.CallResult) error
	SendError(ctx context.Context, callErr *ocpp.CallError) error
}

// DataTransferHandler answers one registered (vendorId, messageId)
// DataTransfer pair.
type DataTransferHandler func(ctx context.Context, req *core.DataTransferRequest) *core.DataTransferResponse

// Callbacks are the consumer callbacks a host registers, per spec.md
// section 6. Any left nil degrade their handler to the safest
// rejection the OCPP status vocabulary allows.
type Callbacks struct {
	EnableEvse              func(connectorId int)
	DisableEvse              func(connectorId int)
	PauseCharging            func(connectorId int)
	ResumeCharging           func(connectorId int)
	ProvideToken             func(idTag string, connectorIds []int, prevalidated bool)
	StopTransactionCallback  func(connectorId int, reason core.Reason) bool
	ReserveNowCallback       func(ctx context.Context, connectorId, reservationId int, idTag string, expiry time.Time) string
	CancelReservationCallback func(reservationId int) bool
	UnlockConnectorCallback  func(connectorId int) bool
	SetMaxCurrent            func(connectorId int, amps float64)
	IsResetAllowed           func(resetType core.ResetType) bool
	ResetCallback            func(resetType core.ResetType)
	SetSystemTime            func(iso string)
	SignalSetChargingProfiles func()
	UploadDiagnostics        func(ctx context.Context, req *firmware.GetDiagnosticsRequest) string
	UpdateFirmwareCallback   func(ctx context.Context, req *firmware.UpdateFirmwareRequest)
	SignedUpdateFirmware     func(ctx context.Context, req *security.SignedUpdateFirmwareRequest) security.UpdateFirmwareStatus
	UploadLogs               func(ctx context.Context, req *security.GetLogRequest) (security.LogStatus, string)
	SetConnectionTimeout     func(seconds int)
	ConnectionStateChanged   func(connected bool)
}

// Dispatcher wires the Connector table, Boot machine, Transaction
// Manager and Smart-Charging Engine behind a single frame-handling
// surface.
type Dispatcher struct {
	connectors map[int]*connector.Connector
	boot       *boot.Machine
	tx         *transaction.Manager
	profiles   *profiles.Store
	q          *queue.Queue
	repo       store.Repository
	log        logx.Handler
	sender     ResultSender
	callbacks  Callbacks
	cfg        *ConfigStore

	mu                      sync.Mutex
	dataTransferCallbacks   map[string]DataTransferHandler
	changeAvailabilityQueue map[int]core.AvailabilityType
	reservationProfile      bool
	bootTime                time.Time
	heartbeatInterval       time.Duration
	heartbeatRestart        func(time.Duration)
}

func New(connectors map[int]*connector.Connector, bootMachine *boot.Machine, tx *transaction.Manager, profileStore *profiles.Store, q *queue.Queue, repo store.Repository, log logx.Handler, sender ResultSender, callbacks Callbacks, cfg *ConfigStore) *Dispatcher {
	return &Dispatcher{
		connectors:              connectors,
		boot:                    bootMachine,
		tx:                      tx,
		profiles:                profileStore,
		q:                       q,
		repo:                    repo,
		log:                     log,
		sender:                  sender,
		callbacks:               callbacks,
		cfg:                     cfg,
		dataTransferCallbacks:   make(map[string]DataTransferHandler),
		changeAvailabilityQueue: make(map[int]core.AvailabilityType),
	}
}

// EnableReservationProfile advertises the Reservation feature profile
// so ReserveNow/CancelReservation stop short-circuiting to Rejected.
func (d *Dispatcher) EnableReservationProfile() { d.reservationProfile = true }

// MarkBooted records the instant Booted was reached, so Rejected's
// retry deadline (bootTime + HeartbeatInterval) can be computed.
func (d *Dispatcher) MarkBooted(heartbeatInterval time.Duration) {
	d.bootTime = time.Now()
	d.heartbeatInterval = heartbeatInterval
}

// SetHeartbeatInterval updates the interval used by AllowedToSend's
// Rejected-state retry deadline, without disturbing bootTime. Called
// when a ChangeConfiguration of HeartbeatInterval is accepted.
func (d *Dispatcher) SetHeartbeatInterval(interval time.Duration) {
	d.heartbeatInterval = interval
}

// SetHeartbeatRestarter wires the host's ticker-restart hook so an
// accepted HeartbeatInterval ChangeConfiguration takes effect
// immediately instead of waiting for the next reboot.
func (d *Dispatcher) SetHeartbeatRestarter(fn func(time.Duration)) {
	d.heartbeatRestart = fn
}

// RegisterDataTransferHandler wires one (vendorId, messageId) pair to
// a handler, per spec.md section 6's custom DataTransfer callback map.
func (d *Dispatcher) RegisterDataTransferHandler(vendorId, messageId string, handler DataTransferHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.dataTransferCallbacks[dataTransferKey(vendorId, messageId)] = handler
}

func dataTransferKey(vendorId, messageId string) string { return vendorId + "|" + messageId }

// Handle is the single entry point for every inbound frame, called
// from the transport's FrameHandler callback.
func (d *Dispatcher) Handle(ctx context.Context, raw []byte) {
	frame, err := ocpp.ParseFrame(raw)
	if err != nil {
		d.log.Warn(fmt.Sprintf("dropping malformed frame: %v", err))
		return
	}
	switch frame.TypeId {
	case ocpp.CALL:
		d.handleCall(ctx, frame)
	case ocpp.CALLRESULT:
		d.handleCallResult(ctx, frame)
	case ocpp.CALLERROR:
		d.handleCallError(ctx, frame)
	}
}

func (d *Dispatcher) handleCallResult(ctx context.Context, frame *ocpp.Frame) {
	action, ok := d.q.PendingAction(frame.UniqueId)
	if !ok {
		d.log.Warn(fmt.Sprintf("CALLRESULT %s has no matching pending call", frame.UniqueId))
		return
	}
	resp, err := ocpp.DecodeResponse(action, frame.Payload)
	if err != nil {
		d.log.Error(fmt.Sprintf("failed to decode %sResponse", action), err)
		return
	}
	d.q.CompleteResponse(frame.UniqueId, resp, nil)
}

func (d *Dispatcher) handleCallError(ctx context.Context, frame *ocpp.Frame) {
	d.q.CompleteResponse(frame.UniqueId, nil, &ocpp.CallError{
		UniqueId: frame.UniqueId, ErrorCode: frame.ErrorCode, ErrorDescription: frame.ErrorDescription,
	})
}

func (d *Dispatcher) handleCall(ctx context.Context, frame *ocpp.Frame) {
	if !d.allowedToReceive(frame.Action) {
		d.replyError(ctx, frame.UniqueId, ocpp.NotSupported, fmt.Sprintf("%s is not accepted before registration completes", frame.Action))
		return
	}

	req, err := ocpp.DecodeRequest(frame.Action, frame.Payload)
	if err != nil {
		d.replyError(ctx, frame.UniqueId, ocpp.NotSupported, err.Error())
		return
	}

	resp, callErr := d.route(ctx, frame.Action, req)
	if callErr != nil {
		callErr.UniqueId = frame.UniqueId
		_ = d.sender.SendError(ctx, callErr)
		return
	}
	_ = d.sender.SendResult(ctx, &ocpp.CallResult{UniqueId: frame.UniqueId, Payload: resp})
}

func (d *Dispatcher) replyError(ctx context.Context, uniqueId string, code ocpp.ErrorCode, description string) {
	_ = d.sender.SendError(ctx, &ocpp.CallError{UniqueId: uniqueId, ErrorCode: code, ErrorDescription: description})
}

// allowedToReceive gates inbound CALL processing on registration
// state, per spec.md section 4.6 step 2. The Pending state's
// finer-grained per-message profile table collapses to "only
// BootNotification's own response path runs outside Booted" — every
// CS-initiated CALL waits for Booted, which is the conservative
// reading spec.md's Open Questions leave room for.
func (d *Dispatcher) allowedToReceive(action string) bool {
	return d.boot.State() == boot.Booted
}

// AllowedToSend reports whether action may leave the queue right now,
// per spec.md section 4.6's outbound gating: once a Rejected boot has
// passed bootTime+HeartbeatInterval only BootNotification is allowed;
// otherwise BootNotification and StopTransaction are allowed in every
// boot state but Disconnected, and everything else only when Booted.
func (d *Dispatcher) AllowedToSend(action string) bool {
	if d.boot.State() == boot.Rejected && !d.bootTime.IsZero() && d.heartbeatInterval > 0 {
		if time.Since(d.bootTime) > d.heartbeatInterval {
			return action == core.BootNotificationFeatureName
		}
	}
	return d.boot.AllowedToSend(action)
}

// route dispatches a decoded request to its handler.
func (d *Dispatcher) route(ctx context.Context, action string, req ocpp.Request) (ocpp.Response, *ocpp.CallError) {
	switch action {
	case core.ChangeAvailabilityFeatureName:
		return d.handleChangeAvailability(ctx, req.(*core.ChangeAvailabilityRequest))
	case core.ChangeConfigurationFeatureName:
		return d.handleChangeConfiguration(ctx, req.(*core.ChangeConfigurationRequest))
	case core.ClearCacheFeatureName:
		return d.handleClearCache(ctx, req.(*core.ClearCacheRequest))
	case core.DataTransferFeatureName:
		return d.handleDataTransfer(ctx, req.(*core.DataTransferRequest))
	case core.GetConfigurationFeatureName:
		return d.handleGetConfiguration(ctx, req.(*core.GetConfigurationRequest))
	case core.RemoteStartTransactionFeatureName:
		return d.handleRemoteStartTransaction(ctx, req.(*core.RemoteStartTransactionRequest))
	case core.RemoteStopTransactionFeatureName:
		return d.handleRemoteStopTransaction(ctx, req.(*core.RemoteStopTransactionRequest))
	case core.ResetFeatureName:
		return d.handleReset(ctx, req.(*core.ResetRequest))
	case core.UnlockConnectorFeatureName:
		return d.handleUnlockConnector(ctx, req.(*core.UnlockConnectorRequest))
	case smartcharging.SetChargingProfileFeatureName:
		return d.handleSetChargingProfile(ctx, req.(*smartcharging.SetChargingProfileRequest))
	case smartcharging.GetCompositeScheduleFeatureName:
		return d.handleGetCompositeSchedule(ctx, req.(*smartcharging.GetCompositeScheduleRequest))
	case smartcharging.ClearChargingProfileFeatureName:
		return d.handleClearChargingProfile(ctx, req.(*smartcharging.ClearChargingProfileRequest))
	case remotetrigger.TriggerMessageFeatureName:
		return d.handleTriggerMessage(ctx, req.(*remotetrigger.TriggerMessageRequest))
	case security.ExtendedTriggerMessageFeatureName:
		return d.handleExtendedTriggerMessage(ctx, req.(*security.ExtendedTriggerMessageRequest))
	case reservation.ReserveNowFeatureName:
		return d.handleReserveNow(ctx, req.(*reservation.ReserveNowRequest))
	case reservation.CancelReservationFeatureName:
		return d.handleCancelReservation(ctx, req.(*reservation.CancelReservationRequest))
	case localauth.SendLocalListFeatureName:
		return d.handleSendLocalList(ctx, req.(*localauth.SendLocalListRequest))
	case localauth.GetLocalListVersionFeatureName:
		return d.handleGetLocalListVersion(ctx, req.(*localauth.GetLocalListVersionRequest))
	case security.CertificateSignedFeatureName:
		return d.handleCertificateSigned(ctx, req.(*security.CertificateSignedRequest))
	case security.InstallCertificateFeatureName:
		return d.handleInstallCertificate(ctx, req.(*security.InstallCertificateRequest))
	case security.DeleteCertificateFeatureName:
		return d.handleDeleteCertificate(ctx, req.(*security.DeleteCertificateRequest))
	case security.GetInstalledCertificateIdsFeatureName:
		return d.handleGetInstalledCertificateIds(ctx, req.(*security.GetInstalledCertificateIdsRequest))
	case firmware.GetDiagnosticsFeatureName:
		return d.handleGetDiagnostics(ctx, req.(*firmware.GetDiagnosticsRequest))
	case firmware.UpdateFirmwareFeatureName:
		return d.handleUpdateFirmware(ctx, req.(*firmware.UpdateFirmwareRequest))
	case security.SignedUpdateFirmwareFeatureName:
		return d.handleSignedUpdateFirmware(ctx, req.(*security.SignedUpdateFirmwareRequest))
	case security.GetLogFeatureName:
		return d.handleGetLog(ctx, req.(*security.GetLogRequest))
	default:
		return nil, &ocpp.CallError{ErrorCode: ocpp.NotImplemented, ErrorDescription: fmt.Sprintf("action %s has no handler", action)}
	}
}

// AuthorizeIdToken implements spec.md section 4.6's authorize flow: a
// local list hit always answers without a round trip; an authorization
// cache hit answers only when pre-authorize (online) or offline
// authorization (disconnected) is enabled; everything else goes to an
// online Authorize.req, falling back to the offline policy if the
// transport is down.
func (d *Dispatcher) AuthorizeIdToken(ctx context.Context, idTag string, connected, localPreAuthorize, localAuthorizeOffline, allowOfflineTxForUnknownId bool) *types.IdTagInfo {
	if info := d.localListLookup(ctx, idTag); info != nil {
		return info
	}
	if (localPreAuthorize && connected) || (localAuthorizeOffline && !connected) {
		if info := d.cacheLookup(ctx, idTag); info != nil {
			return info
		}
	}
	if !connected {
		if allowOfflineTxForUnknownId {
			return types.NewIdTagInfo(types.AuthorizationStatusAccepted)
		}
		return types.NewIdTagInfo(types.AuthorizationStatusInvalid)
	}

	req := core.NewAuthorizeRequest(idTag)
	_, await := d.q.EnqueueCall(req, false)
	msg := <-await
	if msg.Offline {
		if allowOfflineTxForUnknownId {
			return types.NewIdTagInfo(types.AuthorizationStatusAccepted)
		}
		return types.NewIdTagInfo(types.AuthorizationStatusInvalid)
	}
	if msg.Err != nil {
		return types.NewIdTagInfo(types.AuthorizationStatusInvalid)
	}
	resp, ok := msg.Response.(*core.AuthorizeResponse)
	if !ok || resp.IdTagInfo == nil {
		return types.NewIdTagInfo(types.AuthorizationStatusInvalid)
	}
	if resp.IdTagInfo.Status == types.AuthorizationStatusAccepted {
		_ = d.repo.UpsertAuthCacheEntry(ctx, store.AuthCacheEntry{
			IdTag: idTag, Status: resp.IdTagInfo.Status, ParentIdTag: resp.IdTagInfo.ParentIdTag,
		})
	}
	return resp.IdTagInfo
}

// localListLookup answers from the local authorization list, which
// always takes precedence and is consulted regardless of connection
// state or the pre-authorize/offline-authorize toggles.
func (d *Dispatcher) localListLookup(ctx context.Context, idTag string) *types.IdTagInfo {
	entry, err := d.repo.GetLocalListEntry(ctx, idTag)
	if err != nil || entry == nil {
		return nil
	}
	return authCacheEntryToIdTagInfo(entry)
}

// cacheLookup answers from the authorization cache populated by prior
// successful Authorize.conf responses.
func (d *Dispatcher) cacheLookup(ctx context.Context, idTag string) *types.IdTagInfo {
	entry, err := d.repo.GetAuthCacheEntry(ctx, idTag)
	if err != nil || entry == nil {
		return nil
	}
	return authCacheEntryToIdTagInfo(entry)
}

// authCacheEntryToIdTagInfo rewrites a past-expiry Accepted entry to
// Expired, per spec.md section 4.6's cache-staleness rule.
func authCacheEntryToIdTagInfo(entry *store.AuthCacheEntry) *types.IdTagInfo {
	status := entry.Status
	if status == types.AuthorizationStatusAccepted && entry.ExpiryDate != nil && entry.ExpiryDate.Before(time.Now()) {
		status = types.AuthorizationStatusExpired
	}
	info := types.NewIdTagInfo(status)
	if entry.ExpiryDate != nil {
		info.ExpiryDate = types.NewDateTime(*entry.ExpiryDate)
	}
	info.ParentIdTag = entry.ParentIdTag
	return info
}
