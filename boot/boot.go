// Package boot implements the Boot/Registration state machine of
// spec.md section 4.2: Disconnected -> Connected -> (Pending |
// Rejected | Booted), driving BootNotification retry on Pending and
// Rejected and firing OnBooted once the CS accepts registration. The
// state-plus-callback shape follows the teacher's models.ChargePointStatus
// bookkeeping (models/charge_point_status.go), generalized from a flat
// status record into an explicit state machine since the teacher never
// needed to retry its own boot handshake — it only ever received one.
package boot

import (
	"context"
	"time"

	"chargepoint/internal/clock"
	"chargepoint/internal/logx"
	"chargepoint/ocpp/core"
	"chargepoint/queue"
)

type State int

const (
	Disconnected State = iota
	Connected
	Pending
	Rejected
	Booted
)

func (s State) String() string {
	switch s {
	case Disconnected:
		return "Disconnected"
	case Connected:
		return "Connected"
	case Pending:
		return "Pending"
	case Rejected:
		return "Rejected"
	case Booted:
		return "Booted"
	default:
		return "Unknown"
	}
}

// Identity is the fixed BootNotification payload for this charge point.
type Identity struct {
	Vendor          string
	Model           string
	SerialNumber    string
	FirmwareVersion string
}

// OnBooted is called exactly once per successful boot handshake, with
// the CS-assigned heartbeat interval.
type OnBooted func(heartbeatInterval time.Duration)

// Machine drives BootNotification and its retry schedule.
type Machine struct {
	identity Identity
	q        *queue.Queue
	log      logx.Handler
	onBooted OnBooted

	state State
	retry clock.Timer
}

func New(identity Identity, q *queue.Queue, log logx.Handler, onBooted OnBooted) *Machine {
	return &Machine{identity: identity, q: q, log: log, onBooted: onBooted, state: Disconnected}
}

func (m *Machine) State() State { return m.state }

// OnConnected is invoked by the transport once the WebSocket handshake
// completes. If the machine was already Booted (a reconnect, not an
// initial connect), spec.md section 4.2 forbids re-sending
// BootNotification — the caller is expected to check State() itself
// and issue StatusNotification for every connector instead.
func (m *Machine) OnConnected(ctx context.Context) {
	if m.state == Booted {
		return
	}
	m.state = Connected
	m.sendBootNotification(ctx)
}

func (m *Machine) sendBootNotification(ctx context.Context) {
	req := core.NewBootNotificationRequest(m.identity.Vendor, m.identity.Model)
	req.ChargePointSerialNumber = m.identity.SerialNumber
	req.FirmwareVersion = m.identity.FirmwareVersion

	_, await := m.q.EnqueueCall(req, false)
	go m.awaitResponse(ctx, await)
}

func (m *Machine) awaitResponse(ctx context.Context, await <-chan queue.EnhancedMessage) {
	select {
	case msg := <-await:
		if msg.Offline || msg.Err != nil {
			m.scheduleRetry(ctx, 10*time.Second)
			return
		}
		resp, ok := msg.Response.(*core.BootNotificationResponse)
		if !ok {
			m.log.Warn("BootNotificationResponse had unexpected type")
			return
		}
		m.handleResponse(ctx, resp)
	case <-ctx.Done():
	}
}

func (m *Machine) handleResponse(ctx context.Context, resp *core.BootNotificationResponse) {
	switch resp.Status {
	case core.RegistrationStatusAccepted:
		m.state = Booted
		m.retry.Stop()
		if m.onBooted != nil {
			m.onBooted(time.Duration(resp.Interval) * time.Second)
		}
	case core.RegistrationStatusPending:
		m.state = Pending
		m.scheduleRetry(ctx, time.Duration(resp.Interval)*time.Second)
	case core.RegistrationStatusRejected:
		m.state = Rejected
		m.scheduleRetry(ctx, time.Duration(resp.Interval)*time.Second)
	}
}

func (m *Machine) scheduleRetry(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	m.retry.Start(interval, func() { m.sendBootNotification(ctx) })
}

// TriggerBootNotification resends BootNotification on demand, for
// TriggerMessage's BootNotification target; it does not alter state,
// mirroring the ordinary retry path's own response handling.
func (m *Machine) TriggerBootNotification(ctx context.Context) {
	m.sendBootNotification(ctx)
}

// AllowedToSend reports whether action may be sent while in the
// current boot state, per spec.md section 4.6's connection-state
// gating table: BootNotification and StopTransaction are allowed in
// every state except Disconnected; everything else waits for Booted.
func (m *Machine) AllowedToSend(action string) bool {
	if action == core.BootNotificationFeatureName || action == core.StopTransactionFeatureName {
		return m.state != Disconnected
	}
	return m.state == Booted
}

// OnDisconnected cancels any pending retry. A charge point that had
// already reached Booted stays Booted across the drop, so the next
// OnConnected skips re-sending BootNotification per spec.md section
// 4.2; any other state resets to Disconnected since registration
// never completed.
func (m *Machine) OnDisconnected() {
	m.retry.Stop()
	if m.state != Booted {
		m.state = Disconnected
	}
}
