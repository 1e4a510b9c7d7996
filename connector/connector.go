// Package connector implements the per-connector finite-state machine
// described in spec.md section 4.3: nine operational states for
// connector ids above zero, a reduced three-state set for connector
// zero, and a debounced StatusNotification callback. The state field
// plus mutex-guarded transition method mirrors the teacher's
// models.Connector (models/connector.go), which also kept a connector
// identity alongside a single current-status field; this package adds
// the FSM's edges and the debounce timer the teacher never had
// (teacher only ever recorded whatever status the CS was told about,
// it never computed one).
package connector

import (
	"sync"
	"time"

	"chargepoint/internal/clock"
	"chargepoint/ocpp/core"
)

// State is one of the nine OCPP 1.6J connector operational states.
type State string

const (
	Available     State = "Available"
	Preparing     State = "Preparing"
	Charging      State = "Charging"
	SuspendedEV   State = "SuspendedEV"
	SuspendedEVSE State = "SuspendedEVSE"
	Finishing     State = "Finishing"
	Reserved      State = "Reserved"
	Unavailable   State = "Unavailable"
	Faulted       State = "Faulted"
)

// Event is one of the transition triggers named in spec.md section 4.3.
type Event int

const (
	UsageInitiated Event = iota
	StartCharging
	PauseChargingEV
	PauseChargingEVSE
	TransactionStoppedAndUserActionRequired
	BecomeAvailable
	ChangeAvailabilityToUnavailable
	ReserveConnector
	ReservationEnded
	FaultDetected
	ReturnToAvailable
)

// NotifyFunc is invoked with the debounced, stable state once
// MinimumStatusDuration has elapsed without a further transition.
type NotifyFunc func(c *Connector, state State, errorCode core.ChargePointErrorCode)

// Connector is one physical connector's state machine. Id 0 is the
// charge point's aggregate connector and only ever occupies Available,
// Unavailable or Faulted.
type Connector struct {
	mu sync.Mutex

	Id    int
	state State

	errorCode core.ChargePointErrorCode

	debounce          clock.Timer
	minStatusDuration time.Duration
	notify            NotifyFunc
	booted            bool
}

// New constructs a connector in Available state. minStatusDuration is
// MinimumStatusDuration from spec.md section 4.3; notify is called
// once a transition has been stable for that long.
func New(id int, minStatusDuration time.Duration, notify NotifyFunc) *Connector {
	return &Connector{
		Id:                id,
		state:             Available,
		errorCode:         core.ErrorNoError,
		minStatusDuration: minStatusDuration,
		notify:            notify,
	}
}

// State returns the current stable-or-pending state (the debounce
// timer does not roll back state; it only delays the notification).
func (c *Connector) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Boot reports the connector's initial state immediately, bypassing
// debounce, per spec.md section 4.3 ("initial notifications at boot
// are not debounced").
func (c *Connector) Boot() {
	c.mu.Lock()
	state := c.state
	errorCode := c.errorCode
	c.booted = true
	c.mu.Unlock()
	if c.notify != nil {
		c.notify(c, state, errorCode)
	}
}

// Apply drives the event through the state table. errorCode is only
// meaningful for FaultDetected; it is ignored otherwise.
func (c *Connector) Apply(event Event, errorCode core.ChargePointErrorCode) {
	if c.Id == 0 {
		c.applyAggregate(event, errorCode)
		return
	}

	c.mu.Lock()
	from := c.state
	to, ok := connectorTransition(from, event)
	if !ok {
		c.mu.Unlock()
		return
	}
	c.state = to
	if event == FaultDetected {
		c.errorCode = errorCode
	} else if to != Faulted {
		c.errorCode = core.ErrorNoError
	}
	booted := c.booted
	c.mu.Unlock()

	c.scheduleNotify(booted)
}

func (c *Connector) applyAggregate(event Event, errorCode core.ChargePointErrorCode) {
	c.mu.Lock()
	from := c.state
	var to State
	ok := true
	switch event {
	case ChangeAvailabilityToUnavailable:
		to = Unavailable
	case BecomeAvailable:
		to = Available
	case FaultDetected:
		to = Faulted
	case ReturnToAvailable:
		to = Available
	default:
		ok = false
	}
	if !ok || from == to {
		c.mu.Unlock()
		return
	}
	c.state = to
	if event == FaultDetected {
		c.errorCode = errorCode
	} else {
		c.errorCode = core.ErrorNoError
	}
	booted := c.booted
	c.mu.Unlock()

	c.scheduleNotify(booted)
}

func (c *Connector) scheduleNotify(booted bool) {
	if !booted || c.notify == nil {
		return
	}
	c.debounce.Start(c.minStatusDuration, func() {
		c.mu.Lock()
		state := c.state
		errorCode := c.errorCode
		c.mu.Unlock()
		c.notify(c, state, errorCode)
	})
}

// TriggerNotify re-announces the current stable state immediately,
// bypassing the debounce timer, for TriggerMessage's StatusNotification
// target.
func (c *Connector) TriggerNotify() {
	c.mu.Lock()
	state := c.state
	errorCode := c.errorCode
	c.mu.Unlock()
	if c.notify != nil {
		c.notify(c, state, errorCode)
	}
}

// connectorTransition implements the event table of spec.md section
// 4.3 for connector ids above zero.
func connectorTransition(from State, event Event) (State, bool) {
	switch event {
	case UsageInitiated:
		if from == Available || from == Reserved {
			return Preparing, true
		}
	case StartCharging:
		if from == Preparing || from == SuspendedEV || from == SuspendedEVSE {
			return Charging, true
		}
	case PauseChargingEV:
		if from == Charging {
			return SuspendedEV, true
		}
	case PauseChargingEVSE:
		if from == Charging {
			return SuspendedEVSE, true
		}
	case TransactionStoppedAndUserActionRequired:
		if from == Charging || from == SuspendedEV || from == SuspendedEVSE || from == Preparing {
			return Finishing, true
		}
	case BecomeAvailable:
		if from == Finishing || from == Preparing || from == Unavailable {
			return Available, true
		}
	case ChangeAvailabilityToUnavailable:
		return Unavailable, true
	case ReserveConnector:
		if from == Available {
			return Reserved, true
		}
	case ReservationEnded:
		if from == Reserved {
			return Available, true
		}
	case FaultDetected:
		return Faulted, true
	case ReturnToAvailable:
		if from == Faulted {
			return Available, true
		}
	}
	return from, false
}
