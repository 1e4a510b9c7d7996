package connector

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/ocpp/core"
)

func TestBootNotifiesImmediatelyWithoutDebounce(t *testing.T) {
	notified := make(chan State, 1)
	c := New(1, 50*time.Millisecond, func(_ *Connector, state State, _ core.ChargePointErrorCode) {
		notified <- state
	})
	c.Boot()
	select {
	case state := <-notified:
		require.Equal(t, Available, state)
	case <-time.After(time.Second):
		t.Fatal("boot notification never fired")
	}
}

func TestUsageInitiatedMovesToPreparing(t *testing.T) {
	c := New(1, 5*time.Millisecond, nil)
	c.Apply(UsageInitiated, core.ErrorNoError)
	require.Equal(t, Preparing, c.State())
}

func TestDebounceCollapsesRapidTransitions(t *testing.T) {
	var notifications []State
	notified := make(chan State, 10)
	c := New(1, 30*time.Millisecond, func(_ *Connector, state State, _ core.ChargePointErrorCode) {
		notified <- state
	})
	c.Boot()
	<-notified // drain the boot notification

	c.Apply(UsageInitiated, core.ErrorNoError)
	time.Sleep(10 * time.Millisecond)
	c.Apply(StartCharging, core.ErrorNoError)

	select {
	case s := <-notified:
		notifications = append(notifications, s)
	case <-time.After(time.Second):
		t.Fatal("debounced notification never fired")
	}
	require.Equal(t, []State{Charging}, notifications)
}

func TestFaultDetectedFromAnyState(t *testing.T) {
	c := New(1, 5*time.Millisecond, nil)
	c.Apply(UsageInitiated, core.ErrorNoError)
	c.Apply(FaultDetected, core.ErrorGroundFailure)
	require.Equal(t, Faulted, c.State())
}

func TestAggregateConnectorOnlyThreeStates(t *testing.T) {
	c := New(0, 5*time.Millisecond, nil)
	c.Apply(UsageInitiated, core.ErrorNoError)
	require.Equal(t, Available, c.State(), "connector 0 ignores non-aggregate events")

	c.Apply(ChangeAvailabilityToUnavailable, core.ErrorNoError)
	require.Equal(t, Unavailable, c.State())
}
