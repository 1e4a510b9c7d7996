package boot

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/internal/logx"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/types"
	"chargepoint/queue"
)

type fakeSender struct {
	respond func(call *ocpp.Call) *core.BootNotificationResponse
	q       *queue.Queue
}

func (f *fakeSender) Send(ctx context.Context, call *ocpp.Call) error {
	resp := f.respond(call)
	f.q.CompleteResponse(call.UniqueId, resp, nil)
	return nil
}

func newTestQueue(respond func(call *ocpp.Call) *core.BootNotificationResponse) *queue.Queue {
	sender := &fakeSender{respond: respond}
	q := queue.New(sender, logx.New())
	sender.q = q
	q.Resume()
	return q
}

func TestAcceptedTransitionsToBooted(t *testing.T) {
	q := newTestQueue(func(call *ocpp.Call) *core.BootNotificationResponse {
		return core.NewBootNotificationResponse(types.NewDateTime(time.Now()), 60, core.RegistrationStatusAccepted)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	booted := make(chan time.Duration, 1)
	m := New(Identity{Vendor: "Acme", Model: "X1"}, q, logx.New(), func(interval time.Duration) {
		booted <- interval
	})
	m.OnConnected(ctx)

	select {
	case interval := <-booted:
		require.Equal(t, 60*time.Second, interval)
		require.Equal(t, Booted, m.State())
	case <-time.After(time.Second):
		t.Fatal("OnBooted never fired")
	}
}

func TestReconnectWhileBootedSkipsBootNotification(t *testing.T) {
	sent := 0
	q := newTestQueue(func(call *ocpp.Call) *core.BootNotificationResponse {
		sent++
		return core.NewBootNotificationResponse(types.NewDateTime(time.Now()), 60, core.RegistrationStatusAccepted)
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	booted := make(chan struct{}, 1)
	m := New(Identity{Vendor: "Acme", Model: "X1"}, q, logx.New(), func(time.Duration) { booted <- struct{}{} })
	m.OnConnected(ctx)
	<-booted

	m.OnDisconnected()
	require.Equal(t, Booted, m.State())

	m.OnConnected(ctx)
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, 1, sent, "reconnect while Booted must not resend BootNotification")
}

func TestAllowedToSendGatesOnBootState(t *testing.T) {
	q := newTestQueue(nil)
	m := New(Identity{Vendor: "Acme", Model: "X1"}, q, logx.New(), nil)
	require.False(t, m.AllowedToSend(core.HeartbeatFeatureName))
	require.False(t, m.AllowedToSend(core.BootNotificationFeatureName))

	m.state = Pending
	require.True(t, m.AllowedToSend(core.BootNotificationFeatureName))
	require.False(t, m.AllowedToSend(core.HeartbeatFeatureName))

	m.state = Booted
	require.True(t, m.AllowedToSend(core.HeartbeatFeatureName))
}
