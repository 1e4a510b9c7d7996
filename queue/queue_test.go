package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"chargepoint/internal/logx"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
	"chargepoint/ocpp/types"
)

type fakeSender struct {
	mu   sync.Mutex
	sent []string
	fail bool
}

func (f *fakeSender) Send(ctx context.Context, call *ocpp.Call) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("transport down")
	}
	f.sent = append(f.sent, call.UniqueId)
	return nil
}

func TestEnqueueNormalSendsAndCompletes(t *testing.T) {
	sender := &fakeSender{}
	q := New(sender, logx.New())
	q.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	req := core.NewHeartbeatRequest()
	uid, await := q.EnqueueCall(req, false)
	require.Eventually(t, func() bool {
		sender.mu.Lock()
		defer sender.mu.Unlock()
		return len(sender.sent) == 1 && sender.sent[0] == uid
	}, time.Second, time.Millisecond)

	q.CompleteResponse(uid, core.NewHeartbeatResponse(types.NewDateTime(time.Now())), nil)
	select {
	case msg := <-await:
		require.False(t, msg.Offline)
		require.NotNil(t, msg.Response)
	case <-time.After(time.Second):
		t.Fatal("awaiter never resolved")
	}
}

func TestPauseMarksInFlightOffline(t *testing.T) {
	sender := &fakeSender{}
	q := New(sender, logx.New())
	q.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	req := core.NewHeartbeatRequest()
	_, await := q.EnqueueCall(req, false)
	require.Eventually(t, func() bool { return q.Len() >= 0 }, time.Second, time.Millisecond)

	q.Pause()
	select {
	case msg := <-await:
		require.True(t, msg.Offline)
	case <-time.After(time.Second):
		t.Fatal("awaiter never resolved offline")
	}
}

func TestTransactionalRetriesThenDropsAfterMaxAttempts(t *testing.T) {
	sender := &fakeSender{fail: true}
	q := New(sender, logx.New())
	q.SetRetryPolicy(2, time.Millisecond)
	q.Resume()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go q.Run(ctx)

	req := core.NewHeartbeatRequest()
	_, await := q.EnqueueCall(req, true)
	select {
	case msg := <-await:
		require.True(t, msg.Offline)
	case <-time.After(2 * time.Second):
		t.Fatal("transactional message was never dropped")
	}
	require.Equal(t, 0, q.Len())
}
