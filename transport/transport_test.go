package transport

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"

	"chargepoint/internal/logx"
	"chargepoint/ocpp"
	"chargepoint/ocpp/core"
)

func startEchoServer(t *testing.T) (*httptest.Server, *sync.WaitGroup) {
	upgrader := websocket.Upgrader{Subprotocols: []string{"ocpp1.6"}}
	var wg sync.WaitGroup
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		wg.Add(1)
		defer wg.Done()
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			_ = conn.WriteMessage(websocket.TextMessage, data)
		}
	}))
	return srv, &wg
}

func wsURL(httpURL string) string {
	return "ws" + httpURL[len("http"):]
}

func TestConnectAndEchoFrame(t *testing.T) {
	srv, _ := startEchoServer(t)
	defer srv.Close()

	received := make(chan []byte, 1)
	tr := New(Config{Endpoint: wsURL(srv.URL), ChargePointId: "cp-1"}, logx.New(),
		func(data []byte) { received <- data }, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	require.Eventually(t, func() bool {
		return tr.Send(ctx, &ocpp.Call{UniqueId: "1", Action: core.HeartbeatFeatureName, Payload: core.NewHeartbeatRequest()}) == nil
	}, time.Second, 5*time.Millisecond)

	select {
	case data := <-received:
		require.Contains(t, string(data), core.HeartbeatFeatureName)
	case <-time.After(time.Second):
		t.Fatal("did not receive echoed frame")
	}
}

func TestSendFailsWhenDisconnected(t *testing.T) {
	tr := New(Config{Endpoint: "ws://127.0.0.1:1/nope", ChargePointId: "cp-1"}, logx.New(), func([]byte) {}, nil, nil)
	err := tr.Send(context.Background(), &ocpp.Call{UniqueId: "1", Action: core.HeartbeatFeatureName, Payload: core.NewHeartbeatRequest()})
	require.Error(t, err)
}

func TestBackoffStaysWithinBounds(t *testing.T) {
	tr := New(Config{Endpoint: "ws://unused", ReconnectBase: 10 * time.Millisecond, ReconnectMax: 100 * time.Millisecond}, logx.New(), func([]byte) {}, nil, nil)
	for attempt := 1; attempt <= 20; attempt++ {
		d := tr.backoff(attempt)
		require.GreaterOrEqual(t, d, time.Duration(0))
		require.LessOrEqual(t, d, tr.cfg.ReconnectMax)
	}
}

func TestOnConnectedAndDisconnectedCallbacks(t *testing.T) {
	srv, _ := startEchoServer(t)

	connected := make(chan struct{}, 1)
	disconnected := make(chan struct{}, 1)
	tr := New(Config{Endpoint: wsURL(srv.URL), ChargePointId: "cp-1", ReconnectBase: 5 * time.Millisecond, ReconnectMax: 20 * time.Millisecond},
		logx.New(), func([]byte) {},
		func() { connected <- struct{}{} },
		func() { disconnected <- struct{}{} },
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go tr.Run(ctx)

	select {
	case <-connected:
	case <-time.After(time.Second):
		t.Fatal("did not observe connect callback")
	}

	srv.Close()

	select {
	case <-disconnected:
	case <-time.After(time.Second):
		t.Fatal("did not observe disconnect callback")
	}
}
