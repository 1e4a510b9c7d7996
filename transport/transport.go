// Package transport is the concrete default Transport spec.md section
// 1 leaves abstract: a gorilla/websocket client Dial loop against the
// CS's ocpp1.6 endpoint, with reconnect backoff and jitter and a
// security-profile fallback on repeated post-upgrade failure (spec.md
// section 7). Grounded on teacher's server/server.go, which owns the
// mirror-image role (websocket.Upgrader accepting inbound charge
// point connections); this flips it to websocket.Dialer initiating
// the connection outbound, the way a charge point must.
package transport

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"chargepoint/internal/logx"
	"chargepoint/ocpp"
)

// SecurityProfile is the OCPP 1.6J Security Whitepaper profile number
// negotiated for this connection, per spec.md section 6.
type SecurityProfile int

const (
	SecurityProfile0Unauthenticated SecurityProfile = 0
	SecurityProfile1BasicAuth       SecurityProfile = 1
	SecurityProfile2BasicAuthTLS    SecurityProfile = 2
	SecurityProfile3MutualTLS       SecurityProfile = 3
)

// Config is the connection-level configuration the host supplies.
type Config struct {
	Endpoint        string // e.g. wss://cs.example.com/ocpp
	ChargePointId   string
	BasicAuthUser   string
	BasicAuthPass   string
	ClientCert      *tls.Certificate
	SecurityProfile SecurityProfile
	FallbackProfile SecurityProfile
	ReconnectBase   time.Duration
	ReconnectMax    time.Duration
}

// FrameHandler is invoked with each inbound text frame's raw bytes.
type FrameHandler func(data []byte)

// Transport owns the single websocket connection to the Central
// System and the reconnect loop around it.
type Transport struct {
	cfg     Config
	log     logx.Handler
	dialer  *websocket.Dialer
	onFrame FrameHandler
	onConnected    func()
	onDisconnected func()

	mu   sync.Mutex
	conn *websocket.Conn

	consecutiveFailures int
}

func New(cfg Config, log logx.Handler, onFrame FrameHandler, onConnected, onDisconnected func()) *Transport {
	if cfg.ReconnectBase <= 0 {
		cfg.ReconnectBase = time.Second
	}
	if cfg.ReconnectMax <= 0 {
		cfg.ReconnectMax = time.Minute
	}
	if cfg.FallbackProfile == 0 && cfg.SecurityProfile != SecurityProfile0Unauthenticated {
		cfg.FallbackProfile = cfg.SecurityProfile
	}
	dialer := &websocket.Dialer{
		Subprotocols:     []string{"ocpp1.6"},
		HandshakeTimeout: 10 * time.Second,
	}
	return &Transport{cfg: cfg, log: log, dialer: dialer, onFrame: onFrame, onConnected: onConnected, onDisconnected: onDisconnected}
}

// Run dials, reads, and reconnects until ctx is cancelled.
func (t *Transport) Run(ctx context.Context) {
	attempt := 0
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		if err := t.connectAndServe(ctx); err != nil {
			t.log.Error("transport connection ended", err)
			attempt++
			if attempt >= 3 && t.cfg.SecurityProfile != t.cfg.FallbackProfile {
				t.log.Warn(fmt.Sprintf("falling back from security profile %d to %d after repeated failures", t.cfg.SecurityProfile, t.cfg.FallbackProfile))
				t.cfg.SecurityProfile = t.cfg.FallbackProfile
				attempt = 0
			}
			if t.onDisconnected != nil {
				t.onDisconnected()
			}
			wait := t.backoff(attempt)
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
			continue
		}
		attempt = 0
	}
}

// backoff computes WebsocketReconnectInterval scaled by attempt and
// capped at ReconnectMax, then jittered uniformly between half and all
// of that value, per spec.md section 7's "retry reconnection at
// WebsocketReconnectInterval with jitter".
func (t *Transport) backoff(attempt int) time.Duration {
	base := t.cfg.ReconnectBase * time.Duration(attempt)
	if base > t.cfg.ReconnectMax {
		base = t.cfg.ReconnectMax
	}
	if base <= 0 {
		base = t.cfg.ReconnectBase
	}
	jitter := time.Duration(rand.Int63n(int64(base) + 1))
	return base/2 + jitter/2
}

func (t *Transport) connectAndServe(ctx context.Context) error {
	u, err := url.Parse(t.cfg.Endpoint)
	if err != nil {
		return fmt.Errorf("invalid endpoint: %w", err)
	}
	u.Path = joinPath(u.Path, t.cfg.ChargePointId)

	header := http.Header{}
	dialer := *t.dialer
	switch t.cfg.SecurityProfile {
	case SecurityProfile1BasicAuth, SecurityProfile2BasicAuthTLS:
		req := &http.Request{Header: header}
		req.SetBasicAuth(t.cfg.BasicAuthUser, t.cfg.BasicAuthPass)
		header = req.Header
	case SecurityProfile3MutualTLS:
		tlsConfig := &tls.Config{}
		if t.cfg.ClientCert != nil {
			tlsConfig.Certificates = []tls.Certificate{*t.cfg.ClientCert}
		}
		dialer.TLSClientConfig = tlsConfig
	}

	conn, _, err := dialer.DialContext(ctx, u.String(), header)
	if err != nil {
		return fmt.Errorf("dial failed: %w", err)
	}
	t.mu.Lock()
	t.conn = conn
	t.mu.Unlock()

	if t.onConnected != nil {
		t.onConnected()
	}

	defer func() {
		t.mu.Lock()
		t.conn = nil
		t.mu.Unlock()
		_ = conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}
		_, data, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read failed: %w", err)
		}
		t.onFrame(data)
	}
}

func joinPath(base, id string) string {
	if len(base) > 0 && base[len(base)-1] == '/' {
		return base + id
	}
	return base + "/" + id
}

// Send writes an outbound CALL to the wire, satisfying queue.Sender.
// Returns an error (rather than blocking) if the connection is
// currently down, so the queue can treat the call as failed and
// retry it per its own backoff policy.
func (t *Transport) Send(ctx context.Context, call *ocpp.Call) error {
	return t.write(call)
}

// SendResult writes an outbound CALLRESULT answering a CS-initiated
// CALL (e.g. the response to a RemoteStartTransaction).
func (t *Transport) SendResult(ctx context.Context, result *ocpp.CallResult) error {
	return t.write(result)
}

// SendError writes an outbound CALLERROR answering a CS-initiated
// CALL that the dispatcher rejected or failed to handle.
func (t *Transport) SendError(ctx context.Context, callErr *ocpp.CallError) error {
	return t.write(callErr)
}

func (t *Transport) write(frame json.Marshaler) error {
	t.mu.Lock()
	conn := t.conn
	t.mu.Unlock()
	if conn == nil {
		return fmt.Errorf("transport is not connected")
	}
	data, err := frame.MarshalJSON()
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}
