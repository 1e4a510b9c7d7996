// Package api is the local diagnostics endpoint: a host that embeds
// chargepoint can serve /status, /connectors/:id and /metrics without
// running a separate metrics.Listen process. Grounded on the teacher's
// server/server.go for the httprouter registration idiom
// (Register(router) mounting one handler per route on a shared
// *httprouter.Router) and on this file's own Handler-wraps-
// dependencies shape; the teacher's own HandleApiCall (a single
// ReadLog call reached over a custom Call/CallType envelope) has no
// equivalent here, since a charge point's diagnostics surface is a
// plain read-only status view rather than a remote-log-pull API.
package api

import (
	"encoding/json"
	"fmt"
	"net"
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chargepoint/chargepoint"
	"chargepoint/internal/config"
	"chargepoint/internal/logx"
)

// Handler serves the diagnostics routes over the connector and
// transaction state chargepoint.ChargePoint exposes publicly.
type Handler struct {
	cp  *chargepoint.ChargePoint
	log logx.Handler
}

func NewHandler(cp *chargepoint.ChargePoint, log logx.Handler) *Handler {
	return &Handler{cp: cp, log: log}
}

// Register mounts the diagnostics routes on router, so a host that
// already runs its own httprouter can fold these in alongside its own
// routes instead of running a second listener.
func (h *Handler) Register(router *httprouter.Router) {
	router.GET("/status", h.handleStatus)
	router.GET("/connectors/:id", h.handleConnector)
	router.GET("/metrics", h.handleMetrics)
}

type connectorStatus struct {
	Id    int    `json:"id"`
	State string `json:"state"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ids := h.cp.ConnectorIds()
	out := make([]connectorStatus, 0, len(ids))
	for _, id := range ids {
		state, ok := h.cp.ConnectorState(id)
		if !ok {
			continue
		}
		out = append(out, connectorStatus{Id: id, State: string(state)})
	}
	h.writeJSON(w, out)
}

func (h *Handler) handleConnector(w http.ResponseWriter, r *http.Request, params httprouter.Params) {
	id, err := parseConnectorId(params.ByName("id"))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	state, ok := h.cp.ConnectorState(id)
	if !ok {
		http.Error(w, "connector not found", http.StatusNotFound)
		return
	}
	h.writeJSON(w, connectorStatus{Id: id, State: string(state)})
}

func (h *Handler) handleMetrics(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (h *Handler) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("encoding diagnostics response failed", err)
	}
}

func parseConnectorId(raw string) (int, error) {
	var id int
	if _, err := fmt.Sscanf(raw, "%d", &id); err != nil {
		return 0, fmt.Errorf("invalid connector id %q", raw)
	}
	return id, nil
}

// Listen starts the diagnostics endpoint standalone, for a host that
// has no HTTP server of its own to fold these routes into. Grounded on
// the teacher's server/server.go Start, minus the WebSocket upgrade
// path and TLS handling that route belongs to transport.Transport now.
func Listen(conf *config.Config, cp *chargepoint.ChargePoint, log logx.Handler) error {
	router := httprouter.New()
	NewHandler(cp, log).Register(router)

	address := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	log.Debug(fmt.Sprintf("starting diagnostics endpoint on %s", address))
	listener, err := net.Listen("tcp", address)
	if err != nil {
		return err
	}
	server := &http.Server{Handler: router}
	return server.Serve(listener)
}
