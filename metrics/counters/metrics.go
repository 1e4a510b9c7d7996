// Package counters holds the Prometheus collectors exposed at the
// diagnostics endpoint's /metrics route. Grounded on the teacher's own
// metrics/counters package, which registers one promauto collector per
// concern rather than threading a Registry handle through every
// caller; the collectors themselves are retargeted from a server's
// per-location transaction/connection counts to a single charge
// point's connector and queue state.
package counters

import (
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var connectorStateGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "chargepoint",
	Name:      "connector_state",
	Help:      "1 for the connector's current OCPP state, 0 for every other state.",
}, []string{"connector_id", "state"})

var queueDepthGauge = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "chargepoint",
	Name:      "queue_depth",
	Help:      "Number of messages currently queued for outbound delivery.",
}, []string{"kind"})

// lastHeartbeatUnixNano is when the last Heartbeat was sent, 0 if none.
var lastHeartbeatUnixNano atomic.Int64

var heartbeatAgeGauge = promauto.NewGaugeFunc(prometheus.GaugeOpts{
	Namespace: "chargepoint",
	Name:      "heartbeat_age_seconds",
	Help:      "Seconds since the last Heartbeat was sent.",
}, func() float64 {
	sent := lastHeartbeatUnixNano.Load()
	if sent == 0 {
		return 0
	}
	return time.Since(time.Unix(0, sent)).Seconds()
})

var transactionCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "chargepoint",
	Name:      "transactions_total",
	Help:      "Total number of transactions started, by connector.",
}, []string{"connector_id"})

var errorCounter = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "chargepoint",
	Name:      "errors_total",
	Help:      "Total number of StatusNotification errors, by error code.",
}, []string{"connector_id", "code"})

// ObserveConnectorState sets the given connector's current-state gauge
// to 1 and every other known state's gauge for that connector to 0, so
// a dashboard can graph state over time as a step function.
func ObserveConnectorState(connectorId string, current string, allStates []string) {
	for _, s := range allStates {
		value := 0.0
		if s == current {
			value = 1.0
		}
		connectorStateGauge.With(prometheus.Labels{"connector_id": connectorId, "state": s}).Set(value)
	}
}

// ObserveQueueDepth reports how many messages of kind are currently
// queued; the runtime reports both sub-queues together as "combined".
func ObserveQueueDepth(kind string, depth int) {
	queueDepthGauge.With(prometheus.Labels{"kind": kind}).Set(float64(depth))
}

// ObserveHeartbeatSent records sentAt as the time of the last
// Heartbeat; the age gauge is computed from it at every scrape, so it
// keeps climbing between heartbeats.
func ObserveHeartbeatSent(sentAt time.Time) {
	lastHeartbeatUnixNano.Store(sentAt.UnixNano())
}

// CountTransaction increments the per-connector transaction counter.
func CountTransaction(connectorId string) {
	transactionCounter.With(prometheus.Labels{"connector_id": connectorId}).Inc()
}

// CountError increments the per-connector, per-code error counter.
func CountError(connectorId, code string) {
	errorCounter.With(prometheus.Labels{"connector_id": connectorId, "code": code}).Inc()
}
