// Package metrics hosts the optional standalone Prometheus exporter.
// Grounded on the teacher's own metrics/server.go, unchanged in shape:
// a plain net/http mux serving promhttp.Handler() on its own port,
// disabled unless config turns it on. The api package also exposes
// /metrics on the diagnostics router for hosts that would rather not
// run a second listener; this one remains for hosts that want metrics
// scraping isolated from the diagnostics endpoint.
package metrics

import (
	"log"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"chargepoint/internal/config"
)

func Listen(conf *config.Config) error {
	if !conf.Metrics.Enabled {
		return nil
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	address := conf.Metrics.BindIP + ":" + conf.Metrics.Port
	log.Println("starting metrics server on " + address)
	return http.ListenAndServe(address, mux)
}
