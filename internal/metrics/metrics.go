// Package metrics exposes process-internal counters and gauges through
// github.com/prometheus/client_golang, the same dependency the reference
// monitoring backend uses to talk to an external Prometheus. Here there is
// no external time-series store to query against — this process IS the
// thing being scraped — so the library is used on its exposition side
// (promauto registration plus promhttp.Handler) rather than its query API.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TcAccepted = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obsw",
		Subsystem: "distributor",
		Name:      "tc_accepted_total",
		Help:      "Telecommands that passed ingress rate limiting and header parsing.",
	})

	TcRejected = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obsw",
		Subsystem: "distributor",
		Name:      "tc_rejected_total",
		Help:      "Telecommands dropped by the ingress rate limiter; their pool slots are freed.",
	})

	TmSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "obsw",
		Subsystem: "funnel",
		Name:      "tm_sent_total",
		Help:      "Telemetry packets handed off to the downlink egress.",
	})

	PoolOccupancy = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "obsw",
		Subsystem: "pool",
		Name:      "bucket_occupancy_ratio",
		Help:      "Fraction of slots in use, per bucket, in the shared packet pool.",
	}, []string{"bucket"})
)

// Handler returns the promhttp exposition handler for mounting on the
// control plane's /metrics route.
func Handler() http.Handler {
	return promhttp.Handler()
}
