// internal/utils/metrics/collector.go
package metrics

import (
	"net/url"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Collector holds the process-level metrics that sit outside the
// transaction pipeline: RPC node latency and the SOL/USD quote.
type Collector struct {
	rpcLatency    *prometheus.HistogramVec
	rpcErrors     *prometheus.CounterVec
	solPrice      prometheus.Gauge
	priceFallback prometheus.Counter
}

// NewCollector registers the metrics with reg. A nil reg leaves them
// unregistered, which tests rely on.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		rpcLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "vibes",
			Name:      "rpc_latency_seconds",
			Help:      "Latency of single RPC node calls",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "endpoint"}),
		rpcErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "vibes",
			Name:      "rpc_errors_total",
			Help:      "Failed RPC node calls",
		}, []string{"method", "endpoint"}),
		solPrice: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "vibes",
			Name:      "sol_usd",
			Help:      "Last SOL/USD quote used for VIBES pricing",
		}),
		priceFallback: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "vibes",
			Name:      "price_fallback_total",
			Help:      "Quotes served from the fallback price",
		}),
	}
	if reg != nil {
		reg.MustRegister(c.rpcLatency, c.rpcErrors, c.solPrice, c.priceFallback)
	}
	return c
}

// ObserveRPC matches the rpc.Observer signature.
func (c *Collector) ObserveRPC(method, nodeURL string, elapsed time.Duration, err error) {
	endpoint := Endpoint(nodeURL)
	c.rpcLatency.WithLabelValues(method, endpoint).Observe(elapsed.Seconds())
	if err != nil {
		c.rpcErrors.WithLabelValues(method, endpoint).Inc()
	}
}

func (c *Collector) RecordPrice(usd float64, fallback bool) {
	c.solPrice.Set(usd)
	if fallback {
		c.priceFallback.Inc()
	}
}

// Endpoint reduces a node URL to its host so API keys in the path or query
// never become label values.
func Endpoint(nodeURL string) string {
	u, err := url.Parse(nodeURL)
	if err != nil || u.Host == "" {
		return "unknown"
	}
	return u.Host
}
