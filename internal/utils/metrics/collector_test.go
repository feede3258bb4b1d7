package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestEndpointDropsSecrets(t *testing.T) {
	assert.Equal(t, "mainnet.helius-rpc.com", Endpoint("https://mainnet.helius-rpc.com/?api-key=secret"))
	assert.Equal(t, "rpc.example.com:8899", Endpoint("http://rpc.example.com:8899/token/abc"))
	assert.Equal(t, "unknown", Endpoint("::not a url"))
}

func TestCollectorRecords(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.ObserveRPC("getBalance", "https://a.example.com", 20*time.Millisecond, nil)
	c.ObserveRPC("getBalance", "https://a.example.com", 30*time.Millisecond, errors.New("502"))
	c.RecordPrice(151.5, false)
	c.RecordPrice(150, true)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.rpcErrors.WithLabelValues("getBalance", "a.example.com")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.rpcLatency), "one series per method and endpoint")
	assert.Equal(t, 150.0, testutil.ToFloat64(c.solPrice))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.priceFallback))
}
