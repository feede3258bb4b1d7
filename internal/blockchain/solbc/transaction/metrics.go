// internal/blockchain/solbc/transaction/metrics.go
package transaction

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	stageCounter       *prometheus.CounterVec
	simulationFailures *prometheus.CounterVec
	durationHistogram  *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	stageCounter := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibes",
		Name:      "tx_stage_total",
		Help:      "Transaction pipeline transitions by method and stage",
	}, []string{"method", "stage"})
	simulationFailures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "vibes",
		Name:      "tx_simulation_failures_total",
		Help:      "Transactions rejected during simulation",
	}, []string{"method"})
	durationHistogram := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "vibes",
		Name:      "tx_duration_seconds",
		Help:      "Time from build to final stage",
		Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
	}, []string{"method", "stage"})

	if reg != nil {
		reg.MustRegister(stageCounter, simulationFailures, durationHistogram)
	}

	return &Metrics{
		stageCounter:       stageCounter,
		simulationFailures: simulationFailures,
		durationHistogram:  durationHistogram,
	}
}

func (m *Metrics) observeStage(method string, stage Stage) {
	m.stageCounter.WithLabelValues(method, string(stage)).Inc()
	if stage == StageSimulationFailed {
		m.simulationFailures.WithLabelValues(method).Inc()
	}
}

// TrackTransaction records the pipeline duration under its final stage.
func (m *Metrics) TrackTransaction(method string, stage Stage, start time.Time) {
	m.durationHistogram.WithLabelValues(method, string(stage)).Observe(time.Since(start).Seconds())
}
