package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "rangesearch"

var (
	EntryCalls = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "entry_calls_total",
			Help:      "Entry function invocations by search variant and outcome",
		},
		[]string{"variant", "status"},
	)

	CallDepth = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "call_depth",
			Help:      "Deepest search frame reached per entry invocation",
			Buckets:   []float64{1, 2, 4, 8, 16, 32, 64, 128, 256, 512, 1024},
		},
		[]string{"variant"},
	)

	ComputeUnits = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_units",
			Help:      "Compute units consumed per entry invocation",
			Buckets:   prometheus.ExponentialBuckets(5, 2, 14),
		},
		[]string{"variant"},
	)
)

// Register adds all collectors to r.
func Register(r prometheus.Registerer) {
	r.MustRegister(EntryCalls)
	r.MustRegister(CallDepth)
	r.MustRegister(ComputeUnits)
}
