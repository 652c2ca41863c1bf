// Package metrics exposes Prometheus instrumentation for graph execution.
// Collector implements the executor's Recorder hook; register it with any
// prometheus.Registerer and attach it via graph.ExecutorOptions.Recorder.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records node and run level execution measurements.
type Collector struct {
	nodeRuns     *prometheus.CounterVec
	nodeDuration *prometheus.HistogramVec
	runs         *prometheus.CounterVec
	runSteps     prometheus.Histogram
	runDuration  prometheus.Histogram
}

// NewCollector creates a Collector and registers its metrics with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		nodeRuns: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "convograph",
			Name:      "node_runs_total",
			Help:      "Node invocations by node name and outcome.",
		}, []string{"node", "outcome"}),
		nodeDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "convograph",
			Name:      "node_duration_seconds",
			Help:      "Node invocation latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"node"}),
		runs: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "convograph",
			Name:      "runs_total",
			Help:      "Graph runs by outcome.",
		}, []string{"outcome"}),
		runSteps: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "convograph",
			Name:      "run_steps",
			Help:      "Node visits per graph run.",
			Buckets:   []float64{1, 2, 3, 4, 5, 8, 13, 21},
		}),
		runDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "convograph",
			Name:      "run_duration_seconds",
			Help:      "End-to-end graph run latency.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
}

// RecordNode implements graph.Recorder.
func (c *Collector) RecordNode(node string, d time.Duration, failed bool) {
	outcome := "ok"
	if failed {
		outcome = "failed"
	}
	c.nodeRuns.WithLabelValues(node, outcome).Inc()
	c.nodeDuration.WithLabelValues(node).Observe(d.Seconds())
}

// RecordRun implements graph.Recorder.
func (c *Collector) RecordRun(d time.Duration, steps int, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	c.runs.WithLabelValues(outcome).Inc()
	c.runSteps.Observe(float64(steps))
	c.runDuration.Observe(d.Seconds())
}
