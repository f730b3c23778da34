package worker

import (
	"strconv"
	"time"

	"github.com/jzx17/shardpool/pkg/types"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors updated by a pool.
// A nil *Metrics disables collection.
type Metrics struct {
	ItemsSubmitted prometheus.Counter
	ItemsDropped   prometheus.Counter
	ItemsProcessed prometheus.Counter
	ItemsFailed    *prometheus.CounterVec
	ActiveWorkers  prometheus.Gauge
	ShardDepth     *prometheus.GaugeVec
	ItemLatency    prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(namespace, subsystem string, reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	m := &Metrics{
		ItemsSubmitted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_submitted_total",
			Help:      "Items accepted by the pool.",
		}),
		ItemsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_dropped_total",
			Help:      "Items rejected because stop was requested.",
		}),
		ItemsProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_processed_total",
			Help:      "Items processed without failure.",
		}),
		ItemsFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "items_failed_total",
			Help:      "Items whose processor failed, by failure class.",
		}, []string{"class"}),
		ActiveWorkers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "active_workers",
			Help:      "Workers currently running the processor.",
		}),
		ShardDepth: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "shard_depth",
			Help:      "Items queued per shard.",
		}, []string{"shard"}),
		ItemLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "item_latency_seconds",
			Help:      "Processor execution time.",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	reg.MustRegister(
		m.ItemsSubmitted,
		m.ItemsDropped,
		m.ItemsProcessed,
		m.ItemsFailed,
		m.ActiveWorkers,
		m.ShardDepth,
		m.ItemLatency,
	)
	return m
}

// shardGauges resolves the per-shard depth gauges once
func (m *Metrics) shardGauges(shards int) []prometheus.Gauge {
	if m == nil {
		return nil
	}
	gauges := make([]prometheus.Gauge, shards)
	for i := range gauges {
		gauges[i] = m.ShardDepth.WithLabelValues(strconv.Itoa(i))
	}
	return gauges
}

func (m *Metrics) submitted() {
	if m != nil {
		m.ItemsSubmitted.Inc()
	}
}

func (m *Metrics) dropped() {
	if m != nil {
		m.ItemsDropped.Inc()
	}
}

func (m *Metrics) started() {
	if m != nil {
		m.ActiveWorkers.Inc()
	}
}

func (m *Metrics) finished(elapsed time.Duration, err error, class types.FailureClass) {
	if m == nil {
		return
	}
	m.ActiveWorkers.Dec()
	m.ItemLatency.Observe(elapsed.Seconds())
	if err != nil {
		m.ItemsFailed.WithLabelValues(class.String()).Inc()
	} else {
		m.ItemsProcessed.Inc()
	}
}
