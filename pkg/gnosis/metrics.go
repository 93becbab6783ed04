package gnosis

// metrics.go mirrors the teacher's metrics abstraction: a metricsSink
// interface with a no-op and a Prometheus implementation, selected at
// construction time depending on whether the caller passed a registry.
//
// ┌──────────────────────────────┬──────┬────────┐
// │ Metric                       │ Type │ Labels │
// ├──────────────────────────────┼──────┼────────┤
// │ gnosis_incl_total            │ Ctr  │ shard  │
// │ gnosis_excl_total            │ Ctr  │ shard  │
// │ gnosis_forget_total          │ Ctr  │ shard  │
// │ gnosis_select_duration_seconds │ Hist │ -    │
// │ gnosis_entities              │ Gge  │ shard  │
// └──────────────────────────────┴──────┴────────┘
//
// gnosis_entities is registered, but nothing in the package calls
// setEntities, so the gauge stays at zero.
//
// © 2025 gnosis authors. MIT License.

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

type metricsSink interface {
	incIncl(shard int)
	incExcl(shard int)
	incForget(shard int)
	observeSelect(seconds float64)
	setEntities(shard int, n int)
}

type noopMetrics struct{}

func (noopMetrics) incIncl(int)            {}
func (noopMetrics) incExcl(int)            {}
func (noopMetrics) incForget(int)          {}
func (noopMetrics) observeSelect(float64)  {}
func (noopMetrics) setEntities(int, int)   {}

type promMetrics struct {
	incl     *prometheus.CounterVec
	excl     *prometheus.CounterVec
	forget   *prometheus.CounterVec
	selectD  prometheus.Histogram
	entities *prometheus.GaugeVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"shard"}
	pm := &promMetrics{
		incl: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gnosis", Name: "incl_total", Help: "Number of Incl calls.",
		}, label),
		excl: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gnosis", Name: "excl_total", Help: "Number of Excl calls.",
		}, label),
		forget: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gnosis", Name: "forget_total", Help: "Number of Forget calls.",
		}, label),
		selectD: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "gnosis", Name: "select_duration_seconds", Help: "Select round-trip latency.",
			Buckets: prometheus.DefBuckets,
		}),
		entities: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gnosis", Name: "entities", Help: "Live entities per shard.",
		}, label),
	}
	reg.MustRegister(pm.incl, pm.excl, pm.forget, pm.selectD, pm.entities)
	return pm
}

func (m *promMetrics) incIncl(shard int)   { m.incl.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incExcl(shard int)   { m.excl.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) incForget(shard int) { m.forget.WithLabelValues(strconv.Itoa(shard)).Inc() }
func (m *promMetrics) observeSelect(seconds float64) { m.selectD.Observe(seconds) }
func (m *promMetrics) setEntities(shard int, n int) {
	m.entities.WithLabelValues(strconv.Itoa(shard)).Set(float64(n))
}

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
