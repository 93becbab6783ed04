package analogy

// metrics.go mirrors pkg/gnosis/metrics.go's shape: a narrow sink
// interface with a no-op and a Prometheus implementation, selected by
// whether a registry was supplied.
//
// © 2025 gnosis authors. MIT License.

import "github.com/prometheus/client_golang/prometheus"

type metricsSink interface {
	incMatches(n int)
	observeCandidates(n int)
}

type noopMetrics struct{}

func (noopMetrics) incMatches(int)        {}
func (noopMetrics) observeCandidates(int) {}

type promMetrics struct {
	matches    prometheus.Counter
	candidates prometheus.Histogram
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	m := &promMetrics{
		matches: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "analogy_matches_total",
			Help: "Total number of pattern matches emitted.",
		}),
		candidates: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "analogy_candidates",
			Help:    "Per-variable candidate-set size at plan time.",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}),
	}
	reg.MustRegister(m.matches, m.candidates)
	return m
}

func (m *promMetrics) incMatches(n int)        { m.matches.Add(float64(n)) }
func (m *promMetrics) observeCandidates(n int) { m.candidates.Observe(float64(n)) }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
