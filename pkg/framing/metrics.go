package framing

// metrics.go mirrors pkg/gnosis/metrics.go's shape: a narrow sink
// interface with a no-op and a Prometheus implementation, selected by
// whether a registry was supplied.
//
// © 2025 gnosis authors. MIT License.

import "github.com/prometheus/client_golang/prometheus"

type metricsSink interface {
	incSent(role string)
	incReceived(role string)
	incAckTimeout(role string)
}

type noopMetrics struct{}

func (noopMetrics) incSent(string)       {}
func (noopMetrics) incReceived(string)   {}
func (noopMetrics) incAckTimeout(string) {}

type promMetrics struct {
	sent       *prometheus.CounterVec
	received   *prometheus.CounterVec
	ackTimeout *prometheus.CounterVec
}

func newPromMetrics(reg *prometheus.Registry) *promMetrics {
	label := []string{"role"}
	pm := &promMetrics{
		sent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framing", Name: "frames_sent_total", Help: "Frames successfully acknowledged.",
		}, label),
		received: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framing", Name: "frames_received_total", Help: "Frames decoded from the socket.",
		}, label),
		ackTimeout: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "framing", Name: "ack_timeouts_total", Help: "Send attempts that timed out waiting for an ack.",
		}, label),
	}
	reg.MustRegister(pm.sent, pm.received, pm.ackTimeout)
	return pm
}

func (m *promMetrics) incSent(role string)       { m.sent.WithLabelValues(role).Inc() }
func (m *promMetrics) incReceived(role string)   { m.received.WithLabelValues(role).Inc() }
func (m *promMetrics) incAckTimeout(role string) { m.ackTimeout.WithLabelValues(role).Inc() }

func newMetricsSink(reg *prometheus.Registry) metricsSink {
	if reg == nil {
		return noopMetrics{}
	}
	return newPromMetrics(reg)
}
