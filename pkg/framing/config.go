package framing

// config.go mirrors the module's other packages: a private config struct
// populated by defaultConfig and mutated by functional Options.
//
// © 2025 gnosis authors. MIT License.

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type config struct {
	registry *prometheus.Registry
	logger   *zap.Logger
}

func defaultConfig() *config {
	return &config{logger: zap.NewNop()}
}

// Option configures an Endpoint or Channel at construction time.
type Option func(*config)

// WithMetrics installs a Prometheus registry; omit for a no-op sink.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger installs a structured logger, defaulting to a no-op.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

func applyOptions(cfg *config, opts []Option) {
	for _, opt := range opts {
		opt(cfg)
	}
}
