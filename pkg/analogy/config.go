package analogy

// config.go mirrors the teacher's pkg/config.go shape: a private config
// struct populated by defaultConfig and mutated by functional Options,
// validated before use.
//
// © 2025 gnosis authors. MIT License.

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

var (
	errInvalidThreads        = errors.New("analogy: threads must be positive")
	errInvalidCandidateLimit = errors.New("analogy: candidate limit must be positive")
)

type config struct {
	threads        int
	candidateLimit int
	registry       *prometheus.Registry
	logger         *zap.Logger
}

func defaultConfig() *config {
	return &config{
		threads:        3,
		candidateLimit: 4096,
		logger:         zap.NewNop(),
	}
}

// Option configures an Analogy at construction time.
type Option func(*config)

// WithThreads sets the worker-pool size used by Run, defaulting to 3 (the
// reference implementation's default).
func WithThreads(n int) Option {
	return func(c *config) { c.threads = n }
}

// WithCandidateLimit bounds how many candidates each shard contributes to
// a single pattern variable's candidate set.
func WithCandidateLimit(n int) Option {
	return func(c *config) { c.candidateLimit = n }
}

// WithMetrics installs a Prometheus registry; omit for a no-op sink.
func WithMetrics(reg *prometheus.Registry) Option {
	return func(c *config) { c.registry = reg }
}

// WithLogger installs a structured logger, defaulting to a no-op.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

func applyOptions(cfg *config, opts []Option) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.threads <= 0 {
		return errInvalidThreads
	}
	if cfg.candidateLimit <= 0 {
		return errInvalidCandidateLimit
	}
	return nil
}
