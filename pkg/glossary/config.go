package glossary

// config.go mirrors the teacher's pkg/config.go shape: a private config
// struct populated by defaultConfig and mutated by functional Options,
// validated before use.
//
// © 2025 gnosis authors. MIT License.

import (
	"errors"

	"go.uber.org/zap"
)

var errInvalidCapacity = errors.New("glossary: capacity must be positive")

type config struct {
	nameCapacity int
	logger       *zap.Logger
}

func defaultConfig() *config {
	return &config{
		nameCapacity: 64,
		logger:       zap.NewNop(),
	}
}

// Option configures a Glossary at construction time.
type Option func(*config)

// WithNameCapacity bounds how many bytes of a name Let keeps, truncating
// longer names the way the reference implementation's fixed-size LEX
// buffer does.
func WithNameCapacity(n int) Option {
	return func(c *config) { c.nameCapacity = n }
}

// WithLogger installs a structured logger, defaulting to a no-op.
func WithLogger(l *zap.Logger) Option {
	return func(c *config) { c.logger = l }
}

func applyOptions(cfg *config, opts []Option) error {
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.nameCapacity <= 0 {
		return errInvalidCapacity
	}
	return nil
}
